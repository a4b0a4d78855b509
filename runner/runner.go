// Package runner executes external programs such as cordova and the project's
// package manager.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/louiss0/ionic-emulate-delegator/custom_errors"
)

// CommandRunner allows for mocking command execution in tests.
// **Remember:** always use the `Command()` before using the `Run()`
type CommandRunner interface {
	// Command prepares the program to run; ctx cancels it once started.
	Command(ctx context.Context, name string, args ...string)
	// Run executes the prepared command with the terminal's stdio attached.
	Run() error
	// StartUntil starts the prepared command and returns once its stdout
	// contains marker or it exits. A command that is still running keeps
	// running until its context is cancelled.
	StartUntil(marker string) error
	// SetOutput redirects the command's stdout and stderr.
	SetOutput(stdout, stderr io.Writer)
	SetTargetDir(dir string) error
}

// ExecCommandFunc matches exec.CommandContext.
type ExecCommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

type commandRunner struct {
	execCommandFunc ExecCommandFunc
	cmd             *exec.Cmd
	ctx             context.Context
	targetDir       string
	stdout          io.Writer
	stderr          io.Writer
}

// New returns a CommandRunner that builds its commands with execCommandFunc.
func New(execCommandFunc ExecCommandFunc) CommandRunner {
	return &commandRunner{
		execCommandFunc: execCommandFunc,
	}
}

func (e *commandRunner) Command(ctx context.Context, name string, args ...string) {
	e.ctx = ctx
	e.cmd = e.execCommandFunc(ctx, name, args...)
	e.cmd.Stdin = os.Stdin
	e.cmd.Stdout = os.Stdout
	e.cmd.Stderr = os.Stderr
	if e.stdout != nil {
		e.cmd.Stdout = e.stdout
	}
	if e.stderr != nil {
		e.cmd.Stderr = e.stderr
	}

	if e.targetDir != "" {
		e.cmd.Dir = e.targetDir
	}
}

func (e *commandRunner) SetOutput(stdout, stderr io.Writer) {
	e.stdout = stdout
	e.stderr = stderr

	if e.cmd != nil {
		e.cmd.Stdout = stdout
		e.cmd.Stderr = stderr
	}
}

func (e *commandRunner) SetTargetDir(dir string) error {
	fileInfo, err := os.Stat(dir)
	if err != nil {
		return err
	}

	if !fileInfo.IsDir() {
		return fmt.Errorf("target directory %s is not a directory", dir)
	}

	e.targetDir = dir

	if e.cmd != nil {
		e.cmd.Dir = dir
	}
	return nil
}

// Run executes the command. A command stopped by its context or by a signal
// returns a silent error.
func (e *commandRunner) Run() error {
	if e.cmd == nil {
		return fmt.Errorf("no command set to run")
	}

	commandLine := strings.Join(e.cmd.Args, " ")
	log.Debug("Executing command:", "command", commandLine, "dir", e.cmd.Dir)

	return e.classify(commandLine, e.cmd.Run())
}

// StartUntil tees the command's stdout and returns as soon as marker shows up
// in it. A command that exits first returns what Run would have returned.
func (e *commandRunner) StartUntil(marker string) error {
	if e.cmd == nil {
		return fmt.Errorf("no command set to run")
	}

	commandLine := strings.Join(e.cmd.Args, " ")
	log.Debug("Starting command:", "command", commandLine, "dir", e.cmd.Dir, "until", marker)

	watcher := newMarkerWriter(e.cmd.Stdout, marker)
	e.cmd.Stdout = watcher

	if err := e.cmd.Start(); err != nil {
		return e.classify(commandLine, err)
	}

	exited := make(chan error, 1)
	go func() {
		exited <- e.cmd.Wait()
	}()

	select {
	case <-watcher.ready:
		log.Debug("Command is ready", "command", commandLine)
		return nil
	case err := <-exited:
		select {
		case <-watcher.ready:
			return nil
		default:
		}
		return e.classify(commandLine, err)
	}
}

func (e *commandRunner) classify(commandLine string, err error) error {
	if err == nil {
		return nil
	}

	if e.ctx != nil && e.ctx.Err() != nil {
		return custom_errors.Silence(fmt.Errorf("%s was cancelled: %w", commandLine, err))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == -1 {
		return custom_errors.Silence(fmt.Errorf("%s was interrupted: %w", commandLine, err))
	}

	return fmt.Errorf("%s failed: %w", commandLine, err)
}

// markerWriter forwards everything to out and closes ready once marker has
// been written through it. exec copies stdout from a single goroutine.
type markerWriter struct {
	out    io.Writer
	marker []byte
	tail   []byte
	ready  chan struct{}
	seen   bool
}

func newMarkerWriter(out io.Writer, marker string) *markerWriter {
	if out == nil {
		out = io.Discard
	}
	return &markerWriter{
		out:    out,
		marker: []byte(marker),
		ready:  make(chan struct{}),
	}
}

func (w *markerWriter) Write(p []byte) (int, error) {
	n, err := w.out.Write(p)

	if !w.seen {
		w.tail = append(w.tail, p...)
		if bytes.Contains(w.tail, w.marker) {
			w.seen = true
			w.tail = nil
			close(w.ready)
		} else if keep := len(w.marker) - 1; len(w.tail) > keep {
			w.tail = append([]byte{}, w.tail[len(w.tail)-keep:]...)
		}
	}

	return n, err
}
