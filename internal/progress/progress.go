// Package progress shows a spinner while long running installs are in flight.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

// Reporter announces the start and end of a long running step.
type Reporter interface {
	Start(msg string)
	Stop(ok bool)
	// Animated reports whether the reporter redraws the terminal while a step
	// runs, so nothing else should write to it in the meantime.
	Animated() bool
}

// NewReporter returns a spinner when stderr is a terminal and a plain log line otherwise.
func NewReporter() Reporter {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return NewSpinnerReporter(os.Stderr)
	}
	return NewLineReporter(os.Stderr)
}

type spinnerReporter struct {
	spinner *spinner.Spinner
	msg     string
}

func NewSpinnerReporter(w io.Writer) Reporter {
	return &spinnerReporter{
		spinner: spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w)),
	}
}

func (s *spinnerReporter) Start(msg string) {
	s.msg = msg
	s.spinner.Suffix = " " + msg
	s.spinner.FinalMSG = ""
	s.spinner.Start()
}

func (s *spinnerReporter) Animated() bool { return true }

func (s *spinnerReporter) Stop(ok bool) {
	if ok {
		s.spinner.FinalMSG = fmt.Sprintf("✓ %s\n", s.msg)
	} else {
		s.spinner.FinalMSG = fmt.Sprintf("✗ %s\n", s.msg)
	}
	s.spinner.Stop()
}

type lineReporter struct {
	logger *log.Logger
	msg    string
}

func NewLineReporter(w io.Writer) Reporter {
	return &lineReporter{logger: log.New(w)}
}

func (l *lineReporter) Start(msg string) {
	l.msg = msg
	l.logger.Info(msg)
}

func (l *lineReporter) Animated() bool { return false }

func (l *lineReporter) Stop(ok bool) {
	if ok {
		l.logger.Info("Done", "step", l.msg)
		return
	}
	l.logger.Warn("Failed", "step", l.msg)
}

// Noop discards every report.
type Noop struct{}

func (Noop) Start(string)   {}
func (Noop) Stop(bool)      {}
func (Noop) Animated() bool { return false }
