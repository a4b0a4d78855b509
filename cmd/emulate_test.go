package cmd_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	"github.com/louiss0/ionic-emulate-delegator/cmd"
	"github.com/louiss0/ionic-emulate-delegator/cordova"
	"github.com/louiss0/ionic-emulate-delegator/custom_errors"
	"github.com/louiss0/ionic-emulate-delegator/detect"
	"github.com/louiss0/ionic-emulate-delegator/testutil"
)

var _ = Describe("Emulate Command", func() {
	assert := assert.New(GinkgoT())

	var (
		dir     string
		factory *testutil.RootCommandFactory
		rootCmd *cobra.Command
	)

	useHost := func(platform string) {
		factory = testutil.NewRootCommandFactory(platform, dir)
		rootCmd = factory.CreateRootCmd()
	}

	installed := func(platform string) {
		factory.Installer.On("IsPlatformInstalled", platform, dir).Return(true)
		factory.Installer.On("ArePluginsInstalled", dir).Return(true)
	}

	noScript := func(task string) {
		factory.Scripts.On("HasIonicScript", task).Return(false, nil)
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		useHost(detect.MACOS)
	})

	AfterEach(func() {
		factory.AssertExpectations(GinkgoT())
	})

	Context("settings", Label("fast", "unit"), func() {
		var emulateCmd *cobra.Command

		BeforeEach(func() {
			found, _, err := rootCmd.Find([]string{cmd.EMULATE})
			assert.NoError(err)
			emulateCmd = found
		})

		It("describes itself", func() {
			assert.Equal("emulate [platform] [flags]", emulateCmd.Use)
			assert.NotEmpty(emulateCmd.Short)
			assert.NotEmpty(emulateCmd.Long)
			assert.True(emulateCmd.DisableFlagParsing)
		})

		DescribeTable("registers its flags",
			func(name, shorthand, flagType string) {
				flag := emulateCmd.Flags().Lookup(name)
				assert.NotNil(flag)
				assert.Equal(shorthand, flag.Shorthand)
				assert.Equal(flagType, flag.Value.Type())
			},
			Entry("consolelogs", "consolelogs", "c", "bool"),
			Entry("serverlogs", "serverlogs", "s", "bool"),
			Entry("debug", "debug", "", "bool"),
			Entry("release", "release", "", "bool"),
			Entry("livereload", "livereload", "l", "bool"),
			Entry("port", "port", "p", "int"),
			Entry("livereload-port", "livereload-port", "r", "int"),
			Entry("address", "address", "", "string"),
		)

		It("prints help without running anything", func() {
			output, err := executeCmd(rootCmd, "emulate", "--help")

			assert.NoError(err)
			assert.Contains(output, "Emulate an Ionic project")
			assert.Contains(output, "--livereload-port")
		})

		It("documents the accepted port range", func() {
			assert.Contains(emulateCmd.Flags().Lookup("port").Usage, "1-65535")
			assert.Contains(emulateCmd.Flags().Lookup("livereload-port").Usage, "1-65535")
		})
	})

	Context("platform selection", Label("unit"), func() {
		It("defaults to ios on macOS", func() {
			installed(detect.IOS)
			noScript(cmd.BUILD_TASK)
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "ios"}, false, cordova.DefaultServe()).Return(nil)

			_, err := executeCmd(rootCmd, "emulate")

			assert.NoError(err)
		})

		It("uses the first positional argument", func() {
			installed(detect.ANDROID)
			noScript(cmd.BUILD_TASK)
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android", "-n"}, false, cordova.DefaultServe()).Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "android", "-n")

			assert.NoError(err)
		})

		It("finds the platform after flags", func() {
			installed(detect.ANDROID)
			noScript(cmd.BUILD_TASK)
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android", "--release"}, false, cordova.DefaultServe()).Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "--release", "android")

			assert.NoError(err)
		})

		It("lower cases the platform", func() {
			installed(detect.ANDROID)
			noScript(cmd.BUILD_TASK)
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android"}, false, cordova.DefaultServe()).Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "Android")

			assert.NoError(err)
		})

		DescribeTable("refuses ios off macOS",
			func(host string, args []string) {
				useHost(host)
				factory.Logger.On("Error", cmd.IOS_REQUIRES_MAC_MESSAGE).Return().Once()

				_, err := executeCmd(rootCmd, append([]string{"emulate"}, args...)...)

				assert.NoError(err)
				factory.Installer.AssertNotCalled(GinkgoT(), "IsPlatformInstalled", tmock.Anything, tmock.Anything)
				factory.Scripts.AssertNotCalled(GinkgoT(), "HasIonicScript", tmock.Anything)
				factory.Executor.AssertNotCalled(GinkgoT(), "ExecCordovaCommand", tmock.Anything, tmock.Anything, tmock.Anything)
				factory.Logger.AssertNumberOfCalls(GinkgoT(), "Error", 1)
			},
			Entry("explicit ios on linux", detect.LINUX, []string{"ios"}),
			Entry("explicit ios on windows", detect.WINDOWS, []string{"ios", "--livereload"}),
			Entry("no platform on linux", detect.LINUX, []string{}),
		)

		It("emulates android off macOS", func() {
			useHost(detect.LINUX)
			installed(detect.ANDROID)
			noScript(cmd.BUILD_TASK)
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android"}, false, cordova.DefaultServe()).Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "android")

			assert.NoError(err)
		})
	})

	Context("installation", Label("unit"), func() {
		BeforeEach(func() {
			noScript(cmd.BUILD_TASK)
		})

		It("installs a missing platform once", func() {
			factory.Installer.On("IsPlatformInstalled", detect.ANDROID, dir).Return(false)
			factory.Installer.On("InstallPlatform", detect.ANDROID).Return(nil).Once()
			factory.Installer.On("ArePluginsInstalled", dir).Return(true)
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android"}, false, cordova.DefaultServe()).Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "android")

			assert.NoError(err)
			factory.Installer.AssertNumberOfCalls(GinkgoT(), "InstallPlatform", 1)
			factory.Installer.AssertNotCalled(GinkgoT(), "InstallPlugins")
		})

		It("installs missing plugins once", func() {
			factory.Installer.On("IsPlatformInstalled", detect.IOS, dir).Return(true)
			factory.Installer.On("ArePluginsInstalled", dir).Return(false)
			factory.Installer.On("InstallPlugins").Return(nil).Once()
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "ios"}, false, cordova.DefaultServe()).Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "ios")

			assert.NoError(err)
			factory.Installer.AssertNotCalled(GinkgoT(), "InstallPlatform", tmock.Anything)
			factory.Installer.AssertNumberOfCalls(GinkgoT(), "InstallPlugins", 1)
		})

		It("skips both installs when everything is present", func() {
			installed(detect.ANDROID)
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android"}, false, cordova.DefaultServe()).Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "android")

			assert.NoError(err)
			factory.Installer.AssertNotCalled(GinkgoT(), "InstallPlatform", tmock.Anything)
			factory.Installer.AssertNotCalled(GinkgoT(), "InstallPlugins")
		})
	})

	Context("build script", Label("unit"), func() {
		It("runs ionic:build with the arguments after the platform", func() {
			installed(detect.ANDROID)
			factory.Scripts.On("HasIonicScript", cmd.BUILD_TASK).Return(true, nil)
			factory.Scripts.On("RunIonicScript", cmd.BUILD_TASK, []string{"-n", "--release"}).Return(nil).Once()
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android", "-n", "--release"}, false, cordova.DefaultServe()).Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "android", "-n", "--release")

			assert.NoError(err)
		})

		It("runs ionic:build with no arguments", func() {
			installed(detect.IOS)
			factory.Scripts.On("HasIonicScript", cmd.BUILD_TASK).Return(true, nil)
			factory.Scripts.On("RunIonicScript", cmd.BUILD_TASK, []string{}).Return(nil).Once()
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "ios"}, false, cordova.DefaultServe()).Return(nil)

			_, err := executeCmd(rootCmd, "emulate")

			assert.NoError(err)
		})

		It("passes only the arguments after the first two raw tokens", func() {
			installed(detect.IOS)
			factory.Scripts.On("HasIonicScript", cmd.BUILD_TASK).Return(true, nil)
			factory.Scripts.On("RunIonicScript", cmd.BUILD_TASK, []string{}).Return(nil).Once()
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "ios", "-n"}, false, cordova.DefaultServe()).Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "-n")

			assert.NoError(err)
		})

		It("skips the build when there is no script", func() {
			installed(detect.IOS)
			noScript(cmd.BUILD_TASK)
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "ios"}, false, cordova.DefaultServe()).Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "ios")

			assert.NoError(err)
			factory.Scripts.AssertNotCalled(GinkgoT(), "RunIonicScript", tmock.Anything, tmock.Anything)
		})
	})

	Context("cordova arguments", Label("unit"), func() {
		It("forwards unknown flags and drops ionic ones", func() {
			installed(detect.ANDROID)
			noScript(cmd.BUILD_TASK)
			factory.Executor.On("ExecCordovaCommand",
				[]string{"emulate", "android", "--release", "--target=Pixel_5", "--device"},
				false,
				cordova.DefaultServe(),
			).Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "android", "--release", "--target=Pixel_5", "-p", "8200", "--device", "-c")

			assert.NoError(err)
		})

		It("drops attached and combined ionic shorthands", func() {
			installed(detect.ANDROID)
			noScript(cmd.BUILD_TASK)
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android", "--device"}, false, cordova.DefaultServe()).
				Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "android", "-p8200", "-cs", "--device")

			assert.NoError(err)
		})

		It("reports invalid ionic flag values before running", func() {
			_, err := executeCmd(rootCmd, "emulate", "android", "--port", "http")

			assert.ErrorContains(err, "port must be an integer between 1 and 65535")
			factory.Installer.AssertNotCalled(GinkgoT(), "IsPlatformInstalled", tmock.Anything, tmock.Anything)
		})
	})

	Context("live reload", Label("unit"), func() {
		defaultServeArgs := []string{
			"--runLivereload", "--isPlatformServe", "--livereload",
			"--port", "8100",
			"--livereload-port", "35729",
			"--address", "0.0.0.0",
			"--iscordovaserve", "--nobrowser",
		}

		liveReloadOptions := cordova.LiveReloadOptions{
			Address:        "192.168.1.20",
			Port:           8100,
			LiveReloadPort: 35729,
			DevServer:      "http://192.168.1.20:8100",
		}

		BeforeEach(func() {
			installed(detect.ANDROID)
			noScript(cmd.BUILD_TASK)
		})

		It("runs ionic:serve and hands the live reload options to cordova", func() {
			factory.Scripts.On("HasIonicScript", cmd.SERVE_TASK).Return(true, nil)
			factory.Scripts.On("RunIonicScript", cmd.SERVE_TASK, defaultServeArgs).Return(nil).Once()
			factory.LiveReloader.On("SetupLiveReload", tmock.Anything, cordova.Options{Platform: detect.ANDROID, LiveReload: true}, dir).
				Return(liveReloadOptions, nil).Once()
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android"}, true, cordova.LiveReloadServe(liveReloadOptions)).
				Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "android", "--livereload")

			assert.NoError(err)
		})

		It("passes the dev server flags to serve and setup", func() {
			parsed := cordova.Options{
				Platform:       detect.ANDROID,
				LiveReload:     true,
				Port:           8200,
				LiveReloadPort: 35800,
				Address:        "10.0.0.5",
				ConsoleLogs:    true,
				ServerLogs:     true,
			}
			factory.Scripts.On("HasIonicScript", cmd.SERVE_TASK).Return(true, nil)
			factory.Scripts.On("RunIonicScript", cmd.SERVE_TASK, []string{
				"--runLivereload", "--isPlatformServe", "--livereload",
				"--port", "8200",
				"--livereload-port", "35800",
				"--address", "10.0.0.5",
				"--iscordovaserve", "--nobrowser",
			}).Return(nil).Once()
			factory.LiveReloader.On("SetupLiveReload", tmock.Anything, parsed, dir).Return(liveReloadOptions, nil).Once()
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android", "--release"}, true, cordova.LiveReloadServe(liveReloadOptions)).
				Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "android", "-l", "-p", "8200", "--livereload-port=35800", "--address", "10.0.0.5", "-c", "-s", "--release")

			assert.NoError(err)
		})

		It("uses the configured serve defaults", func() {
			factory.Config.DefaultPort = 9000
			factory.Config.DefaultAddress = "localhost"
			factory.Scripts.On("HasIonicScript", cmd.SERVE_TASK).Return(true, nil)
			factory.Scripts.On("RunIonicScript", cmd.SERVE_TASK, []string{
				"--runLivereload", "--isPlatformServe", "--livereload",
				"--port", "9000",
				"--livereload-port", "35729",
				"--address", "localhost",
				"--iscordovaserve", "--nobrowser",
			}).Return(nil).Once()
			factory.LiveReloader.On("SetupLiveReload", tmock.Anything, cordova.Options{Platform: detect.ANDROID, LiveReload: true}, dir).
				Return(liveReloadOptions, nil)
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android"}, true, cordova.LiveReloadServe(liveReloadOptions)).
				Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "android", "--livereload")

			assert.NoError(err)
		})

		It("sets up live reload without a serve script", func() {
			noScript(cmd.SERVE_TASK)
			factory.LiveReloader.On("SetupLiveReload", tmock.Anything, cordova.Options{Platform: detect.ANDROID, LiveReload: true}, dir).
				Return(liveReloadOptions, nil).Once()
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android"}, true, cordova.LiveReloadServe(liveReloadOptions)).
				Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "android", "--livereload")

			assert.NoError(err)
			factory.Scripts.AssertNotCalled(GinkgoT(), "RunIonicScript", cmd.SERVE_TASK, tmock.Anything)
		})

		It("runs the serve script and the setup at the same time", func() {
			serveStarted := make(chan struct{})
			setupStarted := make(chan struct{})
			var serveSawSetup, setupSawServe bool

			factory.Scripts.On("HasIonicScript", cmd.SERVE_TASK).Return(true, nil)
			factory.Scripts.On("RunIonicScript", cmd.SERVE_TASK, defaultServeArgs).Run(func(tmock.Arguments) {
				close(serveStarted)
				select {
				case <-setupStarted:
					serveSawSetup = true
				case <-time.After(2 * time.Second):
				}
			}).Return(nil)
			factory.LiveReloader.On("SetupLiveReload", tmock.Anything, tmock.Anything, dir).Run(func(tmock.Arguments) {
				close(setupStarted)
				select {
				case <-serveStarted:
					setupSawServe = true
				case <-time.After(2 * time.Second):
				}
			}).Return(liveReloadOptions, nil)
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android"}, true, cordova.LiveReloadServe(liveReloadOptions)).
				Return(nil)

			_, err := executeCmd(rootCmd, "emulate", "android", "--livereload")

			assert.NoError(err)
			assert.True(serveSawSetup)
			assert.True(setupSawServe)
		})

		It("cancels the setup when the serve script fails and logs the serve error once", func() {
			serveErr := errors.New("failed to run the ionic:serve script: exit status 1")
			setupCancelled := false

			factory.Scripts.On("HasIonicScript", cmd.SERVE_TASK).Return(true, nil)
			factory.Scripts.On("RunIonicScript", cmd.SERVE_TASK, defaultServeArgs).Return(serveErr).Once()
			factory.LiveReloader.On("SetupLiveReload", tmock.Anything, tmock.Anything, dir).Run(func(args tmock.Arguments) {
				select {
				case <-args.Get(0).(context.Context).Done():
					setupCancelled = true
				case <-time.After(2 * time.Second):
				}
			}).Return(cordova.LiveReloadOptions{}, custom_errors.Silence(context.Canceled))
			factory.Logger.On("Error", serveErr).Return().Once()

			_, err := executeCmd(rootCmd, "emulate", "android", "--livereload")

			assert.NoError(err)
			assert.True(setupCancelled)
			factory.Logger.AssertNumberOfCalls(GinkgoT(), "Error", 1)
			factory.Executor.AssertNotCalled(GinkgoT(), "ExecCordovaCommand", tmock.Anything, tmock.Anything, tmock.Anything)
		})

		It("logs the real failure when the other side stopped silently first", func() {
			serveErr := errors.New("failed to run the ionic:serve script: exit status 1")

			factory.Scripts.On("HasIonicScript", cmd.SERVE_TASK).Return(true, nil)
			factory.Scripts.On("RunIonicScript", cmd.SERVE_TASK, defaultServeArgs).
				After(100 * time.Millisecond).Return(serveErr).Once()
			factory.LiveReloader.On("SetupLiveReload", tmock.Anything, tmock.Anything, dir).
				Return(cordova.LiveReloadOptions{}, custom_errors.Silence(context.Canceled))
			factory.Logger.On("Error", serveErr).Return().Once()

			_, err := executeCmd(rootCmd, "emulate", "android", "--livereload")

			assert.NoError(err)
			factory.Logger.AssertNumberOfCalls(GinkgoT(), "Error", 1)
		})

		It("logs a failed setup and skips cordova", func() {
			setupErr := errors.New("failed to point config.xml at the dev server")
			noScript(cmd.SERVE_TASK)
			factory.LiveReloader.On("SetupLiveReload", tmock.Anything, tmock.Anything, dir).Return(cordova.LiveReloadOptions{}, setupErr)
			factory.Logger.On("Error", setupErr).Return().Once()

			_, err := executeCmd(rootCmd, "emulate", "android", "--livereload")

			assert.NoError(err)
			factory.Executor.AssertNotCalled(GinkgoT(), "ExecCordovaCommand", tmock.Anything, tmock.Anything, tmock.Anything)
		})
	})

	Context("failures", Label("unit"), func() {
		It("logs an install failure once and stops", func() {
			installErr := errors.New("failed to add the android platform")
			factory.Installer.On("IsPlatformInstalled", detect.ANDROID, dir).Return(false)
			factory.Installer.On("InstallPlatform", detect.ANDROID).Return(installErr)
			factory.Logger.On("Error", installErr).Return().Once()

			_, err := executeCmd(rootCmd, "emulate", "android")

			assert.NoError(err)
			factory.Logger.AssertNumberOfCalls(GinkgoT(), "Error", 1)
			factory.Installer.AssertNotCalled(GinkgoT(), "ArePluginsInstalled", tmock.Anything)
			factory.Executor.AssertNotCalled(GinkgoT(), "ExecCordovaCommand", tmock.Anything, tmock.Anything, tmock.Anything)
		})

		It("logs a cordova failure once", func() {
			execErr := errors.New("cordova emulate android failed: exit status 1")
			installed(detect.ANDROID)
			noScript(cmd.BUILD_TASK)
			factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android"}, false, cordova.DefaultServe()).Return(execErr)
			factory.Logger.On("Error", execErr).Return().Once()

			_, err := executeCmd(rootCmd, "emulate", "android")

			assert.NoError(err)
		})

		It("logs a script lookup failure", func() {
			lookupErr := errors.New("failed to parse package.json")
			installed(detect.ANDROID)
			factory.Scripts.On("HasIonicScript", cmd.BUILD_TASK).Return(false, lookupErr)
			factory.Logger.On("Error", lookupErr).Return().Once()

			_, err := executeCmd(rootCmd, "emulate", "android")

			assert.NoError(err)
		})

		DescribeTable("swallows silent failures",
			func(arrange func()) {
				arrange()

				_, err := executeCmd(rootCmd, "emulate", "android")

				assert.NoError(err)
				factory.Logger.AssertNotCalled(GinkgoT(), "Error", tmock.Anything)
			},
			Entry("from the platform install", func() {
				factory.Installer.On("IsPlatformInstalled", detect.ANDROID, dir).Return(false)
				factory.Installer.On("InstallPlatform", detect.ANDROID).Return(custom_errors.Silence(errors.New("interrupted")))
			}),
			Entry("from the plugin install", func() {
				factory.Installer.On("IsPlatformInstalled", detect.ANDROID, dir).Return(true)
				factory.Installer.On("ArePluginsInstalled", dir).Return(false)
				factory.Installer.On("InstallPlugins").Return(custom_errors.Silence(errors.New("interrupted")))
			}),
			Entry("from the build script", func() {
				installed(detect.ANDROID)
				factory.Scripts.On("HasIonicScript", cmd.BUILD_TASK).Return(true, nil)
				factory.Scripts.On("RunIonicScript", cmd.BUILD_TASK, []string{}).Return(custom_errors.Silence(errors.New("signal: interrupt")))
			}),
			Entry("from cordova", func() {
				installed(detect.ANDROID)
				noScript(cmd.BUILD_TASK)
				factory.Executor.On("ExecCordovaCommand", []string{"emulate", "android"}, false, cordova.DefaultServe()).
					Return(custom_errors.Silence(errors.New("signal: interrupt")))
			}),
		)
	})
})
