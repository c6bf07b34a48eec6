// Mask Creator: paint per-pixel class labels over a directory of images

package main

import (
	"errors"
	"fmt"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"mask-creator/internal/config"
	"mask-creator/internal/gui"
	"mask-creator/internal/io"
)

const (
	AppName    = "Mask Creator"
	AppID      = "com.maskcreator.app"
	AppVersion = "1.0.0"
)

// Process exit codes
const (
	exitConfig     = 1
	exitNoImages   = 2
	exitNoLoadable = 3
)

// exitError carries the process exit code of a failed run
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var coder *exitError
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(exitConfig)
	}
}

func run(args []string) error {
	var (
		configPath     string
		writeConfig    string
		inputDir       string
		extension      string
		labelCount     int
		displaySize    int
		showBackground bool
		watch          bool
		debugMode      bool
	)

	flagSet := pflag.NewFlagSet("mask-creator", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML configuration file")
	flagSet.StringVar(&writeConfig, "write-config", "", "write the effective configuration to this path and exit")
	flagSet.StringVar(&inputDir, "input-dir", "", "directory of images to annotate")
	flagSet.StringVar(&extension, "extension", "", "extension of the images to annotate (e.g. .tif)")
	flagSet.IntVar(&labelCount, "label-count", 0, "number of label ids, background included")
	flagSet.IntVar(&displaySize, "display-size", 0, "side of the square image display area in pixels")
	flagSet.BoolVar(&showBackground, "show-background", false, "tint background pixels when viewing the mask")
	flagSet.BoolVar(&watch, "watch", false, "pick up images added to the input directory while running")
	flagSet.BoolVar(&debugMode, "debug", false, "enable debug mode with verbose logging")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return &exitError{code: exitConfig, err: err}
	}
	if args := flagSet.Args(); len(args) > 0 {
		return &exitError{code: exitConfig, err: fmt.Errorf("unexpected argument: %s", args[0])}
	}

	logger := initLogger(debugMode)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	if flagSet.Changed("input-dir") {
		cfg.InputDir = inputDir
	}
	if flagSet.Changed("extension") {
		cfg.Extension = config.NormalizeExtension(extension)
	}
	if flagSet.Changed("label-count") {
		cfg.LabelCount = labelCount
	}
	if flagSet.Changed("display-size") {
		cfg.Display.Width = displaySize
		cfg.Display.Height = displaySize
	}
	if flagSet.Changed("show-background") {
		cfg.ShowBackgroundLabel = showBackground
	}
	if flagSet.Changed("watch") {
		cfg.WatchInputDir = watch
	}
	// Written unvalidated: a starter file is meant to be edited.
	if writeConfig != "" {
		if err := config.SaveConfig(cfg, writeConfig); err != nil {
			return &exitError{code: exitConfig, err: err}
		}
		logger.WithField("path", writeConfig).Info("Configuration written")
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return &exitError{code: exitConfig, err: err}
	}

	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": debugMode,
		"input_dir":  cfg.InputDir,
		"extension":  cfg.Extension,
		"labels":     cfg.LabelCount,
		"channels":   cfg.Channels,
	}).Info("Starting " + AppName)

	images, err := io.ScanImageSet(cfg.InputDir, cfg.Extension)
	if err != nil {
		if errors.Is(err, io.ErrNoImages) {
			return &exitError{code: exitNoImages, err: err}
		}
		return &exitError{code: exitConfig, err: err}
	}
	logger.WithField("count", images.Len()).Info("Images found")

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.DocumentIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	mainApp, err := gui.NewApplication(myApp, cfg, images, logger)
	if err != nil {
		if errors.Is(err, gui.ErrNoLoadableImage) {
			return &exitError{code: exitNoLoadable, err: err}
		}
		return &exitError{code: exitConfig, err: err}
	}
	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
	return nil
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
