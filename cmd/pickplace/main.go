// Package main is the pickplace command: detect red and blue blocks in a
// camera image and drive a Dobot arm to each of them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// EnvLogLevel enables debug logging when set to "debug".
const EnvLogLevel = "PICKPLACE_LOG_LEVEL"

const (
	flagConfig   = "config"
	flagDebug    = "debug"
	flagImage    = "image"
	flagMasks    = "masks"
	flagAnnotate = "annotate"
	flagHost     = "host"
	flagStrict   = "strict"
	flagSimulate = "simulate"
	flagListen   = "listen"
	flagDashPort = "dashboard-port"
	flagMovePort = "motion-port"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var logger *zap.SugaredLogger

	app := &cli.App{
		Name:  "pickplace",
		Usage: "vision-guided pick-and-place for Dobot arms",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
				EnvVars: []string{"PICKPLACE_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			debug := c.Bool(flagDebug) || strings.EqualFold(os.Getenv(EnvLogLevel), "debug")
			l, err := newLogger(debug)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "detect",
				Usage:     "find red and blue objects in an image without moving the robot",
				UsageText: "pickplace detect --image FILE [--masks DIR] [--annotate FILE]",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: flagImage, Aliases: []string{"i"}, Required: true, Usage: "camera image `FILE`"},
					&cli.PathFlag{Name: flagMasks, Usage: "write one PNG mask per color into `DIR`"},
					&cli.PathFlag{Name: flagAnnotate, Usage: "write the image with detections drawn on it to `FILE`"},
				},
				Action: func(c *cli.Context) error {
					return detectAction(c, logger)
				},
			},
			{
				Name:      "run",
				Usage:     "detect objects and move the robot to each one",
				UsageText: "pickplace run --image FILE [--host HOST] [--strict] [--simulate]",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: flagImage, Aliases: []string{"i"}, Required: true, Usage: "camera image `FILE`"},
					&cli.StringFlag{Name: flagHost, Usage: "controller address (overrides the config file)"},
					&cli.BoolFlag{Name: flagStrict, Usage: "stop at the first command the controller rejects"},
					&cli.BoolFlag{Name: flagSimulate, Usage: "target an in-process simulated controller"},
				},
				Action: func(c *cli.Context) error {
					return runAction(c, logger)
				},
			},
			{
				Name:  "simulate",
				Usage: "run a fake controller that acknowledges every command",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagListen, Value: "127.0.0.1", Usage: "listen `ADDR`"},
					&cli.IntFlag{Name: flagDashPort, Value: 29999, Usage: "dashboard `PORT`"},
					&cli.IntFlag{Name: flagMovePort, Value: 30003, Usage: "motion `PORT`"},
				},
				Action: func(c *cli.Context) error {
					return simulateAction(c, logger)
				},
			},
			{
				Name:  "version",
				Usage: "print version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "pickplace %s\n", Version)
					fmt.Fprintf(c.App.Writer, "  Build time: %s\n", BuildTime)
					fmt.Fprintf(c.App.Writer, "  Git commit: %s\n", GitCommit)
					return nil
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "pickplace: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds a console logger on stderr; stdout carries the reports.
func newLogger(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.Development = true
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
