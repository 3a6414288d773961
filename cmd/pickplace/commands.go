package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ironsheep/pickplace/internal/config"
	"github.com/ironsheep/pickplace/internal/detection"
	"github.com/ironsheep/pickplace/internal/dobot"
	pimaging "github.com/ironsheep/pickplace/internal/imaging"
	"github.com/ironsheep/pickplace/internal/pick"
	"github.com/ironsheep/pickplace/internal/simulator"
	"github.com/ironsheep/pickplace/internal/workspace"
)

var markColors = map[detection.Color]color.NRGBA{
	detection.Red:  {255, 220, 0, 255},
	detection.Blue: {0, 255, 120, 255},
}

// loadImage returns nil when the image cannot be read. A nil image is
// detected as "no objects", which ends the run without touching the robot.
func loadImage(path string, logger *zap.SugaredLogger) image.Image {
	img, info, err := pimaging.Load(path)
	if err != nil {
		logger.Warnw("could not read image, treating as empty", "path", path, "error", err)
		return nil
	}
	logger.Debugw("image loaded", "path", path, "width", info.Width, "height", info.Height,
		"format", info.Format, "bytes", info.FileSizeBytes)
	return img
}

func detectAction(c *cli.Context, logger *zap.SugaredLogger) error {
	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return err
	}

	img := loadImage(c.Path(flagImage), logger)
	result := detection.NewDetector(cfg.Detection, logger).Detect(img)

	out := c.App.Writer
	fmt.Fprintf(out, "Objects detected: %d\n", result.Count)
	if result.Count > 0 {
		fmt.Fprintln(out, detection.Table(result.Detections))
	}

	if img == nil {
		return nil
	}
	if dir := c.Path(flagMasks); dir != "" {
		if err := writeMasks(dir, img, cfg.Detection.Classes); err != nil {
			return err
		}
		logger.Infow("masks written", "dir", dir)
	}
	if path := c.Path(flagAnnotate); path != "" {
		if err := pimaging.SavePNG(path, pimaging.Annotate(img, marksFor(result.Detections))); err != nil {
			return err
		}
		logger.Infow("annotated image written", "path", path)
	}
	return nil
}

func writeMasks(dir string, img image.Image, classes []detection.ColorClass) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create mask directory %q", dir)
	}
	var err error
	for _, cm := range detection.Segment(img, classes) {
		path := filepath.Join(dir, string(cm.Color)+"_mask.png")
		err = multierr.Append(err, pimaging.SavePNG(path, cm.Mask.Image()))
	}
	return err
}

func marksFor(detections []detection.Detection) []pimaging.Mark {
	marks := make([]pimaging.Mark, 0, len(detections))
	for i, d := range detections {
		c, ok := markColors[d.Color]
		if !ok {
			c = color.NRGBA{255, 255, 255, 255}
		}
		marks = append(marks, pimaging.Mark{
			Box:    d.Box,
			Center: d.Centroid,
			Label:  strconv.Itoa(i + 1),
			Color:  c,
		})
	}
	return marks
}

func runAction(c *cli.Context, logger *zap.SugaredLogger) (err error) {
	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return err
	}
	if c.IsSet(flagHost) {
		cfg.Robot.Host = c.String(flagHost)
	}
	if c.IsSet(flagStrict) {
		cfg.Robot.Strict = c.Bool(flagStrict)
	}

	mapper, err := workspace.NewMapper(cfg.Calibration)
	if err != nil {
		return err
	}
	pauses, err := cfg.Robot.Pauses.Durations()
	if err != nil {
		return err
	}
	timeout, err := cfg.Robot.TimeoutDuration()
	if err != nil {
		return err
	}

	host := cfg.Robot.Host
	dashPort, motionPort := cfg.Robot.DashboardPort, cfg.Robot.MotionPort
	if c.Bool(flagSimulate) {
		sim := simulator.New(simulator.WithLogger(logger.Named("simulator")))
		if err := sim.Start("127.0.0.1", 0, 0); err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, sim.Close()) }()
		host, dashPort, motionPort = "127.0.0.1", sim.DashboardPort(), sim.MotionPort()
	}

	seq := pick.NewSequencer(
		detection.NewDetector(cfg.Detection, logger),
		mapper,
		nil,
		pick.WithLogger(logger),
		pick.WithStrict(cfg.Robot.Strict),
		pick.WithPauses(pauses),
		pick.WithClientOptions(dobot.WithPorts(dashPort, motionPort), dobot.WithTimeout(timeout)),
	)

	img := loadImage(c.Path(flagImage), logger)
	report, err := seq.Run(c.Context, img, host)

	out := c.App.Writer
	if report != nil {
		fmt.Fprintf(out, "Objects detected: %d\n", report.Detection.Count)
		if report.NothingFound {
			fmt.Fprintln(out, "No matching objects found, robot not contacted.")
			return err
		}
		fmt.Fprintln(out, detection.Table(report.Detection.Detections))
		fmt.Fprintln(out, report.Table())
		fmt.Fprintf(out, "Moves issued: %d of %d\n", len(report.Moves), report.Detection.Count)
	}
	return err
}

func simulateAction(c *cli.Context, logger *zap.SugaredLogger) error {
	sim := simulator.New(simulator.WithLogger(logger))
	if err := sim.Start(c.String(flagListen), c.Int(flagDashPort), c.Int(flagMovePort)); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Simulated controller on %s (dashboard %d, motion %d). Interrupt to stop.\n",
		c.String(flagListen), sim.DashboardPort(), sim.MotionPort())

	<-c.Context.Done()

	err := sim.Close()
	fmt.Fprintf(c.App.Writer, "Received %d commands over %d connections.\n", len(sim.Commands()), sim.Accepted())
	return err
}
