package pick

import (
	"context"
	"image"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ironsheep/pickplace/internal/detection"
	"github.com/ironsheep/pickplace/internal/dobot"
	"github.com/ironsheep/pickplace/internal/workspace"
)

// Detector finds objects in an image. *detection.Detector satisfies it.
type Detector interface {
	Detect(img image.Image) detection.Result
}

// Mapper converts a pixel position into a robot pose. *workspace.Mapper
// satisfies it.
type Mapper interface {
	ToWorkspace(px image.Point, size image.Point) workspace.Pose
}

// Pauses are waits inserted after each command so the arm can settle.
type Pauses struct {
	AfterEnable time.Duration `json:"after_enable"`
	AfterClear  time.Duration `json:"after_clear"`
	AfterMove   time.Duration `json:"after_move"`
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithStrict makes Run check every controller reply and stop at the first
// rejected or unreadable one.
func WithStrict(strict bool) Option {
	return func(s *Sequencer) { s.strict = strict }
}

// WithLogger sets the logger. It is also handed to the robot client.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Sequencer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces the wall clock used for pauses.
func WithClock(c clock.Clock) Option {
	return func(s *Sequencer) { s.clock = c }
}

// WithPauses sets the waits between commands. The default is no waiting.
func WithPauses(p Pauses) Option {
	return func(s *Sequencer) { s.pauses = p }
}

// WithClientOptions passes options through to every dobot.Client the
// sequencer creates, for example ports or a timeout.
func WithClientOptions(opts ...dobot.Option) Option {
	return func(s *Sequencer) { s.clientOpts = append(s.clientOpts, opts...) }
}

// Sequencer drives one detect-then-move pass per call to Run.
type Sequencer struct {
	detector   Detector
	mapper     Mapper
	dialer     dobot.Dialer
	strict     bool
	pauses     Pauses
	clock      clock.Clock
	logger     *zap.SugaredLogger
	clientOpts []dobot.Option
}

// NewSequencer returns a Sequencer. A nil dialer uses a plain net.Dialer.
func NewSequencer(detector Detector, mapper Mapper, dialer dobot.Dialer, opts ...Option) *Sequencer {
	s := &Sequencer{
		detector: detector,
		mapper:   mapper,
		dialer:   dialer,
		clock:    clock.New(),
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run detects objects in img and, if there are any, connects to the robot
// at host and moves to each one in detection order.
//
// Nothing is dialed when no object is found; the report then has
// NothingFound set and the error is nil. Once connected, the robot is
// enabled, its alarms are cleared and one linear move is issued per
// detection. The connection is closed on every path after a successful
// connect, and a close failure is folded into the returned error.
//
// Without strict mode replies are recorded but never interpreted, so a
// controller that rejects a move does not stop the run. In strict mode Run
// stops at the first rejected or malformed reply, records it, and returns
// the error together with the partial report.
//
// ctx is checked once before connecting and bounds the connect itself;
// commands already under way are not interrupted.
func (s *Sequencer) Run(ctx context.Context, img image.Image, host string) (report *Report, err error) {
	result := s.detector.Detect(img)
	report = &Report{Detection: result}

	if result.Count == 0 {
		report.NothingFound = true
		s.logger.Infow("no objects found, robot left untouched")
		return report, nil
	}
	s.logger.Infow("objects found", "count", result.Count, "width", result.Size.X, "height", result.Size.Y)

	if err := ctx.Err(); err != nil {
		return report, errors.Wrap(err, "pick run not started")
	}

	opts := append([]dobot.Option{dobot.WithLogger(s.logger)}, s.clientOpts...)
	if s.dialer != nil {
		opts = append(opts, dobot.WithDialer(s.dialer))
	}
	client := dobot.NewClient(opts...)
	if err := client.Open(ctx, host); err != nil {
		return report, errors.Wrap(err, "failed to connect to robot")
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			err = multierr.Append(err, errors.Wrap(closeErr, "failed to close robot connection"))
		}
	}()

	report.EnableResponse, err = s.command("EnableRobot()", client.EnableRobot)
	if err != nil {
		return report, err
	}
	s.pause(s.pauses.AfterEnable)

	report.ClearResponse, err = s.command("ClearError()", client.ClearError)
	if err != nil {
		return report, err
	}
	s.pause(s.pauses.AfterClear)

	for i, d := range result.Detections {
		pose := s.mapper.ToWorkspace(d.Centroid, result.Size)
		s.logger.Infow("moving to object",
			"index", i+1, "color", d.Color, "shape", d.Shape,
			"pixel", d.Centroid.String(), "pose", pose.String())

		cmd := dobot.FormatMovL(pose.X, pose.Y, pose.Z, pose.R)
		resp, err := s.command(cmd, func() (string, error) {
			return client.MoveLinear(pose.X, pose.Y, pose.Z, pose.R)
		})
		if resp != "" {
			report.Moves = append(report.Moves, Outcome{Detection: d, Pose: pose, Response: resp})
		}
		if err != nil {
			return report, errors.Wrapf(err, "move %d of %d", i+1, result.Count)
		}
		s.pause(s.pauses.AfterMove)
	}

	return report, nil
}

// command performs one exchange. The raw reply is returned even when strict
// checking rejects it.
func (s *Sequencer) command(name string, send func() (string, error)) (string, error) {
	resp, err := send()
	if err != nil {
		return "", err
	}
	if s.strict {
		if err := dobot.ValidateResponse(name, resp); err != nil {
			s.logger.Errorw("controller reply rejected", "command", name, "response", resp, "error", err)
			return resp, err
		}
	}
	return resp, nil
}

func (s *Sequencer) pause(d time.Duration) {
	if d > 0 {
		s.clock.Sleep(d)
	}
}
