package dobot

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// DefaultDashboardPort is the controller's control/state command port.
	DefaultDashboardPort = 29999

	// DefaultMotionPort is the controller's motion command port.
	DefaultMotionPort = 30003

	// ReadBufferSize bounds a single response read.
	ReadBufferSize = 1024
)

var (
	// ErrNotOpen is returned by sends on a client that was never opened.
	ErrNotOpen = errors.New("dobot client is not open")

	// ErrClosed is returned by sends on a client that has been closed.
	ErrClosed = errors.New("dobot client is closed")

	// ErrAlreadyOpen is returned by a second call to Open.
	ErrAlreadyOpen = errors.New("dobot client is already open")
)

// Channel names one of the two command connections.
type Channel string

const (
	Dashboard Channel = "dashboard"
	Motion    Channel = "motion"
)

// Dialer opens network connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Exchange is one command and the raw response it received.
type Exchange struct {
	Channel  Channel `json:"channel"`
	Command  string  `json:"command"`
	Response string  `json:"response"`
}

type state int

const (
	unopened state = iota
	ready
	closed
)

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces the default net.Dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithPorts overrides the dashboard and motion ports.
func WithPorts(dashboard, motion int) Option {
	return func(c *Client) {
		c.dashboardPort = dashboard
		c.motionPort = motion
	}
}

// WithTimeout bounds each exchange (write plus read). Zero, the default,
// means an exchange blocks until the peer answers or the connection fails.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for per-exchange debug output.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client speaks the two-channel plaintext command protocol of a Dobot
// controller.
//
// The lifecycle is Open, any number of sends, Close. A Client is meant to
// be owned by a single run and is not reusable: once closed it stays
// closed. It is not safe for concurrent use; the protocol allows at most
// one exchange in flight per channel and the client does not queue.
//
// # Response Framing
//
// Each send performs exactly one Read of at most ReadBufferSize bytes and
// returns whatever arrived. Responses longer than the buffer, or split
// across several TCP segments, are returned truncated; the rest stays in
// the socket and will be read as the start of the next response. The
// controller's replies are short enough that this does not happen in
// practice, but a peer that streams its answers is not supported.
type Client struct {
	dialer        Dialer
	dashboardPort int
	motionPort    int
	timeout       time.Duration
	logger        *zap.SugaredLogger

	state      state
	host       string
	dashboard  net.Conn
	motion     net.Conn
	transcript []Exchange
}

// NewClient returns an unopened client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		dialer:        &net.Dialer{},
		dashboardPort: DefaultDashboardPort,
		motionPort:    DefaultMotionPort,
		logger:        zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open connects both channels to host.
//
// If either connection fails the error is returned and the client stays
// unusable; a channel that did connect is closed before returning. There is
// no retry.
func (c *Client) Open(ctx context.Context, host string) error {
	switch c.state {
	case ready:
		return ErrAlreadyOpen
	case closed:
		return ErrClosed
	}

	dashAddr := net.JoinHostPort(host, strconv.Itoa(c.dashboardPort))
	dashboard, err := c.dialer.DialContext(ctx, "tcp", dashAddr)
	if err != nil {
		return errors.Wrapf(err, "can't connect to dashboard channel (%s)", dashAddr)
	}

	motionAddr := net.JoinHostPort(host, strconv.Itoa(c.motionPort))
	motion, err := c.dialer.DialContext(ctx, "tcp", motionAddr)
	if err != nil {
		return multierr.Combine(
			errors.Wrapf(err, "can't connect to motion channel (%s)", motionAddr),
			closeConn(dashboard),
		)
	}

	c.host = host
	c.dashboard = dashboard
	c.motion = motion
	c.state = ready
	c.logger.Infow("connected to robot", "host", host, "dashboard_port", c.dashboardPort, "motion_port", c.motionPort)
	return nil
}

// SendDashboard sends cmd on the dashboard channel and returns the raw
// response text.
func (c *Client) SendDashboard(cmd string) (string, error) {
	return c.exchange(Dashboard, cmd)
}

// SendMotion sends cmd on the motion channel and returns the raw response
// text.
func (c *Client) SendMotion(cmd string) (string, error) {
	return c.exchange(Motion, cmd)
}

// EnableRobot powers the arm's servos.
func (c *Client) EnableRobot() (string, error) {
	return c.SendDashboard("EnableRobot()")
}

// ClearError clears latched controller alarms.
func (c *Client) ClearError() (string, error) {
	return c.SendDashboard("ClearError()")
}

// MoveLinear moves the tool in a straight line to (x, y, z, r).
func (c *Client) MoveLinear(x, y, z, r float64) (string, error) {
	return c.SendMotion(FormatMovL(x, y, z, r))
}

// FormatMovL renders a MovL command. Values use the shortest decimal form
// that round-trips, without exponent: 10 becomes "10", -100.5 "-100.5".
func FormatMovL(x, y, z, r float64) string {
	return "MovL(" + formatNumber(x) + "," + formatNumber(y) + "," +
		formatNumber(z) + "," + formatNumber(r) + ")"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Transcript returns every exchange performed so far, in order.
func (c *Client) Transcript() []Exchange {
	out := make([]Exchange, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Close closes both channels. Closing an unopened or already closed client
// is a no-op.
func (c *Client) Close() error {
	if c.state != ready {
		return nil
	}
	c.state = closed

	err := multierr.Combine(closeConn(c.dashboard), closeConn(c.motion))
	c.logger.Infow("disconnected from robot", "host", c.host, "exchanges", len(c.transcript))
	return err
}

func (c *Client) exchange(ch Channel, cmd string) (string, error) {
	switch c.state {
	case unopened:
		return "", ErrNotOpen
	case closed:
		return "", ErrClosed
	}

	conn := c.dashboard
	if ch == Motion {
		conn = c.motion
	}

	if c.timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return "", errors.Wrapf(err, "%s channel: failed to set deadline", ch)
		}
	}

	if _, err := conn.Write([]byte(cmd + "\n")); err != nil {
		return "", errors.Wrapf(err, "%s channel: failed to send %q", ch, cmd)
	}

	buf := make([]byte, ReadBufferSize)
	n, err := conn.Read(buf)
	if n == 0 && err != nil {
		return "", errors.Wrapf(err, "%s channel: failed to read response to %q", ch, cmd)
	}
	resp := string(buf[:n])

	c.transcript = append(c.transcript, Exchange{Channel: ch, Command: cmd, Response: resp})
	c.logger.Debugw("command exchanged", "channel", ch, "command", cmd, "response", resp)
	return resp, nil
}

func closeConn(conn net.Conn) error {
	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
