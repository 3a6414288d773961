package dobot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedResponse is wrapped by ValidateResponse when a reply does not
// follow the ErrorID,{values},Command(); layout.
var ErrMalformedResponse = errors.New("malformed response")

// Response is a parsed controller reply.
//
// The controller answers every command with
//
//	ErrorID,{values},Command();
//
// for example "0,{},EnableRobot();". ErrorID 0 means the command was
// accepted; any other value is a controller error code.
type Response struct {
	ErrorID int
	Values  string // contents between the braces, without the braces
	Command string // echoed command, without the trailing ';'
}

// ParseResponse parses a raw reply. Surrounding whitespace, including the
// line delimiter, is ignored. The error id, the braced value list, the
// echoed command and the closing ';' are all required, so a reply cut short
// by a bounded read is reported as malformed.
func ParseResponse(raw string) (Response, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Response{}, errors.Wrap(ErrMalformedResponse, "empty response")
	}

	idText, rest, ok := strings.Cut(s, ",")
	if !ok {
		return Response{}, errors.Wrapf(ErrMalformedResponse, "no error id in %q", s)
	}
	id, err := strconv.Atoi(strings.TrimSpace(idText))
	if err != nil {
		return Response{}, errors.Wrapf(ErrMalformedResponse, "error id %q is not a number", idText)
	}

	if !strings.HasSuffix(rest, ";") {
		return Response{}, errors.Wrapf(ErrMalformedResponse, "missing terminating ';' in %q", s)
	}
	rest = strings.TrimSuffix(rest, ";")

	if !strings.HasPrefix(rest, "{") {
		return Response{}, errors.Wrapf(ErrMalformedResponse, "no value list in %q", s)
	}
	end := strings.Index(rest, "}")
	if end < 0 {
		return Response{}, errors.Wrapf(ErrMalformedResponse, "unterminated value list in %q", s)
	}

	resp := Response{ErrorID: id, Values: rest[1:end]}
	resp.Command = strings.TrimPrefix(rest[end+1:], ",")
	if resp.Command == "" {
		return Response{}, errors.Wrapf(ErrMalformedResponse, "no echoed command in %q", s)
	}
	return resp, nil
}

// CommandError reports a command the controller rejected.
type CommandError struct {
	Command  string
	Response string
	ErrorID  int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("controller rejected %s with error id %d (response %q)",
		e.Command, e.ErrorID, strings.TrimSpace(e.Response))
}

// ValidateResponse checks a reply to command.
//
// It returns nil for a well-formed reply with ErrorID 0, a *CommandError
// for a well-formed reply with a non-zero ErrorID, and an error wrapping
// ErrMalformedResponse when the reply cannot be parsed (including replies
// truncated by the single-read framing).
func ValidateResponse(command, raw string) error {
	resp, err := ParseResponse(raw)
	if err != nil {
		return errors.Wrapf(err, "response to %s", command)
	}
	if resp.ErrorID != 0 {
		return &CommandError{Command: command, Response: raw, ErrorID: resp.ErrorID}
	}
	return nil
}
