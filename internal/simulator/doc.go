// Package simulator provides an in-process fake robot controller.
//
// A Server listens on a dashboard port and a motion port and answers each
// newline-terminated command with a single reply, either in the
// controller's "ErrorID,{values},Command;" format or as a plain echo. It
// records every command it receives so tests can assert on the exact
// sequence a client produced, and it counts accepted and open connections
// so tests can check that a client released its sockets.
//
// The simulator does not model motion, timing, alarms or any controller
// state; every command succeeds unless an error reply was configured for
// it with WithErrorReply.
package simulator
