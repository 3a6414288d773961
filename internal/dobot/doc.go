// Package dobot implements a client for the plaintext TCP command protocol
// spoken by Dobot robot controllers.
//
// The controller exposes two channels. The dashboard channel (port 29999)
// takes control and state commands such as EnableRobot() and ClearError();
// the motion channel (port 30003) takes movement commands such as
// MovL(x,y,z,r). Every command is one line terminated by "\n" and is
// answered by one reply of the form
//
//	ErrorID,{values},Command();
//
// Client sends commands and returns the raw reply text. ParseResponse and
// ValidateResponse interpret replies for callers that want to stop on
// controller errors.
package dobot
