// Package pick runs the detect-then-move sequence against a robot.
//
// A Sequencer takes one image, finds the colored objects in it, converts
// each object's pixel position into a workspace pose and drives the robot
// to every pose in turn over a fresh dobot.Client:
//
//	EnableRobot()   dashboard
//	ClearError()    dashboard
//	MovL(x,y,z,r)   motion, once per object, in detection order
//
// The run is single-shot and synchronous. When nothing is detected the
// robot is never contacted.
package pick
