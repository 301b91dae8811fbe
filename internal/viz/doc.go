// Package viz is the terminal frontend. It draws the network into a braille
// canvas through the session camera and drives the session from a Bubble Tea
// tick loop.
//
// # Key Bindings
//
//	W/S/A/D/Q/E - Move camera
//	I/J/K/L     - Look around (or drag with the mouse)
//	Space       - Pause/Resume
//	Left/Right  - Step backward/forward
//	=/-         - Speed up/down
//	1-5         - Run an experiment
//	Enter       - Type a prompt
//	G           - Toggle GIF recording
//	T           - Cycle color themes
//	H           - Help overlay
//	Esc         - Quit
//
// # Recording
//
// GIF recordings are written to <data dir>/recordings.
package viz
