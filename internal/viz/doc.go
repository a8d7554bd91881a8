// Package viz draws a running simulation in the terminal.
//
// The view is a Bubble Tea program: a braille [Canvas] shows a projection
// of the ecliptic with orbit trails, and a side panel lists the epoch,
// speed, live bodies and the energy drift of the watched body.
//
// # Key Bindings
//
//	Space  - pause / resume
//	[ ]    - halve / double speed
//	r      - run time backwards
//	+ -    - zoom
//	x X    - tilt the camera out of the ecliptic
//	Tab    - centre on the next body
//	t      - cycle colour themes
//	?      - help overlay
//
// Without a catalog the [Picker] offers the built-in presets.
package viz
