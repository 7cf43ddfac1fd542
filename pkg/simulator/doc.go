// Package simulator implements a stand-in for the switch controller.
//
// It serves the same HTTP API the operator client talks to (layout, part
// catalog, switch configs, toggle, calibration commit, servo test) so the
// whole stack can run without a Raspberry Pi and a servo board. Servo moves
// go to a [Servo], which by default only logs them.
//
// # Persistence
//
// Switch calibration and the last commanded position live in a [Store]:
//
//	memory              in-process map (default, lost on exit)
//	file:/path/x.json   one JSON document, rewritten atomically
//	redis://host/0      a Redis hash, one field per switch
//	mongodb://host/db   one document per switch
//
// Use [Open] to pick a backend from a DSN.
//
// # Validation
//
// Calibration commits are checked the way the hardware controller checks
// them: the channel must be 0-15 and not used by another switch, and both
// angles must lie in 0-180. Rejections answer 400 with {"message": ...}.
//
// # Layout reload
//
// [Server.Watch] follows a layout file (.json or .bbm) and swaps the served
// layout wholesale whenever it changes. There is no incremental update.
package simulator
