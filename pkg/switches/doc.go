// Package switches implements switch classification, the toggle state
// machine, and calibration sessions.
//
// # Toggle protocol
//
// Every loaded switch has a [State] with a [Position] and an [Interaction]:
//
//	Idle  --Toggle-->  Toggling  --confirmed(p)-->  Idle   (position = p)
//	                   Toggling  --failure-------->  Error  (position kept)
//	Error --Toggle-->  Toggling
//
// The position only changes when the remote controller confirms it. A
// switch without a servo channel is never sent to the controller; Toggle
// returns NOT_CONFIGURED and the state is left alone. At most one toggle
// per switch is in flight; a second request returns BUSY without a network
// call. Toggles for different switches run independently.
//
// # Calibration
//
// [Controller.OpenCalibration] returns a [Calibration] holding a private
// [Draft]. Edits never touch the live [Config]. A successful
// [Calibration.Commit] replaces the live config and closes the session; a
// rejected commit leaves both the draft and the live config as they were
// and returns the controller's message verbatim. Commits and toggles for
// the same switch are mutually exclusive.
package switches
