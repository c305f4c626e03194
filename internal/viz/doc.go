// Package viz provides the visualization collaborator of a scenario.
//
//   - [Feed]: an engine model streaming spacecraft state as JSON lines
//   - [Playback]: a Bubble Tea TUI replaying a feed in 3D
//   - [Canvas]: Braille-based pixel canvas shared with the plotting package
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	[ ]   - Seek backward/forward
//	+ -   - Playback speed
//	xyz   - Rotate camera
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
