// Package capture records the screen and available audio via ffmpeg.
//
// Recording writes fixed-length segments so an interrupted capture
// loses at most one segment, then concatenates them into a single webm
// blob on stop. Microphone acquisition is best-effort: a failed probe
// degrades to display audio only and records a warning.
package capture
