// Package steps maintains the ordered step workflow for one agent.
//
// Mutations are optimistic: reorder and delete apply to the local copy
// immediately, persistence runs in the background, and a sync failure
// surfaces a notification without rolling the local change back. The
// local order is authoritative for the edit session; concurrent editors
// resolve by last write wins on the backend.
//
// Deletion is gated behind an explicit request/confirm pair so a
// destructive action always takes two calls. A deleted step's recording
// resource is removed best-effort; the step itself never comes back
// even when that remote delete fails.
package steps
