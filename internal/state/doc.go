// Package state persists per-agent onboarding progress locally.
//
// Each agent gets one SessionState row: the current step, the set of
// completed step IDs and the assistant transcript. The store is local
// to the machine; the backend never sees employee progress.
package state
