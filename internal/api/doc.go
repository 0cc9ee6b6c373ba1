// Package api is the REST client for the ramp onboarding backend.
//
// # Surface
//
// One Client covers the whole backend surface:
//
//   - Login: credential exchange for a user record and bearer token
//   - ListUsers/CreateUser/UpdateUser/DeleteUser: account management
//   - ListAgents/GetAgent/CreateAgent/UpdateAgent/DeleteAgent: workflows
//   - SaveSteps: full step-list replacement on the agent record
//   - UploadRecording/RecordingMetadata/DeleteRecording: capture plumbing
//
// # Error Handling
//
// Non-2xx responses decode into *Error. The backend reports failures in
// a "detail" body field; when that field is absent each endpoint
// substitutes its own generic fallback message, so callers always get
// something presentable.
//
// # Authentication
//
// The client pulls its bearer token from a TokenSource on every
// request, so a login or logout elsewhere in the process takes effect
// immediately without rebuilding the client.
package api
