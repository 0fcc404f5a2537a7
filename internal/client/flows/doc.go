// Package flows implements what the user does with the client: log in,
// browse and join events, scan QR codes to check in or pay a store, upload
// proof images and keep a local history of issued tickets.
//
// Flows that hold state between calls (check-in, payment) model it as an
// explicit state value and own a lifetime context. Close cancels whatever is
// in flight, and a response that arrives after Close is dropped.
//
// Errors come in two shapes. Preconditions checked locally (bad input,
// missing credentials, a transfer already running) are returned as errors.
// Outcomes reported by the server are part of the resulting state.
package flows
