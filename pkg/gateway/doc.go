// Package gateway models the frames exchanged with a Discord-style gateway.
//
// Every frame on the wire is a JSON object of the form
//
//	{"op": 0, "d": {...}, "s": 42, "t": "MESSAGE_CREATE"}
//
// where op selects the structural kind of the frame, d carries the payload,
// s is the server-assigned sequence number and t names the dispatched event.
// Parse turns raw frames into typed Operations and validates them against a
// fixed opcode table. Build and the New* helpers construct outbound commands.
//
// The Cursor records the last sequence number seen on a session so that
// heartbeats can acknowledge progress. The client and callback subpackages
// build the connection lifecycle and handler dispatch on top of these types.
package gateway
