// Package types holds the small shared values used across the application.
// Keeping them in one place prevents import cycles: the dispatcher, the
// request shapes and the scoring code can all import types without
// depending on each other.
package types

// Gender is the client's gender as sent in online_score arguments.
type Gender int64

const (
	Unknown Gender = 0
	Male    Gender = 1
	Female  Gender = 2
)

func (g Gender) String() string {
	switch g {
	case Unknown:
		return "unknown"
	case Male:
		return "male"
	case Female:
		return "female"
	default:
		return "invalid"
	}
}

// RequestContext carries per-request annotations.
//
// The transport creates one per incoming request; the dispatcher fills in
// Has or NClients depending on the method, and the transport logs the
// whole thing once the response is written.
type RequestContext struct {
	RequestID string   `json:"request_id"`
	Has       []string `json:"has,omitempty"`
	NClients  int      `json:"nclients,omitempty"`
}
