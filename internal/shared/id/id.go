// Package id provides ID generation for frames the bridge originates
// itself: synthesised error frames, keep-alive pings, and control-channel
// events. Peer-assigned request ids are opaque and pass through untouched.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Prefixes make locally generated ids recognisable in logs next to the
// peer's opaque request ids.
const (
	FramePrefix = "frm"
	EventPrefix = "evt"
)

// NewFrameID generates an id for a bridge-originated frame.
func NewFrameID() string {
	return withPrefix(FramePrefix)
}

// NewEventID generates an id for a control-channel event.
func NewEventID() string {
	return withPrefix(EventPrefix)
}

func withPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}
