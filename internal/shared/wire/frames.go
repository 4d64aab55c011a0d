package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

// Request frame types (peer → bridge).
const (
	TypeGetContext   = "get_context"
	TypeGetContent   = "get_content"
	TypeGetLinks     = "get_links"
	TypeGetSelection = "get_selection"
	TypeGetMetadata  = "get_metadata"
	TypePing         = "ping"
)

// Response frame types (bridge → peer).
const (
	TypeContextResponse   = "context_response"
	TypeContentResponse   = "content_response"
	TypeLinksResponse     = "links_response"
	TypeSelectionResponse = "selection_response"
	TypeMetadataResponse  = "metadata_response"
	TypePong              = "pong"
	TypeError             = "error"
)

// responseTypes maps each request type to its response variant.
var responseTypes = map[string]string{
	TypeGetContext:   TypeContextResponse,
	TypeGetContent:   TypeContentResponse,
	TypeGetLinks:     TypeLinksResponse,
	TypeGetSelection: TypeSelectionResponse,
	TypeGetMetadata:  TypeMetadataResponse,
	TypePing:         TypePong,
}

// IsRequest reports whether t is a known request frame type.
func IsRequest(t string) bool {
	_, ok := responseTypes[t]
	return ok
}

// ResponseType returns the response variant for a request type, or
// TypeError when the request type is unknown.
func ResponseType(requestType string) string {
	if rt, ok := responseTypes[requestType]; ok {
		return rt
	}
	return TypeError
}

// Request is an inbound frame from the assistant peer.
type Request struct {
	Type      string         `json:"type"`
	RequestID string         `json:"requestId,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
	Options   ContextOptions `json:"options,omitempty"`
}

// Response is an outbound frame to the assistant peer. Data and Error are
// mutually exclusive; Data is explicitly null on failure.
type Response struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Data      any    `json:"data"`
	Error     *Error `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Ping is the keep-alive frame exchanged in both directions.
type Ping struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// Now returns the frame timestamp for the current instant.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// NewSuccess builds a success response for the given request type.
func NewSuccess(requestType, requestID string, data any) Response {
	return Response{
		Type:      ResponseType(requestType),
		RequestID: requestID,
		Data:      data,
		Timestamp: Now(),
	}
}

// NewFailure builds an error response for the given request type. The
// response carries the request kind's response variant so the peer can
// correlate failures without inspecting the error body.
func NewFailure(requestType, requestID string, err *Error) Response {
	return Response{
		Type:      ResponseType(requestType),
		RequestID: requestID,
		Data:      nil,
		Error:     err,
		Timestamp: Now(),
	}
}

// ParseRequest decodes an inbound frame. A decode failure is a parse error;
// the frame type is validated by the dispatcher, not here.
func ParseRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, fmt.Errorf("decode frame: %w", err)
	}
	return req, nil
}
