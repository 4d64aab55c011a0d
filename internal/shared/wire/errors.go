package wire

// ErrorCode identifies a failure class on the wire.
type ErrorCode string

const (
	CodeConnectionFailed  ErrorCode = "WS_CONNECTION_FAILED"
	CodeConnectionTimeout ErrorCode = "WS_CONNECTION_TIMEOUT"
	CodeMessageParseError ErrorCode = "WS_MESSAGE_PARSE_ERROR"
	CodeNoActiveTab       ErrorCode = "BC_NO_ACTIVE_TAB"
	CodeRestrictedPage    ErrorCode = "BC_RESTRICTED_PAGE"
	CodeScriptTimeout     ErrorCode = "BC_CONTENT_SCRIPT_TIMEOUT"
	CodeInjectionFailed   ErrorCode = "BC_CONTENT_SCRIPT_INJECTION_FAILED"
	CodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
	CodeUnknown           ErrorCode = "UNKNOWN_ERROR"
)

// messages holds the human-readable message for each code. The control
// channel surfaces these to the configuration UI as-is.
var messages = map[ErrorCode]string{
	CodeConnectionFailed:  "could not connect to the assistant",
	CodeConnectionTimeout: "connection to the assistant timed out",
	CodeMessageParseError: "received a malformed frame",
	CodeNoActiveTab:       "no active browser tab",
	CodeRestrictedPage:    "the active page does not allow content access",
	CodeScriptTimeout:     "the page agent did not respond in time",
	CodeInjectionFailed:   "could not inject the page agent",
	CodeInvalidRequest:    "request is missing a valid requestId",
	CodeUnknown:           "an unexpected error occurred",
}

// Error is the wire-level error body carried on failure responses.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewError builds an Error with the code's canonical message.
func NewError(code ErrorCode) *Error {
	msg, ok := messages[code]
	if !ok {
		code, msg = CodeUnknown, messages[CodeUnknown]
	}
	return &Error{Code: code, Message: msg}
}

// NewErrorf builds an Error with a specific message.
func NewErrorf(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// AsWireError coerces an arbitrary error to a wire Error, defaulting to
// UNKNOWN_ERROR for errors raised outside the boundary layer.
func AsWireError(err error) *Error {
	if err == nil {
		return nil
	}
	if we, ok := err.(*Error); ok {
		return we
	}
	return &Error{Code: CodeUnknown, Message: err.Error()}
}
