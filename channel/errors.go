package channel

import "fmt"

// ChannelError represents an error in channel operations.
type ChannelError struct {
	Code    string
	Message string
	Cause   error
}

func (e *ChannelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ChannelError) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy of the error carrying the underlying cause.
func (e *ChannelError) WithCause(cause error) *ChannelError {
	return &ChannelError{Code: e.Code, Message: e.Message, Cause: cause}
}

// Errors.
var (
	ErrInvalidSignature    = &ChannelError{Code: "INVALID_SIGNATURE", Message: "webhook signature validation failed"}
	ErrInvalidPayload      = &ChannelError{Code: "INVALID_PAYLOAD", Message: "could not parse webhook payload"}
	ErrSendFailed          = &ChannelError{Code: "SEND_FAILED", Message: "failed to send message"}
	ErrMediaDownloadFailed = &ChannelError{Code: "MEDIA_FAILED", Message: "failed to download media"}
)
