package analysis

import "errors"

var (
	// ErrEmptyText is returned before any remote call when the input has no content.
	ErrEmptyText = errors.New("no text to analyze")

	// ErrTextTooLong rejects pasted text over the configured character limit.
	ErrTextTooLong = errors.New("text too long")

	// ErrRequest covers transport failures and non-2xx replies from the model endpoint.
	ErrRequest = errors.New("analysis request failed")

	// ErrEmptyReply means the call succeeded but carried no reply text.
	ErrEmptyReply = errors.New("no content received from the language model")

	// ErrMalformedResponse means the reply is not the expected JSON shape.
	ErrMalformedResponse = errors.New("malformed analysis response")

	// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
)
