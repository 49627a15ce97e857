package ai

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
)

var (
	ErrInvalidJSON      = errors.New("AI response is not valid JSON")
	ErrRateLimited      = errors.New("all AI models are rate limited or out of credit")
	ErrEmptyResponse    = errors.New("AI response was empty")
	ErrImageUnsupported = errors.New("model does not support image input")
)

var (
	imageUnsupportedPattern = regexp.MustCompile(`(?i)(image|vision|multimodal)[^.]*(not|un)\s*supported|does not support (image|vision)|no endpoints found that support image`)
	rateLimitPattern        = regexp.MustCompile(`(?i)rate.?limit|insufficient.*credit|quota exceeded|too many requests`)
)

// APIError is a non-2xx answer from an LLM endpoint.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrImageUnsupported:
		return e.imageUnsupported()
	case ErrRateLimited:
		return e.rateLimited()
	}
	return false
}

func (e *APIError) imageUnsupported() bool {
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnsupportedMediaType:
		return true
	}
	return imageUnsupportedPattern.MatchString(e.Message)
}

func (e *APIError) rateLimited() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		return true
	}
	return rateLimitPattern.MatchString(e.Message)
}

// IsImageUnsupported reports whether retrying without the image may help.
func IsImageUnsupported(err error) bool {
	return errors.Is(err, ErrImageUnsupported)
}

// IsRateLimited reports whether the next fallback model should be tried.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
