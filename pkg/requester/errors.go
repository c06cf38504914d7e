package requester

import (
	"errors"
	"fmt"
	"strings"

	"github.com/laraxot/module-ai-fila5/pkg/models"
)

var (
	// ErrConfiguration is returned by New when the settings cannot work.
	ErrConfiguration = errors.New("requester: invalid configuration")
	// ErrRetriesExhausted matches every ExhaustedError.
	ErrRetriesExhausted = errors.New("ai request failed after retries")
)

// StatusError is a non-2xx reply from the chat endpoint. Error shows at
// most maxLoggedBody bytes of Body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai request: http %d: %s", e.StatusCode, truncate(strings.TrimSpace(e.Body), maxLoggedBody))
}

// ExhaustedError is the terminal failure after every attempt failed.
type ExhaustedError struct {
	Task     models.Task
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("ai request %s failed after %d attempts: %v", e.Task, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Last}
}
