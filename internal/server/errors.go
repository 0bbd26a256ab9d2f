package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/job-agent/internal/agent"
	"github.com/spigell/job-agent/internal/contacts"
	"github.com/spigell/job-agent/internal/profile"
	"github.com/spigell/job-agent/internal/ranking"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var invalid validator.ValidationErrors

	switch {
	case errors.As(err, &validation), errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, agent.ErrInvalidArgument), errors.Is(err, ranking.ErrInvalidTopK):
		return http.StatusBadRequest
	case errors.Is(err, profile.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contacts.ErrUnavailable), errors.Is(err, agent.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func validationError(err error) error {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) && len(invalid) > 0 {
		first := invalid[0]
		return &ErrValidation{Field: first.Field(), Message: fmt.Sprintf("failed on %q", first.Tag())}
	}
	return err
}
