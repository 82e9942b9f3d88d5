// Package services defines the business logic of the planner: versioned
// design entities, simulation and balance reporting.
//
// This file centralizes the service-level error taxonomy. Services wrap
// these sentinels with context (fmt.Errorf("%w: ...")); translation into
// HTTP status codes happens in the handler layer via errors.Is/As.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-boardgame-planner/internal/repo"
)

var (
	// ErrNotFound indicates that a referenced plan, concept, component
	// batch, rule or simulation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIntegrity indicates a cross-reference mismatch, such as a planId
	// that does not own the supplied conceptId.
	ErrIntegrity = errors.New("integrity violation")

	// ErrGeneration indicates that the content generator failed or returned
	// an unusable reply. No entity version is committed when it occurs.
	ErrGeneration = errors.New("generation failed")

	// ErrSimulation indicates that every game of a simulation batch failed.
	ErrSimulation = errors.New("simulation failed")
)

// ValidationError reports malformed or out-of-range input. It is always
// returned before any Store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, entity, id)
}

// resolve maps repo.ErrNotFound onto the service taxonomy.
func resolve(err error, entity string, id int64) error {
	if errors.Is(err, repo.ErrNotFound) {
		return notFound(entity, id)
	}
	return err
}

func generationFailed(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrGeneration, what, err)
}

// Outcome classifies err for metrics and logs.
func Outcome(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrIntegrity):
		return "integrity"
	case errors.Is(err, ErrGeneration):
		return "generation"
	case errors.Is(err, ErrSimulation):
		return "simulation"
	default:
		return "error"
	}
}
