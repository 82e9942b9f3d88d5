// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` and `failErr()` helpers in this package). These
// codes give clients a stable, machine-readable error taxonomy that
// supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes (bad_request, not_found, ...) mirror HTTP status semantics.
//   - Domain codes map one-to-one onto the service error taxonomy:
//     validation_failed (400), integrity_violation (409),
//     generation_failed (502) and simulation_failed (500).
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "integrity_violation",
//	  "message": "integrity violation: concept 12 does not belong to plan 999"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeValidation = "validation_failed"
	ErrCodeIntegrity  = "integrity_violation"
	ErrCodeGeneration = "generation_failed"
	ErrCodeSimulation = "simulation_failed"
)
