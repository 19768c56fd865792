package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error so callers and the orchestrator can decide
// whether a failure is fatal, advisory, or safe to ignore.
type Kind string

const (
	KindPlanInfeasible         Kind = "PLAN_INFEASIBLE"
	KindNotFound               Kind = "NOT_FOUND"
	KindDataIntegrity          Kind = "DATA_INTEGRITY"
	KindEnrichmentUnavailable  Kind = "ENRICHMENT_UNAVAILABLE"
	KindRateLimited            Kind = "RATE_LIMITED"
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func PlanInfeasible(format string, args ...any) *Error {
	return New(KindPlanInfeasible, fmt.Errorf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Errorf(format, args...))
}

func DataIntegrity(format string, args ...any) *Error {
	return New(KindDataIntegrity, fmt.Errorf(format, args...))
}

func EnrichmentUnavailable(err error) *Error {
	return New(KindEnrichmentUnavailable, err)
}

func RateLimited(format string, args ...any) *Error {
	return New(KindRateLimited, fmt.Errorf(format, args...))
}

// KindOf extracts the Kind from err, or "" when err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
