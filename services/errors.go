package services

import (
	"errors"
	"fmt"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
)

var (
	// ErrAuditUnavailable: the external model failed or returned unusable output.
	// The outcome still carries the fallback audit result.
	ErrAuditUnavailable = errors.New("quality audit unavailable")
	// ErrQualityRejected: the audit succeeded but scored below the publication threshold.
	ErrQualityRejected = errors.New("donation rejected by quality gate")
	// ErrStockExhausted: the requested quantity exceeds the remaining stock.
	ErrStockExhausted = errors.New("not enough stock left")
	// ErrInvalidTransition: the requested state change is not allowed from the current state.
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("forbidden")
)

// QualityRejectedError carries the audit so the caller can show it and offer a retry with a new photo.
type QualityRejectedError struct {
	Audit            models.AuditResult
	Threshold        float64
	AuditUnavailable bool
}

func (e *QualityRejectedError) Error() string {
	if e.AuditUnavailable {
		return fmt.Sprintf("%s: audit unavailable, quality %.2f%% below %.2f%%", ErrQualityRejected, e.Audit.QualityPercentage, e.Threshold)
	}
	return fmt.Sprintf("%s: quality %.2f%% below %.2f%%", ErrQualityRejected, e.Audit.QualityPercentage, e.Threshold)
}

func (e *QualityRejectedError) Is(target error) bool {
	return target == ErrQualityRejected
}

// TransitionError describes a rejected state change. State is left unchanged.
type TransitionError struct {
	Entity string // "donation" or "claim"
	From   string
	Event  string
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s: cannot %s %s in state %q", ErrInvalidTransition, e.Event, e.Entity, e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// StockError is returned when a claim asks for more than what is left.
type StockError struct {
	DonationID string
	Requested  int
	Available  int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s: donation %s has %d left, %d requested", ErrStockExhausted, e.DonationID, e.Available, e.Requested)
}

func (e *StockError) Is(target error) bool {
	return target == ErrStockExhausted
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
