package domain

import (
	"fmt"

	"github.com/petroledger/settlement_app/internal/apperrors"
)

// SettlementStatus is the lifecycle state of a settlement.
type SettlementStatus string

const (
	Draft       SettlementStatus = "DRAFT"
	DataEntered SettlementStatus = "DATA_ENTERED"
	Calculated  SettlementStatus = "CALCULATED"
	Reviewed    SettlementStatus = "REVIEWED"
	Approved    SettlementStatus = "APPROVED"
	Finalized   SettlementStatus = "FINALIZED"
	Cancelled   SettlementStatus = "CANCELLED"
)

// statusOrdinals encodes the forward progression for progress display.
// Cancelled sits outside the ordinal sequence.
var statusOrdinals = map[SettlementStatus]int{
	Draft:       1,
	DataEntered: 2,
	Calculated:  3,
	Reviewed:    4,
	Approved:    5,
	Finalized:   6,
}

// Ordinal returns the 1-based position of the status in the forward
// lifecycle, or 0 for Cancelled/unknown statuses.
func (s SettlementStatus) Ordinal() int {
	return statusOrdinals[s]
}

// allowedTransitions lists the legal next statuses per current status.
// Cancelled is reachable from every state except Finalized; Finalized and
// Cancelled are terminal.
var allowedTransitions = map[SettlementStatus][]SettlementStatus{
	Draft:       {DataEntered, Cancelled},
	DataEntered: {Calculated, Cancelled},
	Calculated:  {Reviewed, Cancelled},
	Reviewed:    {Approved, Cancelled},
	Approved:    {Finalized, Cancelled},
	Finalized:   {},
	Cancelled:   {},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to SettlementStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EnsureModifiable returns ErrState when the settlement is locked
// (finalized or cancelled).
func (s *Settlement) EnsureModifiable() error {
	if !s.CanBeModified() {
		return fmt.Errorf("%w: settlement %s is %s", apperrors.ErrState, s.SettlementID, s.Status)
	}
	return nil
}

// TransitionTo advances the settlement to the requested status after checking
// both the transition table and the data guards of the target status. The
// machine never auto-advances; each step is requested explicitly.
func (s *Settlement) TransitionTo(to SettlementStatus) error {
	if !CanTransition(s.Status, to) {
		return apperrors.NewInvalidTransitionError(string(s.Status), string(to))
	}
	if err := s.transitionGuard(to); err != nil {
		return err
	}
	s.Status = to
	return nil
}

// transitionGuard enforces the data requirements of entering the target
// status. Guards that depend on an actor identity are enforced by the
// service layer, which carries the actor parameter.
func (s *Settlement) transitionGuard(to SettlementStatus) error {
	switch to {
	case DataEntered:
		if s.DocumentNumber == "" {
			return fmt.Errorf("%w: document number is required before data entry completes", apperrors.ErrValidation)
		}
		if s.DocumentDate.IsZero() {
			return fmt.Errorf("%w: document date is required before data entry completes", apperrors.ErrValidation)
		}
		if !s.ActualQuantityMT.IsPositive() && !s.ActualQuantityBBL.IsPositive() {
			return fmt.Errorf("%w: at least one actual quantity (MT or BBL) must be positive", apperrors.ErrValidation)
		}
	case Calculated:
		if !s.BenchmarkAmount.IsPositive() {
			return fmt.Errorf("%w: benchmark amount must be positive before calculation completes", apperrors.ErrValidation)
		}
	}
	return nil
}
