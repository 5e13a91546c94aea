package services

import (
	"fmt"

	"github.com/fixtura/livescore-system/models"
)

// Transition rules for the live-mutation path. FINISHED and CANCELLED are
// terminal; administrative corrections go through a separate audited path,
// never through here.
//
//	scheduled -> live, cancelled
//	live      -> finished, cancelled
var allowedTransitions = map[models.MatchStatus][]models.MatchStatus{
	models.MatchStatusScheduled: {models.MatchStatusLive, models.MatchStatusCancelled},
	models.MatchStatusLive:      {models.MatchStatusFinished, models.MatchStatusCancelled},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to models.MatchStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func checkTransition(m *models.Match, to models.MatchStatus) error {
	if !CanTransition(m.Status, to) {
		return fmt.Errorf("%w: %s -> %s (match %d)", ErrInvalidTransition, m.Status, to, m.ID)
	}
	return nil
}

// ApplyAdjust returns the score after a clamped delta. Decrements below
// zero land on zero instead of erroring, which makes repeating an intended
// decrement safe.
func ApplyAdjust(goals, delta int) int {
	if next := goals + delta; next > 0 {
		return next
	}
	return 0
}

// ValidateAdjust rejects malformed adjustScore input before any store I/O.
func ValidateAdjust(side models.MatchSide, delta int) error {
	if side != models.SideHome && side != models.SideAway {
		return fmt.Errorf("%w: unknown side %q", ErrValidationFailed, side)
	}
	if delta == 0 {
		return fmt.Errorf("%w: delta must be non-zero", ErrValidationFailed)
	}
	return nil
}
