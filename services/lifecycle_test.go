package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fixtura/livescore-system/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    models.MatchStatus
		to      models.MatchStatus
		allowed bool
	}{
		{"scheduled to live", models.MatchStatusScheduled, models.MatchStatusLive, true},
		{"scheduled to cancelled", models.MatchStatusScheduled, models.MatchStatusCancelled, true},
		{"live to finished", models.MatchStatusLive, models.MatchStatusFinished, true},
		{"live to cancelled", models.MatchStatusLive, models.MatchStatusCancelled, true},
		{"scheduled to finished skips live", models.MatchStatusScheduled, models.MatchStatusFinished, false},
		{"live back to scheduled", models.MatchStatusLive, models.MatchStatusScheduled, false},
		{"finished is terminal", models.MatchStatusFinished, models.MatchStatusLive, false},
		{"finished cannot cancel", models.MatchStatusFinished, models.MatchStatusCancelled, false},
		{"cancelled is terminal", models.MatchStatusCancelled, models.MatchStatusLive, false},
		{"cancelled cannot finish", models.MatchStatusCancelled, models.MatchStatusFinished, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestApplyAdjustClampsAtZero(t *testing.T) {
	assert.Equal(t, 1, ApplyAdjust(0, 1))
	assert.Equal(t, 0, ApplyAdjust(0, -1))
	assert.Equal(t, 0, ApplyAdjust(1, -5))
	assert.Equal(t, 3, ApplyAdjust(2, 1))
	assert.Equal(t, 1, ApplyAdjust(2, -1))
}

func TestApplyAdjustRoundTrip(t *testing.T) {
	// +1 then -1 restores the original when original >= 1.
	for original := 1; original <= 5; original++ {
		assert.Equal(t, original, ApplyAdjust(ApplyAdjust(original, 1), -1))
	}
	// From zero, -1 then +1 ends at one, not zero: the decrement clamped.
	assert.Equal(t, 1, ApplyAdjust(ApplyAdjust(0, -1), 1))
}

func TestValidateAdjust(t *testing.T) {
	assert.NoError(t, ValidateAdjust(models.SideHome, 1))
	assert.NoError(t, ValidateAdjust(models.SideAway, -1))
	assert.NoError(t, ValidateAdjust(models.SideHome, 3))

	assert.ErrorIs(t, ValidateAdjust("left", 1), ErrValidationFailed)
	assert.ErrorIs(t, ValidateAdjust(models.SideHome, 0), ErrValidationFailed)
	assert.ErrorIs(t, ValidateAdjust("", -1), ErrValidationFailed)
}
