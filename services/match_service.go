package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fixtura/livescore-system/live"
	"github.com/fixtura/livescore-system/models"
	"github.com/fixtura/livescore-system/repositories"
)

// casRetries bounds the conditional-update loop. The per-match lock makes
// in-process conflicts impossible; retries only absorb writers outside this
// process racing the same row.
const casRetries = 5

// ChangePublisher receives a change event after every successful persist.
// Satisfied by *live.Hub.
type ChangePublisher interface {
	Publish(event live.Event)
}

// MatchService is the mutation coordinator: it serializes concurrent admin
// mutations per match, applies them through the store's conditional write,
// and publishes a change event. Reads pass straight through to the store.
type MatchService interface {
	Start(ctx context.Context, cap Capability, matchID int) (*models.Match, error)
	AdjustScore(ctx context.Context, cap Capability, matchID int, side models.MatchSide, delta int) (*models.Match, error)
	Finish(ctx context.Context, cap Capability, matchID int) (*models.Match, error)
	Cancel(ctx context.Context, cap Capability, matchID int) (*models.Match, error)

	Get(ctx context.Context, matchID int) (*models.Match, error)
	ListFixture(ctx context.Context, phaseID int) ([]*models.Match, error)
	ListLive(ctx context.Context) ([]*models.Match, error)
}

type matchService struct {
	matches   repositories.MatchRepository
	publisher ChangePublisher
	logger    *slog.Logger

	// locks holds one *sync.Mutex per match id. Locking scope is always a
	// single match: mutations on different matches never block each other.
	locks sync.Map
}

func NewMatchService(matches repositories.MatchRepository, publisher ChangePublisher, logger *slog.Logger) MatchService {
	return &matchService{
		matches:   matches,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *matchService) lockFor(matchID int) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(matchID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// mutate runs one serialized read-validate-write round for a match. op maps
// the current canonical state to a patch; returning an error aborts without
// writing. The lock covers only the read-modify-write, never the publish.
func (s *matchService) mutate(ctx context.Context, cap Capability, matchID int, op func(*models.Match) (models.MatchStatePatch, error)) (*models.Match, error) {
	if !cap.Valid() {
		return nil, ErrForbiddenOperation
	}

	mu := s.lockFor(matchID)
	mu.Lock()
	updated, err := s.mutateLocked(ctx, matchID, op)
	mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(live.Event{
		MatchID:         updated.ID,
		PhaseID:         updated.PhaseID,
		GroupID:         updated.GroupID,
		LiveListChanged: true,
	})
	s.logger.Info("match mutated",
		slog.Int("match_id", updated.ID),
		slog.String("status", string(updated.Status)),
		slog.Int("home_goals", updated.HomeGoals),
		slog.Int("away_goals", updated.AwayGoals),
		slog.Int("admin_id", cap.AdminID),
	)
	return updated, nil
}

func (s *matchService) mutateLocked(ctx context.Context, matchID int, op func(*models.Match) (models.MatchStatePatch, error)) (*models.Match, error) {
	var lastErr error
	for attempt := 0; attempt < casRetries; attempt++ {
		current, err := s.matches.GetByID(ctx, matchID)
		if err != nil {
			return nil, mapStoreError(err)
		}

		patch, err := op(current)
		if err != nil {
			return nil, err
		}

		updated, err := s.matches.UpdateState(ctx, matchID, repositories.StateOf(current), patch)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, repositories.ErrMatchVersionConflict) {
			return nil, mapStoreError(err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: match %d kept changing under retry: %v", ErrStoreUnavailable, matchID, lastErr)
}

func (s *matchService) Start(ctx context.Context, cap Capability, matchID int) (*models.Match, error) {
	return s.setStatus(ctx, cap, matchID, models.MatchStatusLive)
}

func (s *matchService) Finish(ctx context.Context, cap Capability, matchID int) (*models.Match, error) {
	// The current score freezes as final; only the status moves.
	return s.setStatus(ctx, cap, matchID, models.MatchStatusFinished)
}

func (s *matchService) Cancel(ctx context.Context, cap Capability, matchID int) (*models.Match, error) {
	return s.setStatus(ctx, cap, matchID, models.MatchStatusCancelled)
}

func (s *matchService) setStatus(ctx context.Context, cap Capability, matchID int, to models.MatchStatus) (*models.Match, error) {
	return s.mutate(ctx, cap, matchID, func(m *models.Match) (models.MatchStatePatch, error) {
		if err := checkTransition(m, to); err != nil {
			return models.MatchStatePatch{}, err
		}
		status := to
		return models.MatchStatePatch{Status: &status}, nil
	})
}

func (s *matchService) AdjustScore(ctx context.Context, cap Capability, matchID int, side models.MatchSide, delta int) (*models.Match, error) {
	if err := ValidateAdjust(side, delta); err != nil {
		return nil, err
	}
	return s.mutate(ctx, cap, matchID, func(m *models.Match) (models.MatchStatePatch, error) {
		if m.Status != models.MatchStatusLive {
			return models.MatchStatePatch{}, fmt.Errorf("%w: score adjustment requires status %s, match %d is %s",
				ErrInvalidTransition, models.MatchStatusLive, m.ID, m.Status)
		}
		var patch models.MatchStatePatch
		if side == models.SideHome {
			goals := ApplyAdjust(m.HomeGoals, delta)
			patch.HomeGoals = &goals
		} else {
			goals := ApplyAdjust(m.AwayGoals, delta)
			patch.AwayGoals = &goals
		}
		return patch, nil
	})
}

func (s *matchService) Get(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return m, nil
}

func (s *matchService) ListFixture(ctx context.Context, phaseID int) ([]*models.Match, error) {
	matches, err := s.matches.ListByFilter(ctx, repositories.MatchFilter{PhaseID: &phaseID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return matches, nil
}

func (s *matchService) ListLive(ctx context.Context) ([]*models.Match, error) {
	matches, err := s.matches.ListByFilter(ctx, repositories.MatchFilter{LiveListOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return matches, nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchVersionConflict):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
