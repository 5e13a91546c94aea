package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fixtura/livescore-system/models"
)

// MemoryMatchRepository is an in-memory MatchRepository with the same
// conditional-update contract as the Postgres implementation. It backs unit
// tests and local runs without a database.
type MemoryMatchRepository struct {
	mu      sync.RWMutex
	matches map[int]*models.Match
	members map[int][]models.GroupMember
}

func NewMemoryMatchRepository() *MemoryMatchRepository {
	return &MemoryMatchRepository{
		matches: make(map[int]*models.Match),
		members: make(map[int][]models.GroupMember),
	}
}

// Seed inserts or replaces a match. Test setup only.
func (r *MemoryMatchRepository) Seed(m *models.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *m
	r.matches[m.ID] = &clone
}

// SeedGroup registers a group's membership in insertion order.
func (r *MemoryMatchRepository) SeedGroup(groupID int, members ...models.GroupMember) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[groupID] = append([]models.GroupMember(nil), members...)
}

func (r *MemoryMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *MemoryMatchRepository) ListByFilter(ctx context.Context, filter MatchFilter) ([]*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]*models.Match, 0)
	for _, m := range r.matches {
		if filter.PhaseID != nil && m.PhaseID != *filter.PhaseID {
			continue
		}
		if filter.GroupID != nil && (m.GroupID == nil || *m.GroupID != *filter.GroupID) {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.DateOnOrAfter != nil && m.Date.Before(*filter.DateOnOrAfter) {
			continue
		}
		if filter.LiveListOnly && !m.OnLiveList() {
			continue
		}
		clone := *m
		matches = append(matches, &clone)
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].Date.Equal(matches[j].Date) {
			return matches[i].Date.Before(matches[j].Date)
		}
		if matches[i].Kickoff != matches[j].Kickoff {
			return matches[i].Kickoff < matches[j].Kickoff
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func (r *MemoryMatchRepository) UpdateState(ctx context.Context, id int, expect MatchState, patch models.MatchStatePatch) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	if m.Status != expect.Status || m.HomeGoals != expect.HomeGoals || m.AwayGoals != expect.AwayGoals {
		return nil, ErrMatchVersionConflict
	}
	if patch.Status != nil {
		m.Status = *patch.Status
	}
	if patch.HomeGoals != nil {
		m.HomeGoals = *patch.HomeGoals
	}
	if patch.AwayGoals != nil {
		m.AwayGoals = *patch.AwayGoals
	}
	m.UpdatedAt = time.Now()
	clone := *m
	return &clone, nil
}

func (r *MemoryMatchRepository) Snapshot(ctx context.Context, groupID int) (*GroupSnapshot, error) {
	// Held for the whole read so members and matches come from one state.
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := append([]models.GroupMember(nil), r.members[groupID]...)
	finished := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.GroupID == nil || *m.GroupID != groupID || m.Status != models.MatchStatusFinished {
			continue
		}
		clone := *m
		finished = append(finished, &clone)
	}
	sort.Slice(finished, func(i, j int) bool { return finished[i].ID < finished[j].ID })
	return &GroupSnapshot{GroupID: groupID, Members: members, Finished: finished}, nil
}
