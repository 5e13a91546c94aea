package live

import (
	"context"
	"log/slog"
	"time"

	"github.com/fixtura/livescore-system/models"
	"github.com/fixtura/livescore-system/repositories"
)

// Watcher periodically sweeps upcoming matches and publishes a live-list
// refresh when a scheduled match enters the kickoff window. It replaces the
// viewer-side "is it about to start" polling timer with one server-side
// recurring task.
type Watcher struct {
	hub     *Hub
	matches repositories.MatchRepository
	logger  *slog.Logger

	interval time.Duration
	window   time.Duration

	announced map[int]struct{}
}

func NewWatcher(hub *Hub, matches repositories.MatchRepository, interval, window time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		hub:       hub,
		matches:   matches,
		logger:    logger,
		interval:  interval,
		window:    window,
		announced: make(map[int]struct{}),
	}
}

// Run sweeps until ctx is cancelled. The caller owns the goroutine; the
// context is the cancellation handle.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.sweep(ctx, now)
		}
	}
}

func (w *Watcher) sweep(ctx context.Context, now time.Time) {
	status := models.MatchStatusScheduled
	today := now.Truncate(24 * time.Hour)
	upcoming, err := w.matches.ListByFilter(ctx, repositories.MatchFilter{
		Status:        &status,
		DateOnOrAfter: &today,
	})
	if err != nil {
		w.logger.Error("watcher sweep failed", slog.Any("error", err))
		return
	}

	for _, m := range upcoming {
		kickoff := kickoffTime(m)
		if kickoff.After(now.Add(w.window)) || kickoff.Before(now.Add(-w.window)) {
			continue
		}
		if _, done := w.announced[m.ID]; done {
			continue
		}
		w.announced[m.ID] = struct{}{}
		w.logger.Info("match entering kickoff window",
			slog.Int("match_id", m.ID), slog.Time("kickoff", kickoff))
		w.hub.Publish(Event{
			MatchID:         m.ID,
			PhaseID:         m.PhaseID,
			GroupID:         m.GroupID,
			LiveListChanged: true,
		})
	}
}

// kickoffTime combines the scheduled date with the "HH:MM" kickoff field.
// A malformed kickoff falls back to the date alone.
func kickoffTime(m *models.Match) time.Time {
	t, err := time.Parse("15:04", m.Kickoff)
	if err != nil {
		return m.Date
	}
	return time.Date(m.Date.Year(), m.Date.Month(), m.Date.Day(),
		t.Hour(), t.Minute(), 0, 0, m.Date.Location())
}
