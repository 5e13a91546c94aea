package db

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

const (
	// matchesChannel is the NOTIFY channel a row trigger on the matches
	// table fires on every UPDATE. The payload carries ids only; consumers
	// re-read the row, they never apply the payload as a delta.
	matchesChannel = "matches_changed"

	listenMinReconnect = 2 * time.Second
	listenMaxReconnect = 30 * time.Second
)

// RowChange identifies a changed match row. Mirrors the NOTIFY payload
// produced by the matches_changed trigger.
type RowChange struct {
	MatchID int  `json:"match_id"`
	PhaseID int  `json:"phase_id"`
	GroupID *int `json:"group_id"`
}

// MatchChangeListener turns Postgres LISTEN/NOTIFY on the matches table into
// a stream of RowChange values. It covers mutations that bypass this process
// (another instance, manual SQL): in-process mutations already publish
// through the dispatcher directly.
type MatchChangeListener struct {
	listener *pq.Listener
	logger   *slog.Logger
}

func NewMatchChangeListener(dsn string, logger *slog.Logger) *MatchChangeListener {
	l := pq.NewListener(dsn, listenMinReconnect, listenMaxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Error("postgres listener event", slog.Int("event", int(ev)), slog.Any("error", err))
		}
	})
	return &MatchChangeListener{listener: l, logger: logger}
}

// Run delivers row changes to out until ctx is cancelled. Malformed payloads
// are logged and skipped; a nil notification (reconnect) is ignored because
// consumers treat every signal as a refresh hint anyway.
func (l *MatchChangeListener) Run(ctx context.Context, out chan<- RowChange) error {
	if err := l.listener.Listen(matchesChannel); err != nil {
		return err
	}
	defer func() {
		if err := l.listener.Close(); err != nil {
			l.logger.Error("failed to close postgres listener", slog.Any("error", err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-l.listener.Notify:
			if n == nil {
				continue
			}
			var change RowChange
			if err := json.Unmarshal([]byte(n.Extra), &change); err != nil {
				l.logger.Error("bad matches_changed payload", slog.String("payload", n.Extra), slog.Any("error", err))
				continue
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
