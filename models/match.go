package models

import "time"

// MatchStatus соответствует ENUM match_status в БД.
type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusFinished  MatchStatus = "finished"
	MatchStatusCancelled MatchStatus = "cancelled"
)

// Terminal reports whether no further live mutation is permitted from s.
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusFinished || s == MatchStatusCancelled
}

type MatchSide string

const (
	SideHome MatchSide = "home"
	SideAway MatchSide = "away"
)

type Match struct {
	ID         int         `json:"id" db:"id"`
	PhaseID    int         `json:"phase_id" db:"phase_id"`
	GroupID    *int        `json:"group_id,omitempty" db:"group_id"`
	HomeTeamID int         `json:"home_team_id" db:"home_team_id"`
	AwayTeamID int         `json:"away_team_id" db:"away_team_id"`
	Date       time.Time   `json:"date" db:"date"`
	Kickoff    string      `json:"kickoff" db:"kickoff"` // "HH:MM", display only
	Venue      string      `json:"venue" db:"venue"`
	Status     MatchStatus `json:"status" db:"status"`
	HomeGoals  int         `json:"home_goals" db:"home_goals"`
	AwayGoals  int         `json:"away_goals" db:"away_goals"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	HomeTeam *Team `json:"home_team,omitempty" db:"-"`
	AwayTeam *Team `json:"away_team,omitempty" db:"-"`
}

// OnLiveList reports whether the match belongs to the "live list" view:
// everything not yet finished and not cancelled.
func (m *Match) OnLiveList() bool {
	return !m.Status.Terminal()
}

// MatchStatePatch is the only shape the live-mutation path may write:
// status and/or the score pair. Schedule fields are out of its reach.
type MatchStatePatch struct {
	Status    *MatchStatus `json:"status,omitempty"`
	HomeGoals *int         `json:"home_goals,omitempty"`
	AwayGoals *int         `json:"away_goals,omitempty"`
}
