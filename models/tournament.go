package models

// Tournament представляет один розыгрыш соревнования.
type Tournament struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Sport    string `json:"sport" db:"sport"`
	Category string `json:"category" db:"category"`
	Division string `json:"division" db:"division"`
	Year     int    `json:"year" db:"year"`

	Phases []Phase `json:"phases,omitempty" db:"-"`
}

// PhaseKind определяет, какая агрегация применяется к фазе.
type PhaseKind string

const (
	PhaseKindLeague   PhaseKind = "league"
	PhaseKindKnockout PhaseKind = "knockout"
)

type Phase struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	Ordinal      int       `json:"ordinal" db:"ordinal"`
	Kind         PhaseKind `json:"kind" db:"kind"`
}

type Group struct {
	ID      int    `json:"id" db:"id"`
	PhaseID int    `json:"phase_id" db:"phase_id"`
	Name    string `json:"name" db:"name"`
}

// GroupMember is one entry of a group's ordered membership. The order is
// the insertion order and is the final tiebreak for standings.
type GroupMember struct {
	GroupID  int    `json:"group_id" db:"group_id"`
	TeamID   int    `json:"team_id" db:"team_id"`
	TeamName string `json:"team_name" db:"-"`
}
