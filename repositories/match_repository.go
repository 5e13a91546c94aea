package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fixtura/livescore-system/models"
)

var (
	ErrMatchNotFound = errors.New("match not found")

	// ErrMatchVersionConflict means the row no longer matches the expected
	// state of a conditional update. The caller re-reads and retries.
	ErrMatchVersionConflict = errors.New("match state changed concurrently")
)

// MatchFilter narrows ListByFilter. Nil fields are not applied.
type MatchFilter struct {
	PhaseID       *int
	GroupID       *int
	Status        *models.MatchStatus
	DateOnOrAfter *time.Time

	// LiveListOnly keeps only matches that are neither finished nor
	// cancelled (the admin "en vivo" view).
	LiveListOnly bool
}

// MatchState is the expected current state of a conditional update:
// the compare half of compare-and-set.
type MatchState struct {
	Status    models.MatchStatus
	HomeGoals int
	AwayGoals int
}

func StateOf(m *models.Match) MatchState {
	return MatchState{Status: m.Status, HomeGoals: m.HomeGoals, AwayGoals: m.AwayGoals}
}

// GroupSnapshot is a single consistent read of everything standings need:
// the ordered membership and the finished matches of one group.
type GroupSnapshot struct {
	GroupID  int
	Members  []models.GroupMember
	Finished []*models.Match
}

type MatchRepository interface {
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByFilter(ctx context.Context, filter MatchFilter) ([]*models.Match, error)

	// UpdateState applies patch only if the row still equals expect.
	// Returns ErrMatchVersionConflict when it does not, ErrMatchNotFound
	// when the row is gone. The write is all-or-nothing.
	UpdateState(ctx context.Context, id int, expect MatchState, patch models.MatchStatePatch) (*models.Match, error)

	// Snapshot reads members and finished matches of a group in one
	// repeatable-read transaction, so a table is never computed from a mix
	// of pre- and post-mutation states.
	Snapshot(ctx context.Context, groupID int) (*GroupSnapshot, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	m.id, m.phase_id, m.group_id, m.home_team_id, m.away_team_id,
	m.date, m.kickoff, m.venue, m.status, m.home_goals, m.away_goals, m.updated_at,
	ht.name, at.name`

const matchFrom = `
	FROM matches m
	JOIN teams ht ON ht.id = m.home_team_id
	JOIN teams at ON at.id = m.away_team_id`

func scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	var homeName, awayName string
	err := rowScanner.Scan(
		&m.ID, &m.PhaseID, &m.GroupID, &m.HomeTeamID, &m.AwayTeamID,
		&m.Date, &m.Kickoff, &m.Venue, &m.Status, &m.HomeGoals, &m.AwayGoals, &m.UpdatedAt,
		&homeName, &awayName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	m.HomeTeam = &models.Team{ID: m.HomeTeamID, Name: homeName}
	m.AwayTeam = &models.Team{ID: m.AwayTeamID, Name: awayName}
	return &m, nil
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) getByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + matchFrom + ` WHERE m.id = $1`
	row := r.getExecutor(exec).QueryRowContext(ctx, query, id)
	return scanMatch(row)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	return r.getByID(ctx, nil, id)
}

func (r *postgresMatchRepository) ListByFilter(ctx context.Context, filter MatchFilter) ([]*models.Match, error) {
	return r.listByFilter(ctx, nil, filter)
}

func (r *postgresMatchRepository) listByFilter(ctx context.Context, exec SQLExecutor, filter MatchFilter) ([]*models.Match, error) {
	var (
		conditions []string
		args       []interface{}
	)
	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, strings.Replace(clause, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if filter.PhaseID != nil {
		addCondition("m.phase_id = ?", *filter.PhaseID)
	}
	if filter.GroupID != nil {
		addCondition("m.group_id = ?", *filter.GroupID)
	}
	if filter.Status != nil {
		addCondition("m.status = ?", *filter.Status)
	}
	if filter.DateOnOrAfter != nil {
		addCondition("m.date >= ?", *filter.DateOnOrAfter)
	}
	if filter.LiveListOnly {
		conditions = append(conditions, fmt.Sprintf("m.status NOT IN ('%s', '%s')",
			models.MatchStatusFinished, models.MatchStatusCancelled))
	}

	query := `SELECT` + matchColumns + matchFrom
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY m.date ASC, m.kickoff ASC, m.id ASC"

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, errScan := scanMatch(rows)
		if errScan != nil {
			return nil, errScan
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateState(ctx context.Context, id int, expect MatchState, patch models.MatchStatePatch) (*models.Match, error) {
	var (
		sets []string
		args []interface{}
	)
	addSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Status != nil {
		addSet("status", *patch.Status)
	}
	if patch.HomeGoals != nil {
		addSet("home_goals", *patch.HomeGoals)
	}
	if patch.AwayGoals != nil {
		addSet("away_goals", *patch.AwayGoals)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id, expect.Status, expect.HomeGoals, expect.AwayGoals)
	n := len(args)
	query := fmt.Sprintf(`
		UPDATE matches SET %s
		WHERE id = $%d AND status = $%d AND home_goals = $%d AND away_goals = $%d`,
		strings.Join(sets, ", "), n-3, n-2, n-1, n)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish a missing row from a concurrent state change.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrMatchVersionConflict
	}
	return r.GetByID(ctx, id)
}

func (r *postgresMatchRepository) Snapshot(ctx context.Context, groupID int) (*GroupSnapshot, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("snapshot failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	members, err := listGroupMembers(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}

	status := models.MatchStatusFinished
	finished, err := r.listByFilter(ctx, tx, MatchFilter{GroupID: &groupID, Status: &status})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("snapshot failed to commit: %w", err)
	}
	return &GroupSnapshot{GroupID: groupID, Members: members, Finished: finished}, nil
}
