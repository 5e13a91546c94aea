package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fixtura/livescore-system/models"
)

var ErrGroupNotFound = errors.New("group not found")

type GroupRepository interface {
	GetByID(ctx context.Context, id int) (*models.Group, error)
	ListByPhase(ctx context.Context, phaseID int) ([]*models.Group, error)
	Members(ctx context.Context, groupID int) ([]models.GroupMember, error)
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, id int) (*models.Group, error) {
	query := `SELECT id, phase_id, name FROM groups WHERE id = $1`
	var g models.Group
	err := r.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.PhaseID, &g.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *postgresGroupRepository) ListByPhase(ctx context.Context, phaseID int) ([]*models.Group, error) {
	query := `SELECT id, phase_id, name FROM groups WHERE phase_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, phaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.PhaseID, &g.Name); err != nil {
			return nil, err
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

func (r *postgresGroupRepository) Members(ctx context.Context, groupID int) ([]models.GroupMember, error) {
	return listGroupMembers(ctx, r.db, groupID)
}

// listGroupMembers keeps the membership in insertion order (the group_teams
// serial id), which is the documented final standings tiebreak.
func listGroupMembers(ctx context.Context, exec SQLExecutor, groupID int) ([]models.GroupMember, error) {
	query := `
		SELECT gt.group_id, gt.team_id, t.name
		FROM group_teams gt
		JOIN teams t ON t.id = gt.team_id
		WHERE gt.group_id = $1
		ORDER BY gt.id ASC`
	rows, err := exec.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.GroupMember, 0)
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.GroupID, &m.TeamID, &m.TeamName); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
