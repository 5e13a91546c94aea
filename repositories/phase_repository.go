package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fixtura/livescore-system/models"
)

var ErrPhaseNotFound = errors.New("phase not found")

type PhaseRepository interface {
	GetByID(ctx context.Context, id int) (*models.Phase, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Phase, error)
}

type postgresPhaseRepository struct {
	db *sql.DB
}

func NewPostgresPhaseRepository(db *sql.DB) PhaseRepository {
	return &postgresPhaseRepository{db: db}
}

func (r *postgresPhaseRepository) GetByID(ctx context.Context, id int) (*models.Phase, error) {
	query := `SELECT id, tournament_id, name, ordinal, kind FROM phases WHERE id = $1`
	var p models.Phase
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.TournamentID, &p.Name, &p.Ordinal, &p.Kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPhaseNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresPhaseRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Phase, error) {
	query := `SELECT id, tournament_id, name, ordinal, kind FROM phases WHERE tournament_id = $1 ORDER BY ordinal ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	phases := make([]*models.Phase, 0)
	for rows.Next() {
		var p models.Phase
		if err := rows.Scan(&p.ID, &p.TournamentID, &p.Name, &p.Ordinal, &p.Kind); err != nil {
			return nil, err
		}
		phases = append(phases, &p)
	}
	return phases, rows.Err()
}
