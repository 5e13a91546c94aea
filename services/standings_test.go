package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixtura/livescore-system/models"
	"github.com/fixtura/livescore-system/repositories"
)

func member(teamID int, name string) models.GroupMember {
	return models.GroupMember{GroupID: 1, TeamID: teamID, TeamName: name}
}

func finished(id, home, away, homeGoals, awayGoals int) *models.Match {
	groupID := 1
	return &models.Match{
		ID:         id,
		PhaseID:    1,
		GroupID:    &groupID,
		HomeTeamID: home,
		AwayTeamID: away,
		Status:     models.MatchStatusFinished,
		HomeGoals:  homeGoals,
		AwayGoals:  awayGoals,
	}
}

// Group {A, B, C}: A beat B 2:1, B drew C 1:1, A-C not yet played.
// Expected order A, C, B on points then goal difference.
func TestComputeStandingsScenario(t *testing.T) {
	members := []models.GroupMember{member(1, "A"), member(2, "B"), member(3, "C")}
	matches := []*models.Match{
		finished(10, 1, 2, 2, 1), // A 2:1 B
		finished(11, 2, 3, 1, 1), // B 1:1 C
	}

	rows := ComputeStandings(members, matches)
	require.Len(t, rows, 3)

	assert.Equal(t, "A", rows[0].TeamName)
	assert.Equal(t, models.StandingRow{
		TeamID: 1, TeamName: "A",
		Played: 1, Won: 1, GoalsFor: 2, GoalsAgainst: 1, GoalDifference: 1, Points: 2,
	}, rows[0])

	assert.Equal(t, "C", rows[1].TeamName)
	assert.Equal(t, models.StandingRow{
		TeamID: 3, TeamName: "C",
		Played: 1, Drawn: 1, GoalsFor: 1, GoalsAgainst: 1, GoalDifference: 0, Points: 1,
	}, rows[1])

	assert.Equal(t, "B", rows[2].TeamName)
	assert.Equal(t, models.StandingRow{
		TeamID: 2, TeamName: "B",
		Played: 2, Drawn: 1, Lost: 1, GoalsFor: 2, GoalsAgainst: 3, GoalDifference: -1, Points: 1,
	}, rows[2])
}

func TestComputeStandingsRowsForAllMembers(t *testing.T) {
	members := []models.GroupMember{member(1, "A"), member(2, "B"), member(3, "C")}
	rows := ComputeStandings(members, nil)

	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, members[i].TeamID, row.TeamID, "zero-match table keeps membership order")
		assert.Zero(t, row.Played)
		assert.Zero(t, row.Points)
	}
}

// Every finished match distributes exactly two points.
func TestComputeStandingsPointsSumOracle(t *testing.T) {
	members := []models.GroupMember{member(1, "A"), member(2, "B"), member(3, "C"), member(4, "D")}
	matches := []*models.Match{
		finished(1, 1, 2, 3, 0),
		finished(2, 3, 4, 2, 2),
		finished(3, 1, 3, 1, 2),
		finished(4, 2, 4, 0, 0),
		finished(5, 1, 4, 5, 1),
	}

	rows := ComputeStandings(members, matches)
	total := 0
	for _, row := range rows {
		total += row.Points
	}
	assert.Equal(t, 2*len(matches), total)
}

func TestComputeStandingsIgnoresUnfinished(t *testing.T) {
	members := []models.GroupMember{member(1, "A"), member(2, "B")}
	live := finished(1, 1, 2, 4, 0)
	live.Status = models.MatchStatusLive
	cancelled := finished(2, 1, 2, 3, 0)
	cancelled.Status = models.MatchStatusCancelled

	rows := ComputeStandings(members, []*models.Match{live, cancelled})
	for _, row := range rows {
		assert.Zero(t, row.Played)
		assert.Zero(t, row.GoalsFor)
	}
}

func TestComputeStandingsTieKeepsMembershipOrder(t *testing.T) {
	// Two identical draws: every column equal, order must stay B-first
	// because B was listed first in the membership.
	members := []models.GroupMember{member(5, "B"), member(4, "A")}
	matches := []*models.Match{finished(1, 5, 4, 1, 1)}

	rows := ComputeStandings(members, matches)
	require.Len(t, rows, 2)
	assert.Equal(t, 5, rows[0].TeamID)
	assert.Equal(t, 4, rows[1].TeamID)
}

func TestComputeStandingsIsCommutative(t *testing.T) {
	members := []models.GroupMember{member(1, "A"), member(2, "B"), member(3, "C")}
	matches := []*models.Match{
		finished(1, 1, 2, 2, 1),
		finished(2, 2, 3, 1, 1),
		finished(3, 1, 3, 0, 2),
	}
	reversed := []*models.Match{matches[2], matches[1], matches[0]}

	assert.Equal(t, ComputeStandings(members, matches), ComputeStandings(members, reversed))
}

func TestGroupTableUsesSnapshot(t *testing.T) {
	repo := repositories.NewMemoryMatchRepository()
	repo.SeedGroup(1, member(1, "A"), member(2, "B"))
	repo.Seed(finished(1, 1, 2, 1, 0))

	svc := NewStandingsService(repo, stubGroupRepo{})
	rows, err := svc.GroupTable(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Points)
	assert.Equal(t, 0, rows[1].Points)
}

func TestGroupTableUnknownGroup(t *testing.T) {
	repo := repositories.NewMemoryMatchRepository()
	svc := NewStandingsService(repo, stubGroupRepo{})

	_, err := svc.GroupTable(context.Background(), 99)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

// stubGroupRepo backs the not-found path; group 1 exists, everything else
// does not.
type stubGroupRepo struct{}

func (stubGroupRepo) GetByID(ctx context.Context, id int) (*models.Group, error) {
	if id == 1 {
		return &models.Group{ID: 1, PhaseID: 1, Name: "Grupo A"}, nil
	}
	return nil, repositories.ErrGroupNotFound
}

func (stubGroupRepo) ListByPhase(ctx context.Context, phaseID int) ([]*models.Group, error) {
	return []*models.Group{{ID: 1, PhaseID: phaseID, Name: "Grupo A"}}, nil
}

func (stubGroupRepo) Members(ctx context.Context, groupID int) ([]models.GroupMember, error) {
	return nil, nil
}
