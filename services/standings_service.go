package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/fixtura/livescore-system/models"
	"github.com/fixtura/livescore-system/repositories"
)

const (
	pointsWin  = 2
	pointsDraw = 1
)

// ComputeStandings builds a group table from its membership and finished
// matches. Pure and fully recomputed on every call: accumulation is
// commutative, so match order does not matter. Rows exist for every member,
// including teams yet to play.
//
// Sort order is points descending, then goal difference descending. Ties
// beyond that keep the membership insertion order (stable sort); no further
// tiebreak is defined for this competition.
func ComputeStandings(members []models.GroupMember, finished []*models.Match) []models.StandingRow {
	rows := make([]models.StandingRow, len(members))
	index := make(map[int]*models.StandingRow, len(members))
	for i, member := range members {
		rows[i] = models.StandingRow{TeamID: member.TeamID, TeamName: member.TeamName}
		index[member.TeamID] = &rows[i]
	}

	for _, m := range finished {
		if m.Status != models.MatchStatusFinished {
			continue
		}
		home, away := index[m.HomeTeamID], index[m.AwayTeamID]
		if home == nil || away == nil {
			// A side outside the membership (data drift): skip rather
			// than corrupt the table.
			continue
		}

		home.Played++
		away.Played++
		home.GoalsFor += m.HomeGoals
		home.GoalsAgainst += m.AwayGoals
		away.GoalsFor += m.AwayGoals
		away.GoalsAgainst += m.HomeGoals

		switch {
		case m.HomeGoals > m.AwayGoals:
			home.Won++
			home.Points += pointsWin
			away.Lost++
		case m.AwayGoals > m.HomeGoals:
			away.Won++
			away.Points += pointsWin
			home.Lost++
		default:
			home.Drawn++
			away.Drawn++
			home.Points += pointsDraw
			away.Points += pointsDraw
		}
	}

	for i := range rows {
		rows[i].GoalDifference = rows[i].GoalsFor - rows[i].GoalsAgainst
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].GoalDifference > rows[j].GoalDifference
	})
	return rows
}

// PhaseStandings pairs a group with its computed table.
type PhaseStandings struct {
	Group models.Group        `json:"group"`
	Table []models.StandingRow `json:"table"`
}

type StandingsService interface {
	// GroupTable computes the table from one consistent snapshot of the
	// group's members and finished matches.
	GroupTable(ctx context.Context, groupID int) ([]models.StandingRow, error)
	// PhaseTables computes the tables of every group in a phase.
	PhaseTables(ctx context.Context, phaseID int) ([]PhaseStandings, error)
}

type standingsService struct {
	matches repositories.MatchRepository
	groups  repositories.GroupRepository
}

func NewStandingsService(matches repositories.MatchRepository, groups repositories.GroupRepository) StandingsService {
	return &standingsService{matches: matches, groups: groups}
}

func (s *standingsService) GroupTable(ctx context.Context, groupID int) ([]models.StandingRow, error) {
	snapshot, err := s.matches.Snapshot(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(snapshot.Members) == 0 {
		// Distinguish "empty group" from "no such group".
		if _, err := s.groups.GetByID(ctx, groupID); err != nil {
			if errors.Is(err, repositories.ErrGroupNotFound) {
				return nil, ErrGroupNotFound
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	return ComputeStandings(snapshot.Members, snapshot.Finished), nil
}

func (s *standingsService) PhaseTables(ctx context.Context, phaseID int) ([]PhaseStandings, error) {
	groups, err := s.groups.ListByPhase(ctx, phaseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	tables := make([]PhaseStandings, len(groups))
	g, gCtx := errgroup.WithContext(ctx)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			table, err := s.GroupTable(gCtx, group.ID)
			if err != nil {
				return fmt.Errorf("standings for group %d: %w", group.ID, err)
			}
			tables[i] = PhaseStandings{Group: *group, Table: table}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}
