package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fixtura/livescore-system/models"
	"github.com/fixtura/livescore-system/repositories"
	"github.com/fixtura/livescore-system/storage"
)

type TeamService interface {
	GetByID(ctx context.Context, id int) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
	// UploadCrest stores a team crest and records its key. Requires an
	// admin capability.
	UploadCrest(ctx context.Context, cap Capability, teamID int, contentType string, reader io.Reader) (*models.Team, error)
}

type teamService struct {
	teams    repositories.TeamRepository
	uploader storage.FileUploader
}

// NewTeamService accepts a nil uploader; crest uploads then fail with
// ErrCrestStorageDisabled while reads keep working.
func NewTeamService(teams repositories.TeamRepository, uploader storage.FileUploader) TeamService {
	return &teamService{teams: teams, uploader: uploader}
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.fillCrestURL(team)
	return team, nil
}

func (s *teamService) List(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	for _, t := range teams {
		s.fillCrestURL(t)
	}
	return teams, nil
}

func (s *teamService) UploadCrest(ctx context.Context, cap Capability, teamID int, contentType string, reader io.Reader) (*models.Team, error) {
	if !cap.Valid() {
		return nil, ErrForbiddenOperation
	}
	if s.uploader == nil {
		return nil, ErrCrestStorageDisabled
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: got %q", ErrCrestInvalidType, contentType)
	}

	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	key := fmt.Sprintf("crests/team_%d_%d", teamID, time.Now().Unix())
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload crest for team %d: %w", teamID, err)
	}

	oldKey := team.CrestKey
	if err := s.teams.UpdateCrestKey(ctx, teamID, &result.Key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if oldKey != nil && *oldKey != result.Key {
		// Best effort, the new crest is already live.
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	team.CrestKey = &result.Key
	s.fillCrestURL(team)
	return team, nil
}

func (s *teamService) fillCrestURL(team *models.Team) {
	if s.uploader == nil || team.CrestKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*team.CrestKey)
	team.CrestURL = &url
}
