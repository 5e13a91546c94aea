package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixtura/livescore-system/handlers"
	"github.com/fixtura/livescore-system/live"
	"github.com/fixtura/livescore-system/models"
	"github.com/fixtura/livescore-system/repositories"
	"github.com/fixtura/livescore-system/routes"
	"github.com/fixtura/livescore-system/services"
)

type stubAdminRepo struct {
	admin repositories.Admin
}

func (r *stubAdminRepo) GetByEmail(ctx context.Context, email string) (*repositories.Admin, error) {
	if r.admin.Email == email {
		admin := r.admin
		return &admin, nil
	}
	return nil, repositories.ErrAdminNotFound
}

type stubGroupRepo struct{}

func (stubGroupRepo) GetByID(ctx context.Context, id int) (*models.Group, error) {
	return &models.Group{ID: id, PhaseID: 1, Name: "Grupo A"}, nil
}

func (stubGroupRepo) ListByPhase(ctx context.Context, phaseID int) ([]*models.Group, error) {
	return nil, nil
}

func (stubGroupRepo) Members(ctx context.Context, groupID int) ([]models.GroupMember, error) {
	return nil, nil
}

type stubTournamentRepo struct{}

func (stubTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	return nil, repositories.ErrTournamentNotFound
}

func (stubTournamentRepo) List(ctx context.Context) ([]*models.Tournament, error) {
	return []*models.Tournament{}, nil
}

type stubPhaseRepo struct{}

func (stubPhaseRepo) GetByID(ctx context.Context, id int) (*models.Phase, error) {
	return nil, repositories.ErrPhaseNotFound
}

func (stubPhaseRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Phase, error) {
	return nil, nil
}

type stubTeamRepo struct{}

func (stubTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	return nil, repositories.ErrTeamNotFound
}

func (stubTeamRepo) List(ctx context.Context) ([]*models.Team, error) {
	return []*models.Team{}, nil
}

func (stubTeamRepo) UpdateCrestKey(ctx context.Context, id int, crestKey *string) error {
	return repositories.ErrTeamNotFound
}

type testServer struct {
	*httptest.Server
	matchRepo *repositories.MemoryMatchRepository
	hub       *live.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	matchRepo := repositories.NewMemoryMatchRepository()
	groupID := 3
	matchRepo.Seed(&models.Match{
		ID:         1,
		PhaseID:    1,
		GroupID:    &groupID,
		HomeTeamID: 1,
		AwayTeamID: 2,
		Date:       time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC),
		Kickoff:    "18:30",
		Venue:      "Cancha 1",
		Status:     models.MatchStatusScheduled,
	})
	matchRepo.Seed(&models.Match{
		ID:         2,
		PhaseID:    9,
		HomeTeamID: 3,
		AwayTeamID: 4,
		Date:       time.Date(2026, 4, 13, 0, 0, 0, 0, time.UTC),
		Status:     models.MatchStatusScheduled,
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("s3creto"), bcrypt.MinCost)
	require.NoError(t, err)
	adminRepo := &stubAdminRepo{admin: repositories.Admin{
		ID: 1, Email: "admin@club.test", PasswordHash: string(hash),
	}}

	hub := live.NewHub(logger)
	authService := services.NewAuthService(adminRepo, "test-secret")
	matchService := services.NewMatchService(matchRepo, hub, logger)
	standingsService := services.NewStandingsService(matchRepo, stubGroupRepo{})
	teamService := services.NewTeamService(stubTeamRepo{}, nil)

	router := chi.NewRouter()
	routes.SetupRoutes(
		router,
		[]string{"*"},
		authService,
		handlers.NewAuthHandler(authService),
		handlers.NewMatchHandler(matchService),
		handlers.NewStandingsHandler(standingsService),
		handlers.NewTournamentHandler(stubTournamentRepo{}, stubPhaseRepo{}),
		handlers.NewTeamHandler(teamService),
		handlers.NewWebSocketHandler(hub, logger),
	)

	return &testServer{Server: httptest.NewServer(router), matchRepo: matchRepo, hub: hub}
}

func (ts *testServer) login(t *testing.T) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/auth/login", "application/json",
		bytes.NewBufferString(`{"email":"admin@club.test","password":"s3creto"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func (ts *testServer) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeMatch(t *testing.T, resp *http.Response) models.Match {
	t.Helper()
	defer resp.Body.Close()
	var body struct {
		Match models.Match `json:"match"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Match
}

func TestAdminMutationFlow(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	token := ts.login(t)

	resp := ts.do(t, http.MethodPost, "/matches/1/start", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.MatchStatusLive, decodeMatch(t, resp).Status)

	resp = ts.do(t, http.MethodPost, "/matches/1/score", token, `{"side":"home","delta":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decodeMatch(t, resp).HomeGoals)

	resp = ts.do(t, http.MethodPost, "/matches/1/finish", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.MatchStatusFinished, decodeMatch(t, resp).Status)

	// Finished is terminal: a second finish is a stale-view conflict.
	resp = ts.do(t, http.MethodPost, "/matches/1/finish", token, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestMutationsRejectedWithoutToken(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp := ts.do(t, http.MethodPost, "/matches/1/start", "", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdjustScoreValidationError(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	token := ts.login(t)

	resp := ts.do(t, http.MethodPost, "/matches/1/start", token, "")
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/matches/1/score", token, `{"side":"middle","delta":1}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUnknownMatch(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp := ts.do(t, http.MethodGet, "/matches/99", "", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/auth/login", "application/json",
		bytes.NewBufferString(`{"email":"admin@club.test","password":"wrong"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func dialScope(t *testing.T, ts *testServer, path string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

func readSignal(t *testing.T, conn *websocket.Conn) live.Signal {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var sig live.Signal
	require.NoError(t, conn.ReadJSON(&sig))
	return sig
}

// Subscribing to a phase topic and finishing one of its matches yields one
// refresh for the phase topic and one for the match topic, and nothing on
// an unrelated phase's topic.
func TestWebsocketPhaseSubscriptionReceivesRefresh(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	token := ts.login(t)

	phaseConn := dialScope(t, ts, "/ws/phases/1")
	defer phaseConn.Close()
	matchConn := dialScope(t, ts, "/ws/matches/1")
	defer matchConn.Close()
	otherPhaseConn := dialScope(t, ts, "/ws/phases/9")
	defer otherPhaseConn.Close()

	// Initial snapshot triggers arrive first.
	assert.Equal(t, live.PhaseScope(1), readSignal(t, phaseConn).Scope)
	assert.Equal(t, live.MatchScope(1), readSignal(t, matchConn).Scope)
	assert.Equal(t, live.PhaseScope(9), readSignal(t, otherPhaseConn).Scope)

	resp := ts.do(t, http.MethodPost, "/matches/1/start", token, "")
	resp.Body.Close()
	resp = ts.do(t, http.MethodPost, "/matches/1/finish", token, "")
	resp.Body.Close()

	for i := 0; i < 2; i++ { // one refresh per mutation
		sig := readSignal(t, phaseConn)
		assert.Equal(t, live.PhaseScope(1), sig.Scope)
		assert.Equal(t, 1, sig.EntityID)

		sig = readSignal(t, matchConn)
		assert.Equal(t, live.MatchScope(1), sig.Scope)
		assert.Equal(t, 1, sig.EntityID)
	}

	// The unrelated phase stays silent.
	require.NoError(t, otherPhaseConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var sig live.Signal
	err := otherPhaseConn.ReadJSON(&sig)
	assert.Error(t, err, "expected a read timeout, got signal %+v", sig)
}

func TestStandingsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	token := ts.login(t)

	ts.matchRepo.SeedGroup(3,
		models.GroupMember{GroupID: 3, TeamID: 1, TeamName: "A"},
		models.GroupMember{GroupID: 3, TeamID: 2, TeamName: "B"},
	)

	for _, path := range []string{"/matches/1/start", "/matches/1/finish"} {
		resp := ts.do(t, http.MethodPost, path, token, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := ts.do(t, http.MethodGet, "/groups/3/standings", "", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Standings []models.StandingRow `json:"standings"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Standings, 2)
	// 0:0 draw: one point each, order keeps the membership.
	for i, row := range body.Standings {
		assert.Equal(t, 1, row.Points, fmt.Sprintf("row %d", i))
		assert.Equal(t, 1, row.Drawn)
	}
}

func TestLiveListEndpoint(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	token := ts.login(t)

	resp := ts.do(t, http.MethodGet, "/live", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Matches []models.Match `json:"matches"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Len(t, body.Matches, 2, "both scheduled matches are upcoming")

	// Cancelling removes a match from the live list.
	resp = ts.do(t, http.MethodPost, "/matches/2/cancel", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/live", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body.Matches = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	require.Len(t, body.Matches, 1)
	assert.Equal(t, 1, body.Matches[0].ID)
}
