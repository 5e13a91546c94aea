package handlers

import (
	"errors"
	"net/http"

	"github.com/fixtura/livescore-system/repositories"
)

type TournamentHandler struct {
	tournaments repositories.TournamentRepository
	phases      repositories.PhaseRepository
}

func NewTournamentHandler(tournaments repositories.TournamentRepository, phases repositories.PhaseRepository) *TournamentHandler {
	return &TournamentHandler{tournaments: tournaments, phases: phases}
}

func (h *TournamentHandler) ListTournamentsHandler(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournaments.List(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournaments.GetByID(r.Context(), tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			notFoundResponse(w, r)
			return
		}
		serverErrorResponse(w, r, err)
		return
	}

	phases, err := h.phases.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	for _, p := range phases {
		tournament.Phases = append(tournament.Phases, *p)
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) ListPhasesHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.tournaments.GetByID(r.Context(), tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			notFoundResponse(w, r)
			return
		}
		serverErrorResponse(w, r, err)
		return
	}

	phases, err := h.phases.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"phases": phases}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
