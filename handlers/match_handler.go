package handlers

import (
	"net/http"
	"time"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

type createMatchRequest struct {
	TournamentID   *int       `json:"tournament_id" validate:"omitempty,min=1"`
	Format         string     `json:"format" validate:"omitempty,oneof=Singles Doubles"`
	Team1Player1ID int        `json:"team1_player1_id" validate:"required,min=1"`
	Team1Player2ID *int       `json:"team1_player2_id" validate:"omitempty,min=1"`
	Team2Player1ID int        `json:"team2_player1_id" validate:"required,min=1"`
	Team2Player2ID *int       `json:"team2_player2_id" validate:"omitempty,min=1"`
	PlayedAt       *time.Time `json:"played_at"`
}

type recordResultRequest struct {
	Result     string `json:"result" validate:"required"`
	Team1Score *int   `json:"team1_score" validate:"omitempty,gte=0"`
	Team2Score *int   `json:"team2_score" validate:"omitempty,gte=0"`
}

// CreateHandler handles POST /matches.
func (h *MatchHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	match, err := h.matchService.CreateMatch(r.Context(), services.CreateMatchInput{
		TournamentID:   req.TournamentID,
		Format:         models.MatchFormat(req.Format),
		Team1Player1ID: req.Team1Player1ID,
		Team1Player2ID: req.Team1Player2ID,
		Team2Player1ID: req.Team2Player1ID,
		Team2Player2ID: req.Team2Player2ID,
		PlayedAt:       req.PlayedAt,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"match": match})
}

// GetByIDHandler handles GET /matches/{matchID}.
func (h *MatchHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.GetMatch(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": match})
}

// RecordResultHandler handles POST /matches/{matchID}/result. Legacy result names are accepted.
func (h *MatchHandler) RecordResultHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req recordResultRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := models.ParseMatchResult(req.Result)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var scores *models.MatchScores
	switch {
	case req.Team1Score != nil && req.Team2Score != nil:
		scores = &models.MatchScores{Team1: *req.Team1Score, Team2: *req.Team2Score}
	case req.Team1Score != nil || req.Team2Score != nil:
		failedValidationResponse(w, r, map[string]string{"team2_score": "both scores must be given together"})
		return
	}

	recorded, err := h.matchService.RecordResult(r.Context(), id, result, scores)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, recorded)
}
