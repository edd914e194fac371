package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/quangduy772005-oss/BKT2-FullStack/middleware"
	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
	"github.com/quangduy772005-oss/BKT2-FullStack/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	bracketService    services.BracketService
}

func NewTournamentHandler(ts services.TournamentService, bs services.BracketService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		bracketService:    bs,
	}
}

type createTournamentRequest struct {
	Name            string                  `json:"name" validate:"required,max=200"`
	Description     *string                 `json:"description" validate:"omitempty,max=2000"`
	StartDate       time.Time               `json:"start_date" validate:"required"`
	EndDate         time.Time               `json:"end_date" validate:"required,gtfield=StartDate"`
	Type            models.TournamentType   `json:"type" validate:"required,oneof=Duel MiniGame Professional"`
	Format          models.TournamentFormat `json:"format" validate:"required"`
	EntryFee        int64                   `json:"entry_fee" validate:"gte=0"`
	PrizePool       int64                   `json:"prize_pool" validate:"gte=0"`
	MaxParticipants int                     `json:"max_participants" validate:"required,min=2"`
}

type joinTournamentRequest struct {
	MemberID *int    `json:"member_id" validate:"omitempty,min=1"`
	TeamName *string `json:"team_name" validate:"omitempty,max=100"`
}

type seedingRequest struct {
	UseSeeding *bool `json:"use_seeding"`
}

type cancelTournamentRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// CreateHandler handles POST /tournaments.
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req createTournamentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), services.CreateTournamentInput{
		Name:            req.Name,
		Description:     req.Description,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Type:            req.Type,
		Format:          req.Format,
		EntryFee:        req.EntryFee,
		PrizePool:       req.PrizePool,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"tournament": tournament})
}

// GetByIDHandler handles GET /tournaments/{tournamentID}.
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

// ListHandler handles GET /tournaments.
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListTournamentsFilter
	query := r.URL.Query()

	if statusStr := query.Get("status"); statusStr != "" {
		status := models.TournamentStatus(statusStr)
		if !status.Valid() {
			badRequestResponse(w, r, errors.New("invalid status query parameter"))
			return
		}
		filter.Status = &status
	}
	if formatStr := query.Get("format"); formatStr != "" {
		format := models.TournamentFormat(formatStr)
		if !format.Valid() {
			badRequestResponse(w, r, errors.New("invalid format query parameter"))
			return
		}
		filter.Format = &format
	}
	filter.IncludeInactive = query.Get("include_inactive") == "true"

	var err error
	if filter.Limit, err = queryInt(r, "limit", 20); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournaments, err := h.tournamentService.ListTournaments(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if tournaments == nil {
		tournaments = []models.Tournament{}
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournaments": tournaments})
}

// ListParticipantsHandler handles GET /tournaments/{tournamentID}/participants.
func (h *TournamentHandler) ListParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participants, err := h.tournamentService.ListParticipants(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if participants == nil {
		participants = []models.Participant{}
	}
	respond(w, r, http.StatusOK, jsonResponse{"participants": participants})
}

// JoinHandler handles POST /tournaments/{tournamentID}/join. Members join as themselves;
// admins may register any member.
func (h *TournamentHandler) JoinHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req joinTournamentRequest
	if err := readOptionalJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	memberID, err := actingMember(r, req.MemberID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	participant, err := h.tournamentService.JoinTournament(r.Context(), id, memberID, req.TeamName)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"participant": participant})
}

// WithdrawHandler handles POST /tournaments/{tournamentID}/withdraw.
func (h *TournamentHandler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req joinTournamentRequest
	if err := readOptionalJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	memberID, err := actingMember(r, req.MemberID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	participant, err := h.tournamentService.WithdrawParticipant(r.Context(), id, memberID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"participant": participant})
}

// MarkPaidHandler handles POST /tournaments/{tournamentID}/participants/{participantID}/paid.
func (h *TournamentHandler) MarkPaidHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participantID, err := getIDFromURL(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participant, err := h.tournamentService.MarkParticipantPaid(r.Context(), id, participantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"participant": participant})
}

// StartHandler handles POST /tournaments/{tournamentID}/start. Seeding is on unless the body
// turns it off.
func (h *TournamentHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	useSeeding, ok := readSeeding(w, r)
	if !ok {
		return
	}
	tournament, err := h.tournamentService.StartTournament(r.Context(), id, useSeeding)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

// EndHandler handles POST /tournaments/{tournamentID}/end.
func (h *TournamentHandler) EndHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournament, err := h.tournamentService.EndTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

// CancelHandler handles POST /tournaments/{tournamentID}/cancel.
func (h *TournamentHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req cancelTournamentRequest
	if err := readOptionalJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournament, err := h.tournamentService.CancelTournament(r.Context(), id, req.Reason)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

// DeactivateHandler handles DELETE /tournaments/{tournamentID}.
func (h *TournamentHandler) DeactivateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.tournamentService.DeactivateTournament(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BuildBracketHandler handles POST /tournaments/{tournamentID}/bracket.
func (h *TournamentHandler) BuildBracketHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	useSeeding, ok := readSeeding(w, r)
	if !ok {
		return
	}
	nodes, err := h.bracketService.BuildBracket(r.Context(), id, useSeeding)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"nodes": nodes})
}

// DiscardBracketHandler handles DELETE /tournaments/{tournamentID}/bracket.
func (h *TournamentHandler) DiscardBracketHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.bracketService.DiscardBracket(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func readSeeding(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var req seedingRequest
	if err := readOptionalJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return false, false
	}
	if req.UseSeeding == nil {
		return true, true
	}
	return *req.UseSeeding, true
}

// actingMember resolves whose registration a request changes.
func actingMember(r *http.Request, requested *int) (int, error) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", services.ErrForbiddenOperation, err)
	}
	if requested == nil || *requested == userID {
		return userID, nil
	}
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil || role != models.RoleAdmin {
		return 0, fmt.Errorf("%w: only admins can act for another member", services.ErrForbiddenOperation)
	}
	return *requested, nil
}
