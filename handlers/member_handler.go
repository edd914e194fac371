package handlers

import (
	"net/http"

	"github.com/quangduy772005-oss/BKT2-FullStack/services"
)

type MemberHandler struct {
	memberService services.MemberService
}

func NewMemberHandler(ms services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: ms}
}

type createMemberRequest struct {
	FullName      string   `json:"full_name" validate:"required,max=200"`
	InitialRating *float64 `json:"initial_rating" validate:"omitempty,gt=0"`
}

// CreateHandler handles POST /members.
func (h *MemberHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	member, err := h.memberService.CreateMember(r.Context(), services.CreateMemberInput{
		FullName:      req.FullName,
		InitialRating: req.InitialRating,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"member": member})
}

// GetByIDHandler handles GET /members/{memberID}.
func (h *MemberHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "memberID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	member, err := h.memberService.GetMember(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"member": member})
}
