package api

import (
	"encoding/json"
	"errors"
	"net/http"

	respond "github.com/campuslostfound/lostfound/internal/api/respond"
	"github.com/campuslostfound/lostfound/internal/matching"
	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/services"
	"github.com/campuslostfound/lostfound/internal/validate"
)

// MatchHandler exposes the matching pipeline and recorded matches.
type MatchHandler struct {
	svc *services.MatchService
}

func NewMatchHandler(svc *services.MatchService) *MatchHandler {
	return &MatchHandler{svc: svc}
}

type matchResponse struct {
	Matches []model.MatchCandidate `json:"matches"`
	Message string                 `json:"message"`
}

// TriggerMatch POST /api/match
func (h *MatchHandler) TriggerMatch(w http.ResponseWriter, r *http.Request) {
	var req validate.MatchTrigger
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.ItemID == "" || req.ItemType == "" {
		respond.WriteBadRequest(w, "Missing itemId or itemType")
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	res, err := h.svc.Trigger(r.Context(), matching.Trigger{ItemID: req.ItemID, ItemType: req.ItemType})
	switch {
	case err == nil:
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, "Item not found")
		return
	default:
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, matchResponse{Matches: res.Matches, Message: res.Message})
}

// ListMatches GET /api/matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.ListMatches(r.Context(), actorID(r))
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if recs == nil {
		recs = []*model.MatchRecord{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"matches": recs, "count": len(recs)})
}
