package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	respond "github.com/campuslostfound/lostfound/internal/api/respond"
	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/services"
	"github.com/campuslostfound/lostfound/internal/validate"
)

// ReportHandler provides HTTP transport for report operations.
type ReportHandler struct {
	svc *services.ReportService
}

func NewReportHandler(svc *services.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// CreateReport POST /api/reports
// Matching runs asynchronously; the response never waits for it.
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req validate.CreateReport
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	// field rules run in the service via validate.Report
	rep, err := h.svc.CreateReport(r.Context(), &model.Report{
		Kind:        model.ReportKind(req.Kind),
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		OccurredOn:  req.OccurredOn,
		OccurredAt:  req.OccurredAt,
		ImageRef:    req.ImageRef,
		OwnerID:     actorID(r),
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, rep)
}

// GetReport GET /api/reports/{reportId}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.GetReport(r.Context(), mux.Vars(r)["reportId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rep)
}

// ListReports GET /api/reports?kind=&status=&category=&limit=
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.ReportFilter{
		Kind:     model.ReportKind(q.Get("kind")),
		Status:   model.ReportStatus(q.Get("status")),
		Category: q.Get("category"),
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			respond.WriteBadRequest(w, "limit must be between 1 and 500")
			return
		}
		f.Limit = n
	}
	reps, err := h.svc.ListReports(r.Context(), f)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	writeReports(w, reps)
}

// ListMine GET /api/reports/mine
func (h *ReportHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	reps, err := h.svc.ListMine(r.Context(), actorID(r))
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	writeReports(w, reps)
}

// ResolveReport PATCH /api/reports/{reportId}/resolve
func (h *ReportHandler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.ResolveReport(r.Context(), actorID(r), mux.Vars(r)["reportId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rep)
}

func writeReports(w http.ResponseWriter, reps []*model.Report) {
	if reps == nil {
		reps = []*model.Report{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"reports": reps, "count": len(reps)})
}
