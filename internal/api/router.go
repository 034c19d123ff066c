package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/campuslostfound/lostfound/internal/api/recovery"
	"github.com/campuslostfound/lostfound/internal/auth"
	"github.com/campuslostfound/lostfound/internal/imagestore"
	"github.com/campuslostfound/lostfound/internal/services"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Reports       *services.ReportService
	Matches       *services.MatchService
	Notifications *services.NotificationService
	Uploader      *imagestore.Uploader
	Authorizer    auth.Authorizer
	Health        HealthReporter
	// LocalImages serves uploaded files when the local image store is used.
	LocalImages http.Handler
}

// NewRouter wires HTTP routes to handlers.
func NewRouter(d Deps) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	root.HandleFunc("/api/health", NewHealthHandler(d.Health).CheckHealth).Methods("GET")
	if d.LocalImages != nil {
		root.PathPrefix(imagestore.LocalPathPrefix).
			Handler(http.StripPrefix(imagestore.LocalPathPrefix, d.LocalImages)).
			Methods("GET")
	}

	authed := root.PathPrefix("/api").Subrouter()
	authed.Use(Authenticate(d.Authorizer))

	// Reports
	reports := NewReportHandler(d.Reports)
	authed.HandleFunc("/reports", reports.CreateReport).Methods("POST")
	authed.HandleFunc("/reports", reports.ListReports).Methods("GET")
	authed.HandleFunc("/reports/mine", reports.ListMine).Methods("GET")
	authed.HandleFunc("/reports/{reportId}", reports.GetReport).Methods("GET")
	authed.HandleFunc("/reports/{reportId}/resolve", reports.ResolveReport).Methods("PATCH")

	// Matching
	matches := NewMatchHandler(d.Matches)
	authed.HandleFunc("/match", matches.TriggerMatch).Methods("POST")
	authed.HandleFunc("/matches", matches.ListMatches).Methods("GET")

	// Notifications
	notes := NewNotificationHandler(d.Notifications)
	authed.HandleFunc("/notifications", notes.ListNotifications).Methods("GET")
	authed.HandleFunc("/notifications/{notificationId}/read", notes.MarkRead).Methods("POST")

	// Photos
	if d.Uploader != nil {
		authed.HandleFunc("/images", NewImageHandler(d.Uploader).UploadImage).Methods("POST")
	}

	return root
}
