// Package matching pairs a new report with open counterpart reports, scores each pair
// with the oracle, records strong matches and notifies both owners.
package matching

import (
	"fmt"
	"time"

	"github.com/campuslostfound/lostfound/internal/config"
	"github.com/campuslostfound/lostfound/internal/model"
)

// Config holds the pipeline thresholds.
type Config struct {
	// AcceptThreshold is the minimum confidence returned to the caller.
	AcceptThreshold int
	// PersistThreshold is the minimum confidence stored as a MatchRecord.
	PersistThreshold int
	// MaxCandidates caps both the candidate query and oracle concurrency.
	MaxCandidates int
	// OracleTimeout bounds every single oracle call.
	OracleTimeout time.Duration
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{AcceptThreshold: 60, PersistThreshold: 70, MaxCandidates: 20, OracleTimeout: 20 * time.Second}
}

// ConfigFrom maps service configuration onto pipeline thresholds.
func ConfigFrom(c *config.Config) Config {
	return Config{
		AcceptThreshold:  c.AcceptThreshold,
		PersistThreshold: c.PersistThreshold,
		MaxCandidates:    c.MaxCandidates,
		OracleTimeout:    c.OracleTimeout(),
	}
}

// Trigger asks the pipeline to match one report.
type Trigger struct {
	ItemID   string `json:"itemId"`
	ItemType string `json:"itemType"`
}

// Result is what a pipeline run reports back to the caller.
type Result struct {
	Matches   []model.MatchCandidate `json:"matches"`
	Message   string                 `json:"message"`
	Persisted int                    `json:"-"`
}

const (
	msgNoCandidates = "no items to compare"
	msgNoMatches    = "no strong matches found"
)

// foundMessage reports how many candidates were accepted.
func foundMessage(n int) string {
	if n == 1 {
		return "found 1 potential match"
	}
	return fmt.Sprintf("found %d potential matches", n)
}
