// Package invariants checks lost-and-found system invariants through the public
// HTTP API only. It treats the service as a black box and runs against any base URL.
package invariants

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// InvariantChecker exercises a running service as external users.
type InvariantChecker struct {
	baseURL string
	client  *http.Client
}

func NewInvariantChecker(baseURL string) *InvariantChecker {
	return &InvariantChecker{
		baseURL: baseURL,
		client: &http.Client{
			// POST /api/match waits for the oracle
			Timeout: 60 * time.Second,
		},
	}
}

// RunAll runs every invariant with fresh dev users.
func (ic *InvariantChecker) RunAll(t *testing.T) {
	t.Run("MatchRecordedOncePerPair", ic.TestMatchRecordedOncePerPair)
	t.Run("MatchesSortedByConfidence", ic.TestMatchesSortedByConfidence)
	t.Run("ResolvedReportsStayResolved", ic.TestResolvedReportsStayResolved)
	t.Run("OwnerIsolation", ic.TestOwnerIsolation)
	t.Run("UnknownItemIsNotFound", ic.TestUnknownItemIsNotFound)
}

// Repeated triggers for the same report never duplicate a (lost, found) record, and
// both sides of a recorded pair leave the open state.
func (ic *InvariantChecker) TestMatchRecordedOncePerPair(t *testing.T) {
	lostOwner, foundOwner := newUser(), newUser()
	lost := ic.createReport(t, lostOwner, "lost", "Keys", "Blue keyring "+suffix())
	found := ic.createReport(t, foundOwner, "found", "Keys", "Keyring with blue tag "+suffix())

	for i := 0; i < 3; i++ {
		ic.trigger(t, foundOwner, found.ID, "found")
	}
	ic.trigger(t, lostOwner, lost.ID, "lost")

	n := 0
	for _, m := range ic.listMatches(t, lostOwner) {
		if m.LostReportID == lost.ID && m.FoundReportID == found.ID {
			n++
		}
	}
	require.LessOrEqual(t, n, 1, "pair recorded more than once")
	if n == 1 {
		assert.Equal(t, "matched", ic.getReport(t, lostOwner, lost.ID).Status)
		assert.Equal(t, "matched", ic.getReport(t, foundOwner, found.ID).Status)
	}
}

// Accepted candidates come back best first and always pair opposite kinds.
func (ic *InvariantChecker) TestMatchesSortedByConfidence(t *testing.T) {
	owner := newUser()
	lost := ic.createReport(t, owner, "lost", "Books", "Calculus textbook "+suffix())
	ic.createReport(t, newUser(), "found", "Books", "Textbook left in hall "+suffix())
	ic.createReport(t, newUser(), "found", "Books", "Math book "+suffix())

	res := ic.trigger(t, owner, lost.ID, "lost")
	require.NotNil(t, res.Matches)
	assert.True(t, sort.SliceIsSorted(res.Matches, func(i, j int) bool {
		return res.Matches[i].Confidence > res.Matches[j].Confidence
	}), "matches not sorted by confidence")
	for _, m := range res.Matches {
		assert.Equal(t, lost.ID, m.LostItemID)
		assert.NotEqual(t, lost.ID, m.FoundItemID)
		assert.GreaterOrEqual(t, m.Confidence, 0)
		assert.LessOrEqual(t, m.Confidence, 100)
	}
}

// Persisting a match never reopens or re-marks a resolved report.
func (ic *InvariantChecker) TestResolvedReportsStayResolved(t *testing.T) {
	lostOwner, foundOwner := newUser(), newUser()
	lost := ic.createReport(t, lostOwner, "lost", "Bag", "Black backpack "+suffix())
	ic.makeRequest(t, lostOwner, http.MethodPatch, "/api/reports/"+lost.ID+"/resolve", nil, http.StatusOK)

	found := ic.createReport(t, foundOwner, "found", "Bag", "Backpack by the gym "+suffix())
	ic.trigger(t, foundOwner, found.ID, "found")

	assert.Equal(t, "resolved", ic.getReport(t, lostOwner, lost.ID).Status)
}

// Users cannot act on other users' reports or notifications.
func (ic *InvariantChecker) TestOwnerIsolation(t *testing.T) {
	owner, other := newUser(), newUser()
	rep := ic.createReport(t, owner, "lost", "Phone", "Cracked phone "+suffix())

	ic.makeRequest(t, other, http.MethodPatch, "/api/reports/"+rep.ID+"/resolve", nil, http.StatusForbidden)
	assert.Equal(t, "open", ic.getReport(t, owner, rep.ID).Status)

	ic.makeRequest(t, other, http.MethodPost, "/api/notifications/"+uuid.NewString()+"/read", nil, http.StatusNotFound)
}

func (ic *InvariantChecker) TestUnknownItemIsNotFound(t *testing.T) {
	ic.makeRequest(t, newUser(), http.MethodPost, "/api/match",
		map[string]string{"itemId": uuid.NewString(), "itemType": "lost"}, http.StatusNotFound)
}

// --- helpers ---

func newUser() string { return "inv-" + uuid.NewString()[:8] }
func suffix() string  { return uuid.NewString()[:6] }

func (ic *InvariantChecker) createReport(t *testing.T, owner, kind, category, title string) ReportResponse {
	body := ic.makeRequest(t, owner, http.MethodPost, "/api/reports", map[string]interface{}{
		"kind": kind, "category": category, "title": title,
		"description": "invariant check", "location": "Main quad",
		"occurredOn": time.Now().UTC().Format(time.DateOnly),
	}, http.StatusCreated)
	var r ReportResponse
	require.NoError(t, json.Unmarshal(body, &r))
	return r
}

func (ic *InvariantChecker) getReport(t *testing.T, user, id string) ReportResponse {
	var r ReportResponse
	require.NoError(t, json.Unmarshal(ic.makeRequest(t, user, http.MethodGet, "/api/reports/"+id, nil, http.StatusOK), &r))
	return r
}

func (ic *InvariantChecker) trigger(t *testing.T, user, id, kind string) MatchResponse {
	var r MatchResponse
	body := ic.makeRequest(t, user, http.MethodPost, "/api/match",
		map[string]string{"itemId": id, "itemType": kind}, http.StatusOK)
	require.NoError(t, json.Unmarshal(body, &r))
	return r
}

func (ic *InvariantChecker) listMatches(t *testing.T, user string) []MatchRecordResponse {
	var r struct {
		Matches []MatchRecordResponse `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(ic.makeRequest(t, user, http.MethodGet, "/api/matches", nil, http.StatusOK), &r))
	return r.Matches
}

func (ic *InvariantChecker) makeRequest(t *testing.T, user, method, path string, body interface{}, expectedStatus int) []byte {
	var reqBody []byte
	var err error

	if body != nil {
		reqBody, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, ic.baseURL+path, bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer dev:%s", user))

	resp, err := ic.client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, expectedStatus, resp.StatusCode,
		"%s %s: %s", method, path, string(respBody))
	return respBody
}

// Request/Response models for API interactions

type ReportResponse struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Status  string `json:"status"`
	OwnerID string `json:"ownerId"`
}

type MatchCandidateResponse struct {
	LostItemID  string `json:"lostItemId"`
	FoundItemID string `json:"foundItemId"`
	Confidence  int    `json:"confidence"`
	Reasoning   string `json:"reasoning"`
}

type MatchResponse struct {
	Matches []MatchCandidateResponse `json:"matches"`
	Message string                   `json:"message"`
}

type MatchRecordResponse struct {
	ID            string `json:"id"`
	LostReportID  string `json:"lostReportId"`
	FoundReportID string `json:"foundReportId"`
	Confidence    int    `json:"confidence"`
}
