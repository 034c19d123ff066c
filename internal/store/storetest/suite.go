// Package storetest is a compliance suite shared by every store.Store implementation.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/store"
)

// Run exercises the store contract. makeStore must return a migrated store; it may be
// shared between subtests, so assertions only look at rows the suite created itself.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("Reports", func(t *testing.T) { testReports(t, makeStore(t)) })
	t.Run("ReportStatus", func(t *testing.T) { testReportStatus(t, makeStore(t)) })
	t.Run("Matches", func(t *testing.T) { testMatches(t, makeStore(t)) })
	t.Run("Notifications", func(t *testing.T) { testNotifications(t, makeStore(t)) })
	t.Run("Outbox", func(t *testing.T) { testOutbox(t, makeStore(t)) })
}

func newReport(owner string, kind model.ReportKind, category, title string) *model.Report {
	return &model.Report{
		Kind:        kind,
		Category:    category,
		Title:       title,
		Description: "test description",
		Location:    "Library",
		OccurredOn:  "2026-10-01",
		OwnerID:     owner,
	}
}

func testReports(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := "u-" + uuid.NewString()

	at := "14:30"
	in := newReport(owner, model.KindLost, "Wallet", "Black wallet")
	in.OccurredAt = &at
	r1, err := s.Reports().Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r1.ReportID == "" || r1.Status != model.StatusOpen || r1.CreatedAt.IsZero() {
		t.Fatalf("Create: unexpected report %+v", r1)
	}

	got, err := s.Reports().GetByID(ctx, r1.ReportID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Black wallet" || got.Kind != model.KindLost || got.OwnerID != owner {
		t.Fatalf("GetByID: unexpected %+v", got)
	}
	if got.OccurredAt == nil || *got.OccurredAt != "14:30" {
		t.Fatalf("GetByID: occurredAt not round-tripped: %v", got.OccurredAt)
	}

	if _, err := s.Reports().GetByID(ctx, uuid.NewString()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetByID missing: want ErrNotFound, got %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	r2, err := s.Reports().Create(ctx, newReport(owner, model.KindFound, "Wallet", "Found wallet"))
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if _, err := s.Reports().Create(ctx, newReport(owner, model.KindFound, "Keys", "Found keys")); err != nil {
		t.Fatalf("Create third: %v", err)
	}

	lst, err := s.Reports().List(ctx, model.ReportFilter{OwnerID: owner})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lst) != 3 {
		t.Fatalf("List: want 3, got %d", len(lst))
	}
	if lst[0].CreatedAt.Before(lst[len(lst)-1].CreatedAt) {
		t.Fatalf("List: not newest first")
	}

	lst, err = s.Reports().List(ctx, model.ReportFilter{
		OwnerID: owner, Kind: model.KindFound, Status: model.StatusOpen, Category: "Wallet",
	})
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(lst) != 1 || lst[0].ReportID != r2.ReportID {
		t.Fatalf("List filtered: unexpected %v", lst)
	}

	lst, err = s.Reports().List(ctx, model.ReportFilter{OwnerID: owner, Limit: 2})
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(lst) != 2 {
		t.Fatalf("List limited: want 2, got %d", len(lst))
	}
}

func testReportStatus(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := "u-" + uuid.NewString()

	a, err := s.Reports().Create(ctx, newReport(owner, model.KindLost, "Phone", "Phone"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := s.Reports().Create(ctx, newReport(owner, model.KindFound, "Phone", "Phone"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Reports().Resolve(ctx, b.ReportID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := s.Reports().MarkMatched(ctx, a.ReportID, b.ReportID); err != nil {
		t.Fatalf("MarkMatched: %v", err)
	}

	got, _ := s.Reports().GetByID(ctx, a.ReportID)
	if got.Status != model.StatusMatched {
		t.Fatalf("MarkMatched: want matched, got %s", got.Status)
	}
	got, _ = s.Reports().GetByID(ctx, b.ReportID)
	if got.Status != model.StatusResolved {
		t.Fatalf("MarkMatched must not reopen resolved report, got %s", got.Status)
	}

	if _, err := s.Reports().Resolve(ctx, uuid.NewString()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Resolve missing: want ErrNotFound, got %v", err)
	}
}

func testMatches(t *testing.T, s store.Store) {
	ctx := context.Background()
	lostOwner := "u-" + uuid.NewString()
	foundOwner := "u-" + uuid.NewString()

	lost, err := s.Reports().Create(ctx, newReport(lostOwner, model.KindLost, "Bag", "Blue bag"))
	if err != nil {
		t.Fatalf("Create lost: %v", err)
	}
	found, err := s.Reports().Create(ctx, newReport(foundOwner, model.KindFound, "Bag", "Bag"))
	if err != nil {
		t.Fatalf("Create found: %v", err)
	}

	m, err := s.Matches().Create(ctx, &model.MatchRecord{LostReportID: lost.ReportID, FoundReportID: found.ReportID, Confidence: 82})
	if err != nil {
		t.Fatalf("Create match: %v", err)
	}
	if m.MatchID == "" || m.Status != model.MatchPending {
		t.Fatalf("Create match: unexpected %+v", m)
	}

	_, err = s.Matches().Create(ctx, &model.MatchRecord{LostReportID: lost.ReportID, FoundReportID: found.ReportID, Confidence: 90})
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("duplicate pair: want ErrConflict, got %v", err)
	}

	got, err := s.Matches().GetByPair(ctx, lost.ReportID, found.ReportID)
	if err != nil {
		t.Fatalf("GetByPair: %v", err)
	}
	if got.MatchID != m.MatchID || got.Confidence != 82 {
		t.Fatalf("GetByPair: unexpected %+v", got)
	}
	if _, err := s.Matches().GetByPair(ctx, found.ReportID, lost.ReportID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetByPair reversed: want ErrNotFound, got %v", err)
	}

	for _, owner := range []string{lostOwner, foundOwner} {
		lst, err := s.Matches().ListForOwner(ctx, owner)
		if err != nil {
			t.Fatalf("ListForOwner: %v", err)
		}
		if len(lst) != 1 || lst[0].MatchID != m.MatchID {
			t.Fatalf("ListForOwner(%s): unexpected %v", owner, lst)
		}
	}
	lst, err := s.Matches().ListForOwner(ctx, "u-"+uuid.NewString())
	if err != nil || len(lst) != 0 {
		t.Fatalf("ListForOwner stranger: n=%d err=%v", len(lst), err)
	}
}

func testNotifications(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := "u-" + uuid.NewString()

	n, err := s.Notifications().Create(ctx, &model.Notification{
		RecipientID: owner, ReportID: "r1", MatchID: "m1", Title: "Potential Match Found!", Message: "hello",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.NotificationID == "" || n.IsRead {
		t.Fatalf("Create: unexpected %+v", n)
	}

	lst, err := s.Notifications().ListUnread(ctx, owner)
	if err != nil || len(lst) != 1 {
		t.Fatalf("ListUnread: n=%d err=%v", len(lst), err)
	}
	if lst[0].MatchID != "m1" || lst[0].Title != "Potential Match Found!" {
		t.Fatalf("ListUnread: unexpected %+v", lst[0])
	}

	if err := s.Notifications().MarkRead(ctx, "u-"+uuid.NewString(), n.NotificationID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("MarkRead by stranger: want ErrNotFound, got %v", err)
	}
	if err := s.Notifications().MarkRead(ctx, owner, n.NotificationID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	lst, err = s.Notifications().ListUnread(ctx, owner)
	if err != nil || len(lst) != 0 {
		t.Fatalf("ListUnread after read: n=%d err=%v", len(lst), err)
	}
}

func testOutbox(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := "u-" + uuid.NewString()

	r, err := s.Reports().Create(ctx, newReport(owner, model.KindFound, "Keys", "Keyring"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	job := leaseFor(t, s, r.ReportID, time.Minute)
	if job == nil {
		t.Fatalf("Lease: job for report %s not found", r.ReportID)
	}
	if job.Op != store.OpMatchReport || job.AttemptCount != 0 {
		t.Fatalf("Lease: unexpected job %+v", job)
	}
	var payload struct {
		ItemID   string `json:"itemId"`
		ItemType string `json:"itemType"`
	}
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.ItemID != r.ReportID || payload.ItemType != "found" {
		t.Fatalf("payload: unexpected %+v", payload)
	}

	// Leased jobs are invisible until the lease expires.
	if again := leaseFor(t, s, r.ReportID, time.Minute); again != nil {
		t.Fatalf("Lease: job leased twice")
	}

	if err := s.Outbox().MarkFailed(ctx, job.ID, time.Now().Add(-time.Second), false, errors.New("oracle down")); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	retry := leaseFor(t, s, r.ReportID, -time.Second)
	if retry == nil || retry.AttemptCount != 1 {
		t.Fatalf("Lease after failure: unexpected %+v", retry)
	}

	// A negative lease expires immediately, so the job is reclaimable.
	reclaimed := leaseFor(t, s, r.ReportID, time.Minute)
	if reclaimed == nil || reclaimed.ID != job.ID {
		t.Fatalf("Lease: expired lease not reclaimed")
	}

	if err := s.Outbox().MarkDone(ctx, job.ID); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if done := leaseFor(t, s, r.ReportID, time.Minute); done != nil {
		t.Fatalf("Lease: done job returned")
	}

	r2, err := s.Reports().Create(ctx, newReport(owner, model.KindLost, "Keys", "Keys"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	j2 := leaseFor(t, s, r2.ReportID, time.Minute)
	if j2 == nil {
		t.Fatalf("Lease: job for %s not found", r2.ReportID)
	}
	if err := s.Outbox().MarkFailed(ctx, j2.ID, time.Now().Add(-time.Second), true, errors.New("gave up")); err != nil {
		t.Fatalf("MarkFailed final: %v", err)
	}
	if failed := leaseFor(t, s, r2.ReportID, time.Minute); failed != nil {
		t.Fatalf("Lease: permanently failed job returned")
	}
}

// leaseFor leases a large batch and returns the job for aggregateID, if any.
func leaseFor(t *testing.T, s store.Store, aggregateID string, d time.Duration) *model.OutboxJob {
	t.Helper()
	jobs, err := s.Outbox().Lease(context.Background(), 1000, d)
	if err != nil {
		t.Fatalf("Lease: %v", err)
	}
	for i := 1; i < len(jobs); i++ {
		if jobs[i-1].ID > jobs[i].ID {
			t.Fatalf("Lease: jobs not ordered by id")
		}
	}
	for i := range jobs {
		if jobs[i].AggregateID == aggregateID {
			return &jobs[i]
		}
	}
	return nil
}
