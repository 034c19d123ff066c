package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/oracle"
	"github.com/campuslostfound/lostfound/internal/store"
	"github.com/campuslostfound/lostfound/internal/store/sqlite"
)

// scriptedOracle answers by "<lost title>/<found title>". Unknown pairs and
// negative scores are failures; block waits for the call context to end.
type scriptedOracle struct {
	mu     sync.Mutex
	scores map[string]int
	block  map[string]bool
	calls  int
}

func newScriptedOracle() *scriptedOracle {
	return &scriptedOracle{scores: map[string]int{}, block: map[string]bool{}}
}

func (o *scriptedOracle) set(lostTitle, foundTitle string, c int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scores[lostTitle+"/"+foundTitle] = c
}

func (o *scriptedOracle) hang(lostTitle, foundTitle string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.block[lostTitle+"/"+foundTitle] = true
}

func (o *scriptedOracle) Assess(ctx context.Context, lost, found *model.Report) (oracle.Verdict, error) {
	if lost.Kind != model.KindLost || found.Kind != model.KindFound {
		return oracle.Verdict{}, fmt.Errorf("pair not oriented: %s/%s", lost.Kind, found.Kind)
	}
	key := lost.Title + "/" + found.Title
	o.mu.Lock()
	o.calls++
	c, ok := o.scores[key]
	blocked := o.block[key]
	o.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return oracle.Verdict{}, ctx.Err()
	}
	if !ok || c < 0 {
		return oracle.Verdict{}, oracle.ErrNoOpinion
	}
	return oracle.Verdict{Confidence: c, Reasoning: "scripted " + key}, nil
}

func (o *scriptedOracle) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

type fixture struct {
	t      *testing.T
	store  store.Store
	oracle *scriptedOracle
	pipe   *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := sqlite.Bootstrap(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	o := newScriptedOracle()
	cfg := DefaultConfig()
	cfg.OracleTimeout = 100 * time.Millisecond
	return &fixture{t: t, store: st, oracle: o, pipe: New(st, o, cfg, zerolog.Nop())}
}

func (f *fixture) report(owner string, kind model.ReportKind, category, title string) *model.Report {
	f.t.Helper()
	r, err := f.store.Reports().Create(context.Background(), &model.Report{
		Kind: kind, Category: category, Title: title, Location: "Campus", OccurredOn: "2026-10-01", OwnerID: owner,
	})
	require.NoError(f.t, err)
	// Distinct created_at values keep store order deterministic.
	time.Sleep(2 * time.Millisecond)
	return r
}

func (f *fixture) run(r *model.Report) *Result {
	f.t.Helper()
	res, err := f.pipe.Run(context.Background(), Trigger{ItemID: r.ReportID, ItemType: string(r.Kind)})
	require.NoError(f.t, err)
	return res
}

func (f *fixture) status(r *model.Report) model.ReportStatus {
	f.t.Helper()
	got, err := f.store.Reports().GetByID(context.Background(), r.ReportID)
	require.NoError(f.t, err)
	return got.Status
}

func (f *fixture) unread(owner string) []*model.Notification {
	f.t.Helper()
	n, err := f.store.Notifications().ListUnread(context.Background(), owner)
	require.NoError(f.t, err)
	return n
}

func (f *fixture) matchesFor(owner string) []*model.MatchRecord {
	f.t.Helper()
	m, err := f.store.Matches().ListForOwner(context.Background(), owner)
	require.NoError(f.t, err)
	return m
}

func confidences(ms []model.MatchCandidate) []int {
	out := make([]int, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Confidence)
	}
	return out
}

func TestPipeline_EndToEnd(t *testing.T) {
	f := newFixture(t)
	a := f.report("alice", model.KindLost, "Phone", "Black iPhone")
	b := f.report("bob", model.KindFound, "Phone", "iPhone found at library")
	f.oracle.set("Black iPhone", "iPhone found at library", 85)

	res := f.run(b)

	want := []model.MatchCandidate{{LostID: a.ReportID, FoundID: b.ReportID, Confidence: 85}}
	if diff := cmp.Diff(want, res.Matches, cmpopts.IgnoreFields(model.MatchCandidate{}, "Reasoning")); diff != "" {
		t.Fatalf("matches mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "found 1 potential match", res.Message)
	assert.Equal(t, 1, res.Persisted)

	rec, err := f.store.Matches().GetByPair(context.Background(), a.ReportID, b.ReportID)
	require.NoError(t, err)
	assert.Equal(t, 85, rec.Confidence)
	assert.Equal(t, model.MatchPending, rec.Status)

	assert.Equal(t, model.StatusMatched, f.status(a))
	assert.Equal(t, model.StatusMatched, f.status(b))

	for owner, title := range map[string]string{"alice": "Black iPhone", "bob": "iPhone found at library"} {
		n := f.unread(owner)
		require.Len(t, n, 1, owner)
		assert.Equal(t, NotificationTitle, n[0].Title)
		assert.Contains(t, n[0].Message, "85")
		assert.Equal(t, fmt.Sprintf("Your item \"%s\" has a potential match with 85%% confidence.", title), n[0].Message)
		assert.Equal(t, rec.MatchID, n[0].MatchID)
	}
}

func TestPipeline_ThresholdProperty(t *testing.T) {
	f := newFixture(t)
	lost := f.report("alice", model.KindLost, "Wallet", "Brown wallet")

	scores := []int{100, 90, 71, 70, 69, 60, 59, 30, 0}
	for _, c := range scores {
		title := fmt.Sprintf("found-%d", c)
		f.report("finder", model.KindFound, "Wallet", title)
		f.oracle.set("Brown wallet", title, c)
	}
	f.report("finder", model.KindFound, "Wallet", "found-unscored")

	res := f.run(lost)

	assert.Equal(t, []int{100, 90, 71, 70, 69, 60}, confidences(res.Matches))
	assert.Equal(t, "found 6 potential matches", res.Message)
	assert.Equal(t, 4, res.Persisted)

	recs := f.matchesFor("alice")
	var persisted []int
	for _, r := range recs {
		assert.GreaterOrEqual(t, r.Confidence, 70)
		persisted = append(persisted, r.Confidence)
	}
	assert.ElementsMatch(t, []int{100, 90, 71, 70}, persisted)
	assert.Len(t, f.unread("alice"), 4)
	assert.Len(t, f.unread("finder"), 4)
}

func TestPipeline_Boundaries(t *testing.T) {
	for _, tc := range []struct {
		confidence int
		returned   bool
		persisted  bool
	}{
		{70, true, true},
		{69, true, false},
		{60, true, false},
		{59, false, false},
	} {
		t.Run(fmt.Sprint(tc.confidence), func(t *testing.T) {
			f := newFixture(t)
			l := f.report("alice", model.KindLost, "Keys", "Keyring")
			fd := f.report("bob", model.KindFound, "Keys", "Keys")
			f.oracle.set("Keyring", "Keys", tc.confidence)

			res := f.run(l)
			assert.Equal(t, tc.returned, len(res.Matches) == 1)

			_, err := f.store.Matches().GetByPair(context.Background(), l.ReportID, fd.ReportID)
			if tc.persisted {
				assert.NoError(t, err)
				assert.Equal(t, model.StatusMatched, f.status(fd))
			} else {
				assert.ErrorIs(t, err, model.ErrNotFound)
				assert.Equal(t, model.StatusOpen, f.status(fd))
				assert.Empty(t, f.unread("bob"))
			}
			if !tc.returned {
				assert.Equal(t, "no strong matches found", res.Message)
			}
		})
	}
}

func TestPipeline_TypeCorrectnessFromEitherSide(t *testing.T) {
	for _, triggerSide := range []model.ReportKind{model.KindLost, model.KindFound} {
		t.Run(string(triggerSide), func(t *testing.T) {
			f := newFixture(t)
			l := f.report("alice", model.KindLost, "Bag", "Blue backpack")
			fd := f.report("bob", model.KindFound, "Bag", "Backpack")
			f.oracle.set("Blue backpack", "Backpack", 88)

			trigger := l
			if triggerSide == model.KindFound {
				trigger = fd
			}
			res := f.run(trigger)
			require.Len(t, res.Matches, 1)
			assert.Equal(t, l.ReportID, res.Matches[0].LostID)
			assert.Equal(t, fd.ReportID, res.Matches[0].FoundID)

			for _, rec := range f.matchesFor("alice") {
				lr, err := f.store.Reports().GetByID(context.Background(), rec.LostReportID)
				require.NoError(t, err)
				fr, err := f.store.Reports().GetByID(context.Background(), rec.FoundReportID)
				require.NoError(t, err)
				assert.Equal(t, model.KindLost, lr.Kind)
				assert.Equal(t, model.KindFound, fr.Kind)
			}
		})
	}
}

func TestPipeline_IsolatesFailingOracleCall(t *testing.T) {
	f := newFixture(t)
	l := f.report("alice", model.KindLost, "Electronics", "Laptop")
	f.report("bob", model.KindFound, "Electronics", "slow")
	f.report("bob", model.KindFound, "Electronics", "eighty")
	f.report("bob", model.KindFound, "Electronics", "ninety")
	f.oracle.hang("Laptop", "slow")
	f.oracle.set("Laptop", "eighty", 80)
	f.oracle.set("Laptop", "ninety", 90)

	start := time.Now()
	res := f.run(l)

	assert.Equal(t, []int{90, 80}, confidences(res.Matches))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 3, f.oracle.callCount())
}

func TestPipeline_NoCandidates(t *testing.T) {
	f := newFixture(t)
	fd := f.report("bob", model.KindFound, "Keys", "Car keys")
	f.report("alice", model.KindLost, "Wallet", "Wallet")
	f.report("carol", model.KindFound, "Keys", "Other keys")

	res := f.run(fd)

	assert.Empty(t, res.Matches)
	assert.NotNil(t, res.Matches)
	assert.Equal(t, "no items to compare", res.Message)
	assert.Equal(t, 0, f.oracle.callCount())
	assert.Empty(t, f.matchesFor("bob"))
	assert.Empty(t, f.unread("bob"))
	assert.Equal(t, model.StatusOpen, f.status(fd))
}

func TestPipeline_IdempotentAcrossRuns(t *testing.T) {
	f := newFixture(t)
	l := f.report("alice", model.KindLost, "Books", "Calculus textbook")
	fd := f.report("bob", model.KindFound, "Books", "Math book")
	f.oracle.set("Calculus textbook", "Math book", 77)

	first := f.run(fd)
	require.Equal(t, 1, first.Persisted)

	second := f.run(fd)
	assert.Equal(t, 0, second.Persisted)

	assert.Len(t, f.matchesFor("alice"), 1)
	assert.Len(t, f.unread("alice"), 1)
	assert.Len(t, f.unread("bob"), 1)
	assert.Equal(t, model.StatusMatched, f.status(l))
}

func TestPersister_SkipsExistingPair(t *testing.T) {
	f := newFixture(t)
	l := f.report("alice", model.KindLost, "Clothing", "Red scarf")
	fd := f.report("bob", model.KindFound, "Clothing", "Scarf")

	p := NewPersister(f.store, NewDispatcher(f.store.Notifications(), zerolog.Nop()), 70, zerolog.Nop())
	accepted := []model.MatchCandidate{{LostID: l.ReportID, FoundID: fd.ReportID, Confidence: 75}}
	reports := map[string]*model.Report{l.ReportID: l, fd.ReportID: fd}

	first := p.Persist(context.Background(), accepted, reports)
	assert.Equal(t, PersistSummary{Created: 1}, first)

	second := p.Persist(context.Background(), accepted, reports)
	assert.Equal(t, PersistSummary{Existing: 1}, second)

	assert.Len(t, f.unread("alice"), 1)
	assert.Len(t, f.unread("bob"), 1)
}

func TestPipeline_ConcurrentTriggersRecordOnce(t *testing.T) {
	f := newFixture(t)
	l := f.report("alice", model.KindLost, "Accessories", "Silver watch")
	fd := f.report("bob", model.KindFound, "Accessories", "Watch")
	f.oracle.set("Silver watch", "Watch", 92)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, r := range []*model.Report{l, fd} {
		wg.Add(1)
		go func(r *model.Report) {
			defer wg.Done()
			_, err := f.pipe.Run(context.Background(), Trigger{ItemID: r.ReportID, ItemType: string(r.Kind)})
			errs <- err
		}(r)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Len(t, f.matchesFor("alice"), 1)
	assert.Len(t, f.unread("alice"), 1)
	assert.Len(t, f.unread("bob"), 1)
}

func TestPipeline_TieBreakKeepsStoreOrder(t *testing.T) {
	f := newFixture(t)
	l := f.report("alice", model.KindLost, "Other", "Umbrella")
	older := f.report("bob", model.KindFound, "Other", "older")
	newer := f.report("bob", model.KindFound, "Other", "newer")
	f.oracle.set("Umbrella", "older", 65)
	f.oracle.set("Umbrella", "newer", 65)

	res := f.run(l)
	require.Len(t, res.Matches, 2)
	// The store lists newest first.
	assert.Equal(t, newer.ReportID, res.Matches[0].FoundID)
	assert.Equal(t, older.ReportID, res.Matches[1].FoundID)
}

func TestPipeline_ResolvedReportsStayResolved(t *testing.T) {
	f := newFixture(t)
	l := f.report("alice", model.KindLost, "ID Card", "Student ID")
	fd := f.report("bob", model.KindFound, "ID Card", "ID card")
	_, err := f.store.Reports().Resolve(context.Background(), l.ReportID)
	require.NoError(t, err)
	f.oracle.set("Student ID", "ID card", 95)

	res := f.run(fd)
	// The resolved report is no longer open, so it is not a candidate.
	assert.Equal(t, "no items to compare", res.Message)
	assert.Equal(t, model.StatusResolved, f.status(l))
}

func TestPipeline_SameOwnerGetsOneNotificationPerReport(t *testing.T) {
	f := newFixture(t)
	l := f.report("alice", model.KindLost, "Phone", "Pixel")
	f.report("alice", model.KindFound, "Phone", "Pixel phone")
	f.oracle.set("Pixel", "Pixel phone", 80)

	f.run(l)
	assert.Len(t, f.unread("alice"), 2)
}

func TestPipeline_TriggerErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.pipe.Run(ctx, Trigger{ItemType: "lost"})
	assert.True(t, errors.Is(err, model.ErrValidation))

	_, err = f.pipe.Run(ctx, Trigger{ItemID: "x"})
	assert.True(t, errors.Is(err, model.ErrValidation))

	_, err = f.pipe.Run(ctx, Trigger{ItemID: "x", ItemType: "stolen"})
	assert.True(t, errors.Is(err, model.ErrValidation))

	_, err = f.pipe.Run(ctx, Trigger{ItemID: "does-not-exist", ItemType: "lost"})
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestPipeline_StoredKindWinsOverTrigger(t *testing.T) {
	f := newFixture(t)
	l := f.report("alice", model.KindLost, "Keys", "House keys")
	f.report("bob", model.KindFound, "Keys", "Keychain")
	f.oracle.set("House keys", "Keychain", 90)

	res, err := f.pipe.Run(context.Background(), Trigger{ItemID: l.ReportID, ItemType: "found"})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, l.ReportID, res.Matches[0].LostID)
}
