package store

import (
	"context"
	"time"

	"github.com/campuslostfound/lostfound/internal/model"
)

// OpMatchReport is the outbox operation that runs the matching pipeline for a report.
const OpMatchReport = "match_report"

// Store exposes persistence operations required by services and the matching pipeline.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Reports() Reports
	Matches() Matches
	Notifications() Notifications
	Outbox() Outbox
}

type Reports interface {
	// Create stores the report and enqueues an OpMatchReport outbox job in the same transaction.
	Create(ctx context.Context, r *model.Report) (*model.Report, error)
	GetByID(ctx context.Context, reportID string) (*model.Report, error)
	List(ctx context.Context, f model.ReportFilter) ([]*model.Report, error)
	// MarkMatched moves the given reports to matched. Resolved reports are left untouched.
	MarkMatched(ctx context.Context, reportIDs ...string) error
	Resolve(ctx context.Context, reportID string) (*model.Report, error)
}

type Matches interface {
	// Create inserts a match. A second insert for the same (lost, found) pair fails with model.ErrConflict.
	Create(ctx context.Context, m *model.MatchRecord) (*model.MatchRecord, error)
	GetByPair(ctx context.Context, lostReportID, foundReportID string) (*model.MatchRecord, error)
	ListForOwner(ctx context.Context, ownerID string) ([]*model.MatchRecord, error)
}

type Notifications interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)
	ListUnread(ctx context.Context, recipientID string) ([]*model.Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID string) error
}

type Outbox interface {
	// Lease claims up to n ready jobs for the given duration. Expired leases are reclaimable.
	Lease(ctx context.Context, n int, leaseFor time.Duration) ([]model.OutboxJob, error)
	MarkDone(ctx context.Context, id int64) error
	// MarkFailed records the failure and schedules the next attempt, or gives up when final is set.
	MarkFailed(ctx context.Context, id int64, nextAttempt time.Time, final bool, cause error) error
}
