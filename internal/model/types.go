package model

import "time"

// ReportKind distinguishes lost reports from found reports. It never changes after creation.
type ReportKind string

const (
	KindLost  ReportKind = "lost"
	KindFound ReportKind = "found"
)

// Valid reports whether k is one of the known kinds.
func (k ReportKind) Valid() bool { return k == KindLost || k == KindFound }

// Opposite returns the kind a report is paired against.
func (k ReportKind) Opposite() ReportKind {
	if k == KindLost {
		return KindFound
	}
	return KindLost
}

// ReportStatus is the lifecycle state of a report: open -> matched -> resolved.
type ReportStatus string

const (
	StatusOpen     ReportStatus = "open"
	StatusMatched  ReportStatus = "matched"
	StatusResolved ReportStatus = "resolved"
)

// MatchStatus is the review state of a MatchRecord. Only pending is produced by the pipeline.
type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchConfirmed MatchStatus = "confirmed"
	MatchRejected  MatchStatus = "rejected"
)

// Categories accepted by the report API.
var Categories = []string{
	"Wallet", "Phone", "ID Card", "Bag", "Keys",
	"Electronics", "Books", "Clothing", "Accessories", "Other",
}

// IsCategory reports whether c is one of Categories.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Report is a lost-or-found record submitted by a community member.
type Report struct {
	ReportID    string       `json:"id"`
	Kind        ReportKind   `json:"kind"`
	Category    string       `json:"category"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Location    string       `json:"location"`
	OccurredOn  string       `json:"occurredOn"`           // YYYY-MM-DD
	OccurredAt  *string      `json:"occurredAt,omitempty"` // HH:MM, optional
	ImageRef    string       `json:"imageRef"`
	OwnerID     string       `json:"ownerId"`
	Status      ReportStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// MatchRecord is a persisted pairing between a lost and a found report.
type MatchRecord struct {
	MatchID       string      `json:"id"`
	LostReportID  string      `json:"lostReportId"`
	FoundReportID string      `json:"foundReportId"`
	Confidence    int         `json:"confidence"`
	Status        MatchStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Notification is a per-owner alert created when a match is persisted.
type Notification struct {
	NotificationID string    `json:"id"`
	RecipientID    string    `json:"recipientId"`
	ReportID       string    `json:"reportId,omitempty"`
	MatchID        string    `json:"matchId,omitempty"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	IsRead         bool      `json:"isRead"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MatchCandidate is a transient oracle judgment for a (lost, found) pair.
type MatchCandidate struct {
	LostID     string `json:"lostItemId"`
	FoundID    string `json:"foundItemId"`
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// ReportFilter narrows report listings. Zero values mean "any".
type ReportFilter struct {
	Kind     ReportKind
	Status   ReportStatus
	Category string
	OwnerID  string
	Limit    int
}

// OutboxJob is a durable unit of deferred work written alongside a report.
type OutboxJob struct {
	ID           int64
	Op           string
	AggregateID  string
	Payload      []byte
	AttemptCount int
}
