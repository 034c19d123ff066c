package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/campuslostfound/lostfound/internal/model"
)

var notificationColumns = []string{
	"notification_id", "recipient_id", "report_id", "match_id", "title", "message", "is_read", "created_at",
}

type notifications struct{ s *Store }

func (n *notifications) Create(ctx context.Context, in *model.Notification) (*model.Notification, error) {
	out := *in
	if out.NotificationID == "" {
		out.NotificationID = uuid.New().String()
	}
	out.IsRead = false
	out.CreatedAt = now()

	query, args, err := n.s.sb.Insert("notifications").
		Columns(notificationColumns...).
		Values(out.NotificationID, out.RecipientID, out.ReportID, out.MatchID, out.Title, out.Message, out.IsRead, out.CreatedAt).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := n.s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, n.s.mapError(err, "notification", out.NotificationID)
	}
	return &out, nil
}

func (n *notifications) ListUnread(ctx context.Context, recipientID string) ([]*model.Notification, error) {
	query, args, err := n.s.sb.Select(notificationColumns...).
		From("notifications").
		Where(sq.Eq{"recipient_id": recipientID, "is_read": false}).
		OrderBy("created_at DESC", "notification_id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := n.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", recipientID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Notification
	for rows.Next() {
		var rec model.Notification
		if err := rows.Scan(&rec.NotificationID, &rec.RecipientID, &rec.ReportID, &rec.MatchID,
			&rec.Title, &rec.Message, &rec.IsRead, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// MarkRead flags a notification as read. A notification owned by someone else reports ErrNotFound.
func (n *notifications) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	query, args, err := n.s.sb.Update("notifications").
		Set("is_read", true).
		Where(sq.Eq{"notification_id": notificationID, "recipient_id": recipientID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := n.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return n.s.mapError(err, "notification", notificationID)
	}
	if c, _ := res.RowsAffected(); c == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, model.ErrNotFound)
	}
	return nil
}
