package sqlstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/campuslostfound/lostfound/internal/model"
)

// maxErrorLen bounds the last_error column.
const maxErrorLen = 1024

type outbox struct{ s *Store }

func (o *outbox) Lease(ctx context.Context, n int, leaseFor time.Duration) ([]model.OutboxJob, error) {
	if n <= 0 {
		return nil, nil
	}
	ts := now()
	query, args := o.s.dialect.LeaseQuery(ts, ts.Add(leaseFor), n)

	rows, err := o.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lease outbox: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []model.OutboxJob
	for rows.Next() {
		var j model.OutboxJob
		var payload string
		if err := rows.Scan(&j.ID, &j.Op, &j.AggregateID, &payload, &j.AttemptCount); err != nil {
			return nil, err
		}
		j.Payload = []byte(payload)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(jobs, func(a, b int) bool { return jobs[a].ID < jobs[b].ID })
	return jobs, nil
}

func (o *outbox) MarkDone(ctx context.Context, id int64) error {
	query, args, err := o.s.sb.Update("outbox").
		Set("status", "done").
		Set("lease_until", nil).
		Set("update_time", now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := o.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("outbox %d done: %w", id, err)
	}
	return nil
}

func (o *outbox) MarkFailed(ctx context.Context, id int64, nextAttempt time.Time, final bool, cause error) error {
	status := "pending"
	if final {
		status = "failed"
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
		if len(msg) > maxErrorLen {
			msg = msg[:maxErrorLen]
		}
	}
	query, args, err := o.s.sb.Update("outbox").
		Set("status", status).
		Set("attempt_count", sq.Expr("attempt_count + 1")).
		Set("next_attempt_at", nextAttempt.UTC()).
		Set("lease_until", nil).
		Set("last_error", msg).
		Set("update_time", now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := o.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("outbox %d failed: %w", id, err)
	}
	return nil
}
