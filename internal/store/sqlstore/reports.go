package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/store"
)

const defaultListLimit = 100

var reportColumns = []string{
	"report_id", "kind", "category", "title", "description", "location",
	"occurred_on", "occurred_at", "image_ref", "owner_id", "status", "created_at", "updated_at",
}

type reports struct{ s *Store }

func (r *reports) Create(ctx context.Context, in *model.Report) (*model.Report, error) {
	out := *in
	if out.ReportID == "" {
		out.ReportID = uuid.New().String()
	}
	out.Status = model.StatusOpen
	out.CreatedAt = now()
	out.UpdatedAt = out.CreatedAt

	tx, err := r.s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := r.s.sb.Insert("reports").
		Columns(reportColumns...).
		Values(out.ReportID, out.Kind, out.Category, out.Title, out.Description, out.Location,
			out.OccurredOn, nullString(out.OccurredAt), out.ImageRef, out.OwnerID, out.Status,
			out.CreatedAt, out.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, r.s.mapError(err, "report", out.ReportID)
	}

	payload := map[string]interface{}{
		"itemId":   out.ReportID,
		"itemType": out.Kind,
	}
	if err := r.s.writeOutbox(ctx, tx, store.OpMatchReport, out.ReportID, payload); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *reports) GetByID(ctx context.Context, reportID string) (*model.Report, error) {
	query, args, err := r.s.sb.Select(reportColumns...).
		From("reports").
		Where(sq.Eq{"report_id": reportID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rep, err := scanReport(r.s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, r.s.mapError(err, "report", reportID)
	}
	return rep, nil
}

func (r *reports) List(ctx context.Context, f model.ReportFilter) ([]*model.Report, error) {
	b := r.s.sb.Select(reportColumns...).From("reports")
	if f.Kind != "" {
		b = b.Where(sq.Eq{"kind": f.Kind})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status})
	}
	if f.Category != "" {
		b = b.Where(sq.Eq{"category": f.Category})
	}
	if f.OwnerID != "" {
		b = b.Where(sq.Eq{"owner_id": f.OwnerID})
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query, args, err := b.OrderBy("created_at DESC", "report_id ASC").Limit(uint64(limit)).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *reports) MarkMatched(ctx context.Context, reportIDs ...string) error {
	if len(reportIDs) == 0 {
		return nil
	}
	query, args, err := r.s.sb.Update("reports").
		Set("status", model.StatusMatched).
		Set("updated_at", now()).
		Where(sq.Eq{"report_id": reportIDs}).
		Where(sq.NotEq{"status": model.StatusResolved}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark matched %v: %w", reportIDs, err)
	}
	return nil
}

func (r *reports) Resolve(ctx context.Context, reportID string) (*model.Report, error) {
	query, args, err := r.s.sb.Update("reports").
		Set("status", model.StatusResolved).
		Set("updated_at", now()).
		Where(sq.Eq{"report_id": reportID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, r.s.mapError(err, "report", reportID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("report %s: %w", reportID, model.ErrNotFound)
	}
	return r.GetByID(ctx, reportID)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*model.Report, error) {
	var rep model.Report
	var occurredAt sql.NullString
	if err := row.Scan(&rep.ReportID, &rep.Kind, &rep.Category, &rep.Title, &rep.Description, &rep.Location,
		&rep.OccurredOn, &occurredAt, &rep.ImageRef, &rep.OwnerID, &rep.Status, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
		return nil, err
	}
	if occurredAt.Valid {
		v := occurredAt.String
		rep.OccurredAt = &v
	}
	return &rep, nil
}

// writeOutbox inserts a pending job inside tx.
func (s *Store) writeOutbox(ctx context.Context, tx *sql.Tx, op, aggregateID string, payload map[string]interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ts := now()
	query, args, err := s.sb.Insert("outbox").
		Columns("aggregate_id", "op", "payload", "status", "attempt_count", "next_attempt_at", "create_time", "update_time").
		Values(aggregateID, op, string(b), "pending", 0, ts, ts, ts).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("write outbox %s %s: %w", op, aggregateID, err)
	}
	return nil
}
