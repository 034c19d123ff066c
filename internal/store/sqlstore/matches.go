package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/campuslostfound/lostfound/internal/model"
)

var matchColumns = []string{"match_id", "lost_report_id", "found_report_id", "confidence", "status", "created_at"}

type matches struct{ s *Store }

func (m *matches) Create(ctx context.Context, in *model.MatchRecord) (*model.MatchRecord, error) {
	out := *in
	if out.MatchID == "" {
		out.MatchID = uuid.New().String()
	}
	if out.Status == "" {
		out.Status = model.MatchPending
	}
	out.CreatedAt = now()

	query, args, err := m.s.sb.Insert("matches").
		Columns(matchColumns...).
		Values(out.MatchID, out.LostReportID, out.FoundReportID, out.Confidence, out.Status, out.CreatedAt).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := m.s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, m.s.mapError(err, "match", out.LostReportID+"/"+out.FoundReportID)
	}
	return &out, nil
}

func (m *matches) GetByPair(ctx context.Context, lostReportID, foundReportID string) (*model.MatchRecord, error) {
	query, args, err := m.s.sb.Select(matchColumns...).
		From("matches").
		Where(sq.Eq{"lost_report_id": lostReportID, "found_report_id": foundReportID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rec, err := scanMatch(m.s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, m.s.mapError(err, "match", lostReportID+"/"+foundReportID)
	}
	return rec, nil
}

// ListForOwner returns matches where either side belongs to ownerID, newest first.
func (m *matches) ListForOwner(ctx context.Context, ownerID string) ([]*model.MatchRecord, error) {
	owned := m.s.sb.Select("report_id").From("reports").Where(sq.Eq{"owner_id": ownerID})
	sub, subArgs, err := owned.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return nil, err
	}
	query, args, err := m.s.sb.Select(matchColumns...).
		From("matches").
		Where(sq.Or{
			sq.Expr("lost_report_id IN ("+sub+")", subArgs...),
			sq.Expr("found_report_id IN ("+sub+")", subArgs...),
		}).
		OrderBy("created_at DESC", "match_id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := m.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches for %s: %w", ownerID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*model.MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanMatch(row rowScanner) (*model.MatchRecord, error) {
	var rec model.MatchRecord
	if err := row.Scan(&rec.MatchID, &rec.LostReportID, &rec.FoundReportID, &rec.Confidence, &rec.Status, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}
