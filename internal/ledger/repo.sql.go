package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerview-erp/ledgerview/internal/platform/db"
	"github.com/ledgerview-erp/ledgerview/internal/shared"
)

// Repository reads move lines from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Snapshot opens a repeatable-read transaction so the several queries that
// make up one report observe a single ledger state.
func (r *Repository) Snapshot(ctx context.Context) (Query, func(), error) {
	if r == nil || r.pool == nil {
		return nil, nil, errors.New("ledger repository not initialised")
	}
	tx, err := db.BeginSnapshot(ctx, r.pool)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger: begin snapshot: %w", errors.Join(shared.ErrDataSource, err))
	}
	release := func() { _ = tx.Rollback(context.Background()) }
	return &txQuery{tx: tx}, release, nil
}

type txQuery struct {
	tx pgx.Tx
}

func (q *txQuery) Aggregate(ctx context.Context, f Filter, groupBy []Dimension) ([]AggregateRow, error) {
	cols := []string{"account_id"}
	withPartner := false
	withAnalytic := false
	for _, dim := range groupBy {
		switch dim {
		case DimPartner:
			withPartner = true
			cols = append(cols, "partner_id")
		case DimAnalytic:
			withAnalytic = true
			cols = append(cols, "analytic_id")
		}
	}
	where, args := buildWhere(f)
	query := fmt.Sprintf(`SELECT %s,
COALESCE(SUM(balance),0), COALESCE(SUM(debit),0), COALESCE(SUM(credit),0), COALESCE(SUM(amount_currency),0)
FROM move_lines %s GROUP BY %s`, strings.Join(cols, ", "), where, strings.Join(cols, ", "))
	rows, err := q.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: aggregate: %w", errors.Join(shared.ErrDataSource, err))
	}
	defer rows.Close()
	var out []AggregateRow
	for rows.Next() {
		var row AggregateRow
		dest := []any{&row.AccountID}
		if withPartner {
			dest = append(dest, &row.PartnerID)
		}
		if withAnalytic {
			dest = append(dest, &row.AnalyticID)
		}
		dest = append(dest, &row.Balance, &row.Debit, &row.Credit, &row.AmountCurrency)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("ledger: aggregate scan: %w", errors.Join(shared.ErrDataSource, err))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: aggregate rows: %w", errors.Join(shared.ErrDataSource, err))
	}
	return out, nil
}

func (q *txQuery) Search(ctx context.Context, f Filter) ([]MoveLine, error) {
	where, args := buildWhere(f)
	query := `SELECT id, date, ref, account_id, partner_id, analytic_id, journal_id, company_id, state, debit, credit, balance, amount_currency, display_type
FROM move_lines ` + where + ` ORDER BY date, ref, id`
	rows, err := q.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: search: %w", errors.Join(shared.ErrDataSource, err))
	}
	defer rows.Close()
	var lines []MoveLine
	for rows.Next() {
		var l MoveLine
		err := rows.Scan(&l.ID, &l.Date, &l.Ref, &l.AccountID, &l.PartnerID, &l.AnalyticID, &l.JournalID, &l.CompanyID, &l.State, &l.Debit, &l.Credit, &l.Balance, &l.AmountCurrency, &l.DisplayType)
		if err != nil {
			return nil, fmt.Errorf("ledger: search scan: %w", errors.Join(shared.ErrDataSource, err))
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: search rows: %w", errors.Join(shared.ErrDataSource, err))
	}
	return lines, nil
}

func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any
	place := func(val any) string {
		args = append(args, val)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.CompanyID != 0 {
		conds = append(conds, "company_id = "+place(f.CompanyID))
	}
	if len(f.AccountIDs) > 0 {
		conds = append(conds, "account_id = ANY("+place(f.AccountIDs)+")")
	}
	if len(f.JournalIDs) > 0 {
		conds = append(conds, "journal_id = ANY("+place(f.JournalIDs)+")")
	}
	if len(f.PartnerIDs) > 0 {
		conds = append(conds, "partner_id = ANY("+place(f.PartnerIDs)+")")
	}
	if f.AnalyticID != nil {
		conds = append(conds, "analytic_id = "+place(*f.AnalyticID))
	}
	if f.DateFrom != nil {
		conds = append(conds, "date >= "+place(*f.DateFrom))
	}
	if f.DateTo != nil {
		conds = append(conds, "date <= "+place(*f.DateTo))
	}
	if f.DateBefore != nil {
		conds = append(conds, "date < "+place(*f.DateBefore))
	}
	if f.OnlyPosted {
		conds = append(conds, "state = 'posted'")
	} else {
		conds = append(conds, "state IN ('posted','draft')")
	}
	if f.RealLinesOnly {
		conds = append(conds, "display_type = ''")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
