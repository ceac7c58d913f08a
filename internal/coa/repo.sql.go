package coa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerview-erp/ledgerview/internal/shared"
)

// Repository reads master data from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Company returns company display and currency settings.
func (r *Repository) Company(ctx context.Context, id int64) (Company, error) {
	var c Company
	err := r.pool.QueryRow(ctx, `SELECT c.id, c.name, cur.name, cur.rounding
FROM companies c JOIN currencies cur ON cur.id = c.currency_id WHERE c.id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CurrencyName, &c.Rounding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, fmt.Errorf("coa: company %d: %w", id, shared.ErrNotFound)
		}
		return Company{}, fmt.Errorf("coa: company: %w", errors.Join(shared.ErrDataSource, err))
	}
	return c, nil
}

// SearchAccountIDs returns ids of accounts matching the criteria.
func (r *Repository) SearchAccountIDs(ctx context.Context, c AccountCriteria) ([]int64, error) {
	conds := []string{"company_id = $1"}
	args := []any{c.CompanyID}
	if len(c.IDs) > 0 {
		args = append(args, c.IDs)
		conds = append(conds, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	if c.IncludesInitialBalance != nil {
		args = append(args, *c.IncludesInitialBalance)
		conds = append(conds, fmt.Sprintf("includes_initial_balance = $%d", len(args)))
	}
	if len(c.InternalTypes) > 0 {
		types := make([]string, len(c.InternalTypes))
		for i, t := range c.InternalTypes {
			types[i] = string(t)
		}
		args = append(args, types)
		conds = append(conds, fmt.Sprintf("internal_type = ANY($%d)", len(args)))
	}
	rows, err := r.pool.Query(ctx, `SELECT id FROM accounts WHERE `+strings.Join(conds, " AND ")+` ORDER BY code`, args...)
	if err != nil {
		return nil, fmt.Errorf("coa: search accounts: %w", errors.Join(shared.ErrDataSource, err))
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("coa: search accounts scan: %w", errors.Join(shared.ErrDataSource, err))
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AccountsByID resolves accounts in bulk.
func (r *Repository) AccountsByID(ctx context.Context, ids []int64) (map[int64]Account, error) {
	out := make(map[int64]Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, includes_initial_balance, internal_type, currency_id, group_id
FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("coa: accounts: %w", errors.Join(shared.ErrDataSource, err))
	}
	defer rows.Close()
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.IncludesInitialBalance, &a.InternalType, &a.CurrencyID, &a.GroupID); err != nil {
			return nil, fmt.Errorf("coa: accounts scan: %w", errors.Join(shared.ErrDataSource, err))
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

// PartnersByID resolves partners in bulk.
func (r *Repository) PartnersByID(ctx context.Context, ids []int64) (map[int64]Partner, error) {
	out := make(map[int64]Partner, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM partners WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("coa: partners: %w", errors.Join(shared.ErrDataSource, err))
	}
	defer rows.Close()
	for rows.Next() {
		var p Partner
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("coa: partners scan: %w", errors.Join(shared.ErrDataSource, err))
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// AnalyticsByID resolves analytic accounts in bulk.
func (r *Repository) AnalyticsByID(ctx context.Context, ids []int64) (map[int64]Analytic, error) {
	out := make(map[int64]Analytic, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, code, name FROM analytic_accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("coa: analytics: %w", errors.Join(shared.ErrDataSource, err))
	}
	defer rows.Close()
	for rows.Next() {
		var a Analytic
		if err := rows.Scan(&a.ID, &a.Code, &a.Name); err != nil {
			return nil, fmt.Errorf("coa: analytics scan: %w", errors.Join(shared.ErrDataSource, err))
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

// GroupsWithAncestors resolves groups and walks parent links to the roots
// with a recursive CTE.
func (r *Repository) GroupsWithAncestors(ctx context.Context, ids []int64) (map[int64]Group, error) {
	out := make(map[int64]Group, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `WITH RECURSIVE tree AS (
	SELECT id, code_prefix, name, level, parent_id FROM account_groups WHERE id = ANY($1)
	UNION
	SELECT g.id, g.code_prefix, g.name, g.level, g.parent_id
	FROM account_groups g JOIN tree t ON g.id = t.parent_id
) SELECT id, code_prefix, name, level, parent_id FROM tree`, ids)
	if err != nil {
		return nil, fmt.Errorf("coa: groups: %w", errors.Join(shared.ErrDataSource, err))
	}
	defer rows.Close()
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Code, &g.Name, &g.Level, &g.ParentID); err != nil {
			return nil, fmt.Errorf("coa: groups scan: %w", errors.Join(shared.ErrDataSource, err))
		}
		out[g.ID] = g
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("coa: groups rows: %w", errors.Join(shared.ErrDataSource, err))
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("coa: account group %d not found: %w", id, shared.ErrDataIntegrity)
		}
	}
	return out, nil
}
