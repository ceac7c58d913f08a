package trialbalance

import (
	"context"
	"fmt"
	"sort"

	"github.com/ledgerview-erp/ledgerview/internal/coa"
	"github.com/ledgerview-erp/ledgerview/internal/ledger"
	"github.com/ledgerview-erp/ledgerview/internal/shared"
)

// memLedger implements ledger.Source and ledger.Query over a line slice.
type memLedger struct {
	lines []ledger.MoveLine
	err   error
}

func (m *memLedger) Snapshot(ctx context.Context) (ledger.Query, func(), error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m, func() {}, nil
}

func (m *memLedger) matches(l ledger.MoveLine, f ledger.Filter) bool {
	if f.CompanyID != 0 && l.CompanyID != f.CompanyID {
		return false
	}
	if len(f.AccountIDs) > 0 && !containsID(f.AccountIDs, l.AccountID) {
		return false
	}
	if len(f.JournalIDs) > 0 && !containsID(f.JournalIDs, l.JournalID) {
		return false
	}
	if len(f.PartnerIDs) > 0 {
		if l.PartnerID == nil || !containsID(f.PartnerIDs, *l.PartnerID) {
			return false
		}
	}
	if f.AnalyticID != nil {
		if l.AnalyticID == nil || *l.AnalyticID != *f.AnalyticID {
			return false
		}
	}
	if f.DateFrom != nil && l.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && l.Date.After(*f.DateTo) {
		return false
	}
	if f.DateBefore != nil && !l.Date.Before(*f.DateBefore) {
		return false
	}
	if f.OnlyPosted && l.State != ledger.MoveStatePosted {
		return false
	}
	if !f.OnlyPosted && l.State != ledger.MoveStatePosted && l.State != ledger.MoveStateDraft {
		return false
	}
	if f.RealLinesOnly && l.DisplayType != "" {
		return false
	}
	return true
}

func (m *memLedger) Aggregate(ctx context.Context, f ledger.Filter, groupBy []ledger.Dimension) ([]ledger.AggregateRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	withPartner, withAnalytic := false, false
	for _, dim := range groupBy {
		switch dim {
		case ledger.DimPartner:
			withPartner = true
		case ledger.DimAnalytic:
			withAnalytic = true
		}
	}
	type key struct {
		account  int64
		partner  int64
		analytic int64
	}
	sums := make(map[key]*ledger.AggregateRow)
	var order []key
	for _, l := range m.lines {
		if !m.matches(l, f) {
			continue
		}
		k := key{account: l.AccountID}
		if withPartner && l.PartnerID != nil {
			k.partner = *l.PartnerID
		}
		if withAnalytic && l.AnalyticID != nil {
			k.analytic = *l.AnalyticID
		}
		row, ok := sums[k]
		if !ok {
			row = &ledger.AggregateRow{AccountID: l.AccountID}
			if withPartner && l.PartnerID != nil {
				id := *l.PartnerID
				row.PartnerID = &id
			}
			if withAnalytic && l.AnalyticID != nil {
				id := *l.AnalyticID
				row.AnalyticID = &id
			}
			sums[k] = row
			order = append(order, k)
		}
		row.Balance += l.Balance
		row.Debit += l.Debit
		row.Credit += l.Credit
		row.AmountCurrency += l.AmountCurrency
	}
	out := make([]ledger.AggregateRow, 0, len(order))
	for _, k := range order {
		out = append(out, *sums[k])
	}
	return out, nil
}

func (m *memLedger) Search(ctx context.Context, f ledger.Filter) ([]ledger.MoveLine, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []ledger.MoveLine
	for _, l := range m.lines {
		if m.matches(l, f) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Ref != b.Ref {
			return a.Ref < b.Ref
		}
		return a.ID < b.ID
	})
	return out, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// memStore implements coa.Store over fixture maps.
type memStore struct {
	company   coa.Company
	accounts  map[int64]coa.Account
	groups    map[int64]coa.Group
	partners  map[int64]coa.Partner
	analytics map[int64]coa.Analytic
}

func (s *memStore) Company(ctx context.Context, id int64) (coa.Company, error) {
	if s.company.ID != id {
		return coa.Company{}, fmt.Errorf("company %d: %w", id, shared.ErrNotFound)
	}
	return s.company, nil
}

func (s *memStore) SearchAccountIDs(ctx context.Context, c coa.AccountCriteria) ([]int64, error) {
	type entry struct {
		id   int64
		code string
	}
	var found []entry
	for id, acc := range s.accounts {
		if len(c.IDs) > 0 && !containsID(c.IDs, id) {
			continue
		}
		if c.IncludesInitialBalance != nil && acc.IncludesInitialBalance != *c.IncludesInitialBalance {
			continue
		}
		if len(c.InternalTypes) > 0 {
			match := false
			for _, t := range c.InternalTypes {
				if acc.InternalType == t {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		found = append(found, entry{id: id, code: acc.Code})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].code < found[j].code })
	ids := make([]int64, len(found))
	for i, e := range found {
		ids[i] = e.id
	}
	return ids, nil
}

func (s *memStore) AccountsByID(ctx context.Context, ids []int64) (map[int64]coa.Account, error) {
	out := make(map[int64]coa.Account, len(ids))
	for _, id := range ids {
		if acc, ok := s.accounts[id]; ok {
			out[id] = acc
		}
	}
	return out, nil
}

func (s *memStore) PartnersByID(ctx context.Context, ids []int64) (map[int64]coa.Partner, error) {
	out := make(map[int64]coa.Partner, len(ids))
	for _, id := range ids {
		if p, ok := s.partners[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *memStore) AnalyticsByID(ctx context.Context, ids []int64) (map[int64]coa.Analytic, error) {
	out := make(map[int64]coa.Analytic, len(ids))
	for _, id := range ids {
		if a, ok := s.analytics[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (s *memStore) GroupsWithAncestors(ctx context.Context, ids []int64) (map[int64]coa.Group, error) {
	out := make(map[int64]coa.Group)
	var walk func(id int64) error
	walk = func(id int64) error {
		if _, ok := out[id]; ok {
			return nil
		}
		g, ok := s.groups[id]
		if !ok {
			return fmt.Errorf("account group %d not found: %w", id, shared.ErrDataIntegrity)
		}
		out[id] = g
		if g.ParentID != nil {
			return walk(*g.ParentID)
		}
		return nil
	}
	for _, id := range ids {
		if err := walk(id); err != nil {
			return nil, err
		}
	}
	return out, nil
}
