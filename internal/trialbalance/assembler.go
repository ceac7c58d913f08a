package trialbalance

import (
	"context"
	"fmt"
	"sort"

	"github.com/ledgerview-erp/ledgerview/internal/coa"
	"github.com/ledgerview-erp/ledgerview/internal/currency"
	"github.com/ledgerview-erp/ledgerview/internal/shared"
)

// assembler turns the aggregation state into the final report structure:
// zero pruning, display metadata, hierarchy expansion, totals and ordering.
type assembler struct {
	store    coa.Store
	p        Params
	rounding currency.Rounding
}

// removable reports whether a row carries no information at the company's
// rounding precision. Finalize must have run first.
func (b *assembler) removable(a Amounts) bool {
	return isRemovable(a, b.rounding)
}

func (b *assembler) assemble(ctx context.Context, state *aggState) ([]Scope, map[int64]coa.Account, map[int64]coa.Partner, error) {
	for _, sc := range state.scopes {
		for _, rec := range sc.records {
			rec.Finalize()
			for _, p := range rec.partners {
				p.Finalize()
			}
		}
	}

	if b.p.HideAccountAt0 {
		b.prune(state)
	}

	accountsData, partnersData, analyticsData, err := b.lookupMasterData(ctx, state)
	if err != nil {
		return nil, nil, nil, err
	}

	scopes := make([]Scope, 0, len(state.scopes))
	for analyticID, sc := range state.scopes {
		scope := Scope{ID: analyticID}
		if analyticID != 0 {
			meta, ok := analyticsData[analyticID]
			if !ok {
				return nil, nil, nil, fmt.Errorf("trialbalance: analytic account %d not found: %w", analyticID, shared.ErrDataIntegrity)
			}
			scope.Code = meta.Code
			scope.Name = meta.Name
		}
		accountRows, err := b.accountRows(sc, accountsData, partnersData)
		if err != nil {
			return nil, nil, nil, err
		}
		for _, row := range accountRows {
			scope.Amounts.Add(row.Amounts)
		}
		if b.p.ShowHierarchy {
			scope.Rows, err = b.hierarchyRows(ctx, sc, accountRows, accountsData)
			if err != nil {
				return nil, nil, nil, err
			}
		} else {
			scope.Rows = make([]Row, 0, len(accountRows))
			for _, row := range accountRows {
				scope.Rows = append(scope.Rows, row)
			}
		}
		scopes = append(scopes, scope)
	}

	sort.Slice(scopes, func(i, j int) bool {
		if scopes[i].Code != scopes[j].Code {
			return scopes[i].Code < scopes[j].Code
		}
		return scopes[i].ID < scopes[j].ID
	})
	return scopes, accountsData, partnersData, nil
}

// prune removes accounts that are zero at every column, then scopes left
// with no accounts at all.
func (b *assembler) prune(state *aggState) {
	for analyticID, sc := range state.scopes {
		for accountID, rec := range sc.records {
			if b.removable(rec.Amounts) {
				delete(sc.records, accountID)
			}
		}
		if len(sc.records) == 0 {
			delete(state.scopes, analyticID)
		}
	}
}

func (b *assembler) lookupMasterData(ctx context.Context, state *aggState) (map[int64]coa.Account, map[int64]coa.Partner, map[int64]coa.Analytic, error) {
	var accountIDs, partnerIDs, analyticIDs []int64
	seenAccounts := make(map[int64]struct{})
	seenPartners := make(map[int64]struct{})
	for analyticID, sc := range state.scopes {
		if analyticID != 0 {
			analyticIDs = append(analyticIDs, analyticID)
		}
		for accountID, rec := range sc.records {
			if _, ok := seenAccounts[accountID]; !ok {
				seenAccounts[accountID] = struct{}{}
				accountIDs = append(accountIDs, accountID)
			}
			for partnerID := range rec.partners {
				if _, ok := seenPartners[partnerID]; !ok {
					seenPartners[partnerID] = struct{}{}
					partnerIDs = append(partnerIDs, partnerID)
				}
			}
		}
	}
	accountsData, err := b.store.AccountsByID(ctx, accountIDs)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, id := range accountIDs {
		if _, ok := accountsData[id]; !ok {
			return nil, nil, nil, fmt.Errorf("trialbalance: account %d not found: %w", id, shared.ErrDataIntegrity)
		}
	}
	partnersData, err := b.store.PartnersByID(ctx, partnerIDs)
	if err != nil {
		return nil, nil, nil, err
	}
	analyticsData, err := b.store.AnalyticsByID(ctx, analyticIDs)
	if err != nil {
		return nil, nil, nil, err
	}
	return accountsData, partnersData, analyticsData, nil
}

// accountRows builds the finished account rows of one scope, sorted by code.
func (b *assembler) accountRows(sc *scopeState, accountsData map[int64]coa.Account, partnersData map[int64]coa.Partner) ([]AccountRow, error) {
	rows := make([]AccountRow, 0, len(sc.records))
	for accountID, rec := range sc.records {
		meta := accountsData[accountID]
		row := AccountRow{
			ID:         accountID,
			Code:       meta.Code,
			Name:       meta.Name,
			CurrencyID: meta.CurrencyID,
			Amounts:    rec.Amounts,
		}
		if b.p.ShowHierarchy {
			row.GroupID = meta.GroupID
		}
		if b.p.ShowPartnerDetails && len(rec.partners) > 0 {
			partners := make([]PartnerRecord, 0, len(rec.partners))
			for partnerID, p := range rec.partners {
				pr := *p
				pr.Name = partnersData[partnerID].Name
				partners = append(partners, pr)
			}
			sort.Slice(partners, func(i, j int) bool {
				if partners[i].Name != partners[j].Name {
					return partners[i].Name < partners[j].Name
				}
				return partners[i].ID < partners[j].ID
			})
			ids := make([]int64, len(partners))
			for i, pr := range partners {
				ids[i] = pr.ID
			}
			row.Partners = partners
			row.PartnerIDs = ids
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows, nil
}

// hierarchyRows interleaves group aggregates with their member accounts.
// Groups come out in ascending level order, each immediately followed by
// its directly assigned accounts; accounts inherit the group level.
// Accounts without a group are kept at the end rather than dropped.
func (b *assembler) hierarchyRows(ctx context.Context, sc *scopeState, accountRows []AccountRow, accountsData map[int64]coa.Account) ([]Row, error) {
	leaves := make(map[int64]Amounts, len(sc.records))
	for accountID, rec := range sc.records {
		leaves[accountID] = rec.Amounts
	}
	aggregates, err := buildHierarchy(ctx, b.store, accountsData, leaves)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]AccountRow, len(accountRows))
	for _, row := range accountRows {
		byID[row.ID] = row
	}
	rows := make([]Row, 0, len(aggregates)+len(accountRows))
	placed := make(map[int64]struct{})
	levelOf := make(map[int64]int)
	for _, agg := range aggregates {
		for _, accountID := range agg.AccountIDs {
			levelOf[accountID] = agg.Level
		}
		if !b.groupVisible(agg.Level) {
			// The group's accounts still belong to the report, they are
			// re-attached below as ungrouped rows at the group's level.
			continue
		}
		rows = append(rows, GroupRow{
			ID:            agg.ID,
			Code:          agg.Code,
			Name:          agg.Name,
			Level:         agg.Level,
			ParentID:      agg.ParentID,
			Amounts:       agg.Amounts,
			AccountIDs:    agg.AccountIDs,
			ChildGroupIDs: agg.ChildGroupIDs,
		})
		for _, accountID := range agg.AccountIDs {
			row := byID[accountID]
			row.Level = agg.Level
			rows = append(rows, row)
			placed[accountID] = struct{}{}
		}
	}
	var rest []AccountRow
	for _, row := range accountRows {
		if _, ok := placed[row.ID]; !ok {
			row.Level = levelOf[row.ID]
			rest = append(rest, row)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Code < rest[j].Code })
	for _, row := range rest {
		rows = append(rows, row)
	}
	return rows, nil
}

// groupVisible applies the hierarchy level limits requested by the wizard.
// Levels are zero-based internally, the wizard counts from one.
func (b *assembler) groupVisible(level int) bool {
	if !b.p.LimitHierarchyLevel || b.p.ShowHierarchyLevel <= 0 {
		return true
	}
	if level >= b.p.ShowHierarchyLevel {
		return false
	}
	if b.p.HideParentHierarchyLevel && level < b.p.ShowHierarchyLevel-1 {
		return false
	}
	return true
}
