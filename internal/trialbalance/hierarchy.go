package trialbalance

import (
	"context"
	"fmt"
	"sort"

	"github.com/ledgerview-erp/ledgerview/internal/coa"
	"github.com/ledgerview-erp/ledgerview/internal/shared"
)

// groupAggregate is one rolled-up account group within a scope.
type groupAggregate struct {
	coa.Group
	Amounts
	AccountIDs    []int64
	ChildGroupIDs []int64
}

// buildHierarchy rolls leaf account amounts up through the account-group
// forest of one scope. Groups are processed children before parents; the
// order is derived from the level invariant and asserted, not assumed.
//
// A group with both direct accounts and child groups sums both. The
// upstream behaviour summed only the direct accounts in that case, which
// under-counts; this is a deliberate, tested policy change.
func buildHierarchy(ctx context.Context, store coa.Store, accounts map[int64]coa.Account, leaves map[int64]Amounts) ([]groupAggregate, error) {
	groupIDs := make([]int64, 0)
	seen := make(map[int64]struct{})
	for accountID := range leaves {
		acc, ok := accounts[accountID]
		if !ok || acc.GroupID == nil {
			continue
		}
		if _, dup := seen[*acc.GroupID]; !dup {
			seen[*acc.GroupID] = struct{}{}
			groupIDs = append(groupIDs, *acc.GroupID)
		}
	}
	if len(groupIDs) == 0 {
		return nil, nil
	}
	groups, err := store.GroupsWithAncestors(ctx, groupIDs)
	if err != nil {
		return nil, err
	}

	children := make(map[int64][]int64)
	for id, g := range groups {
		if g.ParentID == nil {
			if g.Level != 0 {
				return nil, fmt.Errorf("trialbalance: root group %d has level %d: %w", id, g.Level, shared.ErrDataIntegrity)
			}
			continue
		}
		parent, ok := groups[*g.ParentID]
		if !ok {
			return nil, fmt.Errorf("trialbalance: group %d references missing parent %d: %w", id, *g.ParentID, shared.ErrDataIntegrity)
		}
		if g.Level != parent.Level+1 {
			return nil, fmt.Errorf("trialbalance: group %d level %d under parent level %d: %w", id, g.Level, parent.Level, shared.ErrDataIntegrity)
		}
		children[*g.ParentID] = append(children[*g.ParentID], id)
	}

	accountsByGroup := make(map[int64][]int64)
	for accountID := range leaves {
		acc, ok := accounts[accountID]
		if !ok || acc.GroupID == nil {
			continue
		}
		accountsByGroup[*acc.GroupID] = append(accountsByGroup[*acc.GroupID], accountID)
	}

	// Children before parents: strictly decreasing level order.
	order := make([]int64, 0, len(groups))
	for id := range groups {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool {
		gi, gj := groups[order[i]], groups[order[j]]
		if gi.Level != gj.Level {
			return gi.Level > gj.Level
		}
		return gi.Code < gj.Code
	})

	aggregates := make(map[int64]*groupAggregate, len(groups))
	for _, id := range order {
		agg := &groupAggregate{Group: groups[id]}
		memberAccounts := append([]int64(nil), accountsByGroup[id]...)
		sort.Slice(memberAccounts, func(i, j int) bool {
			return accounts[memberAccounts[i]].Code < accounts[memberAccounts[j]].Code
		})
		agg.AccountIDs = memberAccounts
		for _, accountID := range memberAccounts {
			amounts := leaves[accountID]
			agg.Amounts.Add(amounts)
		}
		childIDs := append([]int64(nil), children[id]...)
		sort.Slice(childIDs, func(i, j int) bool { return groups[childIDs[i]].Code < groups[childIDs[j]].Code })
		agg.ChildGroupIDs = childIDs
		for _, childID := range childIDs {
			child, ok := aggregates[childID]
			if !ok {
				return nil, fmt.Errorf("trialbalance: group %d processed before child %d: %w", id, childID, shared.ErrDataIntegrity)
			}
			agg.Amounts.Add(child.Amounts)
		}
		aggregates[id] = agg
	}

	out := make([]groupAggregate, 0, len(aggregates))
	for _, id := range order {
		out = append(out, *aggregates[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}
