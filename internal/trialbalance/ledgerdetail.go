package trialbalance

import (
	"context"
	"sort"

	"github.com/ledgerview-erp/ledgerview/internal/currency"
	"github.com/ledgerview-erp/ledgerview/internal/ledger"
)

// DetailEntry is one ledger line together with the cumulative balance of
// its account at that point in the ledger.
type DetailEntry struct {
	ledger.MoveLine
	Cumulative float64 `json:"cumulative"`
}

// AccountDetail is the list-of-moves view for one account: the opening
// balance followed by every period entry with a running balance.
type AccountDetail struct {
	AccountID int64         `json:"account_id"`
	Code      string        `json:"code"`
	Name      string        `json:"name"`
	Opening   float64       `json:"opening"`
	Entries   []DetailEntry `json:"entries"`
	Ending    float64       `json:"ending"`
	Debit     float64       `json:"debit"`
	Credit    float64       `json:"credit"`
}

// runningBalance carries the opening balance through entries already
// ordered by (date, ref, id) and returns the final cumulative balance.
func runningBalance(opening float64, lines []ledger.MoveLine) ([]DetailEntry, float64) {
	entries := make([]DetailEntry, 0, len(lines))
	cumulative := opening
	for _, line := range lines {
		cumulative += line.Balance
		entries = append(entries, DetailEntry{MoveLine: line, Cumulative: cumulative})
	}
	return entries, cumulative
}

// LedgerDetail computes the general-ledger variant of the report: per
// account, the opening balance and each period move line with its running
// cumulative balance.
func (s *Service) LedgerDetail(ctx context.Context, p Params) ([]AccountDetail, error) {
	if s == nil || s.ledger == nil || s.store == nil {
		return nil, ErrNotInitialised
	}
	// The secondary grouping and partner breakdown do not apply to the
	// flat list of moves.
	p.GroupedBy = GroupedByNone
	p.ShowPartnerDetails = false
	if err := p.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	company, err := s.store.Company(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}
	rounding, err := currency.NewRounding(company.Rounding)
	if err != nil {
		return nil, err
	}

	q, release, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	agg := &aggregator{q: q, store: s.store, p: p}
	state, err := agg.run(ctx)
	if err != nil {
		return nil, wrapTimeout(ctx, err)
	}

	f := ledger.Filter{
		CompanyID:     p.CompanyID,
		AccountIDs:    p.AccountIDs,
		JournalIDs:    p.JournalIDs,
		PartnerIDs:    p.PartnerIDs,
		DateFrom:      &p.DateFrom,
		DateTo:        &p.DateTo,
		OnlyPosted:    p.OnlyPostedMoves,
		RealLinesOnly: true,
	}
	lines, err := q.Search(ctx, f)
	if err != nil {
		return nil, wrapTimeout(ctx, err)
	}
	byAccount := make(map[int64][]ledger.MoveLine)
	for _, line := range lines {
		byAccount[line.AccountID] = append(byAccount[line.AccountID], line)
	}

	sc := state.scope(0)
	accountIDs := make([]int64, 0, len(sc.records))
	for id := range sc.records {
		accountIDs = append(accountIDs, id)
	}
	accountsData, err := s.store.AccountsByID(ctx, accountIDs)
	if err != nil {
		return nil, err
	}

	details := make([]AccountDetail, 0, len(sc.records))
	for accountID, rec := range sc.records {
		rec.Finalize()
		if p.HideAccountAt0 && isRemovable(rec.Amounts, rounding) {
			continue
		}
		meta := accountsData[accountID]
		entries, ending := runningBalance(rec.InitialBalance, byAccount[accountID])
		details = append(details, AccountDetail{
			AccountID: accountID,
			Code:      meta.Code,
			Name:      meta.Name,
			Opening:   rec.InitialBalance,
			Entries:   entries,
			Ending:    ending,
			Debit:     rec.Debit,
			Credit:    rec.Credit,
		})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Code < details[j].Code })
	return details, nil
}

func isRemovable(a Amounts, rounding currency.Rounding) bool {
	return rounding.IsZero(a.InitialBalance) &&
		rounding.IsZero(a.Debit) &&
		rounding.IsZero(a.Credit) &&
		rounding.IsZero(a.EndingBalance)
}
