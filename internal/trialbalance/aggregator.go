package trialbalance

import (
	"context"

	"github.com/ledgerview-erp/ledgerview/internal/coa"
	"github.com/ledgerview-erp/ledgerview/internal/ledger"
)

// record is the mutable aggregation state for one grouping key. It is
// finalized exactly once by the assembler.
type record struct {
	Amounts
	partners map[int64]*PartnerRecord
}

func (r *record) partner(id int64) *PartnerRecord {
	if r.partners == nil {
		r.partners = make(map[int64]*PartnerRecord)
	}
	p, ok := r.partners[id]
	if !ok {
		p = &PartnerRecord{ID: id}
		r.partners[id] = p
	}
	return p
}

// scopeState accumulates records for one secondary-grouping value. The
// zero analytic id holds rows with no grouping value.
type scopeState struct {
	analyticID int64
	records    map[int64]*record
}

func (s *scopeState) account(id int64) *record {
	rec, ok := s.records[id]
	if !ok {
		rec = &record{}
		s.records[id] = rec
	}
	return rec
}

// aggState is the full aggregation state of one report request. It is
// local to the request and discarded once the report is assembled.
type aggState struct {
	scopes map[int64]*scopeState
}

func newAggState() *aggState {
	return &aggState{scopes: make(map[int64]*scopeState)}
}

func (s *aggState) scope(analyticID int64) *scopeState {
	sc, ok := s.scopes[analyticID]
	if !ok {
		sc = &scopeState{analyticID: analyticID, records: make(map[int64]*record)}
		s.scopes[analyticID] = sc
	}
	return sc
}

// aggregator runs the multi-query balance computation against one ledger
// snapshot.
type aggregator struct {
	q     ledger.Query
	store coa.Store
	p     Params
}

func (a *aggregator) groupDims(withPartner bool) []ledger.Dimension {
	dims := []ledger.Dimension{ledger.DimAccount}
	if withPartner {
		dims = append(dims, ledger.DimPartner)
	}
	if a.p.GroupedBy == GroupedByAnalytic {
		dims = append(dims, ledger.DimAnalytic)
	}
	return dims
}

func (a *aggregator) baseFilter(accountIDs []int64) ledger.Filter {
	return ledger.Filter{
		CompanyID:  a.p.CompanyID,
		AccountIDs: accountIDs,
		JournalIDs: a.p.JournalIDs,
		PartnerIDs: a.p.PartnerIDs,
		OnlyPosted: a.p.OnlyPostedMoves,
	}
}

func scopeID(row ledger.AggregateRow) int64 {
	if row.AnalyticID != nil {
		return *row.AnalyticID
	}
	return 0
}

// run executes the opening, unaffected-earnings and period passes in order
// and returns the merged aggregation state.
func (a *aggregator) run(ctx context.Context) (*aggState, error) {
	state := newAggState()
	bsIDs, plIDs, rpIDs, err := a.partitionAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.openingPass(ctx, state, bsIDs, plIDs, rpIDs); err != nil {
		return nil, err
	}
	if err := a.unaffectedEarningsPass(ctx, state, plIDs); err != nil {
		return nil, err
	}
	if err := a.periodPass(ctx, state, rpIDs); err != nil {
		return nil, err
	}
	return state, nil
}

// partitionAccounts splits the (possibly filtered) chart into balance-sheet
// and profit-and-loss sets, plus the receivable/payable subset used for
// partner breakdowns.
func (a *aggregator) partitionAccounts(ctx context.Context) (bs, pl, rp []int64, err error) {
	yes, no := true, false
	bs, err = a.store.SearchAccountIDs(ctx, coa.AccountCriteria{
		CompanyID:              a.p.CompanyID,
		IDs:                    a.p.AccountIDs,
		IncludesInitialBalance: &yes,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	pl, err = a.store.SearchAccountIDs(ctx, coa.AccountCriteria{
		CompanyID:              a.p.CompanyID,
		IDs:                    a.p.AccountIDs,
		IncludesInitialBalance: &no,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if a.p.ShowPartnerDetails {
		rp, err = a.store.SearchAccountIDs(ctx, coa.AccountCriteria{
			CompanyID:     a.p.CompanyID,
			IDs:           a.p.AccountIDs,
			InternalTypes: []coa.InternalType{coa.InternalTypeReceivable, coa.InternalTypePayable},
		})
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return bs, pl, rp, nil
}

// openingPass computes initial balances. Balance-sheet accounts accumulate
// every entry before date_from; profit-and-loss accounts only from the
// fiscal year start, so prior-year P&L activity stays out of their opening
// balance.
func (a *aggregator) openingPass(ctx context.Context, state *aggState, bsIDs, plIDs, rpIDs []int64) error {
	if len(bsIDs) > 0 {
		f := a.baseFilter(bsIDs)
		f.DateBefore = &a.p.DateFrom
		if err := a.foldOpening(ctx, state, f, rpIDs); err != nil {
			return err
		}
	}
	if len(plIDs) > 0 {
		f := a.baseFilter(plIDs)
		f.DateFrom = &a.p.FYStartDate
		f.DateBefore = &a.p.DateFrom
		if err := a.foldOpening(ctx, state, f, rpIDs); err != nil {
			return err
		}
	}
	return nil
}

func (a *aggregator) foldOpening(ctx context.Context, state *aggState, f ledger.Filter, rpIDs []int64) error {
	rows, err := a.q.Aggregate(ctx, f, a.groupDims(false))
	if err != nil {
		return err
	}
	for _, row := range rows {
		rec := state.scope(scopeID(row)).account(row.AccountID)
		rec.InitialBalance += row.Balance
		rec.InitialCurrencyBalance += row.AmountCurrency
	}
	if !a.p.ShowPartnerDetails {
		return nil
	}
	// The receivable/payable restriction applies to the partner breakdown
	// only, never to the account-level totals.
	pf := f
	pf.AccountIDs = intersect(f.AccountIDs, rpIDs)
	if len(pf.AccountIDs) == 0 {
		return nil
	}
	partnerRows, err := a.q.Aggregate(ctx, pf, a.groupDims(true))
	if err != nil {
		return err
	}
	for _, row := range partnerRows {
		if row.PartnerID == nil {
			continue
		}
		rec := state.scope(scopeID(row)).account(row.AccountID)
		p := rec.partner(*row.PartnerID)
		p.InitialBalance += row.Balance
		p.InitialCurrencyBalance += row.AmountCurrency
	}
	return nil
}

// unaffectedEarningsPass folds all prior-fiscal-year P&L activity into the
// designated retained earnings account. An explicit account filter disables
// the fold entirely: folding a total for a filtered subset makes no
// accounting sense.
func (a *aggregator) unaffectedEarningsPass(ctx context.Context, state *aggState, plIDs []int64) error {
	if len(a.p.AccountIDs) > 0 || a.p.UnaffectedEarningsAccountID == 0 || len(plIDs) == 0 {
		return nil
	}
	f := a.baseFilter(plIDs)
	f.DateBefore = &a.p.FYStartDate
	rows, err := a.q.Aggregate(ctx, f, []ledger.Dimension{ledger.DimAccount})
	if err != nil {
		return err
	}
	var total, totalCurrency float64
	for _, row := range rows {
		total += row.Balance
		totalCurrency += row.AmountCurrency
	}
	if len(rows) == 0 {
		return nil
	}
	// Carried-forward earnings have no scope assignment of their own, they
	// land in the ungrouped scope.
	rec := state.scope(0).account(a.p.UnaffectedEarningsAccountID)
	rec.InitialBalance += total
	rec.InitialCurrencyBalance += totalCurrency
	return nil
}

// periodPass aggregates movement inside [date_from, date_to], restricted to
// real move lines.
func (a *aggregator) periodPass(ctx context.Context, state *aggState, rpIDs []int64) error {
	f := a.baseFilter(a.p.AccountIDs)
	f.DateFrom = &a.p.DateFrom
	f.DateTo = &a.p.DateTo
	f.RealLinesOnly = true
	rows, err := a.q.Aggregate(ctx, f, a.groupDims(false))
	if err != nil {
		return err
	}
	for _, row := range rows {
		rec := state.scope(scopeID(row)).account(row.AccountID)
		rec.Balance += row.Balance
		rec.Debit += row.Debit
		rec.Credit += row.Credit
		rec.CurrencyBalance += row.AmountCurrency
	}
	if !a.p.ShowPartnerDetails {
		return nil
	}
	pf := f
	pf.AccountIDs = rpIDs
	if len(a.p.AccountIDs) > 0 {
		pf.AccountIDs = intersect(a.p.AccountIDs, rpIDs)
	}
	if len(pf.AccountIDs) == 0 {
		return nil
	}
	partnerRows, err := a.q.Aggregate(ctx, pf, a.groupDims(true))
	if err != nil {
		return err
	}
	for _, row := range partnerRows {
		if row.PartnerID == nil {
			continue
		}
		rec := state.scope(scopeID(row)).account(row.AccountID)
		p := rec.partner(*row.PartnerID)
		p.Balance += row.Balance
		p.Debit += row.Debit
		p.Credit += row.Credit
		p.CurrencyBalance += row.AmountCurrency
	}
	return nil
}

func intersect(a, b []int64) []int64 {
	if len(a) == 0 {
		return b
	}
	set := make(map[int64]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}
	var out []int64
	for _, id := range a {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
