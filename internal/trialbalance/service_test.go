package trialbalance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgerview-erp/ledgerview/internal/coa"
	"github.com/ledgerview-erp/ledgerview/internal/ledger"
	"github.com/ledgerview-erp/ledgerview/internal/shared"
)

const (
	testCompanyID      = int64(1)
	acctReceivable     = int64(100)
	acctUnaffected     = int64(110)
	acctIncome         = int64(200)
	acctIncomeNoGroup  = int64(300)
	acctIncomeMirrored = int64(301)
	testPartnerID      = int64(500)
	testJournalID      = int64(7)
	groupRoot1         = int64(1)
	groupChild11       = int64(11)
	groupRoot2         = int64(2)
)

var (
	prevFYEnd = time.Date(2015, 12, 31, 0, 0, 0, 0, time.UTC)
	fyStart   = time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	fyEnd     = time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	ledger *memLedger
	store  *memStore
	nextID int64
}

func ptr(v int64) *int64 { return &v }

func newFixture() *fixture {
	return &fixture{
		ledger: &memLedger{},
		store: &memStore{
			company: coa.Company{ID: testCompanyID, Name: "Test Co", CurrencyName: "USD", Rounding: 0.01},
			accounts: map[int64]coa.Account{
				acctReceivable:     {ID: acctReceivable, Code: "100", Name: "Receivable", IncludesInitialBalance: true, InternalType: coa.InternalTypeReceivable, GroupID: ptr(groupRoot1)},
				acctUnaffected:     {ID: acctUnaffected, Code: "110", Name: "Unaffected Earnings", IncludesInitialBalance: true, InternalType: coa.InternalTypeOther},
				acctIncome:         {ID: acctIncome, Code: "200", Name: "Income", InternalType: coa.InternalTypeOther, GroupID: ptr(groupRoot2)},
				acctIncomeNoGroup:  {ID: acctIncomeNoGroup, Code: "300", Name: "Other Income", InternalType: coa.InternalTypeOther},
				acctIncomeMirrored: {ID: acctIncomeMirrored, Code: "301", Name: "Mirror Income", InternalType: coa.InternalTypeOther, GroupID: ptr(groupRoot2)},
			},
			groups: map[int64]coa.Group{
				groupRoot1:   {ID: groupRoot1, Code: "1", Name: "Group 1", Level: 0},
				groupChild11: {ID: groupChild11, Code: "11", Name: "Group 11", Level: 1, ParentID: ptr(groupRoot1)},
				groupRoot2:   {ID: groupRoot2, Code: "2", Name: "Group 2", Level: 0},
			},
			partners:  map[int64]coa.Partner{testPartnerID: {ID: testPartnerID, Name: "Azure Interior"}},
			analytics: map[int64]coa.Analytic{},
		},
	}
}

func (f *fixture) addLine(date time.Time, accountID int64, debit, credit float64, partnerID, analyticID *int64) {
	f.nextID++
	f.ledger.lines = append(f.ledger.lines, ledger.MoveLine{
		ID:         f.nextID,
		Date:       date,
		AccountID:  accountID,
		PartnerID:  partnerID,
		AnalyticID: analyticID,
		JournalID:  testJournalID,
		CompanyID:  testCompanyID,
		State:      ledger.MoveStatePosted,
		Debit:      debit,
		Credit:     credit,
		Balance:    debit - credit,
	})
}

// addMove mirrors the reference scenario move shape: a receivable leg, an
// income leg, a zero unaffected-earnings leg and two mirrored income legs.
func (f *fixture) addMove(date time.Time, receivableDebit, receivableCredit, incomeDebit, incomeCredit float64) {
	p := ptr(testPartnerID)
	f.addLine(date, acctReceivable, receivableDebit, receivableCredit, p, nil)
	f.addLine(date, acctIncome, incomeDebit, incomeCredit, p, nil)
	f.addLine(date, acctUnaffected, 0, 0, p, nil)
	f.addLine(date, acctIncomeNoGroup, receivableDebit, receivableCredit, p, nil)
	f.addLine(date, acctIncomeMirrored, receivableCredit, receivableDebit, p, nil)
}

func (f *fixture) service() *Service {
	return NewService(f.ledger, f.store, nil)
}

func baseParams() Params {
	return Params{
		CompanyID:                   testCompanyID,
		DateFrom:                    fyStart,
		DateTo:                      fyEnd,
		FYStartDate:                 fyStart,
		OnlyPostedMoves:             true,
		HideAccountAt0:              true,
		UnaffectedEarningsAccountID: acctUnaffected,
	}
}

func findAccount(rep Report, id int64) (AccountRow, bool) {
	for _, scope := range rep.Scopes {
		for _, row := range scope.Rows {
			if acc, ok := row.(AccountRow); ok && acc.ID == id {
				return acc, true
			}
		}
	}
	return AccountRow{}, false
}

func findGroup(rep Report, id int64) (GroupRow, bool) {
	for _, scope := range rep.Scopes {
		for _, row := range scope.Rows {
			if grp, ok := row.(GroupRow); ok && grp.ID == id {
				return grp, true
			}
		}
	}
	return GroupRow{}, false
}

func requireAmounts(t *testing.T, a Amounts, initial, debit, credit, ending float64) {
	t.Helper()
	require.InDelta(t, initial, a.InitialBalance, 1e-9, "initial balance")
	require.InDelta(t, debit, a.Debit, 1e-9, "debit")
	require.InDelta(t, credit, a.Credit, 1e-9, "credit")
	require.InDelta(t, ending, a.EndingBalance, 1e-9, "ending balance")
}

func TestRunEmptyLedger(t *testing.T) {
	f := newFixture()
	rep, err := f.service().Run(context.Background(), baseParams())
	require.NoError(t, err)
	require.Empty(t, rep.Scopes)
	require.Equal(t, "Test Co", rep.CompanyName)
	require.Equal(t, "USD", rep.CurrencyName)
}

func TestFiscalYearScenarioWithHierarchy(t *testing.T) {
	f := newFixture()
	params := baseParams()
	params.ShowHierarchy = true

	// Move on the last day of the previous fiscal year: only the opening
	// balance of the balance-sheet account must be affected.
	f.addMove(prevFYEnd, 1000, 0, 0, 1000)
	rep, err := f.service().Run(context.Background(), params)
	require.NoError(t, err)

	recv, ok := findAccount(rep, acctReceivable)
	require.True(t, ok, "receivable account in report")
	requireAmounts(t, recv.Amounts, 1000, 0, 0, 1000)
	_, ok = findAccount(rep, acctIncome)
	require.False(t, ok, "prior-year P&L activity must not surface the income account")

	grp1, ok := findGroup(rep, groupRoot1)
	require.True(t, ok)
	requireAmounts(t, grp1.Amounts, 1000, 0, 0, 1000)

	// Reversal on the first day of the fiscal year: excluded from opening
	// balances, included in the period.
	f.addMove(fyStart, 0, 1000, 1000, 0)
	rep, err = f.service().Run(context.Background(), params)
	require.NoError(t, err)

	recv, _ = findAccount(rep, acctReceivable)
	requireAmounts(t, recv.Amounts, 1000, 0, 1000, 0)
	income, ok := findAccount(rep, acctIncome)
	require.True(t, ok)
	requireAmounts(t, income.Amounts, 0, 1000, 0, 1000)

	grp1, _ = findGroup(rep, groupRoot1)
	requireAmounts(t, grp1.Amounts, 1000, 0, 1000, 0)
	grp2, ok := findGroup(rep, groupRoot2)
	require.True(t, ok)
	requireAmounts(t, grp2.Amounts, 0, 2000, 0, 2000)

	// Repeat on the last day of the fiscal year.
	f.addMove(fyEnd, 0, 1000, 1000, 0)
	rep, err = f.service().Run(context.Background(), params)
	require.NoError(t, err)

	recv, _ = findAccount(rep, acctReceivable)
	requireAmounts(t, recv.Amounts, 1000, 0, 2000, -1000)
	income, _ = findAccount(rep, acctIncome)
	requireAmounts(t, income.Amounts, 0, 2000, 0, 2000)
	grp1, _ = findGroup(rep, groupRoot1)
	requireAmounts(t, grp1.Amounts, 1000, 0, 2000, -1000)
	grp2, _ = findGroup(rep, groupRoot2)
	requireAmounts(t, grp2.Amounts, 0, 4000, 0, 4000)

	// The ungrouped income account stays in the report.
	other, ok := findAccount(rep, acctIncomeNoGroup)
	require.True(t, ok)
	requireAmounts(t, other.Amounts, 0, 0, 2000, -2000)
}

func TestBalanceIdentityHoldsEverywhere(t *testing.T) {
	f := newFixture()
	f.addMove(prevFYEnd, 1000, 0, 0, 1000)
	f.addMove(fyStart, 0, 1000, 1000, 0)
	f.addMove(fyEnd, 0, 1000, 1000, 0)
	params := baseParams()
	params.ShowHierarchy = true
	params.ShowPartnerDetails = true

	rep, err := f.service().Run(context.Background(), params)
	require.NoError(t, err)
	require.NotEmpty(t, rep.Scopes)

	var totalDebit, totalCredit float64
	for _, scope := range rep.Scopes {
		for _, row := range scope.Rows {
			switch r := row.(type) {
			case AccountRow:
				require.InDelta(t, r.InitialBalance+r.Balance, r.EndingBalance, 1e-9)
				require.InDelta(t, r.Debit-r.Credit, r.Balance, 1e-9)
				totalDebit += r.Debit
				totalCredit += r.Credit
				for _, p := range r.Partners {
					require.InDelta(t, p.InitialBalance+p.Balance, p.EndingBalance, 1e-9)
					require.InDelta(t, p.Debit-p.Credit, p.Balance, 1e-9)
				}
			case GroupRow:
				require.InDelta(t, r.InitialBalance+r.Balance, r.EndingBalance, 1e-9)
			}
		}
	}
	require.InDelta(t, totalDebit, totalCredit, 1e-9, "debits must equal credits")
}

func TestGroupRollupAdditivity(t *testing.T) {
	f := newFixture()
	f.addMove(prevFYEnd, 1000, 0, 0, 1000)
	f.addMove(fyStart, 0, 1000, 1000, 0)
	f.addMove(fyEnd, 0, 1000, 1000, 0)
	params := baseParams()
	params.ShowHierarchy = true

	rep, err := f.service().Run(context.Background(), params)
	require.NoError(t, err)

	for _, scope := range rep.Scopes {
		accounts := make(map[int64]AccountRow)
		groups := make(map[int64]GroupRow)
		for _, row := range scope.Rows {
			switch r := row.(type) {
			case AccountRow:
				accounts[r.ID] = r
			case GroupRow:
				groups[r.ID] = r
			}
		}
		var leaves func(g GroupRow) Amounts
		leaves = func(g GroupRow) Amounts {
			var sum Amounts
			for _, id := range g.AccountIDs {
				sum.Add(accounts[id].Amounts)
			}
			for _, id := range g.ChildGroupIDs {
				sum.Add(leaves(groups[id]))
			}
			return sum
		}
		for _, g := range groups {
			sum := leaves(g)
			require.InDelta(t, sum.InitialBalance, g.InitialBalance, 1e-9)
			require.InDelta(t, sum.Debit, g.Debit, 1e-9)
			require.InDelta(t, sum.Credit, g.Credit, 1e-9)
			require.InDelta(t, sum.Balance, g.Balance, 1e-9)
			require.InDelta(t, sum.EndingBalance, g.EndingBalance, 1e-9)
		}
	}
}

func TestPartnerDetails(t *testing.T) {
	f := newFixture()
	params := baseParams()
	params.ShowPartnerDetails = true

	f.addMove(prevFYEnd, 1000, 0, 0, 1000)
	rep, err := f.service().Run(context.Background(), params)
	require.NoError(t, err)
	recv, ok := findAccount(rep, acctReceivable)
	require.True(t, ok)
	require.Equal(t, []int64{testPartnerID}, recv.PartnerIDs)
	require.Len(t, recv.Partners, 1)
	require.Equal(t, "Azure Interior", recv.Partners[0].Name)
	requireAmounts(t, recv.Partners[0].Amounts, 1000, 0, 0, 1000)

	f.addMove(fyStart, 0, 1000, 1000, 0)
	f.addMove(fyEnd, 0, 1000, 1000, 0)
	rep, err = f.service().Run(context.Background(), params)
	require.NoError(t, err)
	recv, _ = findAccount(rep, acctReceivable)
	require.Len(t, recv.Partners, 1)
	requireAmounts(t, recv.Partners[0].Amounts, 1000, 0, 2000, -1000)

	// The breakdown is restricted to receivable/payable accounts.
	income, ok := findAccount(rep, acctIncome)
	require.True(t, ok)
	require.Empty(t, income.Partners)
}

func TestUnaffectedEarningsFold(t *testing.T) {
	f := newFixture()
	// P&L-only move posted entirely in the prior fiscal year.
	f.addLine(prevFYEnd, acctIncomeNoGroup, 0, 1000, nil, nil)
	f.addLine(prevFYEnd, acctReceivable, 1000, 0, nil, nil)

	params := baseParams()
	params.HideAccountAt0 = false
	rep, err := f.service().Run(context.Background(), params)
	require.NoError(t, err)

	unaffected, ok := findAccount(rep, acctUnaffected)
	require.True(t, ok, "unaffected earnings account must be created")
	requireAmounts(t, unaffected.Amounts, -1000, 0, 0, -1000)

	// Global zero-sum over a balanced ledger.
	var totalInitial, totalEnding float64
	for _, scope := range rep.Scopes {
		for _, row := range scope.Rows {
			if acc, ok := row.(AccountRow); ok {
				totalInitial += acc.InitialBalance
				totalEnding += acc.EndingBalance
			}
		}
	}
	require.InDelta(t, 0, totalInitial, 1e-9)
	require.InDelta(t, 0, totalEnding, 1e-9)
}

func TestAccountFilterDisablesUnaffectedFold(t *testing.T) {
	f := newFixture()
	f.addLine(prevFYEnd, acctIncomeNoGroup, 0, 1000, nil, nil)
	f.addLine(prevFYEnd, acctReceivable, 1000, 0, nil, nil)

	params := baseParams()
	params.HideAccountAt0 = false
	params.AccountIDs = []int64{acctReceivable, acctUnaffected, acctIncomeNoGroup}
	rep, err := f.service().Run(context.Background(), params)
	require.NoError(t, err)

	_, ok := findAccount(rep, acctUnaffected)
	require.False(t, ok, "explicit account filter disables the fold")
	recv, ok := findAccount(rep, acctReceivable)
	require.True(t, ok)
	requireAmounts(t, recv.Amounts, 1000, 0, 0, 1000)
}

func TestFiscalYearStartCutoff(t *testing.T) {
	f := newFixture()
	// Entry dated exactly at the fiscal year start belongs to the period,
	// never to the P&L opening balance.
	f.addLine(fyStart, acctIncomeNoGroup, 0, 1000, nil, nil)
	f.addLine(fyStart, acctReceivable, 1000, 0, nil, nil)

	rep, err := f.service().Run(context.Background(), baseParams())
	require.NoError(t, err)
	income, ok := findAccount(rep, acctIncomeNoGroup)
	require.True(t, ok)
	requireAmounts(t, income.Amounts, 0, 0, 1000, -1000)
}

func TestBalanceSheetAccumulatesAcrossFiscalYears(t *testing.T) {
	f := newFixture()
	f.addLine(time.Date(2014, 6, 15, 0, 0, 0, 0, time.UTC), acctReceivable, 500, 0, nil, nil)
	f.addLine(time.Date(2014, 6, 15, 0, 0, 0, 0, time.UTC), acctIncomeNoGroup, 0, 500, nil, nil)
	f.addLine(prevFYEnd, acctReceivable, 500, 0, nil, nil)
	f.addLine(prevFYEnd, acctIncomeNoGroup, 0, 500, nil, nil)

	params := baseParams()
	params.UnaffectedEarningsAccountID = 0
	rep, err := f.service().Run(context.Background(), params)
	require.NoError(t, err)
	recv, ok := findAccount(rep, acctReceivable)
	require.True(t, ok)
	requireAmounts(t, recv.Amounts, 1000, 0, 0, 1000)
}

func TestOnlyPostedFilter(t *testing.T) {
	f := newFixture()
	f.addLine(fyStart, acctReceivable, 100, 0, nil, nil)
	f.addLine(fyStart, acctIncomeNoGroup, 0, 100, nil, nil)
	f.ledger.lines[0].State = ledger.MoveStateDraft
	f.ledger.lines[1].State = ledger.MoveStateDraft

	rep, err := f.service().Run(context.Background(), baseParams())
	require.NoError(t, err)
	require.Empty(t, rep.Scopes, "draft moves excluded when only posted requested")

	params := baseParams()
	params.OnlyPostedMoves = false
	rep, err = f.service().Run(context.Background(), params)
	require.NoError(t, err)
	recv, ok := findAccount(rep, acctReceivable)
	require.True(t, ok)
	requireAmounts(t, recv.Amounts, 0, 100, 0, 100)
}

func TestAnalyticGroupingScopes(t *testing.T) {
	f := newFixture()
	f.store.analytics[900] = coa.Analytic{ID: 900, Code: "AN1", Name: "Projects"}
	f.addLine(fyStart, acctReceivable, 100, 0, nil, ptr(900))
	f.addLine(fyStart, acctIncomeNoGroup, 0, 100, nil, ptr(900))
	f.addLine(fyStart, acctReceivable, 40, 0, nil, nil)
	f.addLine(fyStart, acctIncomeNoGroup, 0, 40, nil, nil)

	params := baseParams()
	params.GroupedBy = GroupedByAnalytic
	rep, err := f.service().Run(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, rep.Scopes, 2)
	require.Equal(t, int64(0), rep.Scopes[0].ID, "ungrouped scope sorts first on empty code")
	require.Equal(t, "AN1", rep.Scopes[1].Code)
	require.Equal(t, "Projects", rep.Scopes[1].Name)
	require.InDelta(t, 140, rep.Scopes[0].Debit+rep.Scopes[1].Debit, 1e-9)
}

func TestScopeTotals(t *testing.T) {
	f := newFixture()
	f.addMove(fyStart, 0, 1000, 1000, 0)
	rep, err := f.service().Run(context.Background(), baseParams())
	require.NoError(t, err)
	require.Len(t, rep.Scopes, 1)
	scope := rep.Scopes[0]
	var sum Amounts
	for _, row := range scope.Rows {
		if acc, ok := row.(AccountRow); ok {
			sum.Add(acc.Amounts)
		}
	}
	require.InDelta(t, sum.Debit, scope.Debit, 1e-9)
	require.InDelta(t, sum.Credit, scope.Credit, 1e-9)
	require.InDelta(t, sum.EndingBalance, scope.EndingBalance, 1e-9)
}

func TestParamValidation(t *testing.T) {
	cases := map[string]func(*Params){
		"missing company":          func(p *Params) { p.CompanyID = 0 },
		"missing dates":            func(p *Params) { p.DateFrom = time.Time{}; p.DateTo = time.Time{} },
		"inverted range":           func(p *Params) { p.DateFrom, p.DateTo = p.DateTo, p.DateFrom },
		"missing fy start":         func(p *Params) { p.FYStartDate = time.Time{} },
		"fy start after date_from": func(p *Params) { p.FYStartDate = p.DateFrom.AddDate(0, 1, 0) },
		"unknown grouping":         func(p *Params) { p.GroupedBy = GroupedBy("journal") },
	}
	f := newFixture()
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			params := baseParams()
			mutate(&params)
			_, err := f.service().Run(context.Background(), params)
			require.ErrorIs(t, err, shared.ErrInvalidParameter)
		})
	}
}

func TestMissingGroupIsDataIntegrityError(t *testing.T) {
	f := newFixture()
	acc := f.store.accounts[acctReceivable]
	acc.GroupID = ptr(int64(999))
	f.store.accounts[acctReceivable] = acc
	f.addLine(fyStart, acctReceivable, 100, 0, nil, nil)
	f.addLine(fyStart, acctIncomeNoGroup, 0, 100, nil, nil)

	params := baseParams()
	params.ShowHierarchy = true
	_, err := f.service().Run(context.Background(), params)
	require.ErrorIs(t, err, shared.ErrDataIntegrity)
}

func TestMissingRoundingIsConfigurationError(t *testing.T) {
	f := newFixture()
	f.store.company.Rounding = 0
	_, err := f.service().Run(context.Background(), baseParams())
	require.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestReportTimeout(t *testing.T) {
	f := newFixture()
	f.addLine(fyStart, acctReceivable, 100, 0, nil, nil)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err := f.service().Run(ctx, baseParams())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func (f *fixture) addFXLine(date time.Time, accountID int64, debit, credit, amountCurrency float64) {
	f.nextID++
	f.ledger.lines = append(f.ledger.lines, ledger.MoveLine{
		ID:             f.nextID,
		Date:           date,
		AccountID:      accountID,
		JournalID:      testJournalID,
		CompanyID:      testCompanyID,
		State:          ledger.MoveStatePosted,
		Debit:          debit,
		Credit:         credit,
		Balance:        debit - credit,
		AmountCurrency: amountCurrency,
	})
}

func TestHierarchyLevelLimit(t *testing.T) {
	f := newFixture()
	recvAccount := f.store.accounts[acctReceivable]
	recvAccount.GroupID = ptr(groupChild11)
	f.store.accounts[acctReceivable] = recvAccount
	f.addMove(fyStart, 1000, 0, 0, 1000)

	params := baseParams()
	params.ShowHierarchy = true
	params.LimitHierarchyLevel = true
	params.ShowHierarchyLevel = 1

	rep, err := f.service().Run(context.Background(), params)
	require.NoError(t, err)

	_, ok := findGroup(rep, groupChild11)
	require.False(t, ok, "level 1 group must be dropped")
	grp1, ok := findGroup(rep, groupRoot1)
	require.True(t, ok)
	requireAmounts(t, grp1.Amounts, 0, 1000, 0, 1000)

	// The dropped group's account stays in the report and keeps the
	// group's level.
	recv, ok := findAccount(rep, acctReceivable)
	require.True(t, ok)
	require.Equal(t, 1, recv.Level)
	requireAmounts(t, recv.Amounts, 0, 1000, 0, 1000)
}

func TestHierarchyLevelLimitHidesParents(t *testing.T) {
	f := newFixture()
	recvAccount := f.store.accounts[acctReceivable]
	recvAccount.GroupID = ptr(groupChild11)
	f.store.accounts[acctReceivable] = recvAccount
	f.addMove(fyStart, 1000, 0, 0, 1000)

	params := baseParams()
	params.ShowHierarchy = true
	params.LimitHierarchyLevel = true
	params.ShowHierarchyLevel = 2
	params.HideParentHierarchyLevel = true

	rep, err := f.service().Run(context.Background(), params)
	require.NoError(t, err)

	_, ok := findGroup(rep, groupRoot1)
	require.False(t, ok, "parent levels must be hidden")
	grp11, ok := findGroup(rep, groupChild11)
	require.True(t, ok)
	require.Equal(t, 1, grp11.Level)

	recv, ok := findAccount(rep, acctReceivable)
	require.True(t, ok)
	require.Equal(t, 1, recv.Level)
}

func TestForeignCurrencyBalances(t *testing.T) {
	f := newFixture()
	f.addFXLine(prevFYEnd, acctReceivable, 80, 0, 100)
	f.addFXLine(prevFYEnd, acctIncome, 0, 80, -100)
	f.addFXLine(fyStart, acctReceivable, 40, 0, 50)
	f.addFXLine(fyStart, acctIncome, 0, 40, -50)

	params := baseParams()
	params.ForeignCurrency = true
	rep, err := f.service().Run(context.Background(), params)
	require.NoError(t, err)

	recv, ok := findAccount(rep, acctReceivable)
	require.True(t, ok)
	requireAmounts(t, recv.Amounts, 80, 40, 0, 120)
	require.InDelta(t, 100, recv.InitialCurrencyBalance, 1e-9)
	require.InDelta(t, 50, recv.CurrencyBalance, 1e-9)
	// Ending currency balance adds the currency period movement, not the
	// company-currency one.
	require.InDelta(t, 150, recv.EndingCurrencyBalance, 1e-9)

	// The fold carries the currency amount of the prior-year P&L total.
	ue, ok := findAccount(rep, acctUnaffected)
	require.True(t, ok)
	require.InDelta(t, -100, ue.InitialCurrencyBalance, 1e-9)
	require.InDelta(t, -100, ue.EndingCurrencyBalance, 1e-9)
}

func TestUnaffectedFoldAddsToExistingOpening(t *testing.T) {
	f := newFixture()
	// Direct balance-sheet posting to the retained earnings account.
	f.addLine(prevFYEnd, acctReceivable, 500, 0, nil, nil)
	f.addLine(prevFYEnd, acctUnaffected, 0, 500, nil, nil)
	// Prior-year P&L activity to be folded on top of it.
	f.addLine(prevFYEnd, acctReceivable, 1000, 0, nil, nil)
	f.addLine(prevFYEnd, acctIncome, 0, 1000, nil, nil)

	rep, err := f.service().Run(context.Background(), baseParams())
	require.NoError(t, err)

	ue, ok := findAccount(rep, acctUnaffected)
	require.True(t, ok)
	requireAmounts(t, ue.Amounts, -1500, 0, 0, -1500)

	recv, ok := findAccount(rep, acctReceivable)
	require.True(t, ok)
	requireAmounts(t, recv.Amounts, 1500, 0, 0, 1500)

	var totalInitial float64
	for _, scope := range rep.Scopes {
		for _, row := range scope.Rows {
			if acc, isAcct := row.(AccountRow); isAcct {
				totalInitial += acc.InitialBalance
			}
		}
	}
	require.InDelta(t, 0, totalInitial, 1e-9)
}
