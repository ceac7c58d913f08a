// Package trialbalance computes the trial balance report: opening balances
// with fiscal-year aware cutoffs, period movement aggregation, unaffected
// earnings carry-forward, account-group rollups and the final sorted report
// structure consumed by the renderers.
package trialbalance

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerview-erp/ledgerview/internal/coa"
	"github.com/ledgerview-erp/ledgerview/internal/shared"
)

// GroupedBy enumerates the optional secondary grouping dimension.
type GroupedBy string

const (
	GroupedByNone     GroupedBy = ""
	GroupedByAnalytic GroupedBy = "analytic"
)

// Params is the finished parameter set produced by the report wizard.
type Params struct {
	CompanyID  int64   `validate:"required,gt=0"`
	AccountIDs []int64 `validate:"dive,gt=0"`
	JournalIDs []int64 `validate:"dive,gt=0"`
	PartnerIDs []int64 `validate:"dive,gt=0"`

	DateFrom    time.Time `validate:"required"`
	DateTo      time.Time `validate:"required"`
	FYStartDate time.Time `validate:"required"`

	OnlyPostedMoves    bool
	ShowPartnerDetails bool

	ShowHierarchy            bool
	ShowHierarchyLevel       int
	HideParentHierarchyLevel bool
	LimitHierarchyLevel      bool

	ForeignCurrency bool
	HideAccountAt0  bool

	// UnaffectedEarningsAccountID designates the retained-earnings account
	// prior-year P&L activity is folded into. Zero disables the fold.
	UnaffectedEarningsAccountID int64

	GroupedBy GroupedBy `validate:"omitempty,oneof=analytic"`
}

// Validate rejects malformed parameter sets before any aggregation begins.
func (p Params) Validate() error {
	if p.CompanyID <= 0 {
		return fmt.Errorf("trialbalance: company is required: %w", shared.ErrInvalidParameter)
	}
	if p.DateFrom.IsZero() || p.DateTo.IsZero() {
		return fmt.Errorf("trialbalance: date range is required: %w", shared.ErrInvalidParameter)
	}
	if p.DateTo.Before(p.DateFrom) {
		return fmt.Errorf("trialbalance: date_to before date_from: %w", shared.ErrInvalidParameter)
	}
	if p.FYStartDate.IsZero() {
		return fmt.Errorf("trialbalance: fiscal year start is required: %w", shared.ErrInvalidParameter)
	}
	if p.FYStartDate.After(p.DateFrom) {
		return fmt.Errorf("trialbalance: fiscal year start after date_from: %w", shared.ErrInvalidParameter)
	}
	if p.GroupedBy != GroupedByNone && p.GroupedBy != GroupedByAnalytic {
		return fmt.Errorf("trialbalance: unsupported grouping %q: %w", p.GroupedBy, shared.ErrInvalidParameter)
	}
	return nil
}

// Amounts carries the balance fields shared by accounts, partners, groups
// and grouping scopes. EndingBalance is only meaningful after Finalize.
type Amounts struct {
	InitialBalance         float64 `json:"initial_balance"`
	InitialCurrencyBalance float64 `json:"initial_currency_balance"`
	Debit                  float64 `json:"debit"`
	Credit                 float64 `json:"credit"`
	Balance                float64 `json:"balance"`
	CurrencyBalance        float64 `json:"currency_balance"`
	EndingBalance          float64 `json:"ending_balance"`
	EndingCurrencyBalance  float64 `json:"ending_currency_balance"`
}

// Add accumulates b into a field by field.
func (a *Amounts) Add(b Amounts) {
	a.InitialBalance += b.InitialBalance
	a.InitialCurrencyBalance += b.InitialCurrencyBalance
	a.Debit += b.Debit
	a.Credit += b.Credit
	a.Balance += b.Balance
	a.CurrencyBalance += b.CurrencyBalance
	a.EndingBalance += b.EndingBalance
	a.EndingCurrencyBalance += b.EndingCurrencyBalance
}

// Finalize computes the ending balances once all contributions are merged.
func (a *Amounts) Finalize() {
	a.EndingBalance = a.InitialBalance + a.Balance
	a.EndingCurrencyBalance = a.InitialCurrencyBalance + a.CurrencyBalance
}

// PartnerRecord is one partner sub-row within an account breakdown.
type PartnerRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Amounts
}

// Row is either an account row or a group row in the final report.
type Row interface {
	// Key returns the renderer row key, ACCOUNT-<id> or GROUP-<id>.
	Key() string
	// RowCode returns the sort code of the row.
	RowCode() string
}

// AccountRow wraps an aggregated account with its display metadata.
type AccountRow struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	CurrencyID *int64 `json:"currency_id,omitempty"`
	GroupID    *int64 `json:"group_id,omitempty"`
	// Level is inherited from the owning group in hierarchy mode.
	Level int `json:"level"`
	Amounts
	Partners   []PartnerRecord `json:"partners,omitempty"`
	PartnerIDs []int64         `json:"partner_ids,omitempty"`
}

// Key implements Row.
func (r AccountRow) Key() string { return fmt.Sprintf("ACCOUNT-%d", r.ID) }

// RowCode implements Row.
func (r AccountRow) RowCode() string { return r.Code }

// GroupRow wraps an account-group aggregate.
type GroupRow struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	ParentID *int64 `json:"parent_id,omitempty"`
	Amounts
	// AccountIDs are the accounts directly assigned to the group,
	// ChildGroupIDs its immediate child groups within the scope.
	AccountIDs    []int64 `json:"account_ids,omitempty"`
	ChildGroupIDs []int64 `json:"child_group_ids,omitempty"`
}

// Key implements Row.
func (r GroupRow) Key() string { return fmt.Sprintf("GROUP-%d", r.ID) }

// RowCode implements Row.
func (r GroupRow) RowCode() string { return r.Code }

// Scope is one top-level grouping bucket. Without a secondary grouping a
// report has exactly one anonymous scope.
type Scope struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Amounts
	Rows []Row `json:"rows"`
}

// Report is the complete output contract handed to renderers.
type Report struct {
	RunID        uuid.UUID               `json:"run_id"`
	Params       Params                  `json:"params"`
	CompanyName  string                  `json:"company_name"`
	CurrencyName string                  `json:"currency_name"`
	GeneratedAt  time.Time               `json:"generated_at"`
	Scopes       []Scope                 `json:"scopes"`
	AccountsData map[int64]coa.Account   `json:"accounts_data"`
	PartnersData map[int64]coa.Partner   `json:"partners_data,omitempty"`
}

// ErrNotInitialised indicates service misconfiguration.
var ErrNotInitialised = errors.New("trialbalance: service not initialised")
