// Package coa resolves chart-of-accounts master data: accounts, account
// groups, partners and company currency settings.
package coa

import "context"

// InternalType enumerates account subtypes relevant to partner breakdowns.
type InternalType string

const (
	InternalTypeReceivable InternalType = "receivable"
	InternalTypePayable    InternalType = "payable"
	InternalTypeOther      InternalType = "other"
)

// Account models a chart of accounts leaf.
type Account struct {
	ID   int64
	Code string
	Name string
	// IncludesInitialBalance is true for balance-sheet accounts whose
	// balance carries forward across fiscal years.
	IncludesInitialBalance bool
	InternalType           InternalType
	CurrencyID             *int64
	GroupID                *int64
}

// Group is one node of the account-group forest. Level is the depth from
// the root, root nodes have level 0.
type Group struct {
	ID       int64
	Code     string
	Name     string
	Level    int
	ParentID *int64
}

// Partner is the minimal partner projection reports need.
type Partner struct {
	ID   int64
	Name string
}

// Analytic is an analytic account used as a secondary grouping dimension.
type Analytic struct {
	ID   int64
	Code string
	Name string
}

// Company carries the currency configuration a report resolves once.
type Company struct {
	ID           int64
	Name         string
	CurrencyName string
	// Rounding is the smallest currency unit, e.g. 0.01. Zero means the
	// company has no resolvable precision.
	Rounding float64
}

// AccountCriteria narrows account searches.
type AccountCriteria struct {
	CompanyID int64
	IDs       []int64
	// IncludesInitialBalance partitions balance-sheet from P&L accounts
	// when set.
	IncludesInitialBalance *bool
	InternalTypes          []InternalType
}

// Store is the master-data lookup contract used by the reporting engine.
type Store interface {
	Company(ctx context.Context, id int64) (Company, error)
	SearchAccountIDs(ctx context.Context, c AccountCriteria) ([]int64, error)
	AccountsByID(ctx context.Context, ids []int64) (map[int64]Account, error)
	PartnersByID(ctx context.Context, ids []int64) (map[int64]Partner, error)
	AnalyticsByID(ctx context.Context, ids []int64) (map[int64]Analytic, error)
	// GroupsWithAncestors resolves the given groups plus every ancestor up
	// to the roots. A referenced id with no master record is a data
	// integrity error, not a silent skip.
	GroupsWithAncestors(ctx context.Context, ids []int64) (map[int64]Group, error)
}
