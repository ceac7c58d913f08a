// Package ledger exposes read-only access to posted and draft move lines.
// The reporting engine consumes it exclusively through the Query interface
// so that tests can substitute an in-memory ledger.
package ledger

import (
	"context"
	"time"
)

// MoveState enumerates move lifecycle values visible to reports.
type MoveState string

const (
	MoveStatePosted MoveState = "posted"
	MoveStateDraft  MoveState = "draft"
)

// MoveLine is one immutable ledger entry as stored in the journal.
type MoveLine struct {
	ID             int64
	Date           time.Time
	Ref            string
	AccountID      int64
	PartnerID      *int64
	AnalyticID     *int64
	JournalID      int64
	CompanyID      int64
	State          MoveState
	Debit          float64
	Credit         float64
	Balance        float64
	AmountCurrency float64
	DisplayType    string
}

// Dimension identifies a grouping axis for aggregate queries.
type Dimension string

const (
	DimAccount  Dimension = "account_id"
	DimPartner  Dimension = "partner_id"
	DimAnalytic Dimension = "analytic_id"
)

// Filter is a conjunction of predicates over move line attributes. Zero
// values mean "no restriction"; date bounds follow half-open conventions
// chosen by the caller via the *Incl flags.
type Filter struct {
	CompanyID  int64
	AccountIDs []int64
	JournalIDs []int64
	PartnerIDs []int64
	AnalyticID *int64

	// DateFrom is inclusive when set, DateTo is inclusive when set,
	// DateBefore is a strict upper bound (date < DateBefore).
	DateFrom   *time.Time
	DateTo     *time.Time
	DateBefore *time.Time

	OnlyPosted bool
	// RealLinesOnly excludes section/note display lines.
	RealLinesOnly bool
}

// AggregateRow is one grouped sum returned by Aggregate.
type AggregateRow struct {
	AccountID      int64
	PartnerID      *int64
	AnalyticID     *int64
	Balance        float64
	Debit          float64
	Credit         float64
	AmountCurrency float64
}

// Query is the read contract the reporting engine depends on. A Query must
// be internally read-consistent: every call observes the same ledger
// snapshot for the lifetime of the value.
type Query interface {
	// Aggregate returns summed amounts grouped by the given dimensions.
	// DimAccount is always the first grouping dimension.
	Aggregate(ctx context.Context, f Filter, groupBy []Dimension) ([]AggregateRow, error)
	// Search returns matching move lines ordered by (date, ref, id).
	Search(ctx context.Context, f Filter) ([]MoveLine, error)
}

// Source hands out consistent snapshots for the duration of one report.
type Source interface {
	// Snapshot opens a read-consistent Query. Release must be called
	// exactly once when the report completes.
	Snapshot(ctx context.Context) (Query, func(), error)
}
