package trialbalance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerview-erp/ledgerview/internal/coa"
	"github.com/ledgerview-erp/ledgerview/internal/currency"
	"github.com/ledgerview-erp/ledgerview/internal/ledger"
)

// DefaultTimeout bounds one report computation end to end.
const DefaultTimeout = 60 * time.Second

// Service orchestrates trial balance report runs. All aggregation state is
// local to one Run call; concurrent runs never share mutable state.
type Service struct {
	ledger  ledger.Source
	store   coa.Store
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewService constructs the reporting service.
func NewService(src ledger.Source, store coa.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ledger:  src,
		store:   store,
		logger:  logger,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
}

// WithTimeout overrides the report execution deadline.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// WithClock overrides the clock for deterministic tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Run computes a complete trial balance. It either returns a fully
// consistent report or an error; no partial results are ever produced.
func (s *Service) Run(ctx context.Context, p Params) (Report, error) {
	if s == nil || s.ledger == nil || s.store == nil {
		return Report{}, ErrNotInitialised
	}
	if err := p.Validate(); err != nil {
		return Report{}, err
	}
	started := s.now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	company, err := s.store.Company(ctx, p.CompanyID)
	if err != nil {
		return Report{}, err
	}
	rounding, err := currency.NewRounding(company.Rounding)
	if err != nil {
		return Report{}, err
	}

	q, release, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return Report{}, err
	}
	defer release()

	agg := &aggregator{q: q, store: s.store, p: p}
	state, err := agg.run(ctx)
	if err != nil {
		return Report{}, wrapTimeout(ctx, err)
	}

	asm := &assembler{store: s.store, p: p, rounding: rounding}
	scopes, accountsData, partnersData, err := asm.assemble(ctx, state)
	if err != nil {
		return Report{}, wrapTimeout(ctx, err)
	}

	report := Report{
		RunID:        uuid.New(),
		Params:       p,
		CompanyName:  company.Name,
		CurrencyName: company.CurrencyName,
		GeneratedAt:  s.now(),
		Scopes:       scopes,
		AccountsData: accountsData,
	}
	if p.ShowPartnerDetails {
		report.PartnersData = partnersData
	}
	s.logger.Debug("trial balance computed",
		slog.Int64("company_id", p.CompanyID),
		slog.Int("scopes", len(scopes)),
		slog.Duration("took", s.now().Sub(started)))
	return report, nil
}

func wrapTimeout(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("trialbalance: report timed out: %w", context.DeadlineExceeded)
	}
	return err
}
