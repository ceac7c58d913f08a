// Package http exposes the trial balance report over HTTP.
package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerview-erp/ledgerview/internal/platform/httpx"
	"github.com/ledgerview-erp/ledgerview/internal/trialbalance"
	"github.com/ledgerview-erp/ledgerview/internal/trialbalance/export"
)

// ReportService is the subset of the report service the handler uses.
type ReportService interface {
	Run(ctx context.Context, p trialbalance.Params) (trialbalance.Report, error)
	LedgerDetail(ctx context.Context, p trialbalance.Params) ([]trialbalance.AccountDetail, error)
}

// Handler wires the trial balance endpoints.
type Handler struct {
	logger    *slog.Logger
	service   ReportService
	cache     *responseCache
	validate  *validator.Validate
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs the report handler. Exports are rate limited per
// client address.
func NewHandler(logger *slog.Logger, service ReportService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	limiter := httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return "ip:" + r.RemoteAddr, nil
		}
		return "ip:" + host, nil
	}))
	return &Handler{
		logger:    logger,
		service:   service,
		cache:     newResponseCache(cacheTTL),
		validate:  validator.New(),
		rateLimit: limiter,
	}
}

// MountRoutes registers the report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/trial-balance", h.handleGetReport)
	r.Get("/reports/general-ledger", h.handleGetLedger)
	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Get("/reports/trial-balance/export.csv", h.handleExportCSV)
		r.Get("/reports/general-ledger/export.csv", h.handleExportLedgerCSV)
	})
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	params, errs := h.parseParams(r)
	if len(errs) > 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", strings.Join(errs, "; "))
		return
	}
	rep, err := h.getReport(r.Context(), params)
	if err != nil {
		h.logger.Error("trial balance report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	params, errs := h.parseParams(r)
	if len(errs) > 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", strings.Join(errs, "; "))
		return
	}
	rep, err := h.getReport(r.Context(), params)
	if err != nil {
		h.logger.Error("trial balance export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	buf := &bytes.Buffer{}
	if err := export.WriteReportCSV(buf, rep); err != nil {
		h.logger.Error("trial balance csv", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=trial_balance.csv")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	params, errs := h.parseParams(r)
	if len(errs) > 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", strings.Join(errs, "; "))
		return
	}
	details, err := h.service.LedgerDetail(r.Context(), params)
	if err != nil {
		h.logger.Error("general ledger report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, details)
}

func (h *Handler) handleExportLedgerCSV(w http.ResponseWriter, r *http.Request) {
	params, errs := h.parseParams(r)
	if len(errs) > 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", strings.Join(errs, "; "))
		return
	}
	details, err := h.service.LedgerDetail(r.Context(), params)
	if err != nil {
		h.logger.Error("general ledger export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	buf := &bytes.Buffer{}
	if err := export.WriteLedgerDetailCSV(buf, details); err != nil {
		h.logger.Error("general ledger csv", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=general_ledger.csv")
	_, _ = w.Write(buf.Bytes())
}

// getReport serves the report from the response cache, deduplicating
// concurrent builds of the same parameter set.
func (h *Handler) getReport(ctx context.Context, params trialbalance.Params) (trialbalance.Report, error) {
	key := buildCacheKey(params)
	if cached, ok := h.cache.Get(key); ok {
		recordCacheHit(params.CompanyID)
		return cloneReport(cached), nil
	}
	recordCacheMiss(params.CompanyID)
	started := time.Now()
	result, err, _ := singleflightBuild(ctx, key, func(ctx context.Context) (interface{}, error) {
		return h.service.Run(ctx, params)
	})
	if err != nil {
		return trialbalance.Report{}, err
	}
	rep := result.(trialbalance.Report)
	observeBuildDuration(params.CompanyID, time.Since(started))
	h.cache.Set(key, rep)
	return cloneReport(rep), nil
}

func (h *Handler) parseParams(r *http.Request) (trialbalance.Params, []string) {
	q := r.URL.Query()
	var errs []string

	params := trialbalance.Params{
		OnlyPostedMoves:    parseBool(q.Get("only_posted"), true),
		ShowPartnerDetails: parseBool(q.Get("partner_details"), false),
		ShowHierarchy:      parseBool(q.Get("hierarchy"), false),
		ForeignCurrency:    parseBool(q.Get("foreign_currency"), false),
		HideAccountAt0:     parseBool(q.Get("hide_account_at_0"), false),
	}

	companyID, err := strconv.ParseInt(q.Get("company_id"), 10, 64)
	if err != nil || companyID <= 0 {
		errs = append(errs, "company_id is required")
	}
	params.CompanyID = companyID

	params.DateFrom = parseDate(q.Get("date_from"), &errs, "date_from")
	params.DateTo = parseDate(q.Get("date_to"), &errs, "date_to")
	params.FYStartDate = parseDate(q.Get("fy_start_date"), &errs, "fy_start_date")

	params.AccountIDs = parseIDList(q.Get("accounts"), &errs, "accounts")
	params.JournalIDs = parseIDList(q.Get("journals"), &errs, "journals")
	params.PartnerIDs = parseIDList(q.Get("partners"), &errs, "partners")

	if v := q.Get("unaffected_earnings_account_id"); v != "" {
		id, parseErr := strconv.ParseInt(v, 10, 64)
		if parseErr != nil || id <= 0 {
			errs = append(errs, "unaffected_earnings_account_id is invalid")
		}
		params.UnaffectedEarningsAccountID = id
	}
	if v := q.Get("hierarchy_level"); v != "" {
		level, parseErr := strconv.Atoi(v)
		if parseErr != nil || level <= 0 {
			errs = append(errs, "hierarchy_level is invalid")
		}
		params.ShowHierarchyLevel = level
		params.LimitHierarchyLevel = true
	}
	params.HideParentHierarchyLevel = parseBool(q.Get("hide_parent_levels"), false)

	switch q.Get("grouped_by") {
	case "", "none":
		params.GroupedBy = trialbalance.GroupedByNone
	case "analytic":
		params.GroupedBy = trialbalance.GroupedByAnalytic
	default:
		errs = append(errs, "grouped_by is invalid")
	}

	if len(errs) == 0 {
		if err := h.validate.Struct(params); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) {
				for _, fieldErr := range fieldErrs {
					errs = append(errs, fieldErr.Field()+" is invalid")
				}
			} else {
				errs = append(errs, "parameters are invalid")
			}
		}
	}
	return params, errs
}

func parseBool(v string, fallback bool) bool {
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func parseDate(v string, errs *[]string, field string) time.Time {
	if v == "" {
		*errs = append(*errs, field+" is required")
		return time.Time{}
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		*errs = append(*errs, field+" is invalid")
		return time.Time{}
	}
	return d
}

func parseIDList(v string, errs *[]string, field string) []int64 {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "all") {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			*errs = append(*errs, field+" list is invalid")
			return nil
		}
		ids = append(ids, id)
	}
	return ids
}
