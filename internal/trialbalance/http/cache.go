package http

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ledgerview-erp/ledgerview/internal/coa"
	"github.com/ledgerview-erp/ledgerview/internal/trialbalance"
)

const cacheTTL = 5 * time.Minute

type cacheItem struct {
	report  trialbalance.Report
	expires time.Time
}

type responseCache struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]cacheItem
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:   ttl,
		items: make(map[string]cacheItem),
	}
}

func (c *responseCache) Get(key string) (trialbalance.Report, bool) {
	if c == nil {
		return trialbalance.Report{}, false
	}
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return trialbalance.Report{}, false
	}
	if time.Now().After(item.expires) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return trialbalance.Report{}, false
	}
	return item.report, true
}

func (c *responseCache) Set(key string, rep trialbalance.Report) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items[key] = cacheItem{report: rep, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *responseCache) Bust() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items = make(map[string]cacheItem)
	c.mu.Unlock()
}

func buildCacheKey(p trialbalance.Params) string {
	flags := []struct {
		name string
		on   bool
	}{
		{"posted", p.OnlyPostedMoves},
		{"partners", p.ShowPartnerDetails},
		{"hier", p.ShowHierarchy},
		{"limit", p.LimitHierarchyLevel},
		{"hideparent", p.HideParentHierarchyLevel},
		{"fx", p.ForeignCurrency},
		{"hide0", p.HideAccountAt0},
	}
	var b strings.Builder
	fmt.Fprintf(&b, "tb:%d|%s|%s|%s", p.CompanyID,
		p.DateFrom.Format("2006-01-02"),
		p.DateTo.Format("2006-01-02"),
		p.FYStartDate.Format("2006-01-02"))
	for _, f := range flags {
		token := "0"
		if f.on {
			token = "1"
		}
		b.WriteString("|" + f.name + "=" + token)
	}
	fmt.Fprintf(&b, "|level=%d|ue=%d|by=%s", p.ShowHierarchyLevel, p.UnaffectedEarningsAccountID, p.GroupedBy)
	b.WriteString("|acc=" + idListToken(p.AccountIDs))
	b.WriteString("|jrn=" + idListToken(p.JournalIDs))
	b.WriteString("|prt=" + idListToken(p.PartnerIDs))
	return b.String()
}

func idListToken(ids []int64) string {
	if len(ids) == 0 {
		return "all"
	}
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

// cloneReport returns a copy that callers may hold after the cache entry
// mutates or expires. Row values are immutable, the slices and maps that
// carry them are not.
func cloneReport(src trialbalance.Report) trialbalance.Report {
	dst := src
	dst.Scopes = make([]trialbalance.Scope, len(src.Scopes))
	for i, scope := range src.Scopes {
		cloned := scope
		cloned.Rows = append([]trialbalance.Row(nil), scope.Rows...)
		dst.Scopes[i] = cloned
	}
	if src.AccountsData != nil {
		dst.AccountsData = make(map[int64]coa.Account, len(src.AccountsData))
		for id, acc := range src.AccountsData {
			dst.AccountsData[id] = acc
		}
	}
	if src.PartnersData != nil {
		dst.PartnersData = make(map[int64]coa.Partner, len(src.PartnersData))
		for id, p := range src.PartnersData {
			dst.PartnersData[id] = p
		}
	}
	return dst
}
