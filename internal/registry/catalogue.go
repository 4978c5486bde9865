package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Sort orders accepted by Query. Unknown values fall back to SortIDAsc.
const (
	SortIDAsc       = "id_asc"
	SortProjectAsc  = "project_asc"
	SortProjectDesc = "project_desc"
	SortVintageAsc  = "vintage_asc"
	SortVintageDesc = "vintage_desc"
)

// QueryOptions drive one evaluation of the search/filter/pagination pipeline.
type QueryOptions struct {
	Text        string
	Status      string
	VintageFrom int
	VintageTo   int
	Sort        string
	Limit       int
	Offset      int
}

// QueryResult is one deterministic page of the filtered catalogue.
type QueryResult struct {
	Total  int
	Items  []Credit
	Limit  int
	Offset int
}

// Facets summarizes the current snapshot for filter controls.
type Facets struct {
	Total           int            `json:"total"`
	StatusCounts    map[string]int `json:"status_counts"`
	VintageMin      int            `json:"vintage_min"`
	VintageMax      int            `json:"vintage_max"`
	DistinctVintage int            `json:"distinct_vintages"`
}

// LoadInfo describes the snapshot currently held by the catalogue.
type LoadInfo struct {
	Source   string
	LoadedAt time.Time
	Count    int
	Skipped  int
}

// Catalogue holds the in-memory credit collection. The snapshot is replaced
// atomically on reload; queries always observe one consistent slice.
type Catalogue struct {
	mu      sync.RWMutex
	credits []Credit
	byID    map[string]int
	info    LoadInfo
}

func NewCatalogue() *Catalogue {
	return &Catalogue{byID: map[string]int{}}
}

// Replace normalizes the given records and swaps in the new snapshot.
// Invalid records are skipped and counted. A load yielding zero valid
// credits is rejected and the previous snapshot is kept.
func (c *Catalogue) Replace(records []Credit, source string) (int, int, error) {
	valid := make([]Credit, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if err := rec.Normalize(); err != nil {
			skipped++
			continue
		}
		valid = append(valid, rec)
	}
	if len(valid) == 0 {
		return 0, skipped, fmt.Errorf("catalogue load from %s produced no valid credits (%d skipped)", source, skipped)
	}

	byID := make(map[string]int, len(valid))
	for i, rec := range valid {
		byID[rec.UnicID] = i
	}

	c.mu.Lock()
	c.credits = valid
	c.byID = byID
	c.info = LoadInfo{
		Source:   source,
		LoadedAt: time.Now().UTC(),
		Count:    len(valid),
		Skipped:  skipped,
	}
	c.mu.Unlock()

	return len(valid), skipped, nil
}

// Info returns load metadata for the current snapshot.
func (c *Catalogue) Info() LoadInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}

// Count returns the number of credits in the current snapshot.
func (c *Catalogue) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.credits)
}

// Get looks up one credit by its unic_id.
func (c *Catalogue) Get(unicID string) (Credit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[strings.TrimSpace(unicID)]
	if !ok {
		return Credit{}, false
	}
	return c.credits[i], true
}

// Query evaluates the filter pipeline over the current snapshot: one linear
// scan for text/status/vintage matching, a sort of the matched set, then a
// limit/offset window. Output is a pure function of (snapshot, opts).
func (c *Catalogue) Query(opts QueryOptions) QueryResult {
	needle := strings.ToLower(strings.TrimSpace(opts.Text))
	status := CanonicalStatus(opts.Status)

	c.mu.RLock()
	snapshot := c.credits
	c.mu.RUnlock()

	matched := make([]Credit, 0, len(snapshot))
	for i := range snapshot {
		rec := &snapshot[i]
		if status != "" && rec.Status != status {
			continue
		}
		if opts.VintageFrom > 0 && rec.Vintage < opts.VintageFrom {
			continue
		}
		if opts.VintageTo > 0 && rec.Vintage > opts.VintageTo {
			continue
		}
		if !rec.Matches(needle) {
			continue
		}
		matched = append(matched, *rec)
	}

	sortCredits(matched, opts.Sort)

	total := len(matched)
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = total - offset
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return QueryResult{
		Total:  total,
		Items:  matched[offset:end],
		Limit:  limit,
		Offset: offset,
	}
}

// Each runs fn over every credit matching opts in sorted order, without
// windowing. Used by CSV export so large result sets are streamed row by row.
func (c *Catalogue) Each(opts QueryOptions, max int, fn func(Credit) error) (int, error) {
	opts.Limit = 0
	opts.Offset = 0
	res := c.Query(opts)

	n := 0
	for _, rec := range res.Items {
		if max > 0 && n >= max {
			break
		}
		if err := fn(rec); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Facets computes status counts and the vintage range for the snapshot.
func (c *Catalogue) Facets() Facets {
	c.mu.RLock()
	snapshot := c.credits
	c.mu.RUnlock()

	out := Facets{
		Total:        len(snapshot),
		StatusCounts: map[string]int{StatusActive: 0, StatusRetired: 0},
	}
	vintages := map[int]struct{}{}
	for i := range snapshot {
		rec := &snapshot[i]
		out.StatusCounts[rec.Status]++
		vintages[rec.Vintage] = struct{}{}
		if out.VintageMin == 0 || rec.Vintage < out.VintageMin {
			out.VintageMin = rec.Vintage
		}
		if rec.Vintage > out.VintageMax {
			out.VintageMax = rec.Vintage
		}
	}
	out.DistinctVintage = len(vintages)
	return out
}

func sortCredits(items []Credit, order string) {
	switch order {
	case SortProjectAsc:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].ProjectName != items[j].ProjectName {
				return items[i].ProjectName < items[j].ProjectName
			}
			return items[i].UnicID < items[j].UnicID
		})
	case SortProjectDesc:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].ProjectName != items[j].ProjectName {
				return items[i].ProjectName > items[j].ProjectName
			}
			return items[i].UnicID < items[j].UnicID
		})
	case SortVintageAsc:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Vintage != items[j].Vintage {
				return items[i].Vintage < items[j].Vintage
			}
			return items[i].UnicID < items[j].UnicID
		})
	case SortVintageDesc:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Vintage != items[j].Vintage {
				return items[i].Vintage > items[j].Vintage
			}
			return items[i].UnicID < items[j].UnicID
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].UnicID < items[j].UnicID
		})
	}
}

// AvailableSorts lists the sort orders exposed to API clients.
func AvailableSorts() []string {
	return []string{SortIDAsc, SortProjectAsc, SortProjectDesc, SortVintageAsc, SortVintageDesc}
}
