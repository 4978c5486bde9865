package http

import (
	"encoding/csv"
	"fmt"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"go-carbon-registry-ui/internal/registry"
)

// creditsHandler evaluates the search/filter/pagination pipeline over the
// in-memory catalogue.
func creditsHandler(defaultLimit, maxLimit int, catalogue *registry.Catalogue) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		opts, err := parseQueryOptions(r, defaultLimit, maxLimit)
		if err != nil {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}

		start := time.Now()
		res := catalogue.Query(opts)
		elapsed := time.Since(start)
		recordCatalogueQuery(elapsed.Seconds())

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"total":    res.Total,
				"count":    len(res.Items),
				"limit":    res.Limit,
				"offset":   res.Offset,
				"sort":     sortOrDefault(opts.Sort),
				"query_ms": float64(elapsed.Microseconds()) / 1000.0,
			},
			"data": res.Items,
		})
	}
}

func facetsHandler(catalogue *registry.Catalogue) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"data": catalogue.Facets(),
			"meta": map[string]any{
				"sorts":    registry.AvailableSorts(),
				"statuses": []string{registry.StatusActive, registry.StatusRetired},
			},
		})
	}
}

// exportHandler streams the filtered set as CSV. It reuses the exact query
// options of the list endpoint, without the window, capped at maxRows.
func exportHandler(maxRows, maxLimit int, catalogue *registry.Catalogue) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		opts, err := parseQueryOptions(r, 0, maxLimit)
		if err != nil {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="credits.csv"`)
		w.WriteHeader(nethttp.StatusOK)

		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"unic_id", "project_name", "vintage", "status"})
		_, _ = catalogue.Each(opts, maxRows, func(c registry.Credit) error {
			return cw.Write([]string{c.UnicID, c.ProjectName, strconv.Itoa(c.Vintage), c.Status})
		})
		cw.Flush()
	}
}

// creditDetailRouter serves /api/v1/credits/{unic_id} and
// /api/v1/credits/{unic_id}/certificate.
func creditDetailRouter(catalogue *registry.Catalogue, issue certificateIssuer) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		trimmed := strings.TrimPrefix(r.URL.Path, "/api/v1/credits/")
		parts := strings.Split(strings.Trim(trimmed, "/"), "/")
		if len(parts) == 0 || parts[0] == "" {
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
			return
		}

		unicID := parts[0]
		credit, ok := catalogue.Get(unicID)
		if !ok {
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": fmt.Sprintf("credit not found: %s", unicID)})
			return
		}

		switch {
		case len(parts) == 1:
			writeJSON(w, nethttp.StatusOK, map[string]any{"data": credit})
		case len(parts) == 2 && parts[1] == "certificate":
			certificateHandler(w, r, credit, issue)
		default:
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
		}
	}
}

func parseQueryOptions(r *nethttp.Request, defaultLimit, maxLimit int) (registry.QueryOptions, error) {
	q := r.URL.Query()
	opts := registry.QueryOptions{
		Text:   q.Get("q"),
		Sort:   strings.TrimSpace(q.Get("sort")),
		Limit:  defaultLimit,
		Offset: 0,
	}

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		if !registry.ValidStatus(raw) {
			return opts, fmt.Errorf("invalid status %q, expected Active or Retired", raw)
		}
		opts.Status = raw
	}

	var err error
	if opts.VintageFrom, err = parseVintage(q.Get("vintage_from")); err != nil {
		return opts, fmt.Errorf("invalid vintage_from: %v", err)
	}
	if opts.VintageTo, err = parseVintage(q.Get("vintage_to")); err != nil {
		return opts, fmt.Errorf("invalid vintage_to: %v", err)
	}
	if opts.VintageFrom > 0 && opts.VintageTo > 0 && opts.VintageTo < opts.VintageFrom {
		return opts, fmt.Errorf("vintage_to must be the same or after vintage_from")
	}

	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 && parsed <= maxLimit {
			opts.Limit = parsed
		}
	}
	if raw := q.Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed >= 0 {
			opts.Offset = parsed
		}
	}

	return opts, nil
}

func parseVintage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("expected a year, got %q", raw)
	}
	if parsed < 1900 || parsed > 2200 {
		return 0, fmt.Errorf("year %d out of range", parsed)
	}
	return parsed, nil
}

func sortOrDefault(sort string) string {
	for _, s := range registry.AvailableSorts() {
		if sort == s {
			return sort
		}
	}
	return registry.SortIDAsc
}

func parseLimit(r *nethttp.Request, defaultLimit, maxLimit int) int {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 && parsed <= maxLimit {
			limit = parsed
		}
	}
	return limit
}
