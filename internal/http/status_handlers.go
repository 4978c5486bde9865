package http

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/dustin/go-humanize"

	certstore "go-carbon-registry-ui/internal/connectors/certlog"
	dbstore "go-carbon-registry-ui/internal/connectors/registrydb"
	"go-carbon-registry-ui/internal/registry"
)

// catalogueStatusHandler reports where the catalogue came from and how the
// last load went.
func catalogueStatusHandler(catalogue *registry.Catalogue, source string, dbEnabled bool, status *reloadState) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		info := catalogue.Info()
		lastAttempt, lastError := status.snapshot()

		payload := map[string]any{
			"source":       info.Source,
			"source_kind":  sourceKind(source, dbEnabled),
			"count":        info.Count,
			"count_human":  humanize.Comma(int64(info.Count)),
			"skipped":      info.Skipped,
			"loaded_at":    info.LoadedAt,
			"loaded_ago":   humanize.Time(info.LoadedAt),
			"last_attempt": lastAttempt,
		}
		if lastError != "" {
			payload["last_error"] = lastError
		}

		writeJSON(w, nethttp.StatusOK, payload)
	}
}

func sourceKind(source string, dbEnabled bool) string {
	switch {
	case dbEnabled:
		return "mysql"
	case source == "builtin":
		return "builtin"
	case len(source) > 4 && (source[:4] == "http"):
		return "url"
	default:
		return "file"
	}
}

func reloadHandler(reload reloadFunc) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		loaded, skipped, err := reload(ctx)
		if err != nil {
			writeJSON(w, nethttp.StatusBadGateway, map[string]any{
				"error": "catalogue reload failed, previous snapshot kept",
				"cause": err.Error(),
			})
			return
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"loaded": loaded, "skipped": skipped},
		})
	}
}

func servicesStatusHandler(catalogue *registry.Catalogue, store *dbstore.Store, certStore *certstore.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
		defer cancel()

		payload := map[string]any{
			"generated_at": time.Now().UTC(),
			"services":     map[string]any{},
		}
		services := payload["services"].(map[string]any)

		services["catalogue"] = catalogueServiceStatus(catalogue)
		services["registry_db"] = registryDBStatus(ctx, store)
		services["certificate_log"] = certLogStatus(ctx, certStore)

		writeJSON(w, nethttp.StatusOK, payload)
	}
}

func catalogueServiceStatus(catalogue *registry.Catalogue) map[string]any {
	info := catalogue.Info()
	if info.Count == 0 {
		return map[string]any{"enabled": true, "ok": false, "error": "catalogue is empty"}
	}
	return map[string]any{
		"enabled": true,
		"ok":      true,
		"stats": map[string]any{
			"source":    info.Source,
			"count":     info.Count,
			"skipped":   info.Skipped,
			"loaded_at": info.LoadedAt,
		},
	}
}

func registryDBStatus(ctx context.Context, store *dbstore.Store) map[string]any {
	if store == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "database integration disabled"}
	}

	start := time.Now()
	stats, err := store.ServiceStats(ctx)
	recordStoreQuery("registrydb", "ServiceStats", time.Since(start).Seconds(), err)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "error": err.Error()}
	}
	return map[string]any{"enabled": true, "ok": true, "stats": stats}
}

func certLogStatus(ctx context.Context, store *certstore.Store) map[string]any {
	if store == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "certificate log disabled"}
	}

	start := time.Now()
	stats, err := store.Stats(ctx)
	recordStoreQuery("certlog", "Stats", time.Since(start).Seconds(), err)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "error": err.Error()}
	}
	return map[string]any{
		"enabled":     true,
		"ok":          true,
		"sqlite_path": store.Path(),
		"stats":       stats,
	}
}
