package http

import (
	"encoding/json"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	certstore "go-carbon-registry-ui/internal/connectors/certlog"
)

type saveViewRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
}

func viewsHandler(defaultLimit int, store *certstore.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "saved views store not available",
				"hint":  "set APP_CERT_SQLITE_PATH to enable saved views",
			})
			return
		}

		switch r.Method {
		case nethttp.MethodGet:
			start := time.Now()
			items, err := store.ListSavedViews(r.Context(), defaultLimit)
			recordStoreQuery("certlog", "ListSavedViews", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to list saved views"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"count": len(items)},
				"data": items,
			})
		case nethttp.MethodPost:
			var req saveViewRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
				return
			}
			req.Name = strings.TrimSpace(req.Name)
			if req.Name == "" {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "view name is required"})
				return
			}
			if req.Config == nil {
				req.Config = map[string]any{}
			}
			configJSON, err := json.Marshal(req.Config)
			if err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid view config"})
				return
			}

			startUpsert := time.Now()
			id, err := store.UpsertSavedView(r.Context(), req.Name, req.Description, string(configJSON))
			recordStoreQuery("certlog", "UpsertSavedView", time.Since(startUpsert).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}

			startGet := time.Now()
			item, err := store.GetSavedView(r.Context(), id)
			recordStoreQuery("certlog", "GetSavedView", time.Since(startGet).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "view saved but failed to read it back"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"saved": true},
				"data": item,
			})
		default:
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		}
	}
}

func viewDetailRouter(store *certstore.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "saved views store not available",
				"hint":  "set APP_CERT_SQLITE_PATH to enable saved views",
			})
			return
		}

		idRaw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/views/"), "/")
		id, err := strconv.ParseInt(idRaw, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid view id"})
			return
		}

		switch r.Method {
		case nethttp.MethodGet:
			start := time.Now()
			item, err := store.GetSavedView(r.Context(), id)
			recordStoreQuery("certlog", "GetSavedView", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "view not found"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{"data": item})
		case nethttp.MethodDelete:
			start := time.Now()
			deleted, err := store.DeleteSavedView(r.Context(), id)
			recordStoreQuery("certlog", "DeleteSavedView", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to delete view"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"deleted": deleted, "id": id},
			})
		default:
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		}
	}
}
