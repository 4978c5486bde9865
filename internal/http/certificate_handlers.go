package http

import (
	"context"
	"fmt"
	"log"
	nethttp "net/http"
	"time"

	"go-carbon-registry-ui/internal/certificate"
	certstore "go-carbon-registry-ui/internal/connectors/certlog"
	"go-carbon-registry-ui/internal/registry"
)

// certificateIssuer generates one certificate document and records it in
// the issue log when one is configured.
type certificateIssuer func(ctx context.Context, credit registry.Credit, format string) (*certificate.Document, error)

func issueCertificate(ctx context.Context, credit registry.Credit, format string, store *certstore.Store) (*certificate.Document, error) {
	start := time.Now()
	doc, err := certificate.Generate(credit, format, time.Now())
	recordCertificateIssue(format, map[bool]string{true: "error", false: "success"}[err != nil], time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if store != nil {
		logStart := time.Now()
		logErr := store.RecordIssue(ctx, certstore.IssuedCertificate{
			ID:          doc.Certificate.ID,
			UnicID:      credit.UnicID,
			ProjectName: credit.ProjectName,
			Vintage:     credit.Vintage,
			Status:      credit.Status,
			Format:      doc.Certificate.Format,
			IssuedAt:    doc.Certificate.GeneratedAt,
		})
		recordStoreQuery("certlog", "RecordIssue", time.Since(logStart).Seconds(), logErr)
		if logErr != nil {
			// The download still succeeds; the log is best effort.
			log.Printf("certificate log write failed for %s: %v", credit.UnicID, logErr)
		}
	}

	return doc, nil
}

func certificateHandler(w nethttp.ResponseWriter, r *nethttp.Request, credit registry.Credit, issue certificateIssuer) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = certificate.FormatHTML
	}
	if !certificate.ValidFormat(format) {
		writeJSON(w, nethttp.StatusBadRequest, map[string]any{
			"error": fmt.Sprintf("unsupported format %q, expected html or pdf", format),
		})
		return
	}

	doc, err := issue(r.Context(), credit, format)
	if err != nil {
		writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to generate certificate"})
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("X-Certificate-ID", doc.Certificate.ID)
	w.WriteHeader(nethttp.StatusOK)
	_, _ = w.Write(doc.Body)
}

// issuedCertificatesHandler lists the newest rows of the sqlite issue log.
func issuedCertificatesHandler(defaultLimit, maxLimit int, store *certstore.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "certificate log not available",
				"hint":  "set APP_CERT_SQLITE_PATH to enable the issue log",
			})
			return
		}
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		limit := parseLimit(r, defaultLimit, maxLimit)
		start := time.Now()
		items, err := store.ListIssued(r.Context(), limit)
		recordStoreQuery("certlog", "ListIssued", time.Since(start).Seconds(), err)
		if err != nil {
			writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to list issued certificates"})
			return
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"limit": limit, "count": len(items)},
			"data": items,
		})
	}
}
