package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go-carbon-registry-ui/internal/certificate"
	certstore "go-carbon-registry-ui/internal/connectors/certlog"
	"go-carbon-registry-ui/internal/registry"
)

func testCertStore(t *testing.T) *certstore.Store {
	t.Helper()

	store, err := certstore.NewSQLiteStore(filepath.Join(t.TempDir(), "certlog.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestViewsHandler_StoreDisabled(t *testing.T) {
	h := viewsHandler(50, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/views", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
	payload := decodeEnvelope(t, rr)
	if payload["error"] == nil {
		t.Fatalf("expected error field in response")
	}
}

func TestViewsHandler_SaveListDelete(t *testing.T) {
	store := testCertStore(t)
	list := viewsHandler(50, store)
	detail := viewDetailRouter(store)

	body := `{"name":"active-2020","description":"active credits from 2020","config":{"status":"Active","vintage_from":"2020"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/views", strings.NewReader(body))
	rr := httptest.NewRecorder()
	list.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	payload := decodeEnvelope(t, rr)
	saved := payload["data"].(map[string]any)
	if saved["name"] != "active-2020" {
		t.Fatalf("unexpected saved view: %v", saved)
	}
	id := saved["id"].(float64)
	if id <= 0 {
		t.Fatalf("expected a positive view id, got %v", id)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/views", nil)
	rr = httptest.NewRecorder()
	list.ServeHTTP(rr, req)

	payload = decodeEnvelope(t, rr)
	if payload["meta"].(map[string]any)["count"].(float64) != 1 {
		t.Fatalf("expected 1 saved view, got %v", payload["meta"])
	}

	viewPath := fmt.Sprintf("/api/v1/views/%d", int64(id))
	req = httptest.NewRequest(http.MethodDelete, viewPath, nil)
	rr = httptest.NewRecorder()
	detail.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, viewPath, nil)
	rr = httptest.NewRecorder()
	detail.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d after delete, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestViewsHandler_RejectsMissingName(t *testing.T) {
	h := viewsHandler(50, testCertStore(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/views", strings.NewReader(`{"config":{}}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestViewDetailRouter_InvalidID(t *testing.T) {
	h := viewDetailRouter(testCertStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/views/not-a-number", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestIssuedCertificatesHandler_StoreDisabled(t *testing.T) {
	h := issuedCertificatesHandler(50, 500, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/certificates", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}

func TestCertificateHandler_RecordsIssueInStore(t *testing.T) {
	store := testCertStore(t)
	cat := testCatalogue(t)
	issue := func(ctx context.Context, credit registry.Credit, format string) (*certificate.Document, error) {
		return issueCertificate(ctx, credit, format, store)
	}
	h := creditDetailRouter(cat, issue)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits/VCS-0001/certificate?format=html", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected text/html content type, got %q", ct)
	}
	if rr.Header().Get("X-Certificate-ID") == "" {
		t.Fatalf("expected X-Certificate-ID header")
	}
	if !strings.Contains(rr.Body.String(), "VCS-0001") {
		t.Fatalf("expected certificate body to mention the credit id")
	}

	listed := issuedCertificatesHandler(50, 500, store)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/certificates", nil)
	rr = httptest.NewRecorder()
	listed.ServeHTTP(rr, req)

	payload := decodeEnvelope(t, rr)
	data := payload["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("expected 1 issued certificate, got %d", len(data))
	}
	if data[0].(map[string]any)["unic_id"] != "VCS-0001" {
		t.Fatalf("unexpected issue log entry: %v", data[0])
	}
}

func TestCertificateHandler_UnsupportedFormat(t *testing.T) {
	issue := func(ctx context.Context, credit registry.Credit, format string) (*certificate.Document, error) {
		return issueCertificate(ctx, credit, format, nil)
	}
	h := creditDetailRouter(testCatalogue(t), issue)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits/VCS-0001/certificate?format=docx", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}
