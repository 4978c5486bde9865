package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-carbon-registry-ui/internal/registry"
)

func testCatalogue(t *testing.T) *registry.Catalogue {
	t.Helper()

	cat := registry.NewCatalogue()
	records := []registry.Credit{
		{UnicID: "VCS-0001", ProjectName: "Rimba Raya REDD+", Vintage: 2018, Status: "Active"},
		{UnicID: "VCS-0002", ProjectName: "Katingan Peatland", Vintage: 2019, Status: "Retired"},
		{UnicID: "GS-1001", ProjectName: "Gujarat Wind Power", Vintage: 2020, Status: "Active"},
		{UnicID: "ACR-2203", ProjectName: "Delta Blue Carbon", Vintage: 2021, Status: "Active"},
	}
	if _, _, err := cat.Replace(records, "test"); err != nil {
		t.Fatalf("failed to load test catalogue: %v", err)
	}
	return cat
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return payload
}

func TestCreditsHandler_ListAndPaginate(t *testing.T) {
	h := creditsHandler(2, 500, testCatalogue(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	payload := decodeEnvelope(t, rr)
	meta := payload["meta"].(map[string]any)
	if meta["total"].(float64) != 4 {
		t.Fatalf("expected total 4, got %v", meta["total"])
	}
	if meta["count"].(float64) != 2 {
		t.Fatalf("expected default page of 2, got %v", meta["count"])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/credits?limit=2&offset=2", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	payload = decodeEnvelope(t, rr)
	data := payload["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("expected 2 items on second page, got %d", len(data))
	}
	first := data[0].(map[string]any)
	if first["unic_id"] != "VCS-0001" {
		t.Fatalf("expected VCS-0001 first on second page, got %v", first["unic_id"])
	}
}

func TestCreditsHandler_Filters(t *testing.T) {
	h := creditsHandler(50, 500, testCatalogue(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits?q=peatland", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	payload := decodeEnvelope(t, rr)
	data := payload["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("expected 1 text match, got %d", len(data))
	}
	if data[0].(map[string]any)["unic_id"] != "VCS-0002" {
		t.Fatalf("expected VCS-0002, got %v", data[0].(map[string]any)["unic_id"])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/credits?status=Active&vintage_from=2020", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	payload = decodeEnvelope(t, rr)
	meta := payload["meta"].(map[string]any)
	if meta["total"].(float64) != 2 {
		t.Fatalf("expected 2 active credits from 2020, got %v", meta["total"])
	}
}

func TestCreditsHandler_InvalidStatusReturnsBadRequest(t *testing.T) {
	h := creditsHandler(50, 500, testCatalogue(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits?status=Pending", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	payload := decodeEnvelope(t, rr)
	if payload["error"] == nil {
		t.Fatalf("expected error field in response")
	}
}

func TestCreditsHandler_InvalidVintageRange(t *testing.T) {
	h := creditsHandler(50, 500, testCatalogue(t))

	for _, query := range []string{
		"vintage_from=abc",
		"vintage_from=1700",
		"vintage_from=2021&vintage_to=2018",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/credits?"+query, nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("query %q: expected status %d, got %d", query, http.StatusBadRequest, rr.Code)
		}
	}
}

func TestFacetsHandler(t *testing.T) {
	h := facetsHandler(testCatalogue(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits/facets", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	payload := decodeEnvelope(t, rr)
	data := payload["data"].(map[string]any)
	counts := data["status_counts"].(map[string]any)
	if counts["Active"].(float64) != 3 || counts["Retired"].(float64) != 1 {
		t.Fatalf("unexpected status counts: %v", counts)
	}
	if data["vintage_min"].(float64) != 2018 || data["vintage_max"].(float64) != 2021 {
		t.Fatalf("unexpected vintage bounds: %v", data)
	}
}

func TestExportHandler_WritesCSV(t *testing.T) {
	h := exportHandler(20000, 500, testCatalogue(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits/export?status=Active&sort=vintage_desc", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv content type, got %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "credits.csv") {
		t.Fatalf("expected credits.csv attachment, got %q", cd)
	}

	rows, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d rows", len(rows))
	}
	if rows[0][0] != "unic_id" || rows[0][3] != "status" {
		t.Fatalf("unexpected header row: %v", rows[0])
	}
	if rows[1][0] != "ACR-2203" {
		t.Fatalf("expected newest-vintage credit first, got %v", rows[1])
	}
}

func TestCreditDetailRouter_FoundAndNotFound(t *testing.T) {
	h := creditDetailRouter(testCatalogue(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits/GS-1001", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	payload := decodeEnvelope(t, rr)
	data := payload["data"].(map[string]any)
	if data["project_name"] != "Gujarat Wind Power" {
		t.Fatalf("unexpected detail payload: %v", data)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/credits/VCS-9999", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestCreditDetailRouter_UnknownActionReturnsNotFound(t *testing.T) {
	h := creditDetailRouter(testCatalogue(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits/GS-1001/history", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestReloadHandler_GetNotAllowed(t *testing.T) {
	h := reloadHandler(func(ctx context.Context) (int, int, error) { return 0, 0, nil })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalogue/reload", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rr.Code)
	}
}

func TestNormalizeMetricPath(t *testing.T) {
	cases := map[string]string{
		"/":                          "/",
		"/api/v1/credits":            "/api/v1/credits",
		"/api/v1/credits/VCS-0001":   "/api/v1/credits/{unic_id}",
		"/api/v1/credits/VCS-0001/certificate": "/api/v1/credits/{unic_id}/certificate",
		"/api/v1/views/42":           "/api/v1/views/{id}",
	}
	for in, want := range cases {
		if got := normalizeMetricPath(in); got != want {
			t.Fatalf("normalizeMetricPath(%q) = %q, want %q", in, got, want)
		}
	}
}
