package jsonsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_BuiltinCatalogue(t *testing.T) {
	l := NewLoader("", "", 5*time.Second)

	if l.Source() != "builtin" {
		t.Fatalf("expected builtin source, got %q", l.Source())
	}

	credits, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(credits) == 0 {
		t.Fatalf("builtin catalogue is empty")
	}
	for _, c := range credits {
		if c.UnicID == "" || c.Vintage == 0 {
			t.Fatalf("builtin catalogue has malformed record: %+v", c)
		}
	}
}

func TestLoad_FromFileWithWrapperObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credits.json")
	payload := `{"credits": [{"unic_id": "X-1", "project_name": "Test", "vintage": 2020, "status": "Active"}]}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	l := NewLoader(path, "", 5*time.Second)
	credits, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(credits) != 1 || credits[0].UnicID != "X-1" {
		t.Fatalf("unexpected credits: %+v", credits)
	}
}

func TestLoad_URLOverrideWinsOverFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"unic_id": "URL-1", "project_name": "From URL", "vintage": 2021, "status": "Retired"}]`))
	}))
	defer srv.Close()

	l := NewLoader("/does/not/exist.json", srv.URL, 5*time.Second)
	if l.Source() != srv.URL {
		t.Fatalf("expected URL source, got %q", l.Source())
	}

	credits, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(credits) != 1 || credits[0].UnicID != "URL-1" {
		t.Fatalf("unexpected credits: %+v", credits)
	}
}

func TestLoad_URLErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	l := NewLoader("", srv.URL, 5*time.Second)
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestDecodeCredits_RejectsUnknownShapes(t *testing.T) {
	if _, err := decodeCredits([]byte("")); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	if _, err := decodeCredits([]byte(`{"rows": []}`)); err == nil {
		t.Fatalf("expected error for payload without credits array")
	}
	if _, err := decodeCredits([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}
