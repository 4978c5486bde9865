package jsonsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go-carbon-registry-ui/internal/registry"
)

const maxPayloadBytes = 32 << 20

// Loader reads the credit catalogue from a local JSON file or an HTTP(S)
// URL. When neither is configured the built-in catalogue is used.
type Loader struct {
	file string
	url  string
	http *http.Client
}

func NewLoader(file, url string, timeout time.Duration) *Loader {
	return &Loader{
		file: strings.TrimSpace(file),
		url:  strings.TrimSpace(url),
		http: &http.Client{Timeout: timeout},
	}
}

// Source describes where Load reads from, for status payloads and logs.
func (l *Loader) Source() string {
	switch {
	case l.url != "":
		return l.url
	case l.file != "":
		return l.file
	default:
		return "builtin"
	}
}

// Load fetches and decodes the catalogue. The URL override wins over the
// file path; records are returned raw, normalization happens in the
// catalogue so every source shares the same validation.
func (l *Loader) Load(ctx context.Context) ([]registry.Credit, error) {
	switch {
	case l.url != "":
		return l.loadURL(ctx)
	case l.file != "":
		return l.loadFile()
	default:
		return decodeCredits([]byte(defaultCatalogueJSON))
	}
}

func (l *Loader) loadFile() ([]registry.Credit, error) {
	blob, err := os.ReadFile(l.file)
	if err != nil {
		return nil, fmt.Errorf("read credits file: %w", err)
	}
	return decodeCredits(blob)
}

func (l *Loader) loadURL(ctx context.Context) ([]registry.Credit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch credits: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		blob, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("credits source status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(blob)))
	}

	blob, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, err
	}
	return decodeCredits(blob)
}

// decodeCredits accepts either a bare JSON array of credits or a
// {"credits": [...]} wrapper.
func decodeCredits(blob []byte) ([]registry.Credit, error) {
	trimmed := strings.TrimSpace(string(blob))
	if trimmed == "" {
		return nil, fmt.Errorf("credits payload is empty")
	}

	if strings.HasPrefix(trimmed, "[") {
		var out []registry.Credit
		if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
			return nil, fmt.Errorf("decode credits array: %w", err)
		}
		return out, nil
	}

	var wrapper struct {
		Credits []registry.Credit `json:"credits"`
	}
	if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
		return nil, fmt.Errorf("decode credits object: %w", err)
	}
	if wrapper.Credits == nil {
		return nil, fmt.Errorf("credits payload has no \"credits\" array")
	}
	return wrapper.Credits, nil
}
