package http

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"strconv"
	"sync"
	"time"

	"go-carbon-registry-ui/internal/certificate"
	"go-carbon-registry-ui/internal/config"
	certstore "go-carbon-registry-ui/internal/connectors/certlog"
	jsonstore "go-carbon-registry-ui/internal/connectors/jsonsource"
	dbstore "go-carbon-registry-ui/internal/connectors/registrydb"
	"go-carbon-registry-ui/internal/registry"
)

// Server wraps an HTTP server and route handlers.
type Server struct {
	httpServer *nethttp.Server
	catalogue  *registry.Catalogue
	loader     *jsonstore.Loader
	dbStore    *dbstore.Store
	certStore  *certstore.Store

	reload        reloadFunc
	reloadStatus  *reloadState
	refreshEvery  time.Duration
	refreshCancel context.CancelFunc
}

type reloadFunc func(ctx context.Context) (loaded, skipped int, err error)

// reloadState remembers the outcome of the most recent catalogue reload
// attempt, successful or not, for the status endpoint.
type reloadState struct {
	mu          sync.Mutex
	lastAttempt time.Time
	lastError   string
}

func (r *reloadState) set(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastAttempt = time.Now().UTC()
	if err != nil {
		r.lastError = err.Error()
	} else {
		r.lastError = ""
	}
}

func (r *reloadState) snapshot() (time.Time, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastAttempt, r.lastError
}

// NewServer creates a configured HTTP server with v1 endpoints. The
// catalogue is loaded once before the server is returned; a failed initial
// load is a startup error.
func NewServer(cfg config.Config) (*Server, error) {
	catalogue := registry.NewCatalogue()
	loader := jsonstore.NewLoader(cfg.CreditsFile, cfg.CreditsURL, cfg.CreditsFetchTimeout)

	var store *dbstore.Store
	if cfg.DBEnabled {
		createdStore, err := dbstore.NewStore(cfg)
		if err != nil {
			return nil, err
		}
		store = createdStore
	}

	var certStore *certstore.Store
	if cfg.CertSQLitePath != "" {
		createdStore, err := certstore.NewSQLiteStore(cfg.CertSQLitePath)
		if err != nil {
			if store != nil {
				_ = store.Close()
			}
			return nil, err
		}
		certStore = createdStore
	}

	status := &reloadState{}
	reload := buildReloadFunc(catalogue, loader, store, cfg.DBName, status)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CreditsFetchTimeout)
	defer cancel()
	if _, _, err := reload(ctx); err != nil {
		if store != nil {
			_ = store.Close()
		}
		if certStore != nil {
			_ = certStore.Close()
		}
		return nil, fmt.Errorf("initial catalogue load failed: %w", err)
	}

	issuer := func(ctx context.Context, credit registry.Credit, format string) (*certificate.Document, error) {
		return issueCertificate(ctx, credit, format, certStore)
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/", dashboardHandler)
	mux.HandleFunc("/favicon.ico", faviconHandler)
	mux.Handle("/metrics", metricsHandler())
	mux.HandleFunc("/api/v1/metrics/app", appMetricsSummaryHandler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler)
	mux.HandleFunc("/api/v1/credits", creditsHandler(cfg.DefaultPageSize, cfg.MaxPageSize, catalogue))
	mux.HandleFunc("/api/v1/credits/facets", facetsHandler(catalogue))
	mux.HandleFunc("/api/v1/credits/export", exportHandler(cfg.ExportMaxRows, cfg.MaxPageSize, catalogue))
	mux.HandleFunc("/api/v1/credits/", creditDetailRouter(catalogue, issuer))
	mux.HandleFunc("/api/v1/certificates", issuedCertificatesHandler(cfg.DefaultPageSize, cfg.MaxPageSize, certStore))
	mux.HandleFunc("/api/v1/views", viewsHandler(cfg.DefaultPageSize, certStore))
	mux.HandleFunc("/api/v1/views/", viewDetailRouter(certStore))
	mux.HandleFunc("/api/v1/catalogue/status", catalogueStatusHandler(catalogue, loader.Source(), cfg.DBEnabled, status))
	mux.HandleFunc("/api/v1/catalogue/reload", reloadHandler(reload))
	mux.HandleFunc("/api/v1/status/services", servicesStatusHandler(catalogue, store, certStore))

	httpServer := &nethttp.Server{
		Addr:         cfg.ListenAddr,
		Handler:      loggingMiddleware(observabilityMiddleware(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	s := &Server{
		httpServer:   httpServer,
		catalogue:    catalogue,
		loader:       loader,
		dbStore:      store,
		certStore:    certStore,
		reload:       reload,
		reloadStatus: status,
		refreshEvery: cfg.CreditsRefresh,
	}
	return s, nil
}

func buildReloadFunc(catalogue *registry.Catalogue, loader *jsonstore.Loader, store *dbstore.Store, dbName string, status *reloadState) reloadFunc {
	return func(ctx context.Context) (int, int, error) {
		var (
			records []registry.Credit
			source  string
			err     error
		)

		start := time.Now()
		if store != nil {
			source = "mysql:" + dbName
			records, err = store.ListCredits(ctx)
			recordStoreQuery("registrydb", "ListCredits", time.Since(start).Seconds(), err)
		} else {
			source = loader.Source()
			records, err = loader.Load(ctx)
			recordStoreQuery("jsonsource", "Load", time.Since(start).Seconds(), err)
		}
		if err != nil {
			status.set(err)
			recordCatalogueLoad("error", time.Since(start).Seconds())
			return 0, 0, err
		}

		loaded, skipped, err := catalogue.Replace(records, source)
		status.set(err)
		if err != nil {
			recordCatalogueLoad("error", time.Since(start).Seconds())
			return 0, skipped, err
		}
		recordCatalogueLoad("success", time.Since(start).Seconds())
		return loaded, skipped, nil
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	if s.refreshEvery > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.refreshCancel = cancel
		go s.startRefreshPoller(ctx)
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.refreshCancel != nil {
		s.refreshCancel()
	}
	if s.dbStore != nil {
		_ = s.dbStore.Close()
	}
	if s.certStore != nil {
		_ = s.certStore.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) startRefreshPoller(ctx context.Context) {
	interval := s.refreshEvery
	if interval < 5*time.Second {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A failed refresh keeps the previous snapshot; the error is
			// surfaced via /api/v1/catalogue/status.
			_, _, _ = s.reload(ctx)
		}
	}
}

func healthHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func readyHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ready",
	})
}

func loggingMiddleware(next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: nethttp.StatusOK}
		next.ServeHTTP(rec, r)
		fmt.Printf("%s %s %s %s\n", r.Method, r.URL.Path, strconv.Itoa(rec.status), time.Since(start))
	})
}

func writeJSON(w nethttp.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
