package certlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// IssuedCertificate is one row of the app-owned certificate issue log.
type IssuedCertificate struct {
	ID          string    `json:"id"`
	UnicID      string    `json:"unic_id"`
	ProjectName string    `json:"project_name"`
	Vintage     int       `json:"vintage"`
	Status      string    `json:"status"`
	Format      string    `json:"format"`
	IssuedAt    time.Time `json:"issued_at"`
}

// SavedView is a persisted named query configuration for the dashboard.
type SavedView struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ConfigJSON  string     `json:"config_json"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// IssueStats aggregates the issue log for status dashboards.
type IssueStats struct {
	Total    int64            `json:"total"`
	ByFormat map[string]int64 `json:"by_format"`
	LastAt   *time.Time       `json:"last_at,omitempty"`
}

// Store persists issued certificates and saved views in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

func NewSQLiteStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS issued_certificates (
  id TEXT PRIMARY KEY,
  unic_id TEXT NOT NULL,
  project_name TEXT NOT NULL,
  vintage INTEGER NOT NULL,
  status TEXT NOT NULL,
  format TEXT NOT NULL,
  issued_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_ic_unic_id ON issued_certificates(unic_id);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_ic_issued_at ON issued_certificates(issued_at);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS saved_views (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  config_json TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the sqlite file backing this store.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// RecordIssue appends one certificate issue event.
func (s *Store) RecordIssue(ctx context.Context, cert IssuedCertificate) error {
	if strings.TrimSpace(cert.ID) == "" {
		return fmt.Errorf("certificate id is required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO issued_certificates (id, unic_id, project_name, vintage, status, format, issued_at)
VALUES (?, ?, ?, ?, ?, ?, ?);
`, cert.ID, cert.UnicID, cert.ProjectName, cert.Vintage, cert.Status, cert.Format, cert.IssuedAt.UTC())
	return err
}

// ListIssued returns the newest issue log rows first.
func (s *Store) ListIssued(ctx context.Context, limit int) ([]IssuedCertificate, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, unic_id, project_name, vintage, status, format, issued_at
FROM issued_certificates
ORDER BY issued_at DESC, id
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]IssuedCertificate, 0, limit)
	for rows.Next() {
		var (
			item     IssuedCertificate
			issuedAt sql.NullTime
		)
		if err := rows.Scan(&item.ID, &item.UnicID, &item.ProjectName, &item.Vintage, &item.Status, &item.Format, &issuedAt); err != nil {
			return nil, err
		}
		if issuedAt.Valid {
			item.IssuedAt = issuedAt.Time.UTC()
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats aggregates totals and per-format counts over the issue log.
func (s *Store) Stats(ctx context.Context) (*IssueStats, error) {
	out := &IssueStats{ByFormat: map[string]int64{}}

	rows, err := s.db.QueryContext(ctx, `
SELECT format, COUNT(*)
FROM issued_certificates
GROUP BY format;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var format string
		var count int64
		if err := rows.Scan(&format, &count); err != nil {
			return nil, err
		}
		out.ByFormat[format] = count
		out.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var lastAt sql.NullTime
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(issued_at) FROM issued_certificates;`).Scan(&lastAt); err == nil && lastAt.Valid {
		t := lastAt.Time.UTC()
		out.LastAt = &t
	}

	return out, nil
}

// ListSavedViews returns saved views ordered by name.
func (s *Store) ListSavedViews(ctx context.Context, limit int) ([]SavedView, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, description, config_json, created_at, updated_at
FROM saved_views
ORDER BY name ASC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SavedView, 0, limit)
	for rows.Next() {
		var (
			item      SavedView
			createdAt sql.NullTime
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.ConfigJSON, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if createdAt.Valid {
			t := createdAt.Time.UTC()
			item.CreatedAt = &t
		}
		if updatedAt.Valid {
			t := updatedAt.Time.UTC()
			item.UpdatedAt = &t
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetSavedView(ctx context.Context, id int64) (*SavedView, error) {
	var (
		item      SavedView
		createdAt sql.NullTime
		updatedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, name, description, config_json, created_at, updated_at
FROM saved_views
WHERE id = ?;
`, id).Scan(&item.ID, &item.Name, &item.Description, &item.ConfigJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if createdAt.Valid {
		t := createdAt.Time.UTC()
		item.CreatedAt = &t
	}
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		item.UpdatedAt = &t
	}
	return &item, nil
}

// UpsertSavedView creates or replaces a saved view by name.
func (s *Store) UpsertSavedView(ctx context.Context, name, description, configJSON string) (int64, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	configJSON = strings.TrimSpace(configJSON)
	if name == "" {
		return 0, fmt.Errorf("view name is required")
	}
	if configJSON == "" {
		return 0, fmt.Errorf("config_json is required")
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO saved_views (name, description, config_json, created_at, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET
  description = excluded.description,
  config_json = excluded.config_json,
  updated_at = CURRENT_TIMESTAMP;
`, name, description, configJSON)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err == nil && id > 0 {
		return id, nil
	}

	var existingID int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM saved_views WHERE name = ?`, name).Scan(&existingID); err != nil {
		return 0, err
	}
	return existingID, nil
}

func (s *Store) DeleteSavedView(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_views WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
