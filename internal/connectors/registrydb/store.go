package registrydb

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"go-carbon-registry-ui/internal/config"
	"go-carbon-registry-ui/internal/registry"
)

// Store reads the credit catalogue from the registry MySQL database. It is
// an optional alternative to the JSON source for deployments that mirror
// the registry into a `credits` table.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

func NewStore(cfg config.Config) (*Store, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, queryTimeout: cfg.DBQueryTimeout}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ListCredits fetches every credit row. The full set is held in memory by
// the catalogue, so no paging happens at the SQL layer.
func (s *Store) ListCredits(ctx context.Context) ([]registry.Credit, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT unic_id, project_name, vintage, status
FROM credits
ORDER BY unic_id;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]registry.Credit, 0, 1024)
	for rows.Next() {
		var item registry.Credit
		if err := rows.Scan(&item.UnicID, &item.ProjectName, &item.Vintage, &item.Status); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
