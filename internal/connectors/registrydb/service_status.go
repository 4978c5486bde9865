package registrydb

import (
	"context"
	"database/sql"
	"time"
)

// ServiceStats contains lightweight DB health and volume counters.
type ServiceStats struct {
	PingMS         int64 `json:"ping_ms"`
	UptimeSeconds  int64 `json:"uptime_seconds"`
	CreditsTotal   int64 `json:"credits_total"`
	CreditsActive  int64 `json:"credits_active"`
	CreditsRetired int64 `json:"credits_retired"`
}

// ServiceStats returns MySQL health and high-level credit counters.
func (s *Store) ServiceStats(ctx context.Context) (*ServiceStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	start := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		return nil, err
	}

	out := &ServiceStats{
		PingMS: time.Since(start).Milliseconds(),
	}

	var statusName string
	var statusValue sql.NullString
	if err := s.db.QueryRowContext(ctx, `SHOW GLOBAL STATUS LIKE 'Uptime';`).Scan(&statusName, &statusValue); err == nil && statusValue.Valid {
		if v, err := time.ParseDuration(statusValue.String + "s"); err == nil {
			out.UptimeSeconds = int64(v.Seconds())
		}
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM credits;`).Scan(&out.CreditsTotal); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM credits WHERE status = 'Active';`).Scan(&out.CreditsActive); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM credits WHERE status = 'Retired';`).Scan(&out.CreditsRetired); err != nil {
		return nil, err
	}

	return out, nil
}
