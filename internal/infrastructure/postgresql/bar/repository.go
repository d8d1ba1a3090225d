package bar

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	domain "github.com/vnpy/datamanager/internal/domain/bar"
	"github.com/vnpy/datamanager/pkg/errors"
	"github.com/vnpy/datamanager/pkg/logger"
	"github.com/vnpy/datamanager/pkg/postgresql"
)

// Decimal columns travel as text so no float rounding ever touches them.
const selectColumns = `symbol, exchange, interval, timestamp,
	open::text, high::text, low::text, close::text,
	volume::text, turnover::text, open_interest::text`

const upsertQuery = `INSERT INTO bars (symbol, exchange, interval, timestamp, open, high, low, close, volume, turnover, open_interest)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (symbol, exchange, interval, timestamp)
	DO UPDATE SET open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
		close = EXCLUDED.close, volume = EXCLUDED.volume, turnover = EXCLUDED.turnover,
		open_interest = EXCLUDED.open_interest`

// Repository implements the bar storage contract over PostgreSQL.
type Repository struct {
	client postgresql.PostgreSQLClient
	logger logger.Interface
}

var _ domain.Storage = (*Repository)(nil)

// NewRepository creates a new bar repository.
func NewRepository(client postgresql.PostgreSQLClient, logger logger.Interface) *Repository {
	return &Repository{
		client: client,
		logger: logger,
	}
}

// QueryBars retrieves the bars of one series in [start, end], ascending by
// timestamp. Zero bounds are treated as unbounded.
func (r *Repository) QueryBars(ctx context.Context, key domain.Key, start, end time.Time) ([]*domain.Bar, error) {
	query := `SELECT ` + selectColumns + ` FROM bars WHERE symbol = $1 AND exchange = $2 AND interval = $3`
	args := []any{key.Symbol, key.Exchange, key.Interval}

	if !start.IsZero() {
		args = append(args, start.UTC())
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if !end.IsZero() {
		args = append(args, end.UTC())
		query += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}
	query += " ORDER BY timestamp ASC"

	rows, err := r.client.Query(ctx, query, args...)
	if err != nil {
		return nil, r.storageError(err, key)
	}
	defer rows.Close()

	var bars []*domain.Bar
	for rows.Next() {
		b, err := scanBar(rows)
		if err != nil {
			return nil, r.storageError(err, key)
		}
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, r.storageError(err, key)
	}

	return bars, nil
}

// SaveBars upserts the batch inside one transaction. Either every bar is
// committed or none of them is.
func (r *Repository) SaveBars(ctx context.Context, key domain.Key, bars []*domain.Bar) (int64, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	err := postgresql.WithTx(ctx, r.client, func(txCtx context.Context) error {
		for _, b := range bars {
			_, err := r.client.Exec(txCtx, upsertQuery,
				key.Symbol,
				key.Exchange,
				key.Interval,
				b.Timestamp.UTC(),
				b.Open.String(),
				b.High.String(),
				b.Low.String(),
				b.Close.String(),
				b.Volume.String(),
				b.Turnover.String(),
				b.OpenInterest.String(),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, r.storageError(err, key)
	}

	r.logger.Info("Saved bar batch",
		logger.Field{Key: "key", Value: key.String()},
		logger.Field{Key: "count", Value: len(bars)},
	)

	return int64(len(bars)), nil
}

// DeleteBars removes the bars of one series in [start, end]. Zero bounds are
// treated as unbounded.
func (r *Repository) DeleteBars(ctx context.Context, key domain.Key, start, end time.Time) (int64, error) {
	query := `DELETE FROM bars WHERE symbol = $1 AND exchange = $2 AND interval = $3`
	args := []any{key.Symbol, key.Exchange, key.Interval}

	if !start.IsZero() {
		args = append(args, start.UTC())
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if !end.IsZero() {
		args = append(args, end.UTC())
		query += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}

	cmd, err := r.client.Exec(ctx, query, args...)
	if err != nil {
		return 0, r.storageError(err, key)
	}

	return cmd.RowsAffected(), nil
}

// GetOverview aggregates min/max timestamp and row count for one series.
// Returns nil when the series holds no bars.
func (r *Repository) GetOverview(ctx context.Context, key domain.Key) (*domain.Overview, error) {
	query := `SELECT min(timestamp), max(timestamp), count(*) FROM bars WHERE symbol = $1 AND exchange = $2 AND interval = $3`

	var (
		start *time.Time
		end   *time.Time
		count int64
	)
	err := r.client.QueryRow(ctx, query, key.Symbol, key.Exchange, key.Interval).Scan(&start, &end, &count)
	if err != nil {
		return nil, r.storageError(err, key)
	}

	if count == 0 {
		return nil, nil
	}

	return &domain.Overview{
		Key:   key,
		Start: start.UTC(),
		End:   end.UTC(),
		Count: count,
	}, nil
}

// ListOverviews aggregates every stored series.
func (r *Repository) ListOverviews(ctx context.Context) ([]*domain.Overview, error) {
	query := `SELECT symbol, exchange, interval, min(timestamp), max(timestamp), count(*)
		FROM bars
		GROUP BY symbol, exchange, interval
		ORDER BY exchange, symbol, interval`

	rows, err := r.client.Query(ctx, query)
	if err != nil {
		return nil, r.storageError(err, domain.Key{})
	}
	defer rows.Close()

	var overviews []*domain.Overview
	for rows.Next() {
		o := &domain.Overview{}
		err := rows.Scan(&o.Key.Symbol, &o.Key.Exchange, &o.Key.Interval, &o.Start, &o.End, &o.Count)
		if err != nil {
			return nil, r.storageError(err, domain.Key{})
		}
		o.Start = o.Start.UTC()
		o.End = o.End.UTC()
		overviews = append(overviews, o)
	}

	if err := rows.Err(); err != nil {
		return nil, r.storageError(err, domain.Key{})
	}

	return overviews, nil
}

func scanBar(rows postgresql.RowsInterface) (*domain.Bar, error) {
	b := &domain.Bar{}
	var open, high, low, close, volume, turnover, openInterest string

	err := rows.Scan(&b.Symbol, &b.Exchange, &b.Interval, &b.Timestamp,
		&open, &high, &low, &close, &volume, &turnover, &openInterest)
	if err != nil {
		return nil, fmt.Errorf("failed to scan bar: %w", err)
	}
	b.Timestamp = b.Timestamp.UTC()

	for _, field := range []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{open, &b.Open},
		{high, &b.High},
		{low, &b.Low},
		{close, &b.Close},
		{volume, &b.Volume},
		{turnover, &b.Turnover},
		{openInterest, &b.OpenInterest},
	} {
		d, err := decimal.NewFromString(field.raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode decimal %q: %w", field.raw, err)
		}
		*field.dest = d
	}

	return b, nil
}

// storageError maps a backend failure onto the tagged error taxonomy.
func (r *Repository) storageError(err error, key domain.Key) error {
	r.logger.Error(errors.TracerFromError(err),
		logger.Field{Key: "key", Value: key.String()},
	)

	code := errors.StorageConnectivityError

	var pgErr *pgconn.PgError
	switch {
	case stderrors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err):
		code = errors.StorageTimeoutError
	case stderrors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23"):
		code = errors.StorageConstraintError
	}

	dataErr := errors.NewDataError(code, err.Error()).WithCause(err)
	if key != (domain.Key{}) {
		dataErr = dataErr.WithKey(key.String())
	}
	return dataErr
}
