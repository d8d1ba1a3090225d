package manager

import (
	"bytes"
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vnpy/datamanager/internal/csvcodec"
	"github.com/vnpy/datamanager/internal/datafeed"
	"github.com/vnpy/datamanager/internal/domain/bar"
	"github.com/vnpy/datamanager/internal/merge"
	"github.com/vnpy/datamanager/internal/overview"
	"github.com/vnpy/datamanager/pkg/errors"
	"github.com/vnpy/datamanager/pkg/interval"
	"github.com/vnpy/datamanager/pkg/logger"
)

// Config tunes the manager.
type Config struct {
	// StorageTimeout bounds every storage call. Zero disables the bound.
	StorageTimeout time.Duration
	// BatchSize is the number of CSV rows parsed between cancellation checks.
	BatchSize int
}

// Manager drives the data overview and import/export operations. Writes to
// the same series are serialized through a per-key lock; operations on
// different keys run concurrently.
type Manager struct {
	storage bar.Storage
	index   *overview.Index
	feed    datafeed.Datafeed // nil when no feed is configured
	logger  logger.Interface
	config  Config

	mu    sync.Mutex
	locks map[bar.Key]*sync.Mutex
}

// New creates a manager. feed may be nil.
func New(storage bar.Storage, index *overview.Index, feed datafeed.Datafeed, logger logger.Interface, config Config) *Manager {
	if config.BatchSize <= 0 {
		config.BatchSize = 1000
	}
	return &Manager{
		storage: storage,
		index:   index,
		feed:    feed,
		logger:  logger,
		config:  config,
		locks:   make(map[bar.Key]*sync.Mutex),
	}
}

// ImportRequest describes one CSV import.
type ImportRequest struct {
	Path           string
	Key            bar.Key
	Mapping        csvcodec.ColumnMapping
	DatetimeLayout string
	Timezone       *time.Location

	// Overwrite makes imported bars take precedence over stored ones on
	// timestamp collisions ("last import wins"). When false, colliding
	// incoming bars are dropped instead.
	Overwrite bool
}

// ImportSummary reports the outcome of one import.
type ImportSummary struct {
	Inserted    int
	Overwritten int
	RowErrors   []errors.RowDetail

	// Post-import overview of the series.
	Start time.Time
	End   time.Time
	Count int64
}

// ExportRequest describes one CSV export. Zero bounds default to the
// overview envelope of the series.
type ExportRequest struct {
	Key   bar.Key
	Start time.Time
	End   time.Time
	Path  string
}

// ListOverviews rebuilds the overview index from storage and returns its
// entries sorted by (exchange, symbol, interval).
func (m *Manager) ListOverviews(ctx context.Context) ([]*bar.Overview, error) {
	opCtx, cancel := m.storageCtx(ctx)
	defer cancel()

	if err := m.index.RefreshAll(opCtx); err != nil {
		return nil, m.storageError(err, bar.Key{})
	}
	return m.index.List(), nil
}

// ImportCSV reads, validates and merges one CSV file into storage. Row-level
// parse failures are collected and reported; the batch fails as a whole only
// when no row is valid. The storage write is batch-atomic.
func (m *Manager) ImportCSV(ctx context.Context, req ImportRequest) (*ImportSummary, error) {
	if err := req.Key.Validate(); err != nil {
		return nil, errors.NewValidation(err.Error()).WithKey(req.Key.String())
	}

	bars, rowErrors, err := m.parseFile(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, errors.NewValidation("no valid rows in file").
			WithKey(req.Key.String()).WithRows(rowErrors)
	}

	bar.List(bars).SortByTimestamp()

	unlock := m.lockKey(req.Key)
	defer unlock()

	opCtx, cancel := m.storageCtx(ctx)
	defer cancel()

	existing, err := m.storage.GetOverview(opCtx, req.Key)
	if err != nil {
		return nil, m.storageError(err, req.Key)
	}

	stored, err := m.storedTimestamps(opCtx, req.Key, bars[0].Timestamp, bars[len(bars)-1].Timestamp)
	if err != nil {
		return nil, m.storageError(err, req.Key)
	}

	plan, err := merge.BuildPlan(existing, stored, bars)
	if err != nil {
		if dataErr, ok := err.(*errors.DataError); ok {
			return nil, dataErr.WithKey(req.Key.String())
		}
		return nil, err
	}
	if !req.Overwrite {
		plan = dropOverwrites(plan, stored)
	}

	summary := &ImportSummary{
		Inserted:    plan.Inserted,
		Overwritten: plan.Overwritten,
		RowErrors:   rowErrors,
	}
	if plan.IsNoop() {
		return summary, nil
	}

	// Last cancellation point before the atomic commit.
	if err := ctx.Err(); err != nil {
		return nil, m.storageError(err, req.Key)
	}

	if _, err := m.storage.SaveBars(opCtx, req.Key, plan.Bars); err != nil {
		return nil, m.storageError(err, req.Key)
	}

	entry, err := m.index.Refresh(opCtx, req.Key)
	if err != nil {
		return nil, m.storageError(err, req.Key)
	}
	if entry != nil {
		summary.Start = entry.Start
		summary.End = entry.End
		summary.Count = entry.Count
	}

	m.logger.InfoContext(ctx, "Imported bar data",
		logger.Field{Key: "key", Value: req.Key.String()},
		logger.Field{Key: "inserted", Value: summary.Inserted},
		logger.Field{Key: "overwritten", Value: summary.Overwritten},
		logger.Field{Key: "rowErrors", Value: len(summary.RowErrors)},
	)

	return summary, nil
}

// ExportCSV writes the bars of one series to a CSV file, ascending by
// timestamp. It fails with a not-found error before touching the file system
// when the series holds no data.
func (m *Manager) ExportCSV(ctx context.Context, req ExportRequest) (int, error) {
	if err := req.Key.Validate(); err != nil {
		return 0, errors.NewValidation(err.Error()).WithKey(req.Key.String())
	}

	opCtx, cancel := m.storageCtx(ctx)
	defer cancel()

	entry, err := m.index.Refresh(opCtx, req.Key)
	if err != nil {
		return 0, m.storageError(err, req.Key)
	}
	if entry == nil {
		return 0, errors.NewNotFound(req.Key.String())
	}

	start, end := req.Start, req.End
	if start.IsZero() {
		start = entry.Start
	}
	if end.IsZero() {
		end = entry.End
	}

	bars, err := m.storage.QueryBars(opCtx, req.Key, start, end)
	if err != nil {
		return 0, m.storageError(err, req.Key)
	}

	codec := csvcodec.New(csvcodec.DefaultMapping(), csvcodec.DefaultLayout, time.UTC)

	f, err := os.Create(req.Path)
	if err != nil {
		return 0, errors.NewValidation(fmt.Sprintf("cannot create file: %v", err)).
			WithKey(req.Key.String()).WithCause(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvcodec.ExportHeader); err != nil {
		return 0, err
	}
	for _, b := range bars {
		if err := w.Write(codec.Serialize(b)); err != nil {
			return 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, err
	}

	m.logger.InfoContext(ctx, "Exported bar data",
		logger.Field{Key: "key", Value: req.Key.String()},
		logger.Field{Key: "count", Value: len(bars)},
		logger.Field{Key: "path", Value: req.Path},
	)

	return len(bars), nil
}

// DeleteRange removes the bars of one series in [start, end] and refreshes
// the overview. Zero bounds are treated as unbounded.
func (m *Manager) DeleteRange(ctx context.Context, key bar.Key, start, end time.Time) (int64, error) {
	if err := key.Validate(); err != nil {
		return 0, errors.NewValidation(err.Error()).WithKey(key.String())
	}

	unlock := m.lockKey(key)
	defer unlock()

	opCtx, cancel := m.storageCtx(ctx)
	defer cancel()

	entry, err := m.storage.GetOverview(opCtx, key)
	if err != nil {
		return 0, m.storageError(err, key)
	}
	if entry == nil {
		return 0, errors.NewNotFound(key.String())
	}

	deleted, err := m.storage.DeleteBars(opCtx, key, start, end)
	if err != nil {
		return 0, m.storageError(err, key)
	}

	if _, err := m.index.Refresh(opCtx, key); err != nil {
		return 0, m.storageError(err, key)
	}

	m.logger.InfoContext(ctx, "Deleted bar data",
		logger.Field{Key: "key", Value: key.String()},
		logger.Field{Key: "deleted", Value: deleted},
	)

	return deleted, nil
}

// DownloadBars pulls bar history from the configured datafeed, starting at
// start and ending at the current interval bucket, and merges it through the
// same per-key path as a CSV import.
func (m *Manager) DownloadBars(ctx context.Context, key bar.Key, start time.Time) (int, error) {
	if m.feed == nil {
		return 0, errors.NewValidation("no datafeed configured").WithKey(key.String())
	}
	if err := key.Validate(); err != nil {
		return 0, errors.NewValidation(err.Error()).WithKey(key.String())
	}

	iv, err := interval.GetInterval(key.Interval)
	if err != nil {
		return 0, errors.NewValidation(err.Error()).WithKey(key.String())
	}
	end := iv.CalculateBucketTime(time.Now().UTC())

	bars, err := m.feed.QueryBarHistory(ctx, datafeed.HistoryRequest{Key: key, Start: start, End: end})
	if err != nil {
		return 0, err
	}

	valid := bars[:0]
	for _, b := range bars {
		if err := b.Validate(); err != nil {
			m.logger.WarnContext(ctx, "Dropping invalid feed bar",
				logger.Field{Key: "key", Value: key.String()},
				logger.Field{Key: "reason", Value: err.Error()},
			)
			continue
		}
		valid = append(valid, b)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	unlock := m.lockKey(key)
	defer unlock()

	opCtx, cancel := m.storageCtx(ctx)
	defer cancel()

	existing, err := m.storage.GetOverview(opCtx, key)
	if err != nil {
		return 0, m.storageError(err, key)
	}
	stored, err := m.storedTimestamps(opCtx, key, valid[0].Timestamp, valid[len(valid)-1].Timestamp)
	if err != nil {
		return 0, m.storageError(err, key)
	}

	plan, err := merge.BuildPlan(existing, stored, valid)
	if err != nil {
		if dataErr, ok := err.(*errors.DataError); ok {
			return 0, dataErr.WithKey(key.String())
		}
		return 0, err
	}
	if plan.IsNoop() {
		return 0, nil
	}

	if _, err := m.storage.SaveBars(opCtx, key, plan.Bars); err != nil {
		return 0, m.storageError(err, key)
	}
	if _, err := m.index.Refresh(opCtx, key); err != nil {
		return 0, m.storageError(err, key)
	}

	m.logger.InfoContext(ctx, "Downloaded bar data",
		logger.Field{Key: "key", Value: key.String()},
		logger.Field{Key: "count", Value: len(plan.Bars)},
	)

	return len(plan.Bars), nil
}

// parseFile reads the CSV file and parses every data row, collecting
// per-row failures. Cancellation is checked between row batches; nothing is
// written to storage here.
func (m *Manager) parseFile(ctx context.Context, req ImportRequest) ([]*bar.Bar, []errors.RowDetail, error) {
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, nil, errors.NewValidation(fmt.Sprintf("cannot read file: %v", err)).
			WithKey(req.Key.String()).WithCause(err)
	}
	// Some exports pad with NUL bytes; strip them before parsing.
	data = bytes.ReplaceAll(data, []byte{0}, nil)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, errors.NewDataError(errors.CSVParseError, "file has no header row").
			WithKey(req.Key.String())
	}

	codec := csvcodec.New(req.Mapping, req.DatetimeLayout, req.Timezone)
	if err := codec.BindHeader(header); err != nil {
		if dataErr, ok := err.(*errors.DataError); ok {
			return nil, nil, dataErr.WithKey(req.Key.String())
		}
		return nil, nil, err
	}

	var (
		bars      []*bar.Bar
		rowErrors []errors.RowDetail
	)
	for rowNum := 1; ; rowNum++ {
		if rowNum%m.config.BatchSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, m.storageError(err, req.Key)
			}
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrors = append(rowErrors, errors.RowDetail{Row: rowNum, Reason: err.Error()})
			continue
		}

		b, detail := codec.ParseRow(rowNum, record, req.Key)
		if detail != nil {
			rowErrors = append(rowErrors, *detail)
			continue
		}
		bars = append(bars, b)
	}

	return bars, rowErrors, nil
}

// storedTimestamps returns the timestamps already stored inside [start, end].
func (m *Manager) storedTimestamps(ctx context.Context, key bar.Key, start, end time.Time) (map[int64]bool, error) {
	storedBars, err := m.storage.QueryBars(ctx, key, start, end)
	if err != nil {
		return nil, err
	}
	return merge.TimestampSet(storedBars), nil
}

// lockKey serializes operations on one series.
func (m *Manager) lockKey(key bar.Key) func() {
	m.mu.Lock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (m *Manager) storageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.config.StorageTimeout > 0 {
		return context.WithTimeout(ctx, m.config.StorageTimeout)
	}
	return ctx, func() {}
}

// storageError normalizes backend failures that are not yet tagged.
func (m *Manager) storageError(err error, key bar.Key) error {
	if _, ok := errors.CodeOf(err); ok {
		return err
	}

	code := errors.StorageConnectivityError
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		code = errors.StorageTimeoutError
	}

	dataErr := errors.NewDataError(code, err.Error()).WithCause(err)
	if key != (bar.Key{}) {
		dataErr = dataErr.WithKey(key.String())
	}
	return dataErr
}

func dropOverwrites(plan *merge.Plan, stored map[int64]bool) *merge.Plan {
	kept := make([]*bar.Bar, 0, len(plan.Bars))
	for _, b := range plan.Bars {
		if stored[b.Timestamp.UnixNano()] {
			continue
		}
		kept = append(kept, b)
	}
	plan.Bars = kept
	plan.Overwritten = 0
	return plan
}
