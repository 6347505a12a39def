package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mathisdt/optigem-spoonfeeder/internal/apperrors"
	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
	portssvc "github.com/mathisdt/optigem-spoonfeeder/internal/core/ports/services"
	"github.com/mathisdt/optigem-spoonfeeder/internal/middleware"
)

const (
	rulesFilename   = "rules.expr"
	tableFilePrefix = "table_"
	tableFileSuffix = ".csv"
	monthsSubdir    = "saved-months"
)

// storageService persists everything the core works with as plain files in
// one base directory: the rule text, the user-editable lookup table CSVs
// and the per-month result snapshots.
type storageService struct {
	dir string
}

// NewStorageService creates the file-backed storage for the given base
// directory.
func NewStorageService(dir string) portssvc.StorageSvcFacade {
	return &storageService{dir: dir}
}

var _ portssvc.StorageSvcFacade = (*storageService)(nil)

func (s *storageService) Rules(ctx context.Context) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, rulesFilename))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: no %s in %s", apperrors.ErrNotFound, rulesFilename, s.dir)
	}
	if err != nil {
		return "", fmt.Errorf("could not read rules from %s: %w", s.dir, err)
	}
	return string(data), nil
}

func (s *storageService) SaveRules(ctx context.Context, rulesText string) error {
	if err := os.WriteFile(filepath.Join(s.dir, rulesFilename), []byte(rulesText), 0o644); err != nil {
		return fmt.Errorf("could not write rules to %s: %w", s.dir, err)
	}
	return nil
}

func (s *storageService) Tables(ctx context.Context) ([]*domain.Table, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("could not read table files from %s: %w", s.dir, err)
	}

	var tables []*domain.Table
	for _, entry := range entries {
		filename := entry.Name()
		lower := strings.ToLower(filename)
		if entry.IsDir() || !strings.HasPrefix(lower, tableFilePrefix) || !strings.HasSuffix(lower, tableFileSuffix) {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(lower, tableFilePrefix), tableFileSuffix)
		table, err := s.loadTable(name, filename)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func (s *storageService) Table(ctx context.Context, name string) (*domain.Table, error) {
	tables, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}
	for _, table := range tables {
		if strings.EqualFold(table.Name(), name) {
			return table, nil
		}
	}
	return nil, fmt.Errorf("%w: table %s", apperrors.ErrNotFound, name)
}

func (s *storageService) SaveTable(ctx context.Context, table *domain.Table) error {
	if strings.TrimSpace(table.Name()) == "" {
		return fmt.Errorf("%w: table needs a name", apperrors.ErrValidation)
	}
	filename := table.Filename()
	if filename == "" {
		filename = tableFilePrefix + table.Name() + tableFileSuffix
	}

	f, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return fmt.Errorf("could not write table %s: %w", table.Name(), err)
	}
	defer f.Close()

	columns := table.ColumnNames()
	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("could not write table %s: %w", table.Name(), err)
	}
	for _, row := range table.Rows() {
		record := make([]string, len(columns))
		for i, column := range columns {
			record[i] = row.Get(column)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("could not write table %s: %w", table.Name(), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("could not write table %s: %w", table.Name(), err)
	}

	middleware.GetLoggerFromCtx(ctx).Debug("wrote table",
		slog.String("table", table.Name()), slog.String("file", filename))
	return nil
}

// loadTable reads one CSV file: the first row holds the column names
// (lowercased; blank headers mean the column is skipped), every further
// row becomes a table row.
func (s *storageService) loadTable(name, filename string) (*domain.Table, error) {
	f, err := os.Open(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("could not read table file %s: %w", filename, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("could not read table file %s: %w", filename, err)
	}

	table := domain.NewTable(name, filename)
	if len(records) == 0 {
		return table, nil
	}

	headers := make([]string, len(records[0]))
	for i, header := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(header))
	}

	for _, record := range records[1:] {
		row := domain.NewTableRow()
		for i, cell := range record {
			if i < len(headers) && headers[i] != "" {
				row.Put(headers[i], cell)
			}
		}
		table.Add(row)
	}
	return table, nil
}

func (s *storageService) StoredMonths(ctx context.Context) ([]domain.AccountMonth, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, monthsSubdir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not list stored months in %s: %w", s.dir, err)
	}

	var months []domain.AccountMonth
	for _, entry := range entries {
		if entry.IsDir() || !domain.MatchesSnapshotFilename(entry.Name()) {
			continue
		}
		month, err := domain.AccountMonthFromFilename(entry.Name())
		if err != nil {
			continue
		}
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Less(months[j]) })
	return months, nil
}

func (s *storageService) StoredMonth(ctx context.Context, key domain.AccountMonth) (*domain.RulesResult, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, monthsSubdir, key.Filename()))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no snapshot for %s", apperrors.ErrNotFound, key.Label())
	}
	if err != nil {
		return nil, fmt.Errorf("could not read snapshot for %s: %w", key.Label(), err)
	}

	var result domain.RulesResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("could not decode snapshot for %s: %w", key.Label(), err)
	}
	return &result, nil
}

func (s *storageService) SaveMonth(ctx context.Context, key domain.AccountMonth, result *domain.RulesResult) error {
	dir := filepath.Join(s.dir, monthsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode snapshot for %s: %w", key.Label(), err)
	}
	if err := os.WriteFile(filepath.Join(dir, key.Filename()), data, 0o644); err != nil {
		return fmt.Errorf("could not write snapshot for %s: %w", key.Label(), err)
	}
	return nil
}

func (s *storageService) DeleteMonth(ctx context.Context, key domain.AccountMonth) error {
	err := os.Remove(filepath.Join(s.dir, monthsSubdir, key.Filename()))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: no snapshot for %s", apperrors.ErrNotFound, key.Label())
	}
	if err != nil {
		return fmt.Errorf("could not delete snapshot for %s: %w", key.Label(), err)
	}
	return nil
}
