package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/IshaanNene/ghcrawler/internal/config"
	"github.com/IshaanNene/ghcrawler/internal/types"
)

// TimestampLayout is the second-granularity stamp embedded in output names.
// Two runs within the same second write the same file; the later one wins.
const TimestampLayout = "20060102_150405"

// OutputFilename returns "<prefix><YYYYMMDD_HHMMSS>.<ext>" for t.
func OutputFilename(prefix string, t time.Time, ext string) string {
	return prefix + t.Format(TimestampLayout) + "." + ext
}

// fileTarget resolves the output path for one Store call.
type fileTarget struct {
	dir    string
	prefix string
	ext    string
	now    func() time.Time
}

func (ft fileTarget) create() (*os.File, string, error) {
	if err := os.MkdirAll(ft.dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(ft.dir, OutputFilename(ft.prefix, ft.now(), ft.ext))
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("create output file: %w", err)
	}
	return f, path, nil
}

// --- JSON Storage ---

// JSONStorage writes records as a single JSON array to a timestamped file.
type JSONStorage struct {
	target fileTarget
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewJSONStorage creates a new JSON file storage.
func NewJSONStorage(outputDir, prefix string, logger *slog.Logger) *JSONStorage {
	return &JSONStorage{
		target: fileTarget{dir: outputDir, prefix: prefix, ext: "json", now: time.Now},
		logger: logger.With("component", "json_storage"),
	}
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(ctx context.Context, records []types.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if records == nil {
		records = []types.ResultRecord{}
	}

	f, path, err := s.target.create()
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("encode JSON: %w", err)}
	}
	if err := f.Sync(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	s.path = path
	s.logger.Info("JSON written", "path", path, "records", len(records))
	return nil
}

func (s *JSONStorage) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *JSONStorage) Close() error { return nil }

// --- JSONL Storage ---

// JSONLStorage writes records as newline-delimited JSON (one object per line).
type JSONLStorage struct {
	target fileTarget
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewJSONLStorage creates a new JSONL file storage.
func NewJSONLStorage(outputDir, prefix string, logger *slog.Logger) *JSONLStorage {
	return &JSONLStorage{
		target: fileTarget{dir: outputDir, prefix: prefix, ext: "jsonl", now: time.Now},
		logger: logger.With("component", "jsonl_storage"),
	}
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(ctx context.Context, records []types.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, path, err := s.target.create()
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("encode JSONL: %w", err)}
		}
	}

	s.path = path
	s.logger.Info("JSONL written", "path", path, "records", len(records))
	return nil
}

func (s *JSONLStorage) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *JSONLStorage) Close() error { return nil }

// --- CSV Storage ---

// csvHeaders are the fixed CSV columns; language stats are a JSON object cell.
var csvHeaders = []string{"url", "owner", "language_stats"}

// CSVStorage writes records as CSV rows.
type CSVStorage struct {
	target fileTarget
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewCSVStorage creates a new CSV file storage.
func NewCSVStorage(outputDir, prefix string, logger *slog.Logger) *CSVStorage {
	return &CSVStorage{
		target: fileTarget{dir: outputDir, prefix: prefix, ext: "csv", now: time.Now},
		logger: logger.With("component", "csv_storage"),
	}
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(ctx context.Context, records []types.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, path, err := s.target.create()
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeaders); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("write CSV header: %w", err)}
	}
	for _, rec := range records {
		row, err := csvRow(rec)
		if err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("encode CSV row %s: %w", rec.URL, err)}
		}
		if err := w.Write(row); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("write CSV row: %w", err)}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	s.path = path
	s.logger.Info("CSV written", "path", path, "records", len(records))
	return nil
}

func (s *CSVStorage) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *CSVStorage) Close() error { return nil }

func csvRow(rec types.ResultRecord) ([]string, error) {
	if rec.Extra == nil {
		return []string{rec.URL, "", ""}, nil
	}
	// encoding/json sorts map keys, so the cell is stable across runs.
	stats, err := json.Marshal(rec.Extra.LanguageStats)
	if err != nil {
		return nil, err
	}
	return []string{rec.URL, rec.Extra.Owner, string(stats)}, nil
}

// NewFileStorage creates the file-based storage selected by cfg.Format.
func NewFileStorage(cfg *config.StorageConfig, logger *slog.Logger) (Storage, error) {
	switch cfg.Format {
	case "", "json":
		return NewJSONStorage(cfg.OutputDir, cfg.Prefix, logger), nil
	case "jsonl":
		return NewJSONLStorage(cfg.OutputDir, cfg.Prefix, logger), nil
	case "csv":
		return NewCSVStorage(cfg.OutputDir, cfg.Prefix, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage format: %s", cfg.Format)
	}
}
