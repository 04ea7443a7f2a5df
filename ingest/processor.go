package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/viktsys/b3history/config"
	"github.com/viktsys/b3history/database"
	"github.com/viktsys/b3history/models"
)

// Processor loads record files into the store
type Processor struct {
	store          database.Store
	batchSize      int
	fileWorkers    int
	now            func() time.Time
	processedRows  int64
	processedFiles int64
}

// Summary reports what a directory run wrote
type Summary struct {
	Files    int64
	Rows     int64
	Failed   int
	Duration time.Duration
}

func NewProcessor(store database.Store, cfg config.IngestConfig) *Processor {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}
	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = config.DefaultWorkerCount
	}

	return &Processor{
		store:       store,
		batchSize:   batchSize,
		fileWorkers: workers,
		now:         time.Now,
	}
}

// ProcessDirectory ingests every .json and .csv file in dataDir concurrently.
// A failing file does not stop the others; all failures are returned joined.
func (p *Processor) ProcessDirectory(ctx context.Context, dataDir string) (Summary, error) {
	startTime := time.Now()
	atomic.StoreInt64(&p.processedFiles, 0)
	atomic.StoreInt64(&p.processedRows, 0)

	files, err := findRecordFiles(dataDir)
	if err != nil {
		return Summary{}, err
	}
	if len(files) == 0 {
		return Summary{}, fmt.Errorf("no JSON or CSV files found in directory: %s", dataDir)
	}

	log.Info().Int("files", len(files)).Int("workers", p.fileWorkers).Msg("Starting ingestion")

	semaphore := make(chan struct{}, p.fileWorkers)
	var wg sync.WaitGroup
	errorChan := make(chan error, len(files))

	for _, file := range files {
		wg.Add(1)
		go func(filename string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fileStart := time.Now()
			rows, err := p.ProcessFile(ctx, filename)
			if err != nil {
				log.Error().Err(err).Str("file", filename).Msg("Error processing file")
				errorChan <- fmt.Errorf("%s: %w", filepath.Base(filename), err)
				return
			}

			atomic.AddInt64(&p.processedFiles, 1)
			log.Info().
				Str("file", filepath.Base(filename)).
				Int64("rows", rows).
				Dur("took", time.Since(fileStart)).
				Msg("File processed")
		}(file)
	}

	wg.Wait()
	close(errorChan)

	var errs []error
	for err := range errorChan {
		errs = append(errs, err)
	}

	summary := Summary{
		Files:    atomic.LoadInt64(&p.processedFiles),
		Rows:     atomic.LoadInt64(&p.processedRows),
		Failed:   len(errs),
		Duration: time.Since(startTime),
	}

	log.Info().
		Int64("files", summary.Files).
		Int64("rows", summary.Rows).
		Int("failed", summary.Failed).
		Dur("took", summary.Duration).
		Msg("Ingestion completed")

	return summary, errors.Join(errs...)
}

// ProcessFile ingests one file in batches; each batch is atomic
func (p *Processor) ProcessFile(ctx context.Context, filename string) (int64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var raws []RawRecord
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		raws, err = DecodeBatch(file)
	case ".csv":
		raws, err = readCSV(file)
	default:
		return 0, fmt.Errorf("unsupported file type: %s", filename)
	}
	if err != nil {
		return 0, err
	}

	rows := ToStockHistories(raws, p.now())

	var written int64
	for start := 0; start < len(rows); start += p.batchSize {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		end := start + p.batchSize
		if end > len(rows) {
			end = len(rows)
		}

		n, err := p.store.UpsertBatch(ctx, rows[start:end])
		if err != nil {
			return written, fmt.Errorf("batch starting at row %d: %w", start, err)
		}
		written += n
		atomic.AddInt64(&p.processedRows, n)
	}

	return written, nil
}

func findRecordFiles(dataDir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.csv"} {
		matches, err := filepath.Glob(filepath.Join(dataDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to find record files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// readCSV maps each row to the header names. The separator is ';' or ',',
// whichever the header uses more; decimal commas are accepted in value columns.
func readCSV(r io.Reader) ([]RawRecord, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4096)
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	reader := csv.NewReader(br)
	reader.Comma = ','
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		reader.Comma = ';'
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}

	var records []RawRecord
	lineNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			log.Warn().Err(err).Int("line", lineNum).Msg("Skipping unreadable CSV line")
			continue
		}

		raw := make(RawRecord, len(header))
		for i, value := range row {
			if i >= len(header) {
				break
			}
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			if isValueColumn(header[i]) {
				value = strings.Replace(value, ",", ".", -1)
			}
			raw[header[i]] = value
		}
		records = append(records, raw)
	}

	return records, nil
}

func isValueColumn(name string) bool {
	if name == "date" {
		return true
	}
	for _, column := range models.ValueColumns() {
		if column == name {
			return true
		}
	}
	return false
}
