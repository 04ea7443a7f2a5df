package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viktsys/b3history/config"
	"github.com/viktsys/b3history/database"
)

func newTestProcessor(t *testing.T, batchSize int) (*Processor, database.Store) {
	t.Helper()

	store, err := database.Open(config.DatabaseConfig{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "ingest.sqlite"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.EnsureSchema(context.Background()))

	processor := NewProcessor(store, config.IngestConfig{BatchSize: batchSize, WorkerCount: 2})
	processor.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }
	return processor, store
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestProcessJSONFile(t *testing.T) {
	processor, store := newTestProcessor(t, 2)
	dir := t.TempDir()

	path := writeFile(t, dir, "petr4.json", `[
		{"ticker": "PETR4", "date": 300, "preco_fechamento": 3},
		{"ticker": "PETR4", "date": 100, "preco_fechamento": 1},
		{"ticker": "PETR4", "date": 200, "preco_fechamento": 2}
	]`)

	written, err := processor.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), written)

	rows, err := store.QueryByTicker(context.Background(), "PETR4")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(100), rows[0].Date)
}

func TestProcessCSVFile(t *testing.T) {
	processor, store := newTestProcessor(t, 500)
	dir := t.TempDir()

	path := writeFile(t, dir, "vale3.csv", strings.Join([]string{
		"ticker;data;preco_abertura;preco_fechamento;quantidade_negociada",
		"vale3;15/03/2021;88,10;89,50;1000",
		"vale3;16/03/2021;89,50;;2000",
	}, "\n"))

	written, err := processor.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), written)

	rows, err := store.QueryByTicker(context.Background(), "VALE3")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2021, 3, 15, 0, 0, 0, 0, time.Local).UnixMilli(), rows[0].Date)
	require.NotNil(t, rows[0].OpeningPrice)
	assert.Equal(t, 88.10, *rows[0].OpeningPrice)
	assert.Nil(t, rows[1].ClosingPrice)
	require.NotNil(t, rows[1].TradedQuantity)
	assert.Equal(t, int64(2000), *rows[1].TradedQuantity)
}

func TestProcessDirectory(t *testing.T) {
	processor, store := newTestProcessor(t, 500)
	dir := t.TempDir()

	writeFile(t, dir, "a.json", `[{"ticker": "AAA", "date": 1}, {"ticker": "AAA", "date": 2}]`)
	writeFile(t, dir, "b.csv", "ticker,date\nBBB,1\n")
	writeFile(t, dir, "broken.json", `{"ticker": "CCC"}`)
	writeFile(t, dir, "notes.txt", "ignored")

	summary, err := processor.ProcessDirectory(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.json")
	assert.Equal(t, int64(2), summary.Files)
	assert.Equal(t, int64(3), summary.Rows)
	assert.Equal(t, 1, summary.Failed)

	tickers, err := store.ListTickers(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAA", "BBB"}, tickers)
}

func TestProcessDirectorySummaryIsPerRun(t *testing.T) {
	processor, _ := newTestProcessor(t, 500)
	dir := t.TempDir()

	writeFile(t, dir, "a.json", `[{"ticker": "AAA", "date": 1}, {"ticker": "AAA", "date": 2}]`)

	for run := 1; run <= 2; run++ {
		summary, err := processor.ProcessDirectory(context.Background(), dir)
		require.NoError(t, err)
		assert.Equal(t, int64(1), summary.Files, "run %d", run)
		assert.Equal(t, int64(2), summary.Rows, "run %d", run)
	}
}

func TestProcessDirectoryWithoutFiles(t *testing.T) {
	processor, _ := newTestProcessor(t, 500)

	_, err := processor.ProcessDirectory(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON or CSV files")
}
