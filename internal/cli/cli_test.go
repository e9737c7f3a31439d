package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

const plantCSV = `Equipment Name,Type,Flowrate,Pressure,Temperature
Pump-1,Pump,10,5,100
Valve-1,Valve,20,6,110
`

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file="}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T, driver string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", driver)
	t.Setenv("DUCKDB_PATH", filepath.Join(dir, "db", "equipment.duckdb"))
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("REQUIRE_API_KEY", "false")
	return dir
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIngestCommand(t *testing.T) {
	dir := setupEnv(t, "memory")
	path := writeCSV(t, dir, "plant.csv", plantCSV)

	out, err := execute(t, "ingest", path)
	require.NoError(t, err)

	var res core.IngestResult
	require.NoError(t, json.NewDecoder(strings.NewReader(out)).Decode(&res))
	assert.Equal(t, int64(1), res.BatchID)
	assert.Equal(t, 2, res.Statistics.TotalCount)
	assert.Equal(t, 15.0, res.Statistics.AvgFlowrate)
}

func TestIngestCommandRejectsBadFile(t *testing.T) {
	dir := setupEnv(t, "memory")
	path := writeCSV(t, dir, "bad.csv", "Equipment Name,Type\nP,Pump\n")

	_, err := execute(t, "ingest", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestDuckDBRoundTrip(t *testing.T) {
	dir := setupEnv(t, "duckdb")

	var paths []string
	for i := 0; i < 7; i++ {
		paths = append(paths, writeCSV(t, dir, "plant.csv", plantCSV))
	}
	_, err := execute(t, append([]string{"ingest"}, paths...)...)
	require.NoError(t, err)

	out, err := execute(t, "trim")
	require.NoError(t, err)
	assert.Contains(t, out, "0 batch(es) evicted")

	pdf := filepath.Join(dir, "out.pdf")
	out, err = execute(t, "report", "7", "--out", pdf)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+pdf)
	data, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	out, err = execute(t, "report", "7", "--format", "html", "--out", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Valve-1")

	// Batches 1 and 2 were evicted during ingestion.
	_, err = execute(t, "report", "1", "--out", "-")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMigrateCommand(t *testing.T) {
	setupEnv(t, "memory")
	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "no schema")

	setupEnv(t, "duckdb")
	out, err = execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "duckdb schema is up to date")
}

func TestInvalidConfiguration(t *testing.T) {
	setupEnv(t, "sqlite")
	_, err := execute(t, "trim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestReportRejectsBadID(t *testing.T) {
	setupEnv(t, "memory")
	_, err := execute(t, "report", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid batch id")
}
