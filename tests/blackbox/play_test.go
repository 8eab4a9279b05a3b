//go:build blackbox

package blackbox

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const swing = `bar,action,arg1,arg2
30,BUY,20,1000
200,SELL,1,1000
`

func TestVersion(t *testing.T) {
	out := run(t, t.TempDir(), nil, "version")
	assert.Contains(t, out, "papertrader version")
}

func TestPlayScript_JournalsSession(t *testing.T) {
	dir := workspace(t, 300, swing)
	cfg := []string{"-c", "papertrader.yaml", "--no-color"}

	out := run(t, dir, nil, append(cfg, "data", "import", "--csv", "bars.csv", "--code", "600519", "--name", "Moutai", "--market", "sh")...)
	assert.Contains(t, out, "Imported 300 bars")

	out = run(t, dir, nil, append(cfg, "data", "check")...)
	assert.Contains(t, out, "1 of 1 playable")

	out = run(t, dir, nil, append(cfg, "play", "--code", "600519", "--script", "script.csv")...)
	assert.Contains(t, out, "Script: 2 applied, 0 failed, 0 unreached")

	db, err := sql.Open("sqlite3", filepath.Join(dir, "journal.db"))
	require.NoError(t, err)
	defer db.Close()

	var id string
	require.NoError(t, db.QueryRow(`SELECT session_id FROM results`).Scan(&id))

	var fills, equity int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM fills WHERE session_id = ?`, id).Scan(&fills))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM equity WHERE session_id = ?`, id).Scan(&equity))
	assert.Equal(t, 2, fills)
	assert.Greater(t, equity, 200)

	out = run(t, dir, nil, append(cfg, "journal", "results")...)
	assert.Contains(t, out, id)

	out = run(t, dir, nil, append(cfg, "journal", "org", id)...)
	assert.Contains(t, out, "* SESSION:")
	assert.Contains(t, out, "| Profitable sells | 1 |")
}

func TestPlayParquet(t *testing.T) {
	dir := workspace(t, 300, swing)
	cfg := []string{"-c", "papertrader.yaml", "--no-color"}

	run(t, dir, nil, append(cfg, "data", "import", "--csv", "bars.csv", "--code", "600519")...)
	out := run(t, dir, nil, append(cfg, "data", "convert", "--to", "parquet", "--out", "./pq")...)
	assert.Contains(t, out, "Converted 1 instruments")

	env := []string{
		"PAPERTRADER_DATA_SOURCE=parquet",
		"PAPERTRADER_DATA_DIR=./pq",
		"PAPERTRADER_JOURNAL_TYPE=csv",
		"PAPERTRADER_JOURNAL_DIR=./csv",
	}
	out = run(t, dir, env, append(cfg, "play", "--script", "script.csv")...)
	assert.Contains(t, out, "Script: 2 applied")
	assert.FileExists(t, filepath.Join(dir, "csv", "fills.csv"))
}
