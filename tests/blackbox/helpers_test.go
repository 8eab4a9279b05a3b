//go:build blackbox

package blackbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// workspace lays out a config file, a bar CSV of n rising closes and an
// action script under a temp dir.
func workspace(t *testing.T, n int, script string) string {
	t.Helper()
	dir := t.TempDir()

	cfg := `session:
  seed: 7
data:
  source: dir
  dir: ./data
  from: "2000-01-01"
journal:
  type: sqlite
  db_path: ./journal.db
log:
  level: warn
`
	write(t, filepath.Join(dir, "papertrader.yaml"), cfg)

	var b strings.Builder
	b.WriteString("time,open,high,low,close,volume\n")
	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range n {
		c := 10 + float64(i)*0.01
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f,%d\n",
			day.AddDate(0, 0, i).Format("2006-01-02"), c, c+0.05, c-0.05, c, 10000+i)
	}
	write(t, filepath.Join(dir, "bars.csv"), b.String())
	write(t, filepath.Join(dir, "script.csv"), script)
	return dir
}

func write(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}
