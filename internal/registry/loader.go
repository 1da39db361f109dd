package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Blank-imported for side-effecting driver registration; the SQL
	// dataset loader opens connections by driver name via database/sql
	// directly (see DESIGN.md: gorp's static struct mapping cannot scan
	// into this spec's heterogeneous map[string]any rows).
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	yaml "gopkg.in/yaml.v2"

	"github.com/yaroslaff/sashimidb/internal/config"
	"github.com/yaroslaff/sashimidb/internal/dataset"
)

// SourceKind identifies where a dataset's content was loaded from, so
// Reload knows how to re-fetch it.
type SourceKind string

// The three loader kinds the original's load_file/load_url/load_db
// collaborators cover.
const (
	SourceFile SourceKind = "file"
	SourceURL  SourceKind = "url"
	SourceSQL  SourceKind = "sql"
)

// DatasetSource describes the origin of one dataset's content.
type DatasetSource struct {
	Kind     SourceKind
	Location string // file path or URL
	Format   string // "json" or "yaml"; ignored for SQL

	// SQL-only fields.
	SQLDriver string // "postgres" or "mysql"
	SQLQuery  string
}

// FormatFromExt auto-detects a dataset's serialization format from a
// file path or URL's extension, defaulting to json (spec §4.3 EXPANSION:
// carried over from the original's load_file `.json` vs `.yaml`/`.yml`
// detection).
func FormatFromExt(location string) string {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// LoadSource dispatches to the appropriate loader for src.Kind and
// returns the decoded records.
func LoadSource(ctx context.Context, src DatasetSource) ([]*dataset.Record, error) {
	switch src.Kind {
	case SourceFile:
		return loadFile(src.Location, src.Format)
	case SourceURL:
		return loadURL(ctx, src.Location, src.Format)
	case SourceSQL:
		return loadSQL(ctx, src.SQLDriver, src.Location, src.SQLQuery)
	default:
		return nil, fmt.Errorf("unknown dataset source kind %q", src.Kind)
	}
}

func decodeRecords(data []byte, format string) ([]*dataset.Record, error) {
	if format == "yaml" {
		var raw []map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("YAML error: %w", err)
		}
		records := make([]*dataset.Record, len(raw))
		for i, m := range raw {
			rec := dataset.NewRecord()
			for k, v := range m {
				rec.Set(k, config.NormalizeYAMLValue(v))
			}
			records[i] = rec
		}
		return records, nil
	}

	var records []*dataset.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("JSON error: %w", err)
	}
	return records, nil
}

func loadFile(path, format string) ([]*dataset.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read dataset file %s: %w", path, err)
	}
	return decodeRecords(data, format)
}

// httpClient is shared by loadURL; 30s is generous for a one-shot
// dataset fetch without risking an indefinitely hanging load.
var httpClient = &http.Client{Timeout: 30 * time.Second}

func loadURL(ctx context.Context, url, format string) ([]*dataset.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch dataset from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching dataset from %s: HTTP %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return decodeRecords(data, format)
}

// loadSQL scans query's result set into heterogeneous records, one row
// per record, column name -> column value. This is the reason the SQL
// loader is written directly against database/sql rather than gorp: gorp
// maps rows onto a single fixed Go struct, and this dataset's row shape
// is not known until the query actually runs.
func loadSQL(ctx context.Context, driver, dsn, query string) ([]*dataset.Record, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s connection: %w", driver, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []*dataset.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		rec := dataset.NewRecord()
		for i, col := range cols {
			rec.Set(col, sqlValueToAny(vals[i]))
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// sqlValueToAny normalizes a generic database/sql scan result ([]byte for
// most drivers' text-ish columns) into the same value kinds the JSON/YAML
// loaders produce, so a SQL-backed dataset's records behave identically
// under the expression engine and field projection.
func sqlValueToAny(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	default:
		return x
	}
}
