package dataset

import (
	"encoding/json"
	"fmt"

	"github.com/yaroslaff/sashimidb/internal/expr"
)

// Delete compiles query.Expr and retains only records for which evaluation
// is falsy. A runtime evaluation error aborts the whole operation (the
// dataset is left unchanged) and is reported via LastException, per spec
// §4.2. Callers must hold Mu for writing.
func (ds *Dataset) Delete(q SearchQuery, model expr.EvalModel) (*MutationResponse, error) {
	if err := ds.CheckAllowedOperation(OpDelete); err != nil {
		return nil, err
	}

	compiled, err := expr.Compile(nonEmpty(q.Expr), model)
	if err != nil {
		return nil, fmt.Errorf("eval exception: %w", err)
	}

	oldSize := len(ds.records)
	resp := &MutationResponse{Status: "OK", OldSize: oldSize, NewSize: oldSize}

	kept := make([]*Record, 0, len(ds.records))
	for _, rec := range ds.records {
		v, err := expr.Eval(compiled, rec.ToMap())
		if err != nil {
			// the whole operation aborts on the first evaluation error,
			// leaving the dataset exactly as it was (matches the
			// original's list-comprehension-inside-try-except behavior).
			resp.Exceptions++
			resp.LastException = err.Error()
			ds.DropCache()
			return resp, nil
		}
		if !v.Truthy() {
			kept = append(kept, rec)
		}
	}
	ds.records = kept
	resp.NewSize = len(ds.records)
	ds.updateSize()
	ds.DropCache()
	return resp, nil
}

// Update applies the `update` mapping (or the legacy update_field/
// update_data pair) to every record for which query.Expr is truthy. If
// both forms are present, `update` wins (DESIGN.md Open Question #1).
// Callers must hold Mu for writing.
func (ds *Dataset) Update(q SearchQuery, updateIP string, model expr.EvalModel) (*MutationResponse, error) {
	if err := ds.CheckAllowedOperation(OpUpdate); err != nil {
		return nil, err
	}

	assignments, err := resolveUpdateAssignments(q)
	if err != nil {
		return nil, err
	}

	compiled, err := expr.Compile(nonEmpty(q.Expr), model)
	if err != nil {
		return nil, fmt.Errorf("compile %q exception: %w", q.Expr, err)
	}

	resp := &MutationResponse{Status: "OK"}
	for _, rec := range ds.records {
		v, err := expr.Eval(compiled, rec.ToMap())
		if err != nil {
			resp.Exceptions++
			resp.LastException = err.Error()
			continue
		}
		if !v.Truthy() {
			continue
		}
		resp.Matches++
		for field, value := range assignments {
			rec.Set(field, value)
		}
	}

	ds.updateSize()
	ds.UpdateIP = updateIP
	ds.DropCache()
	return resp, nil
}

func resolveUpdateAssignments(q SearchQuery) (map[string]any, error) {
	if len(q.Update) > 0 {
		return q.Update, nil
	}
	if q.UpdateField == "" {
		return nil, fmt.Errorf("need update_field")
	}
	if q.UpdateData == "" {
		return nil, fmt.Errorf("need update_data")
	}
	var value any
	if err := json.Unmarshal([]byte(q.UpdateData), &value); err != nil {
		return nil, fmt.Errorf("JSON error: %w", err)
	}
	return map[string]any{q.UpdateField: value}, nil
}

// Insert appends a single record, accepted as a JSON-encoded string
// (SearchQuery.Data). Unlike some revisions of the original, this
// implementation always invalidates named-search caches so that
// subsequent queries observe the new record (spec §9 Open Question #4).
// Callers must hold Mu for writing.
func (ds *Dataset) Insert(data string) error {
	rec := NewRecord()
	if err := json.Unmarshal([]byte(data), rec); err != nil {
		return fmt.Errorf("JSON error: %w", err)
	}
	ds.records = append(ds.records, rec)
	ds.updateSize()
	ds.DropCache()
	return nil
}

// Reload checks allowed_operations and drops the named-search cache,
// matching the original's Dataset.reload(): the actual re-fetch of the
// backing file/URL/SQL source is the Registry's concern (it calls
// SetRecords once new data is loaded). Callers must hold Mu for writing.
func (ds *Dataset) Reload() (string, error) {
	if err := ds.CheckAllowedOperation(OpReload); err != nil {
		return "", err
	}
	ds.DropCache()
	return fmt.Sprintf("reloaded ds %q", ds.Name), nil
}

func nonEmpty(s string) string {
	if s == "" {
		return "True"
	}
	return s
}
