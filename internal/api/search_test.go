package api

import (
	"net/http"
	"testing"
)

// Scenarios below mirror the shape of the end-to-end scenarios in SPEC_FULL's
// search pipeline section, run against the 100-record fixture built by
// newTestHarness/testRecords (ids and prices 1..100, every 10th one
// "featured"/"Acme").

func TestSearchMatchAll(t *testing.T) {
	h := newTestHarness(t, nil)

	status, body := doJSON(t, h.Handler, "POST", "/p/products", map[string]any{"expr": "True"}, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["matches"] != float64(100) {
		t.Errorf("expected matches=100, got %v", body["matches"])
	}
}

func TestSearchDiscardOmitsResult(t *testing.T) {
	h := newTestHarness(t, nil)

	status, body := doJSON(t, h.Handler, "POST", "/p/products", map[string]any{"expr": "price>20", "discard": true}, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["matches"] != float64(80) {
		t.Errorf("expected 80 matches for price>20, got %v", body["matches"])
	}
	if _, hasResult := body["result"]; hasResult {
		t.Errorf("expected discard:true to omit `result`, got %v", body["result"])
	}
}

func TestSearchSortAndLimit(t *testing.T) {
	h := newTestHarness(t, nil)

	status, body := doJSON(t, h.Handler, "POST", "/p/products", map[string]any{"expr": "True", "sort": "price", "limit": 1}, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	result, ok := body["result"].([]any)
	if !ok || len(result) != 1 {
		t.Fatalf("expected a single-element result, got %v", body["result"])
	}
	first := result[0].(map[string]any)
	if first["id"] != float64(1) || first["price"] != float64(1) {
		t.Errorf("expected the cheapest record first, got %v", first)
	}
}

func TestSearchAggregateOnFilteredSet(t *testing.T) {
	h := newTestHarness(t, nil)

	status, body := doJSON(t, h.Handler, "POST", "/p/products", map[string]any{
		"filter":    map[string]any{"category": "featured"},
		"aggregate": []string{"min:price", "max:price"},
		"discard":   true,
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	agg, ok := body["aggregation"].(map[string]any)
	if !ok {
		t.Fatalf("expected an aggregation object, got %v", body["aggregation"])
	}
	if agg["min:price"] != float64(10) || agg["max:price"] != float64(100) {
		t.Errorf("expected min:price=10 max:price=100, got %v", agg)
	}
}

func TestSearchFilterSortReverse(t *testing.T) {
	h := newTestHarness(t, nil)

	status, body := doJSON(t, h.Handler, "POST", "/p/products", map[string]any{
		"filter":  map[string]any{"brand": "Acme", "price__lt": 50},
		"sort":    "price",
		"reverse": true,
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["matches"] != float64(4) {
		t.Errorf("expected 4 Acme records priced under 50, got %v", body["matches"])
	}
	result := body["result"].([]any)
	first := result[0].(map[string]any)
	if first["price"] != float64(40) {
		t.Errorf("expected the highest-priced match (40) first, got %v", first["price"])
	}
}

func TestMalformedExpressionCountsAsExceptionsNotError(t *testing.T) {
	h := newTestHarness(t, nil)

	status, body := doJSON(t, h.Handler, "POST", "/p/products", map[string]any{"expr": "SomethingWrong"}, nil)
	if status != http.StatusOK {
		t.Fatalf("a malformed expression should surface as a 200 with exceptions, got %d", status)
	}
	if body["exceptions"] != float64(100) {
		t.Errorf("expected every record to fail evaluation as an exception, got %v", body["exceptions"])
	}
	if s, _ := body["last_exception"].(string); s == "" {
		t.Errorf("expected a non-empty last_exception, got %v", body["last_exception"])
	}
	if result, ok := body["result"].([]any); ok && len(result) != 0 {
		t.Errorf("expected an empty result list, got %v", result)
	}
}

func TestUpdateThenSearchSeesNewValues(t *testing.T) {
	h := newTestHarness(t, nil)
	headers := map[string]string{"Authorization": "Bearer " + h.ProjectToken}

	status, _ := doJSON(t, h.Handler, "PATCH", "/p/products", map[string]any{
		"op":     "update",
		"expr":   "id==23",
		"update": map[string]any{"x": "xxx", "price": 123},
	}, headers)
	if status != http.StatusOK {
		t.Fatalf("expected the update to succeed, got %d", status)
	}

	status, body := doJSON(t, h.Handler, "POST", "/p/products", map[string]any{"expr": "id==23"}, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	result := body["result"].([]any)
	if len(result) != 1 {
		t.Fatalf("expected exactly one record with id==23, got %v", result)
	}
	rec := result[0].(map[string]any)
	if rec["x"] != "xxx" || rec["price"] != float64(123) {
		t.Errorf("expected the update to stick, got %v", rec)
	}
}

func TestSearchOnMissingDatasetIs404(t *testing.T) {
	h := newTestHarness(t, nil)

	status, _ := doJSON(t, h.Handler, "POST", "/p/nosuchdataset", map[string]any{"expr": "True"}, nil)
	if status != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown dataset, got %d", status)
	}
}
