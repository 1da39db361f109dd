package dataset

import (
	"fmt"

	"github.com/yaroslaff/sashimidb/internal/expr"
)

// RunNamedSearch executes (or returns the memoized result of) the dataset's
// saved search `name`. The first call computes and caches the response;
// subsequent calls return a shallow copy of the same cached response (same
// counters, same result records) until any mutation on the dataset clears
// it via DropCache. Callers must hold at least
// Mu.RLock (a cache hit needs no further locking; a cache miss that
// recomputes still only reads ds.records).
func (ds *Dataset) RunNamedSearch(name string, model expr.EvalModel) (*Response, error) {
	entry, ok := ds.NamedSearch[name]
	if !ok {
		return nil, fmt.Errorf("no such named search %q in dataset %q", name, ds.Name)
	}

	if cached, ok := ds.cache.Get(name); ok {
		return cached.clone(), nil
	}

	resp, err := ds.Search(entry.Query, model)
	if err != nil {
		return nil, err
	}
	ds.cache.Add(name, resp)
	return resp.clone(), nil
}

func decodeSearchQuery(desc any) (SearchQuery, error) {
	m, ok := desc.(map[string]any)
	if !ok {
		return SearchQuery{}, fmt.Errorf("named search definition must be a mapping")
	}
	q := DefaultSearchQuery()
	if v, ok := m["expr"].(string); ok && v != "" {
		q.Expr = v
	}
	if v, ok := m["filter"].(map[string]any); ok {
		q.Filter = v
	}
	if v, ok := m["sort"].(string); ok {
		q.Sort = v
	}
	if v, ok := m["reverse"].(bool); ok {
		q.Reverse = v
	}
	if v, ok := m["limit"]; ok {
		if n, ok := toInt(v); ok {
			q.Limit = &n
		}
	}
	if v, ok := m["offset"]; ok {
		if n, ok := toInt(v); ok {
			q.Offset = n
		}
	}
	if v, ok := m["fields"].([]any); ok {
		for _, f := range v {
			if s, ok := f.(string); ok {
				q.Fields = append(q.Fields, s)
			}
		}
	}
	if v, ok := m["aggregate"].([]any); ok {
		for _, a := range v {
			if s, ok := a.(string); ok {
				q.Aggregate = append(q.Aggregate, s)
			}
		}
	}
	if v, ok := m["discard"].(bool); ok {
		q.Discard = v
	}
	return q, nil
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}
