package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yaroslaff/sashimidb/internal/expr"
)

// Search runs the filter -> project -> sort -> aggregate -> paginate
// pipeline described in spec §4.2. Callers must hold at least Mu.RLock.
func (ds *Dataset) Search(q SearchQuery, model expr.EvalModel) (*Response, error) {
	compiled, err := ds.compileQuery(q, model)
	if err != nil {
		return nil, err
	}

	resp := &Response{Status: "OK"}
	resp.Limit = ds.EffectiveLimit(q.Limit)

	var outlist []*Record
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
		item := rec
		if len(q.Fields) > 0 {
			item = rec.Project(q.Fields)
		}
		outlist = append(outlist, item)
	}

	if q.Sort != "" {
		sortRecords(outlist, q.Sort, q.Reverse)
	}

	if len(q.Aggregate) > 0 {
		agg, err := computeAggregations(outlist, q.Aggregate)
		if err != nil {
			return nil, err
		}
		resp.Aggregation = agg
	}

	if q.Offset > 0 {
		if q.Offset >= len(outlist) {
			outlist = nil
		} else {
			outlist = outlist[q.Offset:]
		}
	}

	if resp.Limit != nil && len(outlist) > *resp.Limit {
		outlist = outlist[:*resp.Limit]
		resp.Truncated = true
	}

	if !q.Discard {
		if outlist == nil {
			outlist = []*Record{}
		}
		resp.Result = outlist
	}

	return resp, nil
}

// compileQuery parses query.expr, desugars query.filter (if any) and
// AND-joins the two, validating the combined tree against model.
func (ds *Dataset) compileQuery(q SearchQuery, model expr.EvalModel) (*expr.CompiledExpr, error) {
	exprSrc := q.Expr
	if exprSrc == "" {
		exprSrc = "True"
	}
	base, err := expr.Compile(exprSrc, model)
	if err != nil {
		return nil, fmt.Errorf("eval exception: %w", err)
	}

	if len(q.Filter) == 0 {
		return base, nil
	}

	filterNode, err := desugarFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	combined := combineAnd(filterNode, base.Root())
	return expr.CompileNode(combined, model)
}

func sortRecords(records []*Record, field string, reverse bool) {
	sort.SliceStable(records, func(i, j int) bool {
		vi, _ := records[i].Get(field)
		vj, _ := records[j].Get(field)
		cmp, err := expr.Compare(expr.FromAny(vi), expr.FromAny(vj))
		if err != nil {
			return false
		}
		if reverse {
			return cmp > 0
		}
		return cmp < 0
	})
}

func computeAggregations(records []*Record, aggSpecs []string) (map[string]any, error) {
	out := make(map[string]any, len(aggSpecs))
	for _, spec := range aggSpecs {
		parts := strings.SplitN(spec, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("cannot parse aggregation statement %q, must be in form AGG:FIELD e.g. min:price", spec)
		}
		method, field := parts[0], parts[1]
		value, err := aggregate(records, method, field)
		if err != nil {
			return nil, err
		}
		out[spec] = value
	}
	return out, nil
}

func aggregate(records []*Record, method, field string) (any, error) {
	if len(records) == 0 {
		switch method {
		case "sum", "min", "max", "avg", "distinct":
			return nil, nil
		default:
			return nil, fmt.Errorf("unknown aggregation method %q, must be one of sum/min/max/avg/distinct", method)
		}
	}

	values := make([]expr.Value, 0, len(records))
	for _, rec := range records {
		raw, ok := rec.Get(field)
		if !ok {
			return nil, fmt.Errorf("key exception %q during aggregation", field)
		}
		values = append(values, expr.FromAny(raw))
	}

	switch method {
	case "sum":
		var sum float64
		allInt := true
		for _, v := range values {
			if v.Kind != expr.KindInt && v.Kind != expr.KindFloat {
				return nil, fmt.Errorf("field %q is not numeric, cannot sum", field)
			}
			if v.Kind == expr.KindFloat {
				allInt = false
			}
			sum += valueAsFloat(v)
		}
		if allInt {
			return int64(sum), nil
		}
		return sum, nil

	case "avg":
		var sum float64
		for _, v := range values {
			if v.Kind != expr.KindInt && v.Kind != expr.KindFloat {
				return nil, fmt.Errorf("field %q is not numeric, cannot average", field)
			}
			sum += valueAsFloat(v)
		}
		return sum / float64(len(values)), nil

	case "min", "max":
		best := values[0]
		for _, v := range values[1:] {
			cmp, err := expr.Compare(v, best)
			if err != nil {
				return nil, fmt.Errorf("exception during aggregation: %w", err)
			}
			if (method == "min" && cmp < 0) || (method == "max" && cmp > 0) {
				best = v
			}
		}
		return best.ToAny(), nil

	case "distinct":
		seen := make(map[string]expr.Value)
		var order []string
		for _, v := range values {
			key := fmt.Sprintf("%v", v.ToAny())
			if _, ok := seen[key]; !ok {
				seen[key] = v
				order = append(order, key)
			}
		}
		sort.Strings(order)
		out := make([]any, len(order))
		for i, k := range order {
			out[i] = seen[k].ToAny()
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown aggregation method %q, must be one of sum/min/max/avg/distinct, e.g. min:price", method)
	}
}

func valueAsFloat(v expr.Value) float64 {
	if v.Kind == expr.KindInt {
		return float64(v.Int)
	}
	return v.Flt
}
