package expr_test

import (
	"testing"

	"github.com/sapcc/go-bits/assert"

	"github.com/yaroslaff/sashimidb/internal/expr"
)

func evalSrc(t *testing.T, src string, model expr.EvalModel, record map[string]any) expr.Value {
	t.Helper()
	c, err := expr.Compile(src, model)
	if err != nil {
		t.Fatalf("compile(%q) failed: %s", src, err)
	}
	v, err := expr.Eval(c, record)
	if err != nil {
		t.Fatalf("eval(%q) failed: %s", src, err)
	}
	return v
}

func TestBaseModelComparisons(t *testing.T) {
	model := expr.BaseModel()
	record := map[string]any{"price": float64(899), "brand": "Apple"}

	v := evalSrc(t, "price > 20 and brand == 'Apple'", model, record)
	assert.DeepEqual(t, "truthy", v.Truthy(), true)

	v = evalSrc(t, "price < 20", model, record)
	assert.DeepEqual(t, "truthy", v.Truthy(), false)
}

func TestMembership(t *testing.T) {
	model := expr.BaseModel()
	record := map[string]any{"category": "smartphones"}

	v := evalSrc(t, "category in ['smartphones', 'laptops']", model, record)
	assert.DeepEqual(t, "truthy", v.Truthy(), true)
}

func TestDefaultModelAttributesAndCalls(t *testing.T) {
	model := expr.DefaultModel()
	record := map[string]any{"title": "FREE FIRE T Shirt", "price": float64(10.6)}

	v := evalSrc(t, "title.lower().startswith('free')", model, record)
	assert.DeepEqual(t, "truthy", v.Truthy(), true)

	v = evalSrc(t, "round(price)", model, record)
	assert.DeepEqual(t, "rounded", v.Int, int64(11))
}

func TestCompileRejectsDisallowedNode(t *testing.T) {
	model := expr.BaseModel()
	_, err := expr.Compile("title.upper()", model)
	if err == nil {
		t.Fatal("expected compile to reject Attribute node under base model")
	}
}

func TestCompileRejectsDisallowedFunction(t *testing.T) {
	model := expr.DefaultModel()
	_, err := expr.Compile("sum(price)", model)
	if err == nil {
		t.Fatal("expected compile to reject unknown function")
	}
}

func TestEvalMissingNameIsRuntimeError(t *testing.T) {
	model := expr.BaseModel()
	c, err := expr.Compile("SomethingWrong", model)
	if err != nil {
		t.Fatalf("compile failed: %s", err)
	}
	_, err = expr.Eval(c, map[string]any{"id": int64(1)})
	if err == nil {
		t.Fatal("expected evaluation error for undefined name")
	}
}

func TestTrueLiteral(t *testing.T) {
	model := expr.BaseModel()
	v := evalSrc(t, "True", model, map[string]any{})
	assert.DeepEqual(t, "truthy", v.Truthy(), true)
}
