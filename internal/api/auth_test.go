package api

import (
	"net/http"
	"testing"
)

// Reads need no credential at all (spec §6 open-reads philosophy).
func TestOpenReadsRequireNoAuth(t *testing.T) {
	h := newTestHarness(t, nil)

	cases := []struct {
		method, path string
		body         any
	}{
		{"GET", "/", nil},
		{"GET", "/p", nil},
		{"POST", "/p/products", map[string]any{"expr": "True"}},
		{"GET", "/p/products", nil},
	}
	for _, c := range cases {
		status, body := doJSON(t, h.Handler, c.method, c.path, c.body, nil)
		if status != http.StatusOK {
			t.Errorf("%s %s: expected 200 without credentials, got %d: %v", c.method, c.path, status, body)
		}
	}
}

// Config dumps, project ops, and mutations are all gated, since a config
// dump can leak a project's/dataset's own tokens and everything else
// changes state (spec §4.5/§6).
func TestGatedEndpointsRejectMissingCredentials(t *testing.T) {
	h := newTestHarness(t, nil)

	cases := []struct {
		method, path string
		body         any
	}{
		{"GET", "/p/_config", nil},
		{"POST", "/p/_config", map[string]any{}},
		{"POST", "/p", map[string]any{"op": "new-key"}},
		{"PUT", "/p", map[string]any{"name": "new-ds", "ds": []any{}}},
		{"DELETE", "/p", map[string]any{"name": "products"}},
		{"GET", "/p/products/_config", nil},
		{"POST", "/p/products/_config", map[string]any{}},
		{"PUT", "/p/products", map[string]any{"data": `{"id":999}`}},
		{"PATCH", "/p/products", map[string]any{"op": "delete", "expr": "False"}},
	}
	for _, c := range cases {
		status, body := doJSON(t, h.Handler, c.method, c.path, c.body, nil)
		if status != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without credentials, got %d: %v", c.method, c.path, status, body)
		}
	}
}

func TestGatedEndpointsAcceptProjectToken(t *testing.T) {
	h := newTestHarness(t, nil)
	auth := map[string]string{"Authorization": "Bearer " + h.ProjectToken}

	status, body := doJSON(t, h.Handler, "GET", "/p/_config", nil, auth)
	if status != http.StatusOK {
		t.Fatalf("expected the project's own token to authorize GET /p/_config, got %d: %v", status, body)
	}

	status, body = doJSON(t, h.Handler, "GET", "/p/products/_config", nil, auth)
	if status != http.StatusOK {
		t.Fatalf("expected the project's own token to authorize the dataset config too, got %d: %v", status, body)
	}
}

// A token known only to a sibling project must not authorize this one
// (spec §8 "Token inheritance").
func TestProjectTokenDoesNotCrossProjects(t *testing.T) {
	h := newTestHarness(t, nil)
	_, otherToken, err := h.Registry.CreateProject("other")
	if err != nil {
		t.Fatalf("CreateProject(other): %s", err.Error())
	}

	status, _ := doJSON(t, h.Handler, "GET", "/p/_config", nil, map[string]string{"Authorization": "Bearer " + otherToken})
	if status != http.StatusUnauthorized {
		t.Errorf("expected a sibling project's token to be rejected, got %d", status)
	}
}

// A token defined only in master admits requests to any project or
// dataset (spec §8 "Token inheritance").
func TestMasterTokenAdmitsAnyProject(t *testing.T) {
	h := newTestHarness(t, map[string]any{"tokens": []any{"master-secret"}})

	status, body := doJSON(t, h.Handler, "GET", "/p/_config", nil, map[string]string{"Authorization": "Bearer master-secret"})
	if status != http.StatusOK {
		t.Fatalf("expected the master token to authorize the project, got %d: %v", status, body)
	}
}

// CreateProject is gated only once master itself declares a token;
// otherwise the service must be usable out of the box.
func TestCreateProjectOpenWhenMasterHasNoTokens(t *testing.T) {
	h := newTestHarness(t, nil)

	status, body := doJSON(t, h.Handler, "POST", "/", map[string]any{"name": "fresh"}, nil)
	if status != http.StatusOK {
		t.Fatalf("expected project creation to be open with no master tokens configured, got %d: %v", status, body)
	}
}

func TestCreateProjectGatedWhenMasterHasTokens(t *testing.T) {
	h := newTestHarness(t, map[string]any{"tokens": []any{"master-secret"}})

	status, _ := doJSON(t, h.Handler, "POST", "/", map[string]any{"name": "fresh"}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected project creation to require the master token once one is configured, got %d", status)
	}

	status, body := doJSON(t, h.Handler, "POST", "/", map[string]any{"name": "fresh"}, map[string]string{"Authorization": "Bearer master-secret"})
	if status != http.StatusOK {
		t.Fatalf("expected the master token to authorize project creation, got %d: %v", status, body)
	}
}

// Mutate must distinguish a disallowed operation (401) from an expression
// that fails to compile (400) — see handlers_dataset.go's explicit
// CheckAllowedOperation pre-check.
func TestMutateDisallowedOperationIs401(t *testing.T) {
	h := newTestHarness(t, nil)
	h.Dataset.Mu.Lock()
	h.Dataset.AllowedOperations = map[string]bool{} // disallow everything
	h.Dataset.Mu.Unlock()

	headers := map[string]string{"Authorization": "Bearer " + h.ProjectToken}
	status, body := doJSON(t, h.Handler, "PATCH", "/p/products", map[string]any{"op": "delete", "expr": "True"}, headers)
	if status != http.StatusUnauthorized {
		t.Errorf("expected a disallowed operation to be 401, got %d: %v", status, body)
	}
}

func TestMutateBadExpressionIs400(t *testing.T) {
	h := newTestHarness(t, nil)
	headers := map[string]string{"Authorization": "Bearer " + h.ProjectToken}

	status, body := doJSON(t, h.Handler, "PATCH", "/p/products", map[string]any{"op": "delete", "expr": "((("}, headers)
	if status != http.StatusBadRequest {
		t.Errorf("expected an uncompilable expression to be 400, got %d: %v", status, body)
	}
}

func TestMutateUnknownOpIs400(t *testing.T) {
	h := newTestHarness(t, nil)
	headers := map[string]string{"Authorization": "Bearer " + h.ProjectToken}

	status, body := doJSON(t, h.Handler, "PATCH", "/p/products", map[string]any{"op": "frobnicate"}, headers)
	if status != http.StatusBadRequest {
		t.Errorf("expected an unrecognized op to be 400, got %d: %v", status, body)
	}
}
