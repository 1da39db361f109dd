package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// doJSON issues a request against h and decodes the JSON response body,
// used where a response field (here, the wall-clock `time` the facade
// stamps in) is inherently non-deterministic and so unsuitable for the
// exact-fixture comparisons assert.HTTPRequest's ExpectBody performs.
func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %s", err.Error())
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response body is not a JSON object: %s (body: %s)", err.Error(), rec.Body.String())
		}
	}
	return rec.Code, decoded
}
