package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/veskrna/face-attend/internal/attendance"
	"github.com/veskrna/face-attend/internal/database/mock"
	"github.com/veskrna/face-attend/internal/enrollment"
	"github.com/veskrna/face-attend/internal/gallery"
	"github.com/veskrna/face-attend/internal/recognition"
)

// testStores bundles the mock repositories behind a handler test.
type testStores struct {
	identities *mock.IdentityStore
	records    *mock.AttendanceStore
	images     *mock.ImageStore
}

// newTestServices wires gallery, enrollment, and ledger over mocks the
// same way the serve command does, including the removal cascade hooks.
func newTestServices() (*gallery.Service, *enrollment.Service, *attendance.Ledger, testStores) {
	stores := testStores{
		identities: mock.NewIdentityStore(),
		records:    mock.NewAttendanceStore(),
		images:     mock.NewImageStore(),
	}

	g := gallery.New(stores.identities)
	ledger := attendance.NewLedger(stores.records)
	g.OnRemove(func(ctx context.Context, identityID string) error {
		_, err := ledger.CascadeDeleteForIdentity(ctx, identityID)
		return err
	})
	g.OnRemove(func(ctx context.Context, identityID string) error {
		return stores.images.Delete(ctx, "profiles/"+identityID)
	})

	e := enrollment.New(g, stores.images, nil)
	return g, e, ledger, stores
}

func testMatcher() recognition.Matcher {
	return recognition.Matcher{Threshold: 0.6}
}

// jsonRequest creates a request with a JSON-encoded body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
