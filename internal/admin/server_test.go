package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/tagwire/internal/protocol/dispatch"
	"github.com/danmuck/tagwire/internal/protocol/field"
	"github.com/danmuck/tagwire/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
)

func newTestServer(t *testing.T) (*Server, *dispatch.Dispatcher) {
	t.Helper()
	testlog.Start(t)
	gin.SetMode(gin.TestMode)

	reg := field.NewRegistry()
	reg.MustDeclare(0)
	if _, err := reg.DeclareNamed("speed", 1); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if _, err := reg.DeclareNamed("counter", 4); err != nil {
		t.Fatalf("declare: %v", err)
	}
	d, err := dispatch.New(reg, dispatch.Bindings{0: dispatch.Identity, 1: dispatch.Double, 2: dispatch.Increment})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	s, err := New("node-a", ":0", d, nil)
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	return s, d
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	var out map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode body: %v", err)
		}
	}
	return rr, out
}

func TestNewRejectsNilDispatcher(t *testing.T) {
	testlog.Start(t)
	if _, err := New("n", ":0", nil, nil); !errors.Is(err, ErrNilDispatcher) {
		t.Fatalf("expected ErrNilDispatcher, got %v", err)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t)

	rr, body := do(t, s, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body["status"] != "ok" || body["node"] != "node-a" {
		t.Fatalf("unexpected health body: %#v", body)
	}

	rr, _ = do(t, s, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "tagwire_") {
		t.Fatalf("expected tagwire metrics in exposition")
	}
}

func TestListFields(t *testing.T) {
	s, _ := newTestServer(t)

	fields := s.ListFields()
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[1].Name != "speed" || fields[1].Handler != "double" || fields[1].Width != 1 {
		t.Fatalf("unexpected speed info: %+v", fields[1])
	}
	if fields[0].Name != "" || fields[0].Width != 0 || fields[0].Handler != "identity" {
		t.Fatalf("unexpected tag 0 info: %+v", fields[0])
	}

	rr, body := do(t, s, http.MethodGet, "/fields", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	list, ok := body["fields"].([]any)
	if !ok || len(list) != 3 {
		t.Fatalf("unexpected fields body: %#v", body)
	}
}

func TestBindHandlerRoute(t *testing.T) {
	s, d := newTestServer(t)

	rr, body := do(t, s, http.MethodPut, "/fields/1/handler", `{"handler":"triple"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected bind body: %#v", body)
	}
	h, _ := d.Handler(1)
	if dispatch.HandlerName(h) != "triple" {
		t.Fatalf("expected triple bound, got %s", dispatch.HandlerName(h))
	}

	cases := []struct {
		path string
		body string
		want int
	}{
		{"/fields/9/handler", `{"handler":"double"}`, http.StatusNotFound},
		{"/fields/1/handler", `{"handler":"cube"}`, http.StatusBadRequest},
		{"/fields/x/handler", `{"handler":"double"}`, http.StatusBadRequest},
		{"/fields/1/handler", `{}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rr, _ := do(t, s, http.MethodPut, tc.path, tc.body)
		if rr.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.path, tc.body, tc.want, rr.Code)
		}
	}
}

func TestResolveRoute(t *testing.T) {
	s, _ := newTestServer(t)

	rr, body := do(t, s, http.MethodPost, "/resolve", `{"tag":1,"value":16}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if body["value"] != float64(32) || body["present"] != true || body["raw"] != "0120" {
		t.Fatalf("unexpected resolve body: %#v", body)
	}

	rr, body = do(t, s, http.MethodPost, "/resolve", `{"tag":1}`)
	if rr.Code != http.StatusOK || body["value"] != float64(0) {
		t.Fatalf("expected absent payload to resolve to 0, got %d %#v", rr.Code, body)
	}

	cases := []struct {
		body string
		want int
	}{
		{`{"tag":1,"value":200}`, http.StatusUnprocessableEntity},
		{`{"tag":1,"value":300}`, http.StatusUnprocessableEntity},
		{`{"tag":7,"value":1}`, http.StatusNotFound},
		{`{"value":1}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rr, _ := do(t, s, http.MethodPost, "/resolve", tc.body)
		if rr.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d body=%s", tc.body, tc.want, rr.Code, rr.Body.String())
		}
	}
}

func TestResolveValueVoidField(t *testing.T) {
	s, _ := newTestServer(t)

	v := uint64(5)
	res, err := s.ResolveValue(0, &v)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Present || res.Raw != "00" {
		t.Fatalf("expected bare void reply, got %+v", res)
	}
}
