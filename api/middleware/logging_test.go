package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/saborhub/saborhub-backend/pkg/logger"
	"github.com/saborhub/saborhub-backend/pkg/metrics"
)

func TestRequestIDLoggingAndRecoverer(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	reg := prometheus.NewRegistry()

	r := chi.NewRouter()
	r.Use(RequestID(logg), Recoverer(logg), Logging(logg, metrics.NewCommerce(reg)))
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chimw.GetReqID(r.Context()) != "req-1" {
			t.Errorf("request id missing from context")
		}
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
	req.Header.Set(requestIDHeader, "req-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusTeapot {
		t.Fatalf("expected 418 got %d", resp.Code)
	}
	if resp.Header().Get(requestIDHeader) != "req-1" {
		t.Fatalf("expected request id echoed")
	}
	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Fatalf("expected request id in logs: %s", buf.String())
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() != "http_request_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "route" && label.GetValue() == "/orders/{id}" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Fatalf("expected latency observed under the route pattern")
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "INTERNAL_ERROR" || envelope.Error.RequestID == "" {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
}
