package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBurstGuardThrottlesPerClient(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := BurstGuard(ok, 2, 1)

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("203.0.113.9:4000"); code != http.StatusOK {
			t.Fatalf("request %d returned %d", i, code)
		}
	}
	if code := send("203.0.113.9:4000"); code != http.StatusTooManyRequests {
		t.Fatalf("burst over limit returned %d", code)
	}

	// Buckets are per client; a different address is untouched.
	if code := send("203.0.113.10:4000"); code != http.StatusOK {
		t.Fatalf("separate client returned %d", code)
	}
}
