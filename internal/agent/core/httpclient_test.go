package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoJSONRetriesServerErrors(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	c := NewHTTPClient(5*time.Second, 3, time.Millisecond)
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.DoJSON(context.Background(), "GET", ts.URL, nil, nil, &out); err != nil {
		t.Fatalf("err %v", err)
	}
	if !out.OK {
		t.Fatal("response not decoded")
	}
	if hits != 3 {
		t.Fatalf("hits %d, want 3", hits)
	}
}

func TestDoJSONDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad payload"))
	}))
	defer ts.Close()

	c := NewHTTPClient(5*time.Second, 3, time.Millisecond)
	err := c.DoJSON(context.Background(), "POST", ts.URL, nil, map[string]string{"a": "b"}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("err %v", err)
	}
	if hits != 1 {
		t.Fatalf("hits %d, want 1 (no retry on 4xx)", hits)
	}
}

func TestDoJSONExhaustsRetries(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := NewHTTPClient(5*time.Second, 2, time.Millisecond)
	err := c.DoJSON(context.Background(), "GET", ts.URL, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if hits != 3 {
		t.Fatalf("hits %d, want 3", hits)
	}
}
