package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientDerivesBaseURL(t *testing.T) {
	cases := []struct {
		addr, want string
	}{
		{"192.168.1.50", "http://192.168.1.50"},
		{"192.168.1.50:8081", "http://192.168.1.50:8081"},
		{"http://miner.local", "http://miner.local"},
		{"https://miner.local/", "https://miner.local"},
	}
	for _, tc := range cases {
		c, err := NewClient(tc.addr)
		if err != nil {
			t.Fatalf("NewClient(%q): %v", tc.addr, err)
		}
		if c.baseURL != tc.want {
			t.Errorf("NewClient(%q).baseURL = %q, want %q", tc.addr, c.baseURL, tc.want)
		}
	}

	if _, err := NewClient("   "); err == nil {
		t.Error("blank address accepted")
	}
}

func TestClientErrorsOnHTTPFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	c, err := NewClient("ignored", WithBaseURL(ts.URL))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SystemInfo(context.Background()); err == nil {
		t.Error("502 response did not surface an error")
	}
}

func TestClientToleratesEmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s", r.Method)
		}
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			t.Errorf("decode patch: %v", err)
		}
		if patch["frequency"] != float64(525) {
			t.Errorf("patch = %v", patch)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := NewClient("ignored", WithBaseURL(ts.URL))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.ApplyConfig(context.Background(), map[string]any{"frequency": 525}); err != nil {
		t.Errorf("ApplyConfig against empty-body endpoint: %v", err)
	}
}
