package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"axesim/internal/sim"
)

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *sim.MinerFleet) {
	t.Helper()

	fleet := sim.NewFleet(1.0, nil)
	opts.WarmupS = 0
	srv, err := New(fleet, opts, nil)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, fleet
}

func doJSON(t *testing.T, method, url string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS headers missing")
	}
}

func TestModelsAndScenarios(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/models", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	models, ok := body["models"].([]any)
	if !ok || len(models) != 12 {
		t.Fatalf("models = %v", body["models"])
	}
	first := models[0].(map[string]any)
	for _, key := range []string{"model_id", "display_name", "asic_model", "options", "nominal"} {
		if _, present := first[key]; !present {
			t.Errorf("model payload missing %q", key)
		}
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/scenarios", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if scenarios, ok := body["scenarios"].([]any); !ok || len(scenarios) != 4 {
		t.Fatalf("scenarios = %v", body["scenarios"])
	}
}

func TestMinerLifecycle(t *testing.T) {
	ts, fleet := newTestServer(t, Options{})

	// Create with an explicit id; unknown model ids fall back.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/miners", map[string]any{
		"miner_id": "m_it",
		"model_id": "made_up_board",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if body["miner_id"] != "m_it" {
		t.Fatalf("create body = %v", body)
	}
	if m := fleet.Get("m_it"); m == nil || m.Model().ModelID != "bm1370_4chip" {
		t.Fatal("fallback model not applied")
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/miners", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	miners := body["miners"].([]any)
	if len(miners) != 1 {
		t.Fatalf("miners = %v", miners)
	}

	resp, tel := doJSON(t, http.MethodGet, ts.URL+"/v1/miners/m_it/telemetry", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("telemetry status = %d", resp.StatusCode)
	}
	for _, key := range []string{"hashRate", "temp", "vrTemp", "poolState", "bestDiff", "stratumURL", "asicCount"} {
		if _, present := tel[key]; !present {
			t.Errorf("telemetry missing %q", key)
		}
	}

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/v1/miners/m_it", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/miners/m_it/telemetry", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("telemetry after delete = %d", resp.StatusCode)
	}
}

func TestGeneratedMinerIDs(t *testing.T) {
	ts, fleet := newTestServer(t, Options{})

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/miners", map[string]any{})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	id, _ := body["miner_id"].(string)
	if len(id) != 10 || id[:2] != "m_" {
		t.Errorf("generated id = %q, want m_ + 8 hex chars", id)
	}
	if fleet.Get(id) == nil {
		t.Error("generated miner not in fleet")
	}
}

func TestPatchConfig(t *testing.T) {
	ts, fleet := newTestServer(t, Options{})
	doJSON(t, http.MethodPost, ts.URL+"/v1/miners", map[string]any{"miner_id": "m_cfg"})

	resp, body := doJSON(t, http.MethodPatch, ts.URL+"/v1/miners/m_cfg/config", map[string]any{
		"coreVoltage": 1100,
		"bogusKey":    true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d", resp.StatusCode)
	}
	applied := body["applied"].(map[string]any)
	if applied["coreVoltage"] != float64(1100) {
		t.Errorf("applied = %v", applied)
	}
	if _, present := applied["bogusKey"]; present {
		t.Error("unknown key reported as applied")
	}
	if body["telemetry"] == nil {
		t.Error("patch response missing telemetry")
	}
	if got := fleet.Get("m_cfg").Telemetry().CoreVoltage; got != 1100 {
		t.Errorf("voltage setpoint = %d", got)
	}

	// Malformed values surface as invalid_patch.
	resp, body = doJSON(t, http.MethodPatch, ts.URL+"/v1/miners/m_cfg/config", map[string]any{
		"frequency": "fast",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid patch status = %d", resp.StatusCode)
	}
	errObj := body["error"].(map[string]any)
	if errObj["code"] != "invalid_patch" {
		t.Errorf("error = %v", errObj)
	}
}

func TestRestartEndpoint(t *testing.T) {
	ts, fleet := newTestServer(t, Options{})
	doJSON(t, http.MethodPost, ts.URL+"/v1/miners", map[string]any{"miner_id": "m_rst"})

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/miners/m_rst/actions/restart", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("restart status = %d", resp.StatusCode)
	}
	if body["status"] != "restarting" {
		t.Errorf("body = %v", body)
	}
	if got := fleet.Get("m_rst").Telemetry().PoolState; got != sim.PoolStateConnecting {
		t.Errorf("poolState after restart = %q", got)
	}
}

func TestCompatEndpoints(t *testing.T) {
	ts, fleet := newTestServer(t, Options{CompatAPI: true})

	// The compat surface auto-creates a miner when the fleet is empty.
	resp, info := doJSON(t, http.MethodGet, ts.URL+"/api/system/info", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("info status = %d", resp.StatusCode)
	}
	if fleet.Get("m_compat") == nil {
		t.Fatal("compat miner not auto-created")
	}
	for _, key := range []string{"ASICModel", "asicModel", "macAddr", "boardVersion", "hashRate", "stratumURL", "wifiRSSI"} {
		if _, present := info[key]; !present {
			t.Errorf("system info missing %q", key)
		}
	}
	if info["boardVersion"] != "0" {
		t.Errorf("boardVersion = %v, want string \"0\"", info["boardVersion"])
	}

	// PATCH /api/system answers 200 with an empty body.
	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/api/system", bytes.NewReader([]byte(`{"frequency": 490}`)))
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d", resp2.StatusCode)
	}
	if got := fleet.Get("m_compat").Telemetry().Frequency; got != 490 {
		t.Errorf("frequency = %d after compat patch", got)
	}

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/system/restart", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("restart status = %d", resp.StatusCode)
	}
	if body["status"] != "restarting" {
		t.Errorf("restart body = %v", body)
	}
}

func TestCompatDisabled(t *testing.T) {
	ts, _ := newTestServer(t, Options{CompatAPI: false})

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/system/info", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("disabled compat info status = %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/v1/miners", nil)
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "X-Custom")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Headers") != "X-Custom" {
		t.Error("requested headers not echoed")
	}
	if resp.Header.Get("Access-Control-Allow-Private-Network") != "true" {
		t.Error("private network header missing")
	}
}

func TestPublishedListingEmpty(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/published", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("published status = %d", resp.StatusCode)
	}
	items, ok := body["published"].([]any)
	if !ok || len(items) != 0 {
		t.Errorf("published = %v, want empty list", body["published"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	cases := []struct {
		method, path string
	}{
		{http.MethodDelete, "/v1/models"},
		{http.MethodPut, "/v1/miners"},
		{http.MethodPost, "/healthz_x"}, // unknown path entirely
	}
	for _, tc := range cases {
		resp, _ := doJSON(t, tc.method, ts.URL+tc.path, nil)
		if resp.StatusCode != http.StatusMethodNotAllowed && resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s %s = %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestHistoryDisabled(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	doJSON(t, http.MethodPost, ts.URL+"/v1/miners", map[string]any{"miner_id": "m_h"})

	resp, _ := doJSON(t, http.MethodGet, fmt.Sprintf("%s/v1/miners/%s/history", ts.URL, "m_h"), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("history without store = %d", resp.StatusCode)
	}
}
