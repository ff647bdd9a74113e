package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/cyan-fleet-control/internal/config"
	"github.com/kingrea/cyan-fleet-control/internal/state"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v2/my/ships":
			fmt.Fprint(w, `{"data":[{"symbol":"CYAN-1","nav":{"systemSymbol":"X1-AB","waypointSymbol":"X1-AB-A1","status":"DOCKED"},"cargo":{"capacity":40,"units":3,"inventory":[]},"fuel":{"current":100,"capacity":400}}]}`)
		case "/v2/systems/X1-AB/waypoints":
			fmt.Fprint(w, `{"data":[{"symbol":"X1-AB-A1","type":"PLANET","systemSymbol":"X1-AB","x":1,"y":2,"traits":[{"symbol":"SHIPYARD","name":"Shipyard"}]}]}`)
		case "/v2/my/contracts":
			fmt.Fprint(w, `{"data":[{"id":"contract-1","factionSymbol":"COSMIC","type":"PROCUREMENT","terms":{"payment":{"onAccepted":1000,"onFulfilled":5000}},"accepted":false,"fulfilled":false}]}`)
		case "/v2/systems/X1-AB/waypoints/X1-AB-A1/shipyard":
			fmt.Fprint(w, `{"data":{"symbol":"X1-AB-A1","ships":[{"type":"SHIP_PROBE","name":"Probe","purchasePrice":25000}]}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeProjectConfig(t *testing.T, dir, baseURL string) {
	t.Helper()
	stateDir := filepath.Join(dir, config.StateDirName)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		t.Fatal(err)
	}
	body := fmt.Sprintf("version: 1\napi:\n  base_url: %s\n  timeout: 2s\nstatus:\n  enabled: false\n", baseURL)
	if err := os.WriteFile(filepath.Join(stateDir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatusCommandRunsOneCycle(t *testing.T) {
	t.Setenv(config.TokenEnv, "test-token")
	srv := fakeAPI(t)
	dir := t.TempDir()
	writeProjectConfig(t, dir, srv.URL+"/v2")

	out, err := execute(t, "--dir", dir, "status")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	for _, want := range []string{
		"CYAN-1",
		"contract-1",
		"SHIP_PROBE",
		"Handling message: GetFleet",
		"Fetched waypoints for system: X1-AB",
		"Handling message: GetShipyards",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	journal, err := os.ReadFile(filepath.Join(dir, config.StateDirName, "logs", "journey.log"))
	if err != nil {
		t.Fatalf("journey log: %v", err)
	}
	if !strings.Contains(string(journal), "Fetching fleet") {
		t.Fatalf("activity log should be mirrored to journey.log:\n%s", journal)
	}
}

func TestStatusCommandAppliesSavedPreferences(t *testing.T) {
	t.Setenv(config.TokenEnv, "test-token")
	srv := fakeAPI(t)
	dir := t.TempDir()
	writeProjectConfig(t, dir, srv.URL+"/v2")
	prefsPath := filepath.Join(dir, config.StateDirName, "state", state.PreferencesFile)
	if err := os.MkdirAll(filepath.Dir(prefsPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := state.SavePreferences(prefsPath, state.Preferences{AgentLabel: "Cyan"}); err != nil {
		t.Fatal(err)
	}

	opts := &rootOptions{dir: dir}
	rt, err := bootstrap(opts)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer rt.close()
	if got := rt.store.Snapshot().AgentLabel; got != "Cyan" {
		t.Fatalf("label = %q, want Cyan", got)
	}
	if got := rt.engine.Interval(); got != 2*time.Second {
		t.Fatalf("interval = %s, want the 2s default", got)
	}
}

func TestMissingTokenFailsStartup(t *testing.T) {
	t.Setenv(config.TokenEnv, "")
	if _, err := execute(t, "--dir", t.TempDir(), "status"); err == nil {
		t.Fatalf("expected missing token error")
	}
}

func TestIntervalCommand(t *testing.T) {
	t.Setenv(config.TokenEnv, "test-token")
	dir := t.TempDir()

	out, err := execute(t, "--dir", dir, "interval")
	if err != nil {
		t.Fatalf("interval: %v", err)
	}
	if strings.TrimSpace(out) != "2s" {
		t.Fatalf("default interval output = %q", out)
	}

	if _, err := execute(t, "--dir", dir, "interval", "750ms"); err != nil {
		t.Fatalf("set interval: %v", err)
	}
	pc, err := config.LoadProjectConfig(filepath.Join(dir, config.StateDirName, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if pc.Sync.Interval != 750*time.Millisecond {
		t.Fatalf("persisted interval = %s", pc.Sync.Interval)
	}

	if _, err := execute(t, "--dir", dir, "interval", "soon"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDashboardStopsEngineWhenStatusPortIsTaken(t *testing.T) {
	t.Setenv(config.TokenEnv, "test-token")
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()
	t.Setenv("CYANFLEET_STATUS_ENABLED", "true")
	t.Setenv("CYANFLEET_STATUS_HOST", "127.0.0.1")
	t.Setenv("CYANFLEET_STATUS_PORT", strconv.Itoa(busy.Addr().(*net.TCPAddr).Port))

	srv := fakeAPI(t)
	dir := t.TempDir()
	writeProjectConfig(t, dir, srv.URL+"/v2")
	opts := &rootOptions{dir: dir}
	rt, err := bootstrap(opts)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer rt.close()

	if err := serveDashboard(context.Background(), rt, opts); err == nil {
		t.Fatalf("expected listen error")
	}
	select {
	case <-rt.engine.Done():
	default:
		t.Fatalf("engine still running after the dashboard returned")
	}
}
