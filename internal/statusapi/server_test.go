package statusapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/cyan-fleet-control/internal/config"
	"github.com/kingrea/cyan-fleet-control/internal/fleetsync/scheduler"
	"github.com/kingrea/cyan-fleet-control/internal/logbook"
	"github.com/kingrea/cyan-fleet-control/internal/metrics"
	"github.com/kingrea/cyan-fleet-control/internal/spacetraders"
	"github.com/kingrea/cyan-fleet-control/internal/state"
)

func seededStore() *state.Store {
	store := state.New()
	store.SetAgentLabel("CYAN")
	store.ReplaceFleet([]spacetraders.Ship{{Symbol: "CYAN-1", Nav: spacetraders.ShipNav{SystemSymbol: "X1-A", WaypointSymbol: "X1-A-A1"}}})
	store.ReplaceContracts([]spacetraders.Contract{{ID: "c-1"}})
	store.AppendLog("Fetching fleet")
	return store
}

func TestSettingsFromConfigHonorsEnv(t *testing.T) {
	t.Setenv("CYANFLEET_STATUS_PORT", "9001")
	t.Setenv("CYANFLEET_STATUS_HOST", "0.0.0.0")
	t.Setenv("CYANFLEET_STATUS_ENABLED", "false")
	settings := SettingsFromConfig(&config.Config{})
	if settings.Port != 9001 {
		t.Fatalf("expected port 9001, got %d", settings.Port)
	}
	if settings.Host != "0.0.0.0" {
		t.Fatalf("expected host override, got %s", settings.Host)
	}
	if settings.Enabled {
		t.Fatalf("expected enabled=false from env override")
	}
}

func TestSettingsFromConfigDefaults(t *testing.T) {
	settings := SettingsFromConfig(nil)
	if !settings.Enabled || settings.Port != DefaultPort || settings.Host != DefaultHost {
		t.Fatalf("unexpected defaults: %+v", settings)
	}
	if settings.URL() != "http://127.0.0.1:8766" {
		t.Fatalf("url = %s", settings.URL())
	}
}

func TestSnapshotEndpointServesStore(t *testing.T) {
	srv := NewServer(Settings{Enabled: true}, seededStore())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var snap state.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "CYAN", snap.AgentLabel)
	require.Len(t, snap.Ships, 1)
	assert.Equal(t, "CYAN-1", snap.Ships[0].Ship.Symbol)
	assert.Equal(t, []string{"Fetching fleet"}, snap.Log)
}

func TestHealthReportsCountsAndQueue(t *testing.T) {
	queue := scheduler.New()
	queue.Next()
	srv := NewServer(Settings{Enabled: true}, seededStore(), WithQueue(queue))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(StatusStarting), resp.Status)
	assert.Equal(t, 1, resp.Ships)
	assert.Equal(t, 1, resp.Contracts)
	assert.Equal(t, []string{"GetWaypoints", "GetContracts", "GetShipyards", "GetFleet"}, resp.Queue)
}

func TestMetricsEndpointIsOptional(t *testing.T) {
	srv := NewServer(Settings{Enabled: true}, state.New())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJournalEndpointServesTail(t *testing.T) {
	book, err := logbook.New(filepath.Join(t.TempDir(), logbook.FileName))
	require.NoError(t, err)
	book.Info("Fetching fleet")
	book.Warn("Cannot fetch waypoints with 0 ships. Fetch ships first")
	book.Error("Failed to get contracts")
	handler := NewServer(Settings{Enabled: true}, seededStore(), WithJournal(book)).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/journal?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp journalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, logbook.LevelWarn, resp.Entries[0].Level)
	assert.Equal(t, "Failed to get contracts", resp.Entries[1].Message)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/journal", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Entries, 3)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/journal?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJournalEndpointEmptyAndOptional(t *testing.T) {
	book, err := logbook.New(filepath.Join(t.TempDir(), logbook.FileName))
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	NewServer(Settings{Enabled: true}, state.New(), WithJournal(book)).Handler().
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/journal", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":0,"entries":[]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewServer(Settings{Enabled: true}, state.New()).Handler().
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/journal", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerLifecycle(t *testing.T) {
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	rec.SetCollectionSize("ships", 1)

	settings := Settings{Enabled: true, Host: "127.0.0.1", Port: 0, ReadTimeout: time.Second, WriteTimeout: time.Second, IdleTimeout: time.Second}
	srv := NewServer(settings, seededStore(), WithMetricsHandler(metrics.HTTPHandler(reg)))
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	require.NoError(t, srv.Start(context.Background()))
	assert.Equal(t, StatusReady, srv.Status())

	resp, err := http.Get(srv.BaseURL() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.BaseURL() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.Contains(string(body), `cyanfleet_collection_size{collection="ships"} 1`), string(body))

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.Equal(t, StatusDraining, srv.Status())
	assert.Empty(t, srv.Addr())
}

func TestStartDisabled(t *testing.T) {
	srv := NewServer(Settings{Enabled: false}, state.New())
	assert.ErrorIs(t, srv.Start(context.Background()), ErrDisabled)
}
