package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kingrea/cyan-fleet-control/internal/fleetsync/scheduler"
	"github.com/kingrea/cyan-fleet-control/internal/metrics"
	"github.com/kingrea/cyan-fleet-control/internal/spacetraders"
	"github.com/kingrea/cyan-fleet-control/internal/state"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errRemote = errors.New("remote unavailable")

// fakeClient serves canned data and records every call. It also tracks how
// many calls are in flight at once.
type fakeClient struct {
	mu sync.Mutex

	ships        []spacetraders.Ship
	shipsErr     error
	waypoints    map[string][]spacetraders.Waypoint
	waypointErrs map[string]error
	contracts    []spacetraders.Contract
	contractsErr error
	shipyards    map[string]*spacetraders.Shipyard
	shipyardErrs map[string]error
	agent        *spacetraders.Agent
	actionErr    error

	calls []string
	delay time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		waypoints:    map[string][]spacetraders.Waypoint{},
		waypointErrs: map[string]error{},
		shipyards:    map[string]*spacetraders.Shipyard{},
		shipyardErrs: map[string]error{},
	}
}

func (f *fakeClient) enter(call string) func() {
	n := f.inFlight.Add(1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	delay := f.delay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeClient) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) callsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range f.callLog() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeClient) FetchMyAgent(context.Context) (*spacetraders.Agent, error) {
	defer f.enter("agent")()
	if f.agent == nil {
		return nil, errRemote
	}
	agent := *f.agent
	return &agent, nil
}

func (f *fakeClient) FetchMyShips(context.Context) ([]spacetraders.Ship, error) {
	defer f.enter("ships")()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shipsErr != nil {
		return nil, f.shipsErr
	}
	return append([]spacetraders.Ship(nil), f.ships...), nil
}

func (f *fakeClient) FetchSystemWaypoints(_ context.Context, system string) ([]spacetraders.Waypoint, error) {
	defer f.enter("waypoints:" + system)()
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.waypointErrs[system]; err != nil {
		return nil, err
	}
	return append([]spacetraders.Waypoint(nil), f.waypoints[system]...), nil
}

func (f *fakeClient) FetchWaypoint(_ context.Context, system, waypoint string) (*spacetraders.Waypoint, error) {
	defer f.enter("waypoint:" + waypoint)()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, wp := range f.waypoints[system] {
		if wp.Symbol == waypoint {
			found := wp
			return &found, nil
		}
	}
	return nil, errRemote
}

func (f *fakeClient) FetchContracts(context.Context) ([]spacetraders.Contract, error) {
	defer f.enter("contracts")()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contractsErr != nil {
		return nil, f.contractsErr
	}
	return append([]spacetraders.Contract(nil), f.contracts...), nil
}

func (f *fakeClient) FetchShipyard(_ context.Context, _ string, waypoint string) (*spacetraders.Shipyard, error) {
	defer f.enter("shipyard:" + waypoint)()
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.shipyardErrs[waypoint]; err != nil {
		return nil, err
	}
	yard, ok := f.shipyards[waypoint]
	if !ok {
		return &spacetraders.Shipyard{Symbol: waypoint}, nil
	}
	return yard, nil
}

func (f *fakeClient) AcceptContract(_ context.Context, id string) (*spacetraders.Contract, error) {
	defer f.enter("accept:" + id)()
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return &spacetraders.Contract{ID: id, Accepted: true}, nil
}

func (f *fakeClient) NavigateShip(_ context.Context, ship, dest string) (*spacetraders.ShipNav, error) {
	defer f.enter("navigate:" + ship + ">" + dest)()
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return &spacetraders.ShipNav{WaypointSymbol: dest, Status: spacetraders.NavStatusInTransit}, nil
}

func (f *fakeClient) DockShip(_ context.Context, ship string) (*spacetraders.ShipNav, error) {
	defer f.enter("dock:" + ship)()
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return &spacetraders.ShipNav{Status: spacetraders.NavStatusDocked}, nil
}

func (f *fakeClient) OrbitShip(_ context.Context, ship string) (*spacetraders.ShipNav, error) {
	defer f.enter("orbit:" + ship)()
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return &spacetraders.ShipNav{Status: spacetraders.NavStatusInOrbit}, nil
}

func (f *fakeClient) ExtractResources(_ context.Context, ship string) (*spacetraders.Extraction, error) {
	defer f.enter("extract:" + ship)()
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	ex := &spacetraders.Extraction{ShipSymbol: ship}
	ex.Yield.Symbol = "IRON_ORE"
	ex.Yield.Units = 7
	return ex, nil
}

func (f *fakeClient) DeliverContract(_ context.Context, id, ship, trade string, units int) (*spacetraders.Contract, error) {
	defer f.enter(fmt.Sprintf("deliver:%s:%s:%s:%d", id, ship, trade, units))()
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return &spacetraders.Contract{ID: id}, nil
}

func (f *fakeClient) PurchaseShip(_ context.Context, shipType, waypoint string) (*spacetraders.Ship, error) {
	defer f.enter("purchase:" + shipType + "@" + waypoint)()
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return &spacetraders.Ship{Symbol: "CYAN-9"}, nil
}

func shipAt(symbol, waypoint string) spacetraders.Ship {
	return spacetraders.Ship{
		Symbol: symbol,
		Nav: spacetraders.ShipNav{
			SystemSymbol:   spacetraders.SystemSymbol(waypoint),
			WaypointSymbol: waypoint,
			Status:         spacetraders.NavStatusDocked,
		},
	}
}

func waypoint(symbol string, traits ...string) spacetraders.Waypoint {
	wp := spacetraders.Waypoint{Symbol: symbol, SystemSymbol: spacetraders.SystemSymbol(symbol)}
	for _, t := range traits {
		wp.Traits = append(wp.Traits, spacetraders.WaypointTrait{Symbol: t})
	}
	return wp
}

func newTestEngine(t *testing.T, client *fakeClient, opts ...Option) (*Engine, *state.Store) {
	t.Helper()
	store := state.New()
	eng, err := New(client, store, opts...)
	require.NoError(t, err)
	return eng, store
}

func countLog(log []string, match string) int {
	n := 0
	for _, line := range log {
		if strings.Contains(line, match) {
			n++
		}
	}
	return n
}

// logWithoutTicks drops the per-tick "Handling message" lines.
func logWithoutTicks(log []string) []string {
	var out []string
	for _, line := range log {
		if !strings.HasPrefix(line, "Handling message: ") {
			out = append(out, line)
		}
	}
	return out
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(nil, state.New())
	require.Error(t, err)
	_, err = New(newFakeClient(), nil)
	require.Error(t, err)
}

func TestTickLogsHandlingMessageInRotation(t *testing.T) {
	client := newFakeClient()
	eng, store := newTestEngine(t, client)
	ctx := context.Background()

	var kinds []scheduler.Kind
	for i := 0; i < 8; i++ {
		kinds = append(kinds, eng.Tick(ctx))
	}
	want := []scheduler.Kind{
		scheduler.FetchFleet, scheduler.FetchWaypoints, scheduler.FetchContracts, scheduler.FetchShipyards,
		scheduler.FetchFleet, scheduler.FetchWaypoints, scheduler.FetchContracts, scheduler.FetchShipyards,
	}
	assert.Equal(t, want, kinds)

	var handled []string
	for _, line := range store.Snapshot().Log {
		if strings.HasPrefix(line, "Handling message: ") {
			handled = append(handled, line)
		}
	}
	require.Len(t, handled, 8)
	assert.Equal(t, "Handling message: GetFleet", handled[0])
	assert.Equal(t, "Handling message: GetWaypoints", handled[1])
	assert.Equal(t, "Handling message: GetContracts", handled[2])
	assert.Equal(t, "Handling message: GetShipyards", handled[3])
}

func TestFailingOperationIsRetriedNextCycle(t *testing.T) {
	client := newFakeClient()
	client.contractsErr = errRemote
	eng, store := newTestEngine(t, client)
	ctx := context.Background()

	eng.Cycle(ctx)
	eng.Cycle(ctx)

	assert.Len(t, client.callsWithPrefix("contracts"), 2)
	assert.Equal(t, 2, countLog(store.Snapshot().Log, "Failed to get contracts"))
}

func TestFetchFleetReplacesShips(t *testing.T) {
	client := newFakeClient()
	client.ships = []spacetraders.Ship{shipAt("CYAN-1", "X1-A-A1"), shipAt("CYAN-2", "X1-A-A1")}
	eng, store := newTestEngine(t, client)

	eng.Tick(context.Background())
	require.True(t, store.SetShipDestination("CYAN-1", "X1-A-B2"))

	client.mu.Lock()
	client.ships = []spacetraders.Ship{shipAt("CYAN-2", "X1-A-A1")}
	client.mu.Unlock()
	eng.Cycle(context.Background())

	ships := store.Snapshot().Ships
	require.Len(t, ships, 1)
	assert.Equal(t, "CYAN-2", ships[0].Ship.Symbol)
	assert.Empty(t, ships[0].Destination)
	assert.Equal(t, 2, countLog(store.Snapshot().Log, "Fetching fleet"))
}

func TestFetchFleetFailureKeepsShips(t *testing.T) {
	client := newFakeClient()
	client.ships = []spacetraders.Ship{shipAt("CYAN-1", "X1-A-A1")}
	eng, store := newTestEngine(t, client)
	ctx := context.Background()
	eng.Cycle(ctx)
	before := store.Snapshot().Ships

	client.mu.Lock()
	client.shipsErr = errRemote
	client.mu.Unlock()
	eng.Tick(ctx)

	if diff := cmp.Diff(before, store.Snapshot().Ships); diff != "" {
		t.Fatalf("fleet changed after failed fetch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, countLog(store.Snapshot().Log, "Failed to update fleet: remote unavailable"))
}

func TestZeroShipsLeavesWaypointsEmptyWithOneDiagnostic(t *testing.T) {
	client := newFakeClient()
	eng, store := newTestEngine(t, client)
	ctx := context.Background()

	require.Equal(t, scheduler.FetchFleet, eng.Tick(ctx))
	before := len(store.Snapshot().Log)
	require.Equal(t, scheduler.FetchWaypoints, eng.Tick(ctx))

	snap := store.Snapshot()
	assert.Empty(t, snap.Waypoints)
	added := logWithoutTicks(snap.Log[before:])
	assert.Equal(t, []string{"Cannot fetch waypoints with 0 ships. Fetch ships first"}, added)
	assert.Empty(t, client.callsWithPrefix("waypoints:"))
}

// sizeRecorder keeps the last reported size per collection.
type sizeRecorder struct {
	metrics.NoopRecorder
	mu    sync.Mutex
	sizes map[string]int
}

func (r *sizeRecorder) SetCollectionSize(collection string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sizes[collection] = n
}

func (r *sizeRecorder) size(collection string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sizes[collection]
}

func TestFleetEmptyingClearsWaypointsWithOneDiagnostic(t *testing.T) {
	client := newFakeClient()
	client.ships = []spacetraders.Ship{shipAt("CYAN-1", "X1-A-A1")}
	client.waypoints["X1-A"] = []spacetraders.Waypoint{waypoint("X1-A-A1"), waypoint("X1-A-B2")}
	rec := &sizeRecorder{sizes: map[string]int{}}
	eng, store := newTestEngine(t, client, WithMetrics(rec))
	ctx := context.Background()

	eng.Cycle(ctx)
	require.Len(t, store.Snapshot().Waypoints, 2)
	require.Equal(t, 2, rec.size("waypoints"))

	client.mu.Lock()
	client.ships = nil
	client.mu.Unlock()
	require.Equal(t, scheduler.FetchFleet, eng.Tick(ctx))
	before := len(store.Snapshot().Log)
	require.Equal(t, scheduler.FetchWaypoints, eng.Tick(ctx))

	snap := store.Snapshot()
	assert.Empty(t, snap.Ships)
	assert.Empty(t, snap.Waypoints)
	assert.Equal(t, 0, rec.size("waypoints"))
	added := logWithoutTicks(snap.Log[before:])
	assert.Equal(t, []string{"Cannot fetch waypoints with 0 ships. Fetch ships first"}, added)
	assert.Equal(t, []string{"waypoints:X1-A"}, client.callsWithPrefix("waypoints:"))
}

func TestWaypointsFetchedOncePerVisibleSystem(t *testing.T) {
	client := newFakeClient()
	client.ships = []spacetraders.Ship{
		shipAt("CYAN-1", "X1-A-A1"),
		shipAt("CYAN-2", "X1-A-B2"),
		shipAt("CYAN-3", "X1-B-C3"),
	}
	client.waypoints["X1-A"] = []spacetraders.Waypoint{waypoint("X1-A-A1"), waypoint("X1-A-B2")}
	client.waypoints["X1-B"] = []spacetraders.Waypoint{waypoint("X1-B-C3")}
	eng, store := newTestEngine(t, client)
	ctx := context.Background()

	eng.Tick(ctx)
	eng.Tick(ctx)

	assert.Equal(t, []string{"waypoints:X1-A", "waypoints:X1-B"}, client.callsWithPrefix("waypoints:"))
	snap := store.Snapshot()
	var symbols []string
	for _, wp := range snap.Waypoints {
		symbols = append(symbols, wp.Symbol)
	}
	assert.Equal(t, []string{"X1-A-A1", "X1-A-B2", "X1-B-C3"}, symbols)
	assert.Equal(t, 1, countLog(snap.Log, "Fetched waypoints for system: X1-A"))
	assert.Equal(t, 1, countLog(snap.Log, "Fetched waypoints for system: X1-B"))
}

func TestWaypointsPartialFailureKeepsSuccessfulSystems(t *testing.T) {
	client := newFakeClient()
	client.ships = []spacetraders.Ship{shipAt("CYAN-1", "X1-A-A1"), shipAt("CYAN-2", "X1-B-C3")}
	client.waypoints["X1-A"] = []spacetraders.Waypoint{waypoint("X1-A-A1")}
	client.waypointErrs["X1-B"] = errRemote
	eng, store := newTestEngine(t, client)
	ctx := context.Background()

	eng.Tick(ctx)
	eng.Tick(ctx)

	snap := store.Snapshot()
	require.Len(t, snap.Waypoints, 1)
	assert.Equal(t, "X1-A-A1", snap.Waypoints[0].Symbol)
	assert.Equal(t, 1, countLog(snap.Log, "Failed to fetch waypoints for system: X1-B"))
}

func TestFailedContractsLeaveCollectionUnchanged(t *testing.T) {
	client := newFakeClient()
	client.contracts = []spacetraders.Contract{{
		ID:            "c-1",
		FactionSymbol: "COSMIC",
		Terms: spacetraders.ContractTerms{
			Payment: spacetraders.ContractPayment{OnAccepted: 1000, OnFulfilled: 5000},
			Deliver: []spacetraders.ContractDeliver{{TradeSymbol: "IRON_ORE", UnitsRequired: 40}},
		},
	}}
	eng, store := newTestEngine(t, client)
	ctx := context.Background()
	eng.Cycle(ctx)
	before := store.Snapshot()
	require.Len(t, before.Contracts, 1)

	client.mu.Lock()
	client.contractsErr = errRemote
	client.mu.Unlock()
	eng.Tick(ctx) // fleet
	eng.Tick(ctx) // waypoints
	logBefore := len(store.Snapshot().Log)
	require.Equal(t, scheduler.FetchContracts, eng.Tick(ctx))

	after := store.Snapshot()
	if diff := cmp.Diff(before.Contracts, after.Contracts); diff != "" {
		t.Fatalf("contracts changed (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"Failed to get contracts"}, logWithoutTicks(after.Log[logBefore:]))
}

func TestShipyardsQueriedOnlyForShipyardWaypoints(t *testing.T) {
	client := newFakeClient()
	client.ships = []spacetraders.Ship{shipAt("CYAN-1", "X1-A-A1")}
	client.waypoints["X1-A"] = []spacetraders.Waypoint{
		waypoint("X1-A-A1", spacetraders.TraitShipyard, spacetraders.TraitMarketplace),
		waypoint("X1-A-B2", spacetraders.TraitMarketplace),
		waypoint("X1-A-C3"),
	}
	client.shipyards["X1-A-A1"] = &spacetraders.Shipyard{
		Symbol: "X1-A-A1",
		Ships: []spacetraders.ShipyardShip{
			{Type: "SHIP_PROBE", PurchasePrice: 20000},
			{Type: "SHIP_MINING_DRONE", PurchasePrice: 45000},
		},
	}
	eng, store := newTestEngine(t, client)

	eng.Cycle(context.Background())

	assert.Equal(t, []string{"shipyard:X1-A-A1"}, client.callsWithPrefix("shipyard:"))
	listings := store.Snapshot().Shipyards
	require.Len(t, listings, 2)
	for _, l := range listings {
		assert.Equal(t, "X1-A-A1", l.Waypoint)
	}
	assert.Equal(t, "SHIP_PROBE", listings[0].Ship.Type)
}

func TestShipyardFailureIsSilentlySkipped(t *testing.T) {
	client := newFakeClient()
	client.ships = []spacetraders.Ship{shipAt("CYAN-1", "X1-A-A1")}
	client.waypoints["X1-A"] = []spacetraders.Waypoint{
		waypoint("X1-A-A1", spacetraders.TraitShipyard),
		waypoint("X1-A-B2", spacetraders.TraitShipyard),
	}
	client.shipyardErrs["X1-A-A1"] = errRemote
	client.shipyards["X1-A-B2"] = &spacetraders.Shipyard{
		Ships: []spacetraders.ShipyardShip{{Type: "SHIP_PROBE"}},
	}
	eng, store := newTestEngine(t, client)
	ctx := context.Background()
	eng.Tick(ctx)
	eng.Tick(ctx)
	eng.Tick(ctx)
	logBefore := len(store.Snapshot().Log)
	require.Equal(t, scheduler.FetchShipyards, eng.Tick(ctx))

	snap := store.Snapshot()
	require.Len(t, snap.Shipyards, 1)
	assert.Equal(t, "X1-A-B2", snap.Shipyards[0].Waypoint)
	assert.Empty(t, logWithoutTicks(snap.Log[logBefore:]))
}

func TestActionsDoNotMutateCollections(t *testing.T) {
	client := newFakeClient()
	client.ships = []spacetraders.Ship{shipAt("CYAN-1", "X1-A-A1")}
	client.waypoints["X1-A"] = []spacetraders.Waypoint{waypoint("X1-A-A1"), waypoint("X1-A-B2")}
	client.contracts = []spacetraders.Contract{{ID: "c-1"}}
	eng, store := newTestEngine(t, client)
	ctx := context.Background()
	eng.Cycle(ctx)
	before := store.Snapshot()

	eng.Execute(ctx, Navigate("CYAN-1", "X1-A-B2"))
	eng.Execute(ctx, AcceptContract("c-1"))
	eng.Execute(ctx, Dock("CYAN-1"))
	eng.Execute(ctx, Orbit("CYAN-1"))
	eng.Execute(ctx, Extract("CYAN-1"))
	eng.Execute(ctx, Deliver("c-1", "CYAN-1", "IRON_ORE", 7))
	eng.Execute(ctx, PurchaseShip("SHIP_PROBE", "X1-A-A1"))

	after := store.Snapshot()
	assert.Equal(t, before.Ships, after.Ships)
	assert.Equal(t, before.Waypoints, after.Waypoints)
	assert.Equal(t, before.Contracts, after.Contracts)
	assert.Equal(t, before.Shipyards, after.Shipyards)

	added := after.Log[len(before.Log):]
	assert.Equal(t, []string{
		"CYAN-1 navigating to X1-A-B2, arriving 00:00:00",
		"Accepted contract c-1",
		"CYAN-1 docked",
		"CYAN-1 in orbit",
		"CYAN-1 extracted 7 IRON_ORE",
		"CYAN-1 delivered 7 IRON_ORE for contract c-1",
		"Purchased CYAN-9 (SHIP_PROBE) at X1-A-A1",
	}, added)
	assert.Equal(t, []string{
		"navigate:CYAN-1>X1-A-B2",
		"accept:c-1",
		"dock:CYAN-1",
		"orbit:CYAN-1",
		"extract:CYAN-1",
		"deliver:c-1:CYAN-1:IRON_ORE:7",
		"purchase:SHIP_PROBE@X1-A-A1",
	}, client.callLog()[len(client.callLog())-7:])
}

func TestFailedActionLogsOneLine(t *testing.T) {
	client := newFakeClient()
	client.actionErr = &spacetraders.APIError{Status: 400, Code: 4236, Message: "Ship is not currently in orbit"}
	eng, store := newTestEngine(t, client)

	eng.Execute(context.Background(), Dock("CYAN-1"))

	assert.Equal(t, []string{
		"Failed to dock CYAN-1: spacetraders: 400 (code 4236): Ship is not currently in orbit",
	}, store.Snapshot().Log)
}

func TestAgentInfoStoresAgentAndDescribesHeadquarters(t *testing.T) {
	client := newFakeClient()
	client.agent = &spacetraders.Agent{Symbol: "CYAN", Headquarters: "X1-A-A1", Credits: 175000, ShipCount: 2}
	client.waypoints["X1-A"] = []spacetraders.Waypoint{{
		Symbol: "X1-A-A1", SystemSymbol: "X1-A", Type: "PLANET", X: 3, Y: -7,
		Traits: []spacetraders.WaypointTrait{{Symbol: "SHIPYARD"}},
	}}
	eng, store := newTestEngine(t, client)

	eng.Execute(context.Background(), AgentInfo())

	snap := store.Snapshot()
	require.NotNil(t, snap.Agent)
	assert.Equal(t, int64(175000), snap.Agent.Credits)
	assert.Equal(t, []string{
		"Agent CYAN: 175000 credits, 2 ships, headquarters X1-A-A1",
		"Waypoint X1-A-A1 (PLANET) at 3,-7 traits [SHIPYARD]",
	}, snap.Log)
	assert.Equal(t, []string{"agent", "waypoint:X1-A-A1"}, client.callLog())
	assert.Empty(t, snap.Waypoints)
}

func TestAgentInfoHeadquartersFailure(t *testing.T) {
	client := newFakeClient()
	client.agent = &spacetraders.Agent{Symbol: "CYAN", Headquarters: "X1-Z-Z9"}
	eng, store := newTestEngine(t, client)

	eng.Execute(context.Background(), AgentInfo())

	assert.Equal(t, 1, countLog(store.Snapshot().Log, "Failed to get waypoint info"))
}

func TestSubmitReturnsQueueFull(t *testing.T) {
	eng, _ := newTestEngine(t, newFakeClient(), WithActionBuffer(2))
	require.NoError(t, eng.Submit(Dock("CYAN-1")))
	require.NoError(t, eng.Submit(Dock("CYAN-2")))
	assert.ErrorIs(t, eng.Submit(Dock("CYAN-3")), ErrQueueFull)
}

func TestSubmitAfterStopReturnsErrStopped(t *testing.T) {
	eng, _ := newTestEngine(t, newFakeClient())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, eng.Run(ctx))
	assert.ErrorIs(t, eng.Submit(Dock("CYAN-1")), ErrStopped)
	assert.ErrorIs(t, eng.Run(context.Background()), ErrAlreadyRunning)
}

func TestActionsQueuedAtShutdownAreReportedNotLost(t *testing.T) {
	client := newFakeClient()
	eng, store := newTestEngine(t, client)
	require.NoError(t, eng.Submit(Dock("CYAN-1")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, eng.Run(ctx))
	<-eng.Done()

	assert.Empty(t, client.callsWithPrefix("dock:"))
	assert.Equal(t, 1, countLog(store.Snapshot().Log, "Action dock not run: sync engine stopped"))
	assert.ErrorIs(t, eng.Submit(Orbit("CYAN-1")), ErrStopped)
}

func TestRunSerializesFetchesAndActions(t *testing.T) {
	client := newFakeClient()
	client.delay = 2 * time.Millisecond
	client.ships = []spacetraders.Ship{shipAt("CYAN-1", "X1-A-A1"), shipAt("CYAN-2", "X1-B-B1")}
	client.waypoints["X1-A"] = []spacetraders.Waypoint{waypoint("X1-A-A1", spacetraders.TraitShipyard)}
	client.waypoints["X1-B"] = []spacetraders.Waypoint{waypoint("X1-B-B1", spacetraders.TraitShipyard)}
	eng, store := newTestEngine(t, client, WithInterval(time.Millisecond), WithActionBuffer(64))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- eng.Run(ctx) }()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_ = eng.Submit(Dock(fmt.Sprintf("CYAN-%d", i)))
				_ = store.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(client.callsWithPrefix("shipyard:")) >= 4 && len(client.callsWithPrefix("dock:")) == 20
	}, 5*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)
	<-eng.Done()

	assert.Equal(t, int32(1), client.maxInFlight.Load(), "remote calls overlapped")
}

func TestSetIntervalWakesRunningLoop(t *testing.T) {
	client := newFakeClient()
	eng, _ := newTestEngine(t, client, WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- eng.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(client.callsWithPrefix("ships")) == 1
	}, time.Second, time.Millisecond)

	eng.SetInterval(time.Millisecond)
	assert.Equal(t, time.Millisecond, eng.Interval())
	require.Eventually(t, func() bool {
		return len(client.callsWithPrefix("ships")) >= 2
	}, 5*time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
}
