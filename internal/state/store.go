package state

import (
	"sync"

	"github.com/kingrea/cyan-fleet-control/internal/spacetraders"
)

// ShipRecord is a fetched ship plus the destination the operator picked for it.
type ShipRecord struct {
	Ship        spacetraders.Ship `json:"ship"`
	Destination string            `json:"destination"`
}

// ShipyardListing is one purchasable offer and the waypoint selling it.
type ShipyardListing struct {
	Ship     spacetraders.ShipyardShip `json:"ship"`
	Waypoint string                    `json:"waypoint"`
}

// Snapshot is a point-in-time copy of the store. Callers own it.
type Snapshot struct {
	Version          uint64                  `json:"version"`
	AgentLabel       string                  `json:"agentLabel"`
	Agent            *spacetraders.Agent     `json:"agent,omitempty"`
	SelectedShipyard string                  `json:"selectedShipyard,omitempty"`
	Ships            []ShipRecord            `json:"ships"`
	Waypoints        []spacetraders.Waypoint `json:"waypoints"`
	Contracts        []spacetraders.Contract `json:"contracts"`
	Shipyards        []ShipyardListing       `json:"shipyards"`
	Log              []string                `json:"log"`
}

// LogMirror receives every activity log entry after it is appended.
// *logbook.Logbook satisfies it.
type LogMirror interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Option customizes a Store.
type Option func(*Store)

// WithLogMirror copies activity log entries to m.
func WithLogMirror(m LogMirror) Option {
	return func(s *Store) {
		s.mirror = m
	}
}

// Store is the single shared state of the dashboard. The four remote
// collections are only ever replaced wholesale; readers get copies.
type Store struct {
	mu      sync.RWMutex
	version uint64
	mirror  LogMirror

	prefs     Preferences
	agent     *spacetraders.Agent
	ships     []ShipRecord
	waypoints []spacetraders.Waypoint
	contracts []spacetraders.Contract
	shipyards []ShipyardListing
	log       []string
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Version increments on every write. Two snapshots taken at the same version
// are equal.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a deep copy of the whole store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Version:          s.version,
		AgentLabel:       s.prefs.AgentLabel,
		SelectedShipyard: s.prefs.SelectedShipyard,
		Ships:            cloneShipRecords(s.ships),
		Waypoints:        cloneWaypoints(s.waypoints),
		Contracts:        cloneContracts(s.contracts),
		Shipyards:        cloneListings(s.shipyards),
		Log:              append([]string(nil), s.log...),
	}
	if s.agent != nil {
		agent := *s.agent
		snap.Agent = &agent
	}
	return snap
}

// Ships returns a copy of the current fleet.
func (s *Store) Ships() []ShipRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneShipRecords(s.ships)
}

// Waypoints returns a copy of the current waypoint collection.
func (s *Store) Waypoints() []spacetraders.Waypoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneWaypoints(s.waypoints)
}

// ReplaceFleet swaps in a freshly fetched fleet. Every record starts with an
// empty destination; ships missing from the fetch are dropped.
func (s *Store) ReplaceFleet(ships []spacetraders.Ship) {
	records := make([]ShipRecord, 0, len(ships))
	for _, ship := range ships {
		records = append(records, ShipRecord{Ship: cloneShip(ship)})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ships = records
	s.version++
}

// ReplaceWaypoints swaps in the waypoint collection.
func (s *Store) ReplaceWaypoints(waypoints []spacetraders.Waypoint) {
	next := cloneWaypoints(waypoints)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waypoints = next
	s.version++
}

// ReplaceContracts swaps in the contract collection.
func (s *Store) ReplaceContracts(contracts []spacetraders.Contract) {
	next := cloneContracts(contracts)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts = next
	s.version++
}

// ReplaceShipyardListings swaps in the shipyard offers.
func (s *Store) ReplaceShipyardListings(listings []ShipyardListing) {
	next := cloneListings(listings)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipyards = next
	s.version++
}

// SetAgent records the last fetched agent details.
func (s *Store) SetAgent(agent *spacetraders.Agent) {
	var next *spacetraders.Agent
	if agent != nil {
		copied := *agent
		next = &copied
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agent = next
	s.version++
}

// SetShipDestination updates the destination of one ship. It reports false
// when the ship is not in the current fleet.
func (s *Store) SetShipDestination(shipSymbol, destination string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.ships {
		if s.ships[i].Ship.Symbol == shipSymbol {
			s.ships[i].Destination = destination
			s.version++
			return true
		}
	}
	return false
}

// SetAgentLabel replaces the operator's display label.
func (s *Store) SetAgentLabel(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.AgentLabel = label
	s.version++
}

// SetSelectedShipyard records the shipyard waypoint the operator is viewing.
// An empty symbol clears the selection.
func (s *Store) SetSelectedShipyard(waypoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.SelectedShipyard = waypoint
	s.version++
}

// Preferences returns the persisted subset of the store.
func (s *Store) Preferences() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// ApplyPreferences loads persisted preferences into the store.
func (s *Store) ApplyPreferences(p Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = p
	s.version++
}

// AppendLog adds an informational activity entry.
func (s *Store) AppendLog(entry string) {
	s.appendLog(entry)
	if s.mirror != nil {
		s.mirror.Info("%s", entry)
	}
}

// AppendWarning adds a diagnostic entry, e.g. an unmet precondition.
func (s *Store) AppendWarning(entry string) {
	s.appendLog(entry)
	if s.mirror != nil {
		s.mirror.Warn("%s", entry)
	}
}

// AppendError adds an entry describing a failed remote call.
func (s *Store) AppendError(entry string) {
	s.appendLog(entry)
	if s.mirror != nil {
		s.mirror.Error("%s", entry)
	}
}

func (s *Store) appendLog(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, entry)
	s.version++
}

// ClearLog empties the activity log. The mirror file is left alone.
func (s *Store) ClearLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
	s.version++
}
