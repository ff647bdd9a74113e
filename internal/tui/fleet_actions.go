package tui

import (
	"github.com/kingrea/cyan-fleet-control/internal/fleetsync/engine"
	"github.com/kingrea/cyan-fleet-control/internal/fleetsync/resolver"
	"github.com/kingrea/cyan-fleet-control/internal/spacetraders"
	"github.com/kingrea/cyan-fleet-control/internal/state"
)

// effectiveDestination treats an unset destination as the current waypoint.
func effectiveDestination(rec state.ShipRecord) string {
	if rec.Destination == "" {
		return rec.Ship.Nav.WaypointSymbol
	}
	return rec.Destination
}

func canChooseDestination(rec state.ShipRecord) bool {
	return rec.Ship.Nav.Status != spacetraders.NavStatusInTransit
}

func canNavigate(rec state.ShipRecord) bool {
	return canChooseDestination(rec) && effectiveDestination(rec) != rec.Ship.Nav.WaypointSymbol
}

func canDock(rec state.ShipRecord) bool {
	return rec.Ship.Nav.Status == spacetraders.NavStatusInOrbit
}

func canOrbit(rec state.ShipRecord) bool {
	return rec.Ship.Nav.Status == spacetraders.NavStatusDocked
}

func canExtract(rec state.ShipRecord) bool {
	return rec.Ship.Nav.Status == spacetraders.NavStatusDocked && rec.Ship.Cargo.Free() > 0
}

// deliveryFor picks the first cargo stack an accepted, open contract still
// needs and builds the matching deliver action.
func deliveryFor(rec state.ShipRecord, contracts []spacetraders.Contract) (engine.Action, bool) {
	if rec.Ship.Nav.Status != spacetraders.NavStatusDocked {
		return engine.Action{}, false
	}
	for _, item := range rec.Ship.Cargo.Inventory {
		if item.Units <= 0 {
			continue
		}
		for _, c := range contracts {
			if !c.Accepted || c.Fulfilled {
				continue
			}
			for _, term := range c.Terms.Deliver {
				remaining := term.Remaining()
				if term.TradeSymbol != item.Symbol || remaining == 0 {
					continue
				}
				units := item.Units
				if units > remaining {
					units = remaining
				}
				return engine.Deliver(c.ID, rec.Ship.Symbol, item.Symbol, units), true
			}
		}
	}
	return engine.Action{}, false
}

// destinationOptions lists the known waypoints in the ship's system.
func destinationOptions(rec state.ShipRecord, waypoints []spacetraders.Waypoint) []string {
	system := rec.Ship.Nav.SystemSymbol
	if system == "" {
		system = spacetraders.SystemSymbol(rec.Ship.Nav.WaypointSymbol)
	}
	var out []string
	for _, wp := range waypoints {
		wpSystem := wp.SystemSymbol
		if wpSystem == "" {
			wpSystem = spacetraders.SystemSymbol(wp.Symbol)
		}
		if wpSystem == system {
			out = append(out, wp.Symbol)
		}
	}
	return out
}

// cycleDestination steps through destinationOptions starting from the
// ship's effective destination. It returns "" when there are no options.
func cycleDestination(rec state.ShipRecord, waypoints []spacetraders.Waypoint, step int) string {
	options := destinationOptions(rec, waypoints)
	if len(options) == 0 {
		return ""
	}
	current := effectiveDestination(rec)
	return cycle(options, indexOf(options, current), step)
}

// shipyardOptions returns "" (all shipyards) followed by every shipyard
// waypoint in the store.
func shipyardOptions(snap state.Snapshot) []string {
	options := []string{""}
	for _, wp := range resolver.ShipyardWaypoints(snap.Waypoints) {
		options = append(options, wp.Symbol)
	}
	return options
}

func cycleShipyard(snap state.Snapshot, step int) string {
	options := shipyardOptions(snap)
	idx := indexOf(options, snap.SelectedShipyard)
	if idx < 0 {
		idx = 0
	}
	return cycle(options, idx, step)
}

// filteredListings applies the shipyard selection to the shipyard collection.
func filteredListings(snap state.Snapshot) []state.ShipyardListing {
	if snap.SelectedShipyard == "" {
		return snap.Shipyards
	}
	var out []state.ShipyardListing
	for _, l := range snap.Shipyards {
		if l.Waypoint == snap.SelectedShipyard {
			out = append(out, l)
		}
	}
	return out
}

func cycle(options []string, idx, step int) string {
	n := len(options)
	if idx < 0 {
		if step < 0 {
			return options[n-1]
		}
		return options[0]
	}
	return options[((idx+step)%n+n)%n]
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
