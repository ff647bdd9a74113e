package resolver

import (
	"strings"

	"github.com/kingrea/cyan-fleet-control/internal/spacetraders"
	"github.com/kingrea/cyan-fleet-control/internal/state"
)

// VisibleSystems returns the distinct systems that hold at least one ship, in
// the order the ships first mention them.
func VisibleSystems(ships []state.ShipRecord) []string {
	seen := make(map[string]struct{}, len(ships))
	var systems []string
	for _, rec := range ships {
		system := strings.TrimSpace(rec.Ship.Nav.SystemSymbol)
		if system == "" && rec.Ship.Nav.WaypointSymbol != "" {
			system = spacetraders.SystemSymbol(rec.Ship.Nav.WaypointSymbol)
		}
		if system == "" {
			continue
		}
		if _, ok := seen[system]; ok {
			continue
		}
		seen[system] = struct{}{}
		systems = append(systems, system)
	}
	return systems
}

// ShipyardWaypoints returns the waypoints carrying the SHIPYARD trait.
func ShipyardWaypoints(waypoints []spacetraders.Waypoint) []spacetraders.Waypoint {
	var out []spacetraders.Waypoint
	for _, wp := range waypoints {
		if wp.HasTrait(spacetraders.TraitShipyard) {
			out = append(out, wp)
		}
	}
	return out
}
