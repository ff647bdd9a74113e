package state

import "github.com/kingrea/cyan-fleet-control/internal/spacetraders"

func cloneShipRecords(in []ShipRecord) []ShipRecord {
	if in == nil {
		return nil
	}
	out := make([]ShipRecord, len(in))
	for i, rec := range in {
		out[i] = ShipRecord{Ship: cloneShip(rec.Ship), Destination: rec.Destination}
	}
	return out
}

func cloneShip(ship spacetraders.Ship) spacetraders.Ship {
	ship.Engine = cloneEngine(ship.Engine)
	ship.Modules = cloneModules(ship.Modules)
	ship.Cargo.Inventory = append([]spacetraders.CargoItem(nil), ship.Cargo.Inventory...)
	return ship
}

func cloneEngine(e spacetraders.ShipEngine) spacetraders.ShipEngine {
	if e.Condition != nil {
		v := *e.Condition
		e.Condition = &v
	}
	e.Requirements = cloneRequirements(e.Requirements)
	return e
}

func cloneModules(in []spacetraders.ShipModule) []spacetraders.ShipModule {
	if in == nil {
		return nil
	}
	out := make([]spacetraders.ShipModule, len(in))
	for i, m := range in {
		if m.Capacity != nil {
			v := *m.Capacity
			m.Capacity = &v
		}
		if m.Range != nil {
			v := *m.Range
			m.Range = &v
		}
		m.Requirements = cloneRequirements(m.Requirements)
		out[i] = m
	}
	return out
}

func cloneRequirements(r *spacetraders.ShipRequirements) *spacetraders.ShipRequirements {
	if r == nil {
		return nil
	}
	v := *r
	return &v
}

func cloneWaypoints(in []spacetraders.Waypoint) []spacetraders.Waypoint {
	if in == nil {
		return nil
	}
	out := make([]spacetraders.Waypoint, len(in))
	for i, wp := range in {
		wp.Orbitals = append([]spacetraders.WaypointOrbit(nil), wp.Orbitals...)
		wp.Traits = append([]spacetraders.WaypointTrait(nil), wp.Traits...)
		out[i] = wp
	}
	return out
}

func cloneContracts(in []spacetraders.Contract) []spacetraders.Contract {
	if in == nil {
		return nil
	}
	out := make([]spacetraders.Contract, len(in))
	for i, c := range in {
		c.Terms.Deliver = append([]spacetraders.ContractDeliver(nil), c.Terms.Deliver...)
		if c.DeadlineToAccept != nil {
			v := *c.DeadlineToAccept
			c.DeadlineToAccept = &v
		}
		out[i] = c
	}
	return out
}

func cloneListings(in []ShipyardListing) []ShipyardListing {
	if in == nil {
		return nil
	}
	out := make([]ShipyardListing, len(in))
	for i, l := range in {
		l.Ship.Engine = cloneEngine(l.Ship.Engine)
		l.Ship.Modules = cloneModules(l.Ship.Modules)
		out[i] = l
	}
	return out
}
