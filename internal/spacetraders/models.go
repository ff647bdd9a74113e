package spacetraders

import (
	"strings"
	"time"
)

// Ship navigation statuses reported by the API.
const (
	NavStatusInTransit = "IN_TRANSIT"
	NavStatusInOrbit   = "IN_ORBIT"
	NavStatusDocked    = "DOCKED"
)

// Waypoint trait symbols the dashboard cares about.
const (
	TraitShipyard        = "SHIPYARD"
	TraitMarketplace     = "MARKETPLACE"
	TraitTradingHub      = "TRADING_HUB"
	TraitBlackMarket     = "BLACK_MARKET"
	TraitMineralDeposits = "MINERAL_DEPOSITS"
)

// Agent is the player account the token authenticates.
type Agent struct {
	AccountID       string `json:"accountId"`
	Symbol          string `json:"symbol"`
	Headquarters    string `json:"headquarters"`
	Credits         int64  `json:"credits"`
	StartingFaction string `json:"startingFaction"`
	ShipCount       int    `json:"shipCount"`
}

// Contract is a delivery obligation offered by a faction.
type Contract struct {
	ID               string        `json:"id"`
	FactionSymbol    string        `json:"factionSymbol"`
	Type             string        `json:"type"`
	Terms            ContractTerms `json:"terms"`
	Accepted         bool          `json:"accepted"`
	Fulfilled        bool          `json:"fulfilled"`
	Expiration       time.Time     `json:"expiration"`
	DeadlineToAccept *time.Time    `json:"deadlineToAccept,omitempty"`
}

// ContractTerms holds the payment and delivery requirements of a contract.
type ContractTerms struct {
	Deadline time.Time         `json:"deadline"`
	Payment  ContractPayment   `json:"payment"`
	Deliver  []ContractDeliver `json:"deliver,omitempty"`
}

// ContractPayment lists credits paid on acceptance and on fulfilment.
type ContractPayment struct {
	OnAccepted  int64 `json:"onAccepted"`
	OnFulfilled int64 `json:"onFulfilled"`
}

// Total is the sum of both payments.
func (p ContractPayment) Total() int64 {
	return p.OnAccepted + p.OnFulfilled
}

// ContractDeliver is one good the contract requires at a destination.
type ContractDeliver struct {
	TradeSymbol       string `json:"tradeSymbol"`
	DestinationSymbol string `json:"destinationSymbol"`
	UnitsRequired     int    `json:"unitsRequired"`
	UnitsFulfilled    int    `json:"unitsFulfilled"`
}

// Remaining returns how many units are still owed.
func (d ContractDeliver) Remaining() int {
	if d.UnitsFulfilled >= d.UnitsRequired {
		return 0
	}
	return d.UnitsRequired - d.UnitsFulfilled
}

// Ship is a snapshot of one owned ship.
type Ship struct {
	Symbol       string           `json:"symbol"`
	Registration ShipRegistration `json:"registration"`
	Nav          ShipNav          `json:"nav"`
	Engine       ShipEngine       `json:"engine"`
	Modules      []ShipModule     `json:"modules,omitempty"`
	Cargo        ShipCargo        `json:"cargo"`
	Fuel         ShipFuel         `json:"fuel"`
}

// ShipRegistration identifies the ship's owner and role.
type ShipRegistration struct {
	Name          string `json:"name"`
	FactionSymbol string `json:"factionSymbol"`
	Role          string `json:"role"`
}

// ShipNav is the ship's current location and route.
type ShipNav struct {
	SystemSymbol   string    `json:"systemSymbol"`
	WaypointSymbol string    `json:"waypointSymbol"`
	Route          ShipRoute `json:"route"`
	Status         string    `json:"status"`
	FlightMode     string    `json:"flightMode"`
}

// ShipRoute describes the ship's last or current journey.
type ShipRoute struct {
	Destination   RouteWaypoint `json:"destination"`
	Origin        RouteWaypoint `json:"origin"`
	DepartureTime time.Time     `json:"departureTime"`
	Arrival       time.Time     `json:"arrival"`
}

// RouteWaypoint is a waypoint reference embedded in a route.
type RouteWaypoint struct {
	Symbol       string `json:"symbol"`
	Type         string `json:"type"`
	SystemSymbol string `json:"systemSymbol"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
}

// ShipCargo is the ship's hold.
type ShipCargo struct {
	Capacity  int         `json:"capacity"`
	Units     int         `json:"units"`
	Inventory []CargoItem `json:"inventory"`
}

// Free returns the remaining cargo space.
func (c ShipCargo) Free() int {
	if c.Units >= c.Capacity {
		return 0
	}
	return c.Capacity - c.Units
}

// CargoItem is one stack of goods in a hold.
type CargoItem struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Units       int    `json:"units"`
}

// ShipFuel is the ship's fuel tank.
type ShipFuel struct {
	Current  int `json:"current"`
	Capacity int `json:"capacity"`
}

// ShipEngine describes a ship's drive, both on owned ships and shipyard offers.
type ShipEngine struct {
	Symbol       string            `json:"symbol"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Condition    *float64          `json:"condition,omitempty"`
	Speed        int               `json:"speed"`
	Requirements *ShipRequirements `json:"requirements,omitempty"`
}

// ShipModule is an installed or offered ship module.
type ShipModule struct {
	Symbol       string            `json:"symbol"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Capacity     *int              `json:"capacity,omitempty"`
	Range        *int              `json:"range,omitempty"`
	Requirements *ShipRequirements `json:"requirements,omitempty"`
}

// ShipRequirements lists the power, crew and slots a component consumes.
type ShipRequirements struct {
	Power int `json:"power,omitempty"`
	Crew  int `json:"crew,omitempty"`
	Slots int `json:"slots,omitempty"`
}

// Waypoint is a location inside a star system.
type Waypoint struct {
	Symbol       string          `json:"symbol"`
	Type         string          `json:"type"`
	SystemSymbol string          `json:"systemSymbol"`
	X            int             `json:"x"`
	Y            int             `json:"y"`
	Orbitals     []WaypointOrbit `json:"orbitals,omitempty"`
	Traits       []WaypointTrait `json:"traits,omitempty"`
}

// HasTrait reports whether the waypoint carries the given trait symbol.
func (w Waypoint) HasTrait(symbol string) bool {
	for _, t := range w.Traits {
		if strings.EqualFold(t.Symbol, symbol) {
			return true
		}
	}
	return false
}

// WaypointOrbit references a body orbiting a waypoint.
type WaypointOrbit struct {
	Symbol string `json:"symbol"`
}

// WaypointTrait is a capability tag on a waypoint.
type WaypointTrait struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Shipyard is the listing returned for a shipyard waypoint. Ships is only
// populated when one of the agent's ships is present at the waypoint.
type Shipyard struct {
	Symbol    string         `json:"symbol"`
	ShipTypes []ShipTypeRef  `json:"shipTypes,omitempty"`
	Ships     []ShipyardShip `json:"ships,omitempty"`
}

// ShipTypeRef names a ship type sold at a shipyard.
type ShipTypeRef struct {
	Type string `json:"type"`
}

// ShipyardShip is a purchasable ship offer.
type ShipyardShip struct {
	Type          string       `json:"type"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	PurchasePrice int64        `json:"purchasePrice"`
	Engine        ShipEngine   `json:"engine"`
	Modules       []ShipModule `json:"modules,omitempty"`
}

// Extraction is the result of mining at the ship's location.
type Extraction struct {
	ShipSymbol string `json:"shipSymbol"`
	Yield      struct {
		Symbol string `json:"symbol"`
		Units  int    `json:"units"`
	} `json:"yield"`
}

// SystemSymbol derives the system symbol from a waypoint symbol, e.g.
// "X1-DF55-20250Z" -> "X1-DF55".
func SystemSymbol(waypoint string) string {
	idx := strings.LastIndex(waypoint, "-")
	if idx <= 0 {
		return waypoint
	}
	return waypoint[:idx]
}
