package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kingrea/cyan-fleet-control/internal/spacetraders"
)

// ActionKind identifies an operator-triggered mutation.
type ActionKind int

const (
	ActionAcceptContract ActionKind = iota
	ActionNavigate
	ActionDock
	ActionOrbit
	ActionExtract
	ActionDeliver
	ActionPurchaseShip
	ActionAgentInfo
)

func (k ActionKind) String() string {
	switch k {
	case ActionAcceptContract:
		return "accept_contract"
	case ActionNavigate:
		return "navigate"
	case ActionDock:
		return "dock"
	case ActionOrbit:
		return "orbit"
	case ActionExtract:
		return "extract"
	case ActionDeliver:
		return "deliver"
	case ActionPurchaseShip:
		return "purchase_ship"
	case ActionAgentInfo:
		return "agent_info"
	default:
		return "unknown"
	}
}

// Action is one queued operator request. Only the fields relevant to Kind
// are read. ID is assigned by Submit when empty.
type Action struct {
	ID          string
	Kind        ActionKind
	Ship        string
	Destination string
	ContractID  string
	TradeSymbol string
	Units       int
	ShipType    string
	Waypoint    string
}

// AcceptContract builds an action accepting a contract offer.
func AcceptContract(contractID string) Action {
	return Action{Kind: ActionAcceptContract, ContractID: contractID}
}

// Navigate builds an action sending a ship to a waypoint.
func Navigate(ship, destination string) Action {
	return Action{Kind: ActionNavigate, Ship: ship, Destination: destination}
}

// Dock builds an action docking a ship.
func Dock(ship string) Action {
	return Action{Kind: ActionDock, Ship: ship}
}

// Orbit builds an action moving a docked ship into orbit.
func Orbit(ship string) Action {
	return Action{Kind: ActionOrbit, Ship: ship}
}

// Extract builds an action mining at the ship's waypoint.
func Extract(ship string) Action {
	return Action{Kind: ActionExtract, Ship: ship}
}

// Deliver builds an action handing cargo to a contract.
func Deliver(contractID, ship, tradeSymbol string, units int) Action {
	return Action{Kind: ActionDeliver, ContractID: contractID, Ship: ship, TradeSymbol: tradeSymbol, Units: units}
}

// PurchaseShip builds an action buying a ship at a shipyard waypoint.
func PurchaseShip(shipType, waypoint string) Action {
	return Action{Kind: ActionPurchaseShip, ShipType: shipType, Waypoint: waypoint}
}

// AgentInfo builds an action fetching the agent and its headquarters.
func AgentInfo() Action {
	return Action{Kind: ActionAgentInfo}
}

// Execute runs one action synchronously. The fetched collections are left
// alone; the next refresh of the affected collection shows the effect. Run
// calls Execute from the engine goroutine; callers driving Tick directly may
// call it between ticks.
func (e *Engine) Execute(ctx context.Context, action Action) {
	logger := e.log.With(zap.String("id", action.ID), zap.Stringer("action", action.Kind))
	err := e.execute(ctx, action)
	e.metrics.IncAction(action.Kind.String(), err == nil)
	if err != nil {
		logger.Warn("action failed", zap.Error(err))
		return
	}
	logger.Info("action finished")
}

func (e *Engine) execute(ctx context.Context, a Action) error {
	switch a.Kind {
	case ActionAcceptContract:
		contract, err := e.client.AcceptContract(ctx, a.ContractID)
		if err != nil {
			e.store.AppendError(fmt.Sprintf("Failed to accept contract %s: %v", a.ContractID, err))
			return err
		}
		e.store.AppendLog(fmt.Sprintf("Accepted contract %s", contract.ID))
	case ActionNavigate:
		nav, err := e.client.NavigateShip(ctx, a.Ship, a.Destination)
		if err != nil {
			e.store.AppendError(fmt.Sprintf("Failed to navigate %s to %s: %v", a.Ship, a.Destination, err))
			return err
		}
		e.store.AppendLog(fmt.Sprintf("%s navigating to %s, arriving %s",
			a.Ship, a.Destination, nav.Route.Arrival.Format("15:04:05")))
	case ActionDock:
		if _, err := e.client.DockShip(ctx, a.Ship); err != nil {
			e.store.AppendError(fmt.Sprintf("Failed to dock %s: %v", a.Ship, err))
			return err
		}
		e.store.AppendLog(fmt.Sprintf("%s docked", a.Ship))
	case ActionOrbit:
		if _, err := e.client.OrbitShip(ctx, a.Ship); err != nil {
			e.store.AppendError(fmt.Sprintf("Failed to orbit %s: %v", a.Ship, err))
			return err
		}
		e.store.AppendLog(fmt.Sprintf("%s in orbit", a.Ship))
	case ActionExtract:
		extraction, err := e.client.ExtractResources(ctx, a.Ship)
		if err != nil {
			e.store.AppendError(fmt.Sprintf("Failed to extract with %s: %v", a.Ship, err))
			return err
		}
		e.store.AppendLog(fmt.Sprintf("%s extracted %d %s",
			a.Ship, extraction.Yield.Units, extraction.Yield.Symbol))
	case ActionDeliver:
		if _, err := e.client.DeliverContract(ctx, a.ContractID, a.Ship, a.TradeSymbol, a.Units); err != nil {
			e.store.AppendError(fmt.Sprintf("Failed to deliver %s for contract %s: %v", a.TradeSymbol, a.ContractID, err))
			return err
		}
		e.store.AppendLog(fmt.Sprintf("%s delivered %d %s for contract %s",
			a.Ship, a.Units, a.TradeSymbol, a.ContractID))
	case ActionPurchaseShip:
		ship, err := e.client.PurchaseShip(ctx, a.ShipType, a.Waypoint)
		if err != nil {
			e.store.AppendError(fmt.Sprintf("Failed to purchase %s at %s: %v", a.ShipType, a.Waypoint, err))
			return err
		}
		e.store.AppendLog(fmt.Sprintf("Purchased %s (%s) at %s", ship.Symbol, a.ShipType, a.Waypoint))
	case ActionAgentInfo:
		return e.agentInfo(ctx)
	default:
		return fmt.Errorf("engine: unknown action %d", int(a.Kind))
	}
	return nil
}

// agentInfo fetches the agent, stores it, and logs its headquarters waypoint.
func (e *Engine) agentInfo(ctx context.Context) error {
	agent, err := e.client.FetchMyAgent(ctx)
	if err != nil {
		e.store.AppendError(fmt.Sprintf("Failed to get agent info: %v", err))
		return err
	}
	e.store.SetAgent(agent)
	e.store.AppendLog(fmt.Sprintf("Agent %s: %d credits, %d ships, headquarters %s",
		agent.Symbol, agent.Credits, agent.ShipCount, agent.Headquarters))

	hq := agent.Headquarters
	wp, err := e.client.FetchWaypoint(ctx, spacetraders.SystemSymbol(hq), hq)
	if err != nil {
		e.store.AppendError("Failed to get waypoint info")
		return err
	}
	e.store.AppendLog(describeWaypoint(wp))
	return nil
}

func describeWaypoint(wp *spacetraders.Waypoint) string {
	traits := make([]string, 0, len(wp.Traits))
	for _, t := range wp.Traits {
		traits = append(traits, t.Symbol)
	}
	return fmt.Sprintf("Waypoint %s (%s) at %d,%d traits %v", wp.Symbol, wp.Type, wp.X, wp.Y, traits)
}
