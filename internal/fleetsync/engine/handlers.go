package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kingrea/cyan-fleet-control/internal/fleetsync/resolver"
	"github.com/kingrea/cyan-fleet-control/internal/metrics"
	"github.com/kingrea/cyan-fleet-control/internal/spacetraders"
	"github.com/kingrea/cyan-fleet-control/internal/state"
)

func (e *Engine) fetchFleet(ctx context.Context) metrics.Outcome {
	ships, err := e.client.FetchMyShips(ctx)
	e.metrics.IncRequest("my_ships", err == nil)
	if err != nil {
		e.store.AppendError(fmt.Sprintf("Failed to update fleet: %v", err))
		e.log.Warn("fleet fetch failed", zap.Error(err))
		return metrics.OutcomeFailed
	}
	e.store.AppendLog("Fetching fleet")
	e.store.ReplaceFleet(ships)
	e.metrics.SetCollectionSize("ships", len(ships))
	return metrics.OutcomeSuccess
}

func (e *Engine) fetchWaypoints(ctx context.Context) metrics.Outcome {
	systems := resolver.VisibleSystems(e.store.Ships())
	if len(systems) == 0 {
		e.store.ReplaceWaypoints(nil)
		e.metrics.SetCollectionSize("waypoints", 0)
		e.store.AppendWarning("Cannot fetch waypoints with 0 ships. Fetch ships first")
		return metrics.OutcomeSkipped
	}

	var (
		collected []spacetraders.Waypoint
		failures  int
	)
	for _, system := range systems {
		if ctx.Err() != nil {
			return metrics.OutcomeFailed
		}
		waypoints, err := e.client.FetchSystemWaypoints(ctx, system)
		e.metrics.IncRequest("system_waypoints", err == nil)
		if err != nil {
			failures++
			e.store.AppendError(fmt.Sprintf("Failed to fetch waypoints for system: %s", system))
			e.log.Warn("waypoint fetch failed", zap.String("system", system), zap.Error(err))
			continue
		}
		e.store.AppendLog(fmt.Sprintf("Fetched waypoints for system: %s", system))
		collected = append(collected, waypoints...)
	}
	e.store.ReplaceWaypoints(collected)
	e.metrics.SetCollectionSize("waypoints", len(collected))
	if failures > 0 {
		return metrics.OutcomeFailed
	}
	return metrics.OutcomeSuccess
}

func (e *Engine) fetchContracts(ctx context.Context) metrics.Outcome {
	contracts, err := e.client.FetchContracts(ctx)
	e.metrics.IncRequest("my_contracts", err == nil)
	if err != nil {
		e.store.AppendError("Failed to get contracts")
		e.log.Warn("contract fetch failed", zap.Error(err))
		return metrics.OutcomeFailed
	}
	e.store.AppendLog("Fetching contracts")
	e.store.ReplaceContracts(contracts)
	e.metrics.SetCollectionSize("contracts", len(contracts))
	return metrics.OutcomeSuccess
}

// fetchShipyards rebuilds the listings from every shipyard-bearing waypoint.
// Waypoints whose shipyard cannot be read contribute nothing and are not
// reported in the activity log.
func (e *Engine) fetchShipyards(ctx context.Context) metrics.Outcome {
	yards := resolver.ShipyardWaypoints(e.store.Waypoints())
	var listings []state.ShipyardListing
	for _, wp := range yards {
		if ctx.Err() != nil {
			return metrics.OutcomeFailed
		}
		system := wp.SystemSymbol
		if system == "" {
			system = spacetraders.SystemSymbol(wp.Symbol)
		}
		yard, err := e.client.FetchShipyard(ctx, system, wp.Symbol)
		e.metrics.IncRequest("shipyard", err == nil)
		if err != nil {
			e.log.Debug("shipyard fetch skipped", zap.String("waypoint", wp.Symbol), zap.Error(err))
			continue
		}
		for _, offer := range yard.Ships {
			listings = append(listings, state.ShipyardListing{Ship: offer, Waypoint: wp.Symbol})
		}
	}
	e.store.ReplaceShipyardListings(listings)
	e.metrics.SetCollectionSize("shipyards", len(listings))
	return metrics.OutcomeSuccess
}
