// Package spacetraders is a small typed client for the SpaceTraders v2 HTTP
// API. It covers the reads the dashboard refreshes in the background (agent,
// contracts, fleet, system waypoints, shipyards) and the ship and contract
// actions an operator can trigger.
//
// Every call is a single blocking request/response bounded by the client
// timeout and the caller's context. List endpoints read only the first page.
// Non-2xx responses are returned as *APIError.
package spacetraders
