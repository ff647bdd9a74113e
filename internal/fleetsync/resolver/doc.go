// Package resolver derives the inputs of the dependent refresh operations from
// what the store already holds: the systems worth scanning for waypoints and
// the waypoints worth querying for shipyards.
package resolver
