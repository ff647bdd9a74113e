// Package state holds the dashboard's shared store: the agent label, the
// fetched fleet, waypoints, contracts and shipyard offers, and the activity
// log. A single writer replaces collections wholesale; the presentation loop
// and the status server read through Snapshot.
package state
