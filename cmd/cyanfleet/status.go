package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kingrea/cyan-fleet-control/internal/state"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Run one sync cycle and print the fleet state",
		Long: `Runs each refresh operation once (fleet, waypoints, contracts, shipyards)
and prints the resulting tables followed by the activity log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(opts)
			if err != nil {
				return err
			}
			defer rt.close()
			rt.engine.Cycle(cmd.Context())
			return printSnapshot(cmd.OutOrStdout(), rt.store.Snapshot())
		},
	}
}

func printSnapshot(w io.Writer, snap state.Snapshot) error {
	sections := []struct {
		title  string
		header []string
		rows   [][]string
	}{
		{"Fleet", []string{"Ship", "Status", "Waypoint", "Cargo", "Fuel"}, fleetRows(snap)},
		{"Contracts", []string{"Contract", "Faction", "Status", "Payment", "Deliveries"}, contractRows(snap)},
		{"Waypoints", []string{"Waypoint", "Type", "Traits"}, waypointRows(snap)},
		{"Shipyards", []string{"Waypoint", "Type", "Name", "Price"}, shipyardRows(snap)},
	}
	for _, section := range sections {
		if _, err := fmt.Fprintf(w, "\n%s\n", strings.ToUpper(section.title)); err != nil {
			return err
		}
		if len(section.rows) == 0 {
			if _, err := fmt.Fprintln(w, "(none)"); err != nil {
				return err
			}
			continue
		}
		table := tablewriter.NewWriter(w)
		header := make([]any, len(section.header))
		for i, h := range section.header {
			header[i] = h
		}
		table.Header(header...)
		if err := table.Bulk(section.rows); err != nil {
			return fmt.Errorf("render %s: %w", section.title, err)
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("render %s: %w", section.title, err)
		}
	}

	if _, err := fmt.Fprintf(w, "\nLOG\n"); err != nil {
		return err
	}
	for _, line := range snap.Log {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func fleetRows(snap state.Snapshot) [][]string {
	rows := make([][]string, 0, len(snap.Ships))
	for _, rec := range snap.Ships {
		s := rec.Ship
		rows = append(rows, []string{
			s.Symbol,
			s.Nav.Status,
			s.Nav.WaypointSymbol,
			fmt.Sprintf("%d/%d", s.Cargo.Units, s.Cargo.Capacity),
			fmt.Sprintf("%d/%d", s.Fuel.Current, s.Fuel.Capacity),
		})
	}
	return rows
}

func contractRows(snap state.Snapshot) [][]string {
	rows := make([][]string, 0, len(snap.Contracts))
	for _, c := range snap.Contracts {
		status := "offered"
		switch {
		case c.Fulfilled:
			status = "fulfilled"
		case c.Accepted:
			status = "accepted"
		}
		deliveries := make([]string, 0, len(c.Terms.Deliver))
		for _, d := range c.Terms.Deliver {
			deliveries = append(deliveries, fmt.Sprintf("%s %d/%d → %s", d.TradeSymbol, d.UnitsFulfilled, d.UnitsRequired, d.DestinationSymbol))
		}
		rows = append(rows, []string{
			c.ID,
			c.FactionSymbol,
			status,
			strconv.FormatInt(c.Terms.Payment.Total(), 10),
			strings.Join(deliveries, "; "),
		})
	}
	return rows
}

func waypointRows(snap state.Snapshot) [][]string {
	rows := make([][]string, 0, len(snap.Waypoints))
	for _, wp := range snap.Waypoints {
		traits := make([]string, 0, len(wp.Traits))
		for _, t := range wp.Traits {
			traits = append(traits, t.Symbol)
		}
		rows = append(rows, []string{wp.Symbol, wp.Type, strings.Join(traits, ", ")})
	}
	return rows
}

func shipyardRows(snap state.Snapshot) [][]string {
	rows := make([][]string, 0, len(snap.Shipyards))
	for _, l := range snap.Shipyards {
		rows = append(rows, []string{
			l.Waypoint,
			l.Ship.Type,
			l.Ship.Name,
			strconv.FormatInt(l.Ship.PurchasePrice, 10),
		})
	}
	return rows
}
