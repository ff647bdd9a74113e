package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/cyan-fleet-control/internal/spacetraders"
	"github.com/kingrea/cyan-fleet-control/internal/state"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	bodyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// View renders the UI. Called after every Update.
func (a *App) View() string {
	menuWidth, panelWidth := a.columnWidths()
	var content string
	switch a.active {
	case panelContracts:
		content = a.renderContracts(panelWidth - 4)
	case panelFleet:
		content = a.renderFleet(panelWidth - 4)
	case panelWaypoints:
		content = a.renderWaypoints(panelWidth - 4)
	case panelShipyards:
		content = a.renderShipyards(panelWidth - 4)
	case panelLog:
		content = a.renderLogView()
	}
	return a.renderStatusBoard(content, menuWidth, panelWidth)
}

func (a *App) columnWidths() (int, int) {
	width := a.width
	if width <= 0 {
		width = 100
	}
	menuWidth := max(28, width/4)
	panelWidth := width - menuWidth - 4
	if panelWidth < 40 {
		return 0, width - 4
	}
	return menuWidth, panelWidth
}

func (a *App) renderStatusBoard(content string, menuWidth, panelWidth int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render(a.headerLine())

	panelBorder := lipgloss.Color("#444444")
	if a.focus == focusPanel {
		panelBorder = lipgloss.Color("#5B8DEF")
	}
	right := boxStyle.
		BorderForeground(panelBorder).
		Width(max(20, panelWidth)).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(strings.ToUpper(a.active.title())),
			content,
		))

	body := right
	if menuWidth > 0 {
		left := boxStyle.Width(max(20, menuWidth)).Render(a.menu.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	sections := []string{header}
	if a.editingLabel {
		sections = append(sections, boxStyle.Render("Agent label: "+a.labelInput.View()))
	}
	sections = append(sections, body)
	if a.active != panelLog {
		if logPanel := a.renderLogPanel(); logPanel != "" {
			sections = append(sections, logPanel)
		}
	}
	footer := mutedStyle.
		MarginTop(1).
		Render(a.footerLine())
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) headerLine() string {
	parts := []string{"⬡ CYAN FLEET"}
	if label := strings.TrimSpace(a.snap.AgentLabel); label != "" {
		parts = append(parts, label)
	}
	if agent := a.snap.Agent; agent != nil {
		parts = append(parts,
			agent.Symbol,
			formatCredits(agent.Credits),
			"HQ "+agent.Headquarters,
		)
	}
	return strings.Join(parts, " · ")
}

func (a *App) footerLine() string {
	hints := "tab focus · e label · i agent info · r refresh · q quit"
	if a.focus == focusPanel {
		switch a.active {
		case panelContracts:
			hints = "↑/↓ select · a accept · " + hints
		case panelFleet:
			hints = "↑/↓ select · [/] destination · n navigate · d dock · o orbit · x extract · v deliver · " + hints
		case panelShipyards:
			hints = "↑/↓ select · [/] shipyard · p purchase · " + hints
		case panelLog:
			hints = "↑/↓ scroll · c clear · " + hints
		}
	}
	if a.statusMsg == "" {
		return hints
	}
	return a.statusMsg + "\n" + hints
}

func (a *App) renderLogPanel() string {
	lines := a.snap.Log
	if len(lines) == 0 {
		return ""
	}
	if len(lines) > logPanelLines {
		lines = lines[len(lines)-logPanelLines:]
	}
	head := titleStyle.Render("LOG · activity")
	body := bodyStyle.Render(strings.Join(lines, "\n"))
	return boxStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) renderLogView() string {
	if len(a.snap.Log) == 0 {
		return mutedStyle.Render("Nothing logged yet.")
	}
	return bodyStyle.Render(a.logView.View())
}

func (a *App) renderContracts(width int) string {
	if len(a.snap.Contracts) == 0 {
		return mutedStyle.Render("No contracts loaded yet.")
	}
	selected := a.selection[panelContracts]
	items := make([]string, 0, len(a.snap.Contracts))
	for i, c := range a.snap.Contracts {
		status := "Offered"
		switch {
		case c.Fulfilled:
			status = "Fulfilled"
		case c.Accepted:
			status = "Accepted"
		}
		lines := []string{
			fmt.Sprintf("%s · %s · %s", c.ID, c.FactionSymbol, titleCase(c.Type)),
			fmt.Sprintf("%s · %s on accept · %s on fulfil · %s total",
				status,
				formatCredits(c.Terms.Payment.OnAccepted),
				formatCredits(c.Terms.Payment.OnFulfilled),
				formatCredits(c.Terms.Payment.Total())),
		}
		if !c.Terms.Deadline.IsZero() {
			lines = append(lines, "Deadline "+formatDeadline(c.Terms.Deadline))
		}
		for _, d := range c.Terms.Deliver {
			lines = append(lines, fmt.Sprintf("  %s → %s: %d/%d",
				d.TradeSymbol, d.DestinationSymbol, d.UnitsFulfilled, d.UnitsRequired))
		}
		if i == selected && !c.Accepted {
			lines = append(lines, mutedStyle.Render("a → accept"))
		}
		items = append(items, renderItem(strings.Join(lines, "\n"), i == selected, width))
	}
	return strings.Join(items, "\n")
}

func (a *App) selectedContract() (spacetraders.Contract, bool) {
	idx := a.selection[panelContracts]
	if idx < 0 || idx >= len(a.snap.Contracts) {
		return spacetraders.Contract{}, false
	}
	return a.snap.Contracts[idx], true
}

func (a *App) renderFleet(width int) string {
	if len(a.snap.Ships) == 0 {
		return mutedStyle.Render("No ships loaded yet.")
	}
	selected := a.selection[panelFleet]
	items := make([]string, 0, len(a.snap.Ships))
	for i, rec := range a.snap.Ships {
		ship := rec.Ship
		lines := []string{
			fmt.Sprintf("%s · %s · %s", ship.Symbol, titleCase(ship.Registration.Role), titleCase(strings.ReplaceAll(ship.Nav.Status, "_", " "))),
			fmt.Sprintf("At %s · cargo %d/%d · fuel %d/%d",
				ship.Nav.WaypointSymbol, ship.Cargo.Units, ship.Cargo.Capacity, ship.Fuel.Current, ship.Fuel.Capacity),
		}
		if ship.Nav.Status == spacetraders.NavStatusInTransit {
			lines = append(lines, fmt.Sprintf("En route to %s, arriving in %s",
				ship.Nav.Route.Destination.Symbol, humanizeDuration(time.Until(ship.Nav.Route.Arrival))))
		}
		if i == selected {
			lines = append(lines, a.shipDetail(rec)...)
		}
		items = append(items, renderItem(strings.Join(lines, "\n"), i == selected, width))
	}
	return strings.Join(items, "\n")
}

func (a *App) shipDetail(rec state.ShipRecord) []string {
	var lines []string
	for _, item := range rec.Ship.Cargo.Inventory {
		lines = append(lines, fmt.Sprintf("  %d × %s", item.Units, item.Symbol))
	}
	if canChooseDestination(rec) {
		lines = append(lines, fmt.Sprintf("Destination: %s", effectiveDestination(rec)))
	}
	var actions []string
	if canNavigate(rec) {
		actions = append(actions, "n navigate")
	}
	if canDock(rec) {
		actions = append(actions, "d dock")
	}
	if canOrbit(rec) {
		actions = append(actions, "o orbit")
	}
	if canExtract(rec) {
		actions = append(actions, "x extract")
	}
	if _, ok := deliveryFor(rec, a.snap.Contracts); ok {
		actions = append(actions, "v deliver")
	}
	if len(actions) > 0 {
		lines = append(lines, mutedStyle.Render(strings.Join(actions, " · ")))
	}
	return lines
}

func (a *App) renderWaypoints(width int) string {
	if len(a.snap.Waypoints) == 0 {
		return mutedStyle.Render("No waypoints loaded yet. Waypoints follow the systems your ships are in.")
	}
	selected := a.selection[panelWaypoints]
	items := make([]string, 0, len(a.snap.Waypoints))
	for i, wp := range a.snap.Waypoints {
		traits := make([]string, 0, len(wp.Traits))
		for _, t := range wp.Traits {
			traits = append(traits, t.Symbol)
		}
		line := fmt.Sprintf("%s · %s (%d,%d)", wp.Symbol, titleCase(strings.ReplaceAll(wp.Type, "_", " ")), wp.X, wp.Y)
		if len(traits) > 0 {
			line += "\n" + strings.Join(traits, ", ")
		}
		items = append(items, renderItem(line, i == selected, width))
	}
	return strings.Join(items, "\n")
}

func (a *App) renderShipyards(width int) string {
	filter := a.snap.SelectedShipyard
	if filter == "" {
		filter = "all"
	}
	head := mutedStyle.Render("Shipyard: " + filter)
	listings := filteredListings(a.snap)
	if len(listings) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, head,
			mutedStyle.Render("No ships for sale. Offers appear when one of your ships is at a shipyard."))
	}
	selected := a.selection[panelShipyards]
	items := make([]string, 0, len(listings))
	for i, l := range listings {
		lines := []string{
			fmt.Sprintf("%s · %s", l.Ship.Name, l.Ship.Type),
			fmt.Sprintf("%s at %s · engine %s", formatCredits(l.Ship.PurchasePrice), l.Waypoint, l.Ship.Engine.Name),
		}
		if i == selected {
			for _, m := range l.Ship.Modules {
				lines = append(lines, "  "+m.Name)
			}
			lines = append(lines, mutedStyle.Render("p → purchase"))
		}
		items = append(items, renderItem(strings.Join(lines, "\n"), i == selected, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, head, strings.Join(items, "\n"))
}

func renderItem(content string, selected bool, width int) string {
	style := lipgloss.NewStyle().Width(max(20, width)).Padding(0, 0, 1, 0)
	if selected {
		style = style.Bold(true).Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#5B8DEF")).Padding(0, 1)
	}
	return style.Render(content)
}

func titleCase(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	lower := strings.ToLower(value)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func humanizeDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func formatDeadline(t time.Time) string {
	return fmt.Sprintf("%s (%s left)", t.UTC().Format("2006-01-02 15:04"), humanizeDuration(time.Until(t)))
}

// formatCredits renders 1234567 as "1,234,567 cr".
func formatCredits(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + " cr"
}
