// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for cyanfleet.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The TUI never talks to the API. It renders snapshots of the shared store
// on a refresh tick and hands operator actions to the sync engine's queue.

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/kingrea/cyan-fleet-control/internal/fleetsync/engine"
	"github.com/kingrea/cyan-fleet-control/internal/state"
)

const (
	defaultRefreshInterval = 500 * time.Millisecond
	logPanelLines          = 6
)

// panel identifies one of the dashboard's content areas.
type panel int

const (
	panelContracts panel = iota
	panelFleet
	panelWaypoints
	panelShipyards
	panelLog
)

var panelOrder = []panel{panelContracts, panelFleet, panelWaypoints, panelShipyards, panelLog}

func (p panel) title() string {
	switch p {
	case panelContracts:
		return "Contracts"
	case panelFleet:
		return "Fleet"
	case panelWaypoints:
		return "Waypoints"
	case panelShipyards:
		return "Shipyards"
	case panelLog:
		return "Log"
	default:
		return "?"
	}
}

type boardFocus int

const (
	focusMenu boardFocus = iota
	focusPanel
)

type snapshotMsg struct {
	snap state.Snapshot
}

// ActionSubmitter queues operator actions. *engine.Engine satisfies it.
type ActionSubmitter interface {
	Submit(engine.Action) error
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithRefreshInterval overrides how often the store is re-read.
func WithRefreshInterval(d time.Duration) AppOption {
	return func(a *App) {
		if d > 0 {
			a.refreshInterval = d
		}
	}
}

// WithPreferencesPath persists label and shipyard choices to path.
func WithPreferencesPath(path string) AppOption {
	return func(a *App) {
		a.prefsPath = strings.TrimSpace(path)
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) AppOption {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	store           *state.Store
	actions         ActionSubmitter
	logger          *zap.Logger
	prefsPath       string
	refreshInterval time.Duration

	// Last rendered store contents
	snap state.Snapshot

	// UI components
	menu         list.Model
	logView      viewport.Model
	labelInput   textinput.Model
	editingLabel bool
	statusMsg    string

	focus     boardFocus
	active    panel
	selection map[panel]int

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// NewApp creates a new App reading from store and submitting to actions.
func NewApp(store *state.Store, actions ActionSubmitter, opts ...AppOption) *App {
	items := []list.Item{
		menuItem{title: panelContracts.title(), desc: "Offers, payments and deliveries"},
		menuItem{title: panelFleet.title(), desc: "Ships, routes and cargo"},
		menuItem{title: panelWaypoints.title(), desc: "Waypoints in systems with ships"},
		menuItem{title: panelShipyards.title(), desc: "Ships for sale"},
		menuItem{title: panelLog.title(), desc: "Activity log"},
	}
	menu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	menu.Title = "⬡ CYAN FLEET"
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)
	menu.SetShowHelp(false)
	menu.KeyMap.Quit.SetEnabled(false)

	input := textinput.New()
	input.Placeholder = "Agent label"
	input.CharLimit = 64

	app := &App{
		store:           store,
		actions:         actions,
		logger:          zap.NewNop(),
		refreshInterval: defaultRefreshInterval,
		menu:            menu,
		logView:         viewport.New(80, 10),
		labelInput:      input,
		focus:           focusMenu,
		active:          panelContracts,
		selection:       map[panel]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if store != nil {
		app.applySnapshot(store.Snapshot())
	}
	return app
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return a.fetchSnapshot()
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case snapshotMsg:
		if msg.snap.Version != a.snap.Version {
			a.applySnapshot(msg.snap)
		}
		return a, a.scheduleRefresh()

	case tea.KeyMsg:
		if a.editingLabel {
			return a.updateLabelEditor(msg)
		}
		key := msg.String()
		switch key {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "tab":
			if a.focus == focusMenu {
				a.focus = focusPanel
			} else {
				a.focus = focusMenu
			}
			return a, nil
		case "right", "l":
			a.focus = focusPanel
			return a, nil
		case "left", "h", "esc":
			a.focus = focusMenu
			return a, nil
		case "enter":
			if a.focus == focusMenu {
				a.focus = focusPanel
				return a, nil
			}
		case "e":
			return a.beginLabelEdit()
		case "i":
			a.submit(engine.AgentInfo(), "Fetching agent info...")
			return a, nil
		case "r":
			a.statusMsg = "Refreshing..."
			a.applySnapshot(a.store.Snapshot())
			return a, nil
		}
		if a.focus == focusPanel {
			if handled := a.handlePanelKey(key); handled {
				return a, nil
			}
		}
	}

	var cmds []tea.Cmd
	if a.focus == focusMenu {
		var menuCmd tea.Cmd
		a.menu, menuCmd = a.menu.Update(msg)
		if menuCmd != nil {
			cmds = append(cmds, menuCmd)
		}
		if idx := a.menu.Index(); idx >= 0 && idx < len(panelOrder) {
			a.active = panelOrder[idx]
		}
	} else if a.active == panelLog {
		var viewCmd tea.Cmd
		a.logView, viewCmd = a.logView.Update(msg)
		if viewCmd != nil {
			cmds = append(cmds, viewCmd)
		}
	}
	return a, tea.Batch(cmds...)
}

// handlePanelKey applies a key to the focused panel and reports whether it
// was consumed.
func (a *App) handlePanelKey(key string) bool {
	switch key {
	case "up", "k":
		if a.active == panelLog {
			return false
		}
		a.moveSelection(-1)
		return true
	case "down", "j":
		if a.active == panelLog {
			return false
		}
		a.moveSelection(1)
		return true
	}

	switch a.active {
	case panelContracts:
		return a.handleContractKey(key)
	case panelFleet:
		return a.handleFleetKey(key)
	case panelShipyards:
		return a.handleShipyardKey(key)
	case panelLog:
		if key == "c" {
			a.store.ClearLog()
			a.statusMsg = "Log cleared"
			a.applySnapshot(a.store.Snapshot())
			return true
		}
	}
	return false
}

func (a *App) handleContractKey(key string) bool {
	if key != "a" {
		return false
	}
	contract, ok := a.selectedContract()
	if !ok {
		return true
	}
	if contract.Accepted {
		a.statusMsg = fmt.Sprintf("Contract %s already accepted", contract.ID)
		return true
	}
	a.submit(engine.AcceptContract(contract.ID), fmt.Sprintf("Accepting contract %s...", contract.ID))
	return true
}

func (a *App) handleFleetKey(key string) bool {
	rec, ok := a.selectedShip()
	if !ok {
		return false
	}
	symbol := rec.Ship.Symbol
	switch key {
	case "[", "]":
		if !canChooseDestination(rec) {
			a.statusMsg = fmt.Sprintf("%s is in transit", symbol)
			return true
		}
		step := 1
		if key == "[" {
			step = -1
		}
		next := cycleDestination(rec, a.snap.Waypoints, step)
		if next != "" {
			a.store.SetShipDestination(symbol, next)
			a.applySnapshot(a.store.Snapshot())
		}
		return true
	case "n":
		if !canNavigate(rec) {
			a.statusMsg = fmt.Sprintf("Pick a destination other than %s first", rec.Ship.Nav.WaypointSymbol)
			return true
		}
		dest := effectiveDestination(rec)
		a.submit(engine.Navigate(symbol, dest), fmt.Sprintf("Navigating %s to %s...", symbol, dest))
		return true
	case "d":
		if canDock(rec) {
			a.submit(engine.Dock(symbol), fmt.Sprintf("Docking %s...", symbol))
		}
		return true
	case "o":
		if canOrbit(rec) {
			a.submit(engine.Orbit(symbol), fmt.Sprintf("Undocking %s...", symbol))
		}
		return true
	case "x":
		if canExtract(rec) {
			a.submit(engine.Extract(symbol), fmt.Sprintf("Extracting with %s...", symbol))
		}
		return true
	case "v":
		if action, ok := deliveryFor(rec, a.snap.Contracts); ok {
			a.submit(action, fmt.Sprintf("Delivering %d %s...", action.Units, action.TradeSymbol))
		} else {
			a.statusMsg = fmt.Sprintf("%s has nothing to deliver", symbol)
		}
		return true
	}
	return false
}

func (a *App) handleShipyardKey(key string) bool {
	switch key {
	case "[", "]":
		step := 1
		if key == "[" {
			step = -1
		}
		a.store.SetSelectedShipyard(cycleShipyard(a.snap, step))
		a.selection[panelShipyards] = 0
		a.savePreferences()
		a.applySnapshot(a.store.Snapshot())
		return true
	case "p":
		listings := filteredListings(a.snap)
		idx := a.selection[panelShipyards]
		if idx < 0 || idx >= len(listings) {
			return true
		}
		listing := listings[idx]
		a.submit(engine.PurchaseShip(listing.Ship.Type, listing.Waypoint),
			fmt.Sprintf("Purchasing %s at %s...", listing.Ship.Type, listing.Waypoint))
		return true
	}
	return false
}

func (a *App) beginLabelEdit() (tea.Model, tea.Cmd) {
	a.editingLabel = true
	a.labelInput.SetValue(a.snap.AgentLabel)
	a.labelInput.CursorEnd()
	a.statusMsg = "Enter → save label    Esc → cancel"
	return a, a.labelInput.Focus()
}

func (a *App) updateLabelEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		a.editingLabel = false
		a.labelInput.Blur()
		a.statusMsg = ""
		return a, nil
	case "enter":
		a.editingLabel = false
		a.labelInput.Blur()
		a.store.SetAgentLabel(strings.TrimSpace(a.labelInput.Value()))
		a.savePreferences()
		a.applySnapshot(a.store.Snapshot())
		a.statusMsg = "Label saved"
		return a, nil
	}
	var cmd tea.Cmd
	a.labelInput, cmd = a.labelInput.Update(msg)
	return a, cmd
}

func (a *App) submit(action engine.Action, status string) {
	if a.actions == nil {
		return
	}
	if err := a.actions.Submit(action); err != nil {
		a.store.AppendWarning(fmt.Sprintf("Action %s not queued: %v", action.Kind, err))
		a.logger.Warn("submit failed", zap.Stringer("action", action.Kind), zap.Error(err))
		a.statusMsg = "Action not queued, see log"
		return
	}
	a.statusMsg = status
}

func (a *App) savePreferences() {
	if a.prefsPath == "" {
		return
	}
	if err := state.SavePreferences(a.prefsPath, a.store.Preferences()); err != nil {
		a.logger.Warn("save preferences failed", zap.String("path", a.prefsPath), zap.Error(err))
		a.statusMsg = "Could not save preferences"
	}
}

func (a *App) applySnapshot(snap state.Snapshot) {
	atBottom := a.logView.AtBottom() || a.snap.Version == 0
	a.snap = snap
	for _, p := range panelOrder {
		a.clampSelection(p)
	}
	a.logView.SetContent(strings.Join(snap.Log, "\n"))
	if atBottom {
		a.logView.GotoBottom()
	}
}

func (a *App) moveSelection(delta int) {
	a.selection[a.active] += delta
	a.clampSelection(a.active)
}

func (a *App) clampSelection(p panel) {
	n := a.itemCount(p)
	idx := a.selection[p]
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	a.selection[p] = idx
}

func (a *App) itemCount(p panel) int {
	switch p {
	case panelContracts:
		return len(a.snap.Contracts)
	case panelFleet:
		return len(a.snap.Ships)
	case panelWaypoints:
		return len(a.snap.Waypoints)
	case panelShipyards:
		return len(filteredListings(a.snap))
	default:
		return 0
	}
}

func (a *App) selectedShip() (state.ShipRecord, bool) {
	idx := a.selection[panelFleet]
	if idx < 0 || idx >= len(a.snap.Ships) {
		return state.ShipRecord{}, false
	}
	return a.snap.Ships[idx], true
}

func (a *App) resize() {
	menuWidth, panelWidth := a.columnWidths()
	a.menu.SetSize(max(20, menuWidth-4), max(10, a.height-logPanelLines-10))
	a.logView.Width = max(20, panelWidth-4)
	a.logView.Height = max(5, a.height-logPanelLines-12)
}

func (a *App) fetchSnapshot() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: a.store.Snapshot()}
	}
}

func (a *App) scheduleRefresh() tea.Cmd {
	return tea.Tick(a.refreshInterval, func(time.Time) tea.Msg {
		return snapshotMsg{snap: a.store.Snapshot()}
	})
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
