// Package tui provides a Bubble Tea TUI for viewing prompt payloads.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/promptmark/internal/assembler"
	"github.com/fakeyudi/promptmark/internal/history"
	"github.com/fakeyudi/promptmark/internal/payload"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	// Active tab: bright, underlined
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	// Inactive tab: muted
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	// Separator between tabs
	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	// Section heading inside a tab
	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	// Key=value label
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	typeCurrentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	typeImportStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	typeRelatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	typeTestStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("135")).Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	// Selected row in the Items list
	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabItems
	tabDirectives
	tabHistory
	tabCount
)

var tabNames = [tabCount]string{
	"Summary", "Context Items", "Directives", "History",
}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	payload   *payload.PromptPayload
	filename  string
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
	// Items tab: cursor position and expanded set
	itemCursor    int
	expandedItems map[int]bool
}

// New creates a new TUI model for the given payload and source filename.
func New(p *payload.PromptPayload, filename string) Model {
	return Model{
		payload:       p,
		filename:      filepath.Base(filename),
		expandedItems: make(map[int]bool),
	}
}

func (m Model) items() []assembler.ContextItem {
	if m.payload.Context == nil {
		return nil
	}
	return m.payload.Context.Items
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3", "4":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "up", "k":
			if m.activeTab == tabItems && m.itemCursor > 0 {
				m.itemCursor--
				m.rebuildItemsViewport()
				return m, nil
			}
		case "down", "j":
			if m.activeTab == tabItems && m.itemCursor < len(m.items())-1 {
				m.itemCursor++
				m.rebuildItemsViewport()
				return m, nil
			}
		case "enter", " ":
			if m.activeTab == tabItems && len(m.items()) > 0 {
				if m.expandedItems[m.itemCursor] {
					delete(m.expandedItems, m.itemCursor)
				} else {
					m.expandedItems[m.itemCursor] = true
				}
				m.rebuildItemsViewport()
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  promptmark  " + m.filename)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-4 jump  q quit"
	if m.activeTab == tabItems {
		hint += "  ↑/↓ select  enter expand/collapse"
	}
	// show scroll % on the right
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(
		hint + strings.Repeat(" ", pad) + pct,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) rebuildItemsViewport() {
	m.viewports[tabItems].SetContent(m.renderTab(tabItems))
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabItems:
		return m.renderItems()
	case tabDirectives:
		return m.renderDirectives()
	case tabHistory:
		return m.renderHistory()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func bullet(text string) string {
	return bulletStyle.Render("  •") + "  " + text + "\n"
}

func (m *Model) renderSummary() string {
	var sb strings.Builder
	sb.WriteString(heading("Payload Summary"))

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-14s", label)) + "  " + value + "\n")
	}
	row("Workspace:", m.payload.Meta.Workspace)
	row("Created:", m.payload.Meta.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if m.payload.Intent != "" {
		row("Intent:", m.payload.Intent)
	}
	row("Budget:", fmt.Sprintf("%d tokens", m.payload.Meta.TokenBudget))
	if c := m.payload.Context; c != nil {
		row("Used:", fmt.Sprintf("%d tokens", c.TotalTokens))
		row("Files:", fmt.Sprintf("%d in workspace", c.Workspace.FileCount))
	}

	sb.WriteString("\n")
	sb.WriteString(heading("Counts"))
	row("Items:", fmt.Sprintf("%d", len(m.items())))
	row("Directives:", fmt.Sprintf("%d", len(m.payload.Directives)))
	if c := m.payload.Context; c != nil {
		row("Turns:", fmt.Sprintf("%d", len(c.ConversationHistory)))
	}

	if c := m.payload.Context; c != nil && len(c.Warnings) > 0 {
		sb.WriteString("\n")
		sb.WriteString(heading("Warnings"))
		for _, w := range c.Warnings {
			sb.WriteString(bullet(w))
		}
	}
	return sb.String()
}

func typeBadge(t assembler.ItemType) string {
	label := fmt.Sprintf("%-8s", strings.ToUpper(string(t)))
	switch t {
	case assembler.TypeCurrent:
		return typeCurrentStyle.Render(label)
	case assembler.TypeImport, assembler.TypeExport:
		return typeImportStyle.Render(label)
	case assembler.TypeTest:
		return typeTestStyle.Render(label)
	default:
		return typeRelatedStyle.Render(label)
	}
}

func (m *Model) renderItems() string {
	items := m.items()
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Context Items (%d)", len(items))))
	if len(items) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for i, item := range items {
		expanded := m.expandedItems[i]
		toggle := dimStyle.Render("  ▶ ")
		if expanded {
			toggle = dimStyle.Render("  ▼ ")
		}

		mark := ""
		if item.Truncated {
			mark = dimStyle.Render(" (truncated)")
		}
		relPath := stripRoot(item.File, m.payload.Meta.Workspace)
		row := fmt.Sprintf("%s%s %.2f %4dtok  %s%s",
			toggle, typeBadge(item.Type), item.Importance, item.Tokens(), relPath, mark)
		if i == m.itemCursor {
			// Pad to width so the highlight fills the line
			row = selectedRowStyle.Width(m.width - 2).Render(row)
		}
		sb.WriteString(row + "\n")

		if expanded {
			sb.WriteString(renderContent(item.Content, m.width))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderContent shows an item's code with a dim border.
func renderContent(content string, width int) string {
	var sb strings.Builder
	border := dimStyle.Render("  " + strings.Repeat("─", width-4))
	sb.WriteString(border + "\n")
	for _, line := range strings.Split(content, "\n") {
		sb.WriteString(dimStyle.Render("  "+line) + "\n")
	}
	sb.WriteString(border + "\n")
	return sb.String()
}

func (m *Model) renderDirectives() string {
	directives := m.payload.Directives
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Directives (%d)", len(directives))))
	if len(directives) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, d := range directives {
		scope := typeCurrentStyle.Render("[global]")
		if !d.IsGlobal() {
			scope = typeImportStyle.Render(fmt.Sprintf("[%d-%d]", d.Range.Start.Line+1, d.Range.End.Line+1))
		}
		relPath := stripRoot(d.File, m.payload.Meta.Workspace)
		sb.WriteString(fmt.Sprintf("  %s  %s\n", dimStyle.Render(relPath), scope))
		sb.WriteString("    " + d.Text + "\n\n")
	}
	return sb.String()
}

func (m *Model) renderHistory() string {
	var turns []history.Turn
	if c := m.payload.Context; c != nil {
		turns = c.ConversationHistory
	}
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Conversation History (%d)", len(turns))))
	if len(turns) == 0 {
		sb.WriteString(dimStyle.Render("  (no prior turns)") + "\n")
		return sb.String()
	}
	for _, turn := range turns {
		ts := timeStyle.Render(turn.Timestamp.Format("15:04:05"))
		sb.WriteString(fmt.Sprintf("  %s  %s\n", ts, turn.Request))
		if turn.Response != "" {
			sb.WriteString(dimStyle.Render("    → "+firstLine(turn.Response)) + "\n")
		}
		for _, f := range turn.FilesModified {
			sb.WriteString(bullet(stripRoot(f, m.payload.Meta.Workspace)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// stripRoot removes the workspace root prefix from path, returning a relative
// path. If path doesn't start with root, it's returned unchanged.
func stripRoot(path, root string) string {
	if root == "" {
		return path
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if strings.HasPrefix(path, prefix) {
		return path[len(prefix):]
	}
	return path
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Run starts the TUI for the given payload.
func Run(p *payload.PromptPayload, filename string) error {
	prog := tea.NewProgram(New(p, filename), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
