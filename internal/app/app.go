// Package app is an interactive browser over one finished report
// snapshot: tab between the namespace and node views, cycle the sort
// key, quit. It never refetches; the report is a point-in-time result.
package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kubesize/kubesize/internal/accounting"
	"github.com/kubesize/kubesize/internal/domain"
	"github.com/kubesize/kubesize/internal/ui"
	"github.com/kubesize/kubesize/internal/ui/styles"
	"github.com/kubesize/kubesize/internal/ui/widgets"
)

type View int

const (
	ViewNamespaces View = iota
	ViewNodes
)

type Model struct {
	namespaces *domain.ClusterReport
	nodes      *domain.ClusterReport
	unitName   string

	view   View
	sortBy string
	table  table.Model

	width, height int
}

func New(namespaces, nodes *domain.ClusterReport, unitName, sortBy string) Model {
	t := table.New()
	t.SetHeight(20)
	t.SetWidth(120)

	m := Model{
		namespaces: namespaces,
		nodes:      nodes,
		unitName:   unitName,
		view:       ViewNamespaces,
		sortBy:     sortBy,
		table:      t,
	}
	m.rebuildTable()
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		headerH := lipgloss.Height(styles.Header.Render("x"))
		footerH := lipgloss.Height(styles.Footer.Render("x"))
		base := m.height - headerH - footerH - 2
		if base < 10 {
			base = 10
		}
		m.table.SetHeight(base)
		m.table.SetWidth(m.width - 4)
		m.rebuildTable()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit

		case "tab":
			if m.view == ViewNamespaces {
				m.view = ViewNodes
			} else {
				m.view = ViewNamespaces
			}
			m.table.SetCursor(0)
			m.rebuildTable()
			return m, nil

		case "s":
			m.sortBy = nextSortKey(m.sortBy)
			accounting.SortNamespaces(m.namespaces.Namespaces, m.sortBy)
			m.rebuildTable()
			return m, nil

		case "up", "k", "down", "j", "pgup", "pgdn", "home", "end":
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func nextSortKey(cur string) string {
	for i, k := range accounting.SortKeys {
		if k == cur {
			return accounting.SortKeys[(i+1)%len(accounting.SortKeys)]
		}
	}
	return accounting.SortKeys[0]
}

func (m *Model) rebuildTable() {
	switch m.view {
	case ViewNamespaces:
		cols := []table.Column{
			{Title: "NAMESPACE", Width: 32},
			{Title: "PODS", Width: 7},
			{Title: "CPU REQ", Width: 10},
			{Title: "CPU LIM", Width: 10},
			{Title: "MEM REQ", Width: 12},
			{Title: "MEM LIM", Width: 12},
			{Title: "CPU ACT", Width: 10},
			{Title: "MEM ACT", Width: 12},
		}
		var rows []table.Row
		for _, ns := range m.namespaces.Namespaces {
			if ns.Err != "" {
				rows = append(rows, table.Row{ns.Namespace, "ERR", "-", "-", "-", "-", "-", "-"})
				continue
			}
			pods := fmt.Sprintf("%d", ns.Pods)
			if ns.PodsWithoutRequests > 0 {
				pods += " (*)"
			}
			actCPU, actMem := "N/A", "N/A"
			if ns.Usage != nil {
				actCPU = ui.FmtCPU(ns.Usage.CPUm)
				actMem = ui.FmtMem(ns.Usage.MemMiB, m.unitName)
			}
			rows = append(rows, table.Row{
				ns.Namespace,
				pods,
				ui.FmtCPU(ns.CPURequestM),
				ui.FmtCPU(ns.CPULimitM),
				ui.FmtMem(ns.MemRequestMiB, m.unitName),
				ui.FmtMem(ns.MemLimitMiB, m.unitName),
				actCPU,
				actMem,
			})
		}
		m.table.SetColumns(cols)
		m.table.SetRows(rows)
		m.table.Focus()

	case ViewNodes:
		cols := []table.Column{
			{Title: "NODE", Width: 30},
			{Title: "ALLOCATABLE", Width: 12},
			{Title: "COMMITTED", Width: 11},
			{Title: "FREE RESERVE", Width: 13},
			{Title: "USE%", Width: 7},
			{Title: "", Width: 18},
		}
		var rows []table.Row
		for _, n := range m.nodes.Nodes {
			rows = append(rows, table.Row{
				n.Name,
				fmt.Sprintf("%.2f", n.AllocatableMiB),
				fmt.Sprintf("%.2f", n.CommittedMiB),
				fmt.Sprintf("%.2f", n.FreeReserveMiB),
				fmt.Sprintf("%.1f%%", n.UtilizationPct),
				widgets.Bar(n.UtilizationPct/100, 17),
			})
		}
		m.table.SetColumns(cols)
		m.table.SetRows(rows)
		m.table.Focus()
	}
}

func (m Model) View() string {
	viewName := map[View]string{ViewNamespaces: "Namespaces", ViewNodes: "Nodes"}[m.view]
	head := styles.Header.Render(fmt.Sprintf(
		"kubesize  │ view: %s  sort: %s  unit: %s  (snapshot, not live)",
		viewName, m.sortBy, m.unitName,
	))
	body := lipgloss.NewStyle().Padding(0, 1).Render(m.table.View())
	footer := styles.Footer.Render("↑/↓ move • [Tab] switch view • [s] sort • [q] quit")
	return lipgloss.JoinVertical(lipgloss.Left, head, body, footer)
}
