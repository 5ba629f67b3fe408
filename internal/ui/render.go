// Package ui renders a finalized ClusterReport as styled terminal
// tables. It only formats: every number arrives already converted to
// the display unit and rounded.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/kubesize/kubesize/internal/domain"
	"github.com/kubesize/kubesize/internal/ui/styles"
	"github.com/kubesize/kubesize/internal/ui/widgets"
)

// FmtCPU renders millicores the way operators read them: cores above
// 1000m, millicores below, "-" for zero (no declared amount).
func FmtCPU(millicores float64) string {
	if millicores == 0 {
		return "-"
	}
	if millicores >= 1000 {
		return fmt.Sprintf("%.2f c", millicores/1000)
	}
	return fmt.Sprintf("%.0f m", millicores)
}

// FmtMem renders an already-unit-converted memory value.
func FmtMem(v float64, unitName string) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f %s", v, unitName)
}

func staticTable(cols []table.Column, rows []table.Row) string {
	t := table.New()
	t.SetColumns(cols)
	t.SetRows(rows)
	t.SetHeight(len(rows) + 1)
	return t.View()
}

// Namespaces renders the per-namespace report: the rows table, the
// cluster summary box, and the warnings section.
func Namespaces(r *domain.ClusterReport, unitName string, showTop bool) string {
	cols := []table.Column{
		{Title: "NAMESPACE", Width: 34},
		{Title: "PODS", Width: 7},
		{Title: "CPU REQ", Width: 10},
		{Title: "CPU LIM", Width: 10},
		{Title: "MEM REQ", Width: 12},
		{Title: "MEM LIM", Width: 12},
	}
	if showTop {
		cols = append(cols,
			table.Column{Title: "CPU ACTUAL", Width: 11},
			table.Column{Title: "MEM ACTUAL", Width: 12},
		)
	}

	rows := make([]table.Row, 0, len(r.Namespaces)+1)
	for _, ns := range r.Namespaces {
		rows = append(rows, namespaceRow(ns, unitName, showTop))
	}
	rows = append(rows, namespaceRow(r.GrandTotal, unitName, showTop))

	var b strings.Builder
	b.WriteString(staticTable(cols, rows))
	b.WriteString("\n\n")
	b.WriteString(summaryBox(r, unitName))
	b.WriteString(warnings(r))
	return b.String()
}

func namespaceRow(ns domain.NamespaceTotals, unitName string, showTop bool) table.Row {
	if ns.Err != "" {
		row := table.Row{ns.Namespace, "ERR", "-", "-", "-", "-"}
		if showTop {
			row = append(row, "-", "-")
		}
		return row
	}
	pods := fmt.Sprintf("%d", ns.Pods)
	if ns.PodsWithoutRequests > 0 {
		pods += " (*)"
	}
	row := table.Row{
		ns.Namespace,
		pods,
		FmtCPU(ns.CPURequestM),
		FmtCPU(ns.CPULimitM),
		FmtMem(ns.MemRequestMiB, unitName),
		FmtMem(ns.MemLimitMiB, unitName),
	}
	if showTop {
		if ns.Usage != nil {
			row = append(row, FmtCPU(ns.Usage.CPUm), FmtMem(ns.Usage.MemMiB, unitName))
		} else {
			row = append(row, "N/A", "N/A")
		}
	}
	return row
}

func summaryBox(r *domain.ClusterReport, unitName string) string {
	g := r.GrandTotal
	lines := []string{
		styles.Title.Render("CLUSTER SUMMARY"),
		fmt.Sprintf("Running pods      : %d", g.Pods),
		fmt.Sprintf("CPU requests      : %s", FmtCPU(g.CPURequestM)),
		fmt.Sprintf("CPU limits        : %s", FmtCPU(g.CPULimitM)),
		fmt.Sprintf("MEM requests      : %s", FmtMem(g.MemRequestMiB, unitName)),
		fmt.Sprintf("MEM limits        : %s", FmtMem(g.MemLimitMiB, unitName)),
	}
	if g.Usage != nil {
		lines = append(lines,
			fmt.Sprintf("CPU actual (top)  : %s", FmtCPU(g.Usage.CPUm)),
			fmt.Sprintf("MEM actual (top)  : %s", FmtMem(g.Usage.MemMiB, unitName)),
		)
	}
	if g.PodsWithoutRequests > 0 {
		lines = append(lines, styles.Warn.Render(
			fmt.Sprintf("(*) %d pods without requests; sums are underestimated", g.PodsWithoutRequests)))
	}
	return styles.Box.Render(strings.Join(lines, "\n")) + "\n"
}

// Nodes renders the node capacity report with a utilization gauge per
// node. Negative free reserve is highlighted, not hidden.
func Nodes(r *domain.ClusterReport, unitName string) string {
	cols := []table.Column{
		{Title: "NODE", Width: 30},
		{Title: "CAPACITY", Width: 11},
		{Title: "ALLOCATABLE", Width: 12},
		{Title: "COMMITTED", Width: 11},
		{Title: "FREE RESERVE", Width: 13},
		{Title: "USE%", Width: 7},
		{Title: "", Width: 16},
	}
	rows := make([]table.Row, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		free := fmt.Sprintf("%.2f", n.FreeReserveMiB)
		if n.FreeReserveMiB < 0 {
			free = styles.Danger.Render(free)
		}
		rows = append(rows, table.Row{
			n.Name,
			fmt.Sprintf("%.2f", n.CapacityMiB),
			fmt.Sprintf("%.2f", n.AllocatableMiB),
			fmt.Sprintf("%.2f", n.CommittedMiB),
			free,
			fmt.Sprintf("%.1f%%", n.UtilizationPct),
			widgets.Bar(n.UtilizationPct/100, 15),
		})
	}

	var b strings.Builder
	b.WriteString(styles.Header.Render(fmt.Sprintf("Node memory accounting (%s)", unitName)))
	b.WriteString("\n")
	b.WriteString(staticTable(cols, rows))
	b.WriteString("\n")
	b.WriteString(warnings(r))
	return b.String()
}

// Workloads renders the per-workload report for one namespace.
func Workloads(r *domain.ClusterReport, unitName string) string {
	cols := []table.Column{
		{Title: "KIND", Width: 17},
		{Title: "NAME", Width: 30},
		{Title: "REPLICAS", Width: 9},
		{Title: "CPU REQ/POD", Width: 12},
		{Title: "MEM REQ/POD", Width: 12},
		{Title: "CPU REQ TOTAL", Width: 14},
		{Title: "MEM REQ TOTAL", Width: 14},
		{Title: "CPU LIM TOTAL", Width: 14},
		{Title: "MEM LIM TOTAL", Width: 14},
	}
	rows := make([]table.Row, 0, len(r.Workloads)+1)
	for _, w := range r.Workloads {
		if w.Skipped {
			rows = append(rows, table.Row{
				w.Kind, w.Name, "-", "skipped", "-", "-", "-", "-", "-",
			})
			continue
		}
		rows = append(rows, table.Row{
			w.Kind,
			w.Name,
			fmt.Sprintf("%d", w.Replicas),
			FmtCPU(w.PerReplica.CPURequestM),
			FmtMem(w.PerReplica.MemRequestMiB, unitName),
			FmtCPU(w.Total.CPURequestM),
			FmtMem(w.Total.MemRequestMiB, unitName),
			FmtCPU(w.Total.CPULimitM),
			FmtMem(w.Total.MemLimitMiB, unitName),
		})
	}
	g := r.GrandTotal
	rows = append(rows, table.Row{
		"", "TOTAL",
		fmt.Sprintf("%d", g.Pods),
		"", "",
		FmtCPU(g.CPURequestM),
		FmtMem(g.MemRequestMiB, unitName),
		FmtCPU(g.CPULimitM),
		FmtMem(g.MemLimitMiB, unitName),
	})

	var b strings.Builder
	b.WriteString(staticTable(cols, rows))
	b.WriteString("\n")
	b.WriteString(warnings(r))
	return b.String()
}

func warnings(r *domain.ClusterReport) string {
	if len(r.Warnings) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(styles.Warn.Render(fmt.Sprintf("WARNINGS (%d):", len(r.Warnings))))
	b.WriteString("\n")
	for _, w := range r.Warnings {
		b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render("- " + w))
		b.WriteString("\n")
	}
	return b.String()
}
