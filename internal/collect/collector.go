// Package collect runs the report flows: resolve the target namespaces,
// fetch raw objects through the ClusterDataSource, and fold them into a
// ClusterReport. A fetch failure for one namespace becomes an errored
// row; only failing to reach the cluster at all aborts a run.
package collect

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/kubesize/kubesize/internal/accounting"
	"github.com/kubesize/kubesize/internal/domain"
	"github.com/kubesize/kubesize/internal/quantity"
)

// SystemPrefixes are the namespaces --skip-system hides: the
// orchestration platform's own namespaces plus the built-in defaults.
var SystemPrefixes = []string{
	"openshift-", "kube-", "default", "kube-public", "kube-node-lease",
}

// Options tune one collection run.
type Options struct {
	// Namespace restricts the run to one namespace; empty means all.
	Namespace  string
	SkipSystem bool
	Exclude    []string
	// NoTop skips the live-usage snapshot entirely.
	NoTop   bool
	SortKey string
	// Workers > 1 collects namespaces concurrently. Ordering of the
	// final report does not depend on arrival order either way.
	Workers int
	// Progress receives per-namespace lines during sequential
	// collection; nil silences it.
	Progress io.Writer
}

type Collector struct {
	src  domain.ClusterDataSource
	opts Options
}

func New(src domain.ClusterDataSource, opts Options) *Collector {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.SortKey == "" {
		opts.SortKey = accounting.SortByCPURequest
	}
	return &Collector{src: src, opts: opts}
}

// resolveNamespaces lists and filters the namespaces to analyze. A
// failure here is fatal to the run: there is no partial result to
// produce without a namespace list.
func (c *Collector) resolveNamespaces(ctx context.Context) ([]string, error) {
	if c.opts.Namespace != "" {
		return []string{c.opts.Namespace}, nil
	}
	all, err := c.src.ListNamespaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing namespaces: %w", err)
	}
	excluded := make(map[string]bool, len(c.opts.Exclude))
	for _, ns := range c.opts.Exclude {
		excluded[ns] = true
	}
	out := make([]string, 0, len(all))
	for _, ns := range all {
		if excluded[ns] {
			continue
		}
		if c.opts.SkipSystem && hasSystemPrefix(ns) {
			continue
		}
		out = append(out, ns)
	}
	sort.Strings(out)
	return out, nil
}

func hasSystemPrefix(ns string) bool {
	for _, p := range SystemPrefixes {
		if strings.HasPrefix(ns, p) {
			return true
		}
	}
	return false
}

// collectNamespace produces the row for one namespace. Fetch errors are
// absorbed into the row; the error return is reserved for context
// cancellation.
func (c *Collector) collectNamespace(ctx context.Context, ns string) domain.NamespaceTotals {
	pods, err := c.src.ListPods(ctx, ns, "Running")
	if err != nil {
		klog.ErrorS(err, "listing pods failed", "namespace", ns)
		return accounting.ErrorTotals(ns, err)
	}
	row := accounting.AggregatePods(ns, pods)
	if !c.opts.NoTop {
		lines, err := c.src.TopPods(ctx, ns)
		if err != nil {
			// Metrics being absent degrades to "usage unavailable".
			klog.V(2).InfoS("usage snapshot unavailable", "namespace", ns, "err", err)
		} else {
			accounting.MergeUsage(&row, lines)
		}
	}
	return row
}

// warnParseFailures appends a warning when quantity parsing failed
// during this run. before is the failure count snapshotted at run start.
func warnParseFailures(report *domain.ClusterReport, before int64) {
	if n := quantity.Failures() - before; n > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d unparseable resource quantities treated as 0", n))
	}
}

// Namespaces runs the per-namespace report across the resolved target
// set and assembles the final ordered report.
func (c *Collector) Namespaces(ctx context.Context) (*domain.ClusterReport, error) {
	parseFailures := quantity.Failures()
	targets, err := c.resolveNamespaces(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.NamespaceTotals, len(targets))
	if c.opts.Workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.opts.Workers)
		for i, ns := range targets {
			g.Go(func() error {
				// Each worker owns exactly its slot; the fold into the
				// grand total happens after all workers are done.
				rows[i] = c.collectNamespace(gctx, ns)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, ns := range targets {
			c.progressf("[%3d/%d] %s", i+1, len(targets), ns)
			rows[i] = c.collectNamespace(ctx, ns)
		}
	}

	accounting.SortNamespaces(rows, c.opts.SortKey)
	report := &domain.ClusterReport{
		Namespaces: rows,
		GrandTotal: accounting.GrandTotal(rows),
	}
	for _, r := range rows {
		if r.Err != "" {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("namespace %s: %s", r.Namespace, r.Err))
		}
	}
	if n := report.GrandTotal.PodsWithoutRequests; n > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d running pods declare no requests; request sums are underestimated", n))
	}
	warnParseFailures(report, parseFailures)
	return report, nil
}

// Nodes runs the node capacity report: allocatable vs committed memory
// with pods attributed to their scheduled node.
func (c *Collector) Nodes(ctx context.Context) (*domain.ClusterReport, error) {
	parseFailures := quantity.Failures()
	nodes, err := c.src.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	pods, err := c.src.ListPods(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("listing pods: %w", err)
	}
	rows, unmatched := accounting.AnalyzeNodes(nodes, pods)
	report := &domain.ClusterReport{Nodes: rows, UnmatchedPods: unmatched}
	if unmatched > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d pods assigned to nodes missing from the node list", unmatched))
	}
	warnParseFailures(report, parseFailures)
	return report, nil
}

// workloadKinds is the fetch set for the workload report. DaemonSets
// are fetched so they can be listed as skipped rather than vanish.
var workloadKinds = []string{
	domain.KindDeployment,
	domain.KindDeploymentConfig,
	domain.KindStatefulSet,
	domain.KindDaemonSet,
}

// Workloads runs the per-workload report for one namespace, with the
// grand total summed over non-skipped workload totals.
func (c *Collector) Workloads(ctx context.Context, namespace string) (*domain.ClusterReport, error) {
	parseFailures := quantity.Failures()
	objs, err := c.src.ListWorkloads(ctx, namespace, workloadKinds)
	if err != nil {
		return nil, fmt.Errorf("listing workloads in %s: %w", namespace, err)
	}
	rows := accounting.ExtractWorkloads(objs)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Kind != rows[j].Kind {
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].Name < rows[j].Name
	})

	report := &domain.ClusterReport{Workloads: rows}
	g := domain.NamespaceTotals{Namespace: namespace}
	for _, w := range rows {
		if w.Skipped {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s/%s skipped: %s", w.Kind, w.Name, w.SkipReason))
			continue
		}
		if w.Replicas <= 0 {
			continue
		}
		g.Pods += int(w.Replicas)
		g.CPURequestM += w.Total.CPURequestM
		g.CPULimitM += w.Total.CPULimitM
		g.MemRequestMiB += w.Total.MemRequestMiB
		g.MemLimitMiB += w.Total.MemLimitMiB
	}
	report.GrandTotal = g
	warnParseFailures(report, parseFailures)
	return report, nil
}

func (c *Collector) progressf(format string, args ...any) {
	if c.opts.Progress == nil {
		return
	}
	fmt.Fprintf(c.opts.Progress, format+"\n", args...)
}
