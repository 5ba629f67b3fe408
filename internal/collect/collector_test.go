package collect

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubesize/kubesize/internal/domain"
	"github.com/kubesize/kubesize/internal/infrastructure/mock"
)

// garbagePodSource wraps the fixture source with one extra pod whose
// quantity strings do not parse.
type garbagePodSource struct {
	*mock.Repo
}

func (g garbagePodSource) ListPods(ctx context.Context, namespace, phase string) ([]domain.PodObject, error) {
	pods, err := g.Repo.ListPods(ctx, namespace, phase)
	if err != nil || (namespace != "" && namespace != "staging") {
		return pods, err
	}
	return append(pods, domain.PodObject{
		Name: "mangled", Namespace: "staging", Phase: "Running", NodeName: "ip-10-0-1-5",
		Containers: []domain.ContainerObject{
			{Name: "app", Resources: domain.ResourceStrings{CPURequest: "lots", MemRequest: "plenty"}},
		},
	}), nil
}

func TestNamespacesReport(t *testing.T) {
	src := mock.New()
	c := New(src, Options{SkipSystem: true, NoTop: true})

	report, err := c.Namespaces(context.Background())
	require.NoError(t, err)

	// skip-system drops default and kube-system.
	require.Len(t, report.Namespaces, 2)
	assert.Equal(t, "payments", report.Namespaces[0].Namespace) // cpu-req descending

	payments := report.Namespaces[0]
	assert.Equal(t, 2, payments.Pods)
	assert.Equal(t, 1250.0, payments.CPURequestM)
	assert.Equal(t, 3328.0, payments.MemRequestMiB)
	assert.Zero(t, payments.PodsWithoutRequests)

	staging := report.Namespaces[1]
	assert.Equal(t, 1, staging.Pods)
	assert.Equal(t, 1, staging.PodsWithoutRequests)

	g := report.GrandTotal
	assert.Equal(t, 3, g.Pods)
	assert.Equal(t, 1250.0, g.CPURequestM)
	// No-top run never carries usage.
	assert.Nil(t, g.Usage)
}

func TestNamespacesReportMergesUsage(t *testing.T) {
	src := mock.New()
	c := New(src, Options{SkipSystem: true})

	report, err := c.Namespaces(context.Background())
	require.NoError(t, err)

	payments := report.Namespaces[0]
	require.NotNil(t, payments.Usage)
	assert.Equal(t, 200.0, payments.Usage.CPUm)
	assert.Equal(t, 1710.0, payments.Usage.MemMiB)
}

func TestNamespacesReportMetricsAbsent(t *testing.T) {
	src := mock.New()
	src.NoMetrics = true
	c := New(src, Options{SkipSystem: true})

	report, err := c.Namespaces(context.Background())
	require.NoError(t, err)
	for _, ns := range report.Namespaces {
		assert.Nil(t, ns.Usage, "namespace %s", ns.Namespace)
	}
}

func TestNamespacesReportPartialFailure(t *testing.T) {
	src := mock.New()
	src.DenyNamespaces["staging"] = true
	c := New(src, Options{SkipSystem: true, NoTop: true})

	report, err := c.Namespaces(context.Background())
	require.NoError(t, err)

	var errored, ok int
	for _, ns := range report.Namespaces {
		if ns.Err != "" {
			errored++
			assert.Equal(t, "staging", ns.Namespace)
			assert.Zero(t, ns.Pods)
			assert.Zero(t, ns.CPURequestM)
		} else {
			ok++
		}
	}
	assert.Equal(t, 1, errored)
	assert.Equal(t, 1, ok)

	// Errored namespace stays out of the grand total but shows up in
	// the warnings section.
	assert.Equal(t, 2, report.GrandTotal.Pods)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "staging")
}

func TestNamespacesReportConcurrentMatchesSequential(t *testing.T) {
	seq, err := New(mock.New(), Options{NoTop: true}).Namespaces(context.Background())
	require.NoError(t, err)
	conc, err := New(mock.New(), Options{NoTop: true, Workers: 4}).Namespaces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seq, conc)
}

func TestNamespacesReportExclude(t *testing.T) {
	c := New(mock.New(), Options{NoTop: true, Exclude: []string{"payments", "staging"}})
	report, err := c.Namespaces(context.Background())
	require.NoError(t, err)
	for _, ns := range report.Namespaces {
		assert.NotEqual(t, "payments", ns.Namespace)
		assert.NotEqual(t, "staging", ns.Namespace)
	}
}

func TestNamespacesReportProgress(t *testing.T) {
	var buf strings.Builder
	c := New(mock.New(), Options{NoTop: true, Progress: &buf, Namespace: "payments"})
	_, err := c.Namespaces(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "payments")
}

func TestNamespacesReportWarnsOnUnparseableQuantities(t *testing.T) {
	src := garbagePodSource{Repo: mock.New()}
	c := New(src, Options{SkipSystem: true, NoTop: true})

	report, err := c.Namespaces(context.Background())
	require.NoError(t, err)

	var staging domain.NamespaceTotals
	for _, ns := range report.Namespaces {
		if ns.Namespace == "staging" {
			staging = ns
		}
	}
	// The mangled pod is counted but its garbage quantities resolve to 0.
	assert.Equal(t, 2, staging.Pods)
	assert.Zero(t, staging.CPURequestM)

	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "unparseable") {
			found = true
		}
	}
	assert.True(t, found, "expected an unparseable-quantities warning, got %v", report.Warnings)
}

func TestNodesReport(t *testing.T) {
	report, err := New(mock.New(), Options{}).Nodes(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Nodes, 2)

	// Sorted by name: ip-10-0-1-12 before ip-10-0-1-5.
	first := report.Nodes[0]
	assert.Equal(t, "ip-10-0-1-12", first.Name)
	assert.Equal(t, 2048.0, first.CommittedMiB) // worker only; finished pods excluded

	second := report.Nodes[1]
	assert.Equal(t, "ip-10-0-1-5", second.Name)
	// api (256Mi + 1Gi) + coredns 70Mi; cart requests nothing.
	assert.Equal(t, 1350.0, second.CommittedMiB)
	assert.Equal(t, 15*1024-1350.0, second.FreeReserveMiB)

	assert.Zero(t, report.UnmatchedPods)
	assert.Empty(t, report.Warnings)
}

func TestWorkloadsReport(t *testing.T) {
	report, err := New(mock.New(), Options{}).Workloads(context.Background(), "payments")
	require.NoError(t, err)
	require.Len(t, report.Workloads, 5)

	// DaemonSet listed as skipped, with a warning, out of the totals.
	ds := report.Workloads[0]
	assert.Equal(t, "DaemonSet", ds.Kind)
	assert.True(t, ds.Skipped)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "log-shipper")

	g := report.GrandTotal
	assert.Equal(t, 6, g.Pods)
	assert.Equal(t, 3750.0, g.CPURequestM)
	assert.Equal(t, 9472.0, g.MemRequestMiB)
}
