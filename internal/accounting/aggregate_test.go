package accounting

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kubesize/kubesize/internal/domain"
)

func runningPod(name string, containers ...domain.ContainerObject) domain.PodObject {
	return domain.PodObject{
		Name: name, Namespace: "payments", Phase: "Running",
		Containers: containers,
	}
}

func TestAggregatePods(t *testing.T) {
	pods := []domain.PodObject{
		runningPod("a",
			container("main", "500m", "256Mi", "", ""),
			container("side", "0.5", "1Gi", "", ""),
		),
		runningPod("b",
			container("only-limits", "", "", "1", "2Gi"),
		),
	}
	totals := AggregatePods("payments", pods)

	assert.Equal(t, 2, totals.Pods)
	assert.Equal(t, 1000.0, totals.CPURequestM)
	assert.Equal(t, 1280.0, totals.MemRequestMiB)
	assert.Equal(t, 1000.0, totals.CPULimitM)
	assert.Equal(t, 2048.0, totals.MemLimitMiB)
	// Pod b has limits but no requests.
	assert.Equal(t, 1, totals.PodsWithoutRequests)
}

func TestAggregatePodsIdempotent(t *testing.T) {
	pods := []domain.PodObject{
		runningPod("a", container("main", "250m", "512Mi", "500m", "1Gi")),
		runningPod("b", container("main", "750m", "1536Mi", "", "")),
	}
	first := AggregatePods("payments", pods)
	second := AggregatePods("payments", pods)
	assert.Equal(t, first, second)
}

func TestGrandTotalSkipsErroredRows(t *testing.T) {
	rows := []domain.NamespaceTotals{
		{Namespace: "a", Pods: 2, CPURequestM: 1000, MemRequestMiB: 1024},
		ErrorTotals("forbidden", errors.New("pods is forbidden")),
		{Namespace: "c", Pods: 1, CPURequestM: 500, MemRequestMiB: 512},
	}
	g := GrandTotal(rows)
	assert.Equal(t, 3, g.Pods)
	assert.Equal(t, 1500.0, g.CPURequestM)
	assert.Equal(t, 1536.0, g.MemRequestMiB)

	// The errored row itself keeps zero numerics and stays listed.
	assert.Equal(t, "forbidden", rows[1].Namespace)
	assert.NotEmpty(t, rows[1].Err)
	assert.Zero(t, rows[1].Pods)
	assert.Zero(t, rows[1].CPURequestM)
}

func TestGrandTotalUsageOnlyWhenAvailable(t *testing.T) {
	rows := []domain.NamespaceTotals{
		{Namespace: "a", Usage: &domain.ActualUsage{CPUm: 100, MemMiB: 200}},
		{Namespace: "b"}, // snapshot unavailable
	}
	g := GrandTotal(rows)
	if assert.NotNil(t, g.Usage) {
		assert.Equal(t, 100.0, g.Usage.CPUm)
		assert.Equal(t, 200.0, g.Usage.MemMiB)
	}

	none := GrandTotal([]domain.NamespaceTotals{{Namespace: "a"}, {Namespace: "b"}})
	assert.Nil(t, none.Usage)
}

func TestSortNamespaces(t *testing.T) {
	rows := []domain.NamespaceTotals{
		{Namespace: "small", CPURequestM: 100, Pods: 9},
		{Namespace: "big", CPURequestM: 900, Pods: 1},
		{Namespace: "mid", CPURequestM: 500, Pods: 5},
	}

	SortNamespaces(rows, SortByCPURequest)
	assert.Equal(t, []string{"big", "mid", "small"}, names(rows))

	SortNamespaces(rows, SortByPods)
	assert.Equal(t, []string{"small", "mid", "big"}, names(rows))

	SortNamespaces(rows, SortByName)
	assert.Equal(t, []string{"big", "mid", "small"}, names(rows))
}

func TestSortNamespacesTieBreaksByName(t *testing.T) {
	rows := []domain.NamespaceTotals{
		{Namespace: "zeta", CPURequestM: 100},
		{Namespace: "alpha", CPURequestM: 100},
	}
	SortNamespaces(rows, SortByCPURequest)
	assert.Equal(t, []string{"alpha", "zeta"}, names(rows))
}

func names(rows []domain.NamespaceTotals) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Namespace
	}
	return out
}
