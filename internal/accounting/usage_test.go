package accounting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kubesize/kubesize/internal/domain"
)

func TestMergeUsage(t *testing.T) {
	row := domain.NamespaceTotals{Namespace: "payments"}
	MergeUsage(&row, []domain.TopPodLine{
		{PodName: "api", CPU: "120m", Memory: "310Mi"},
		{PodName: "worker", CPU: "80m", Memory: "1400Mi"},
	})
	if assert.NotNil(t, row.Usage) {
		assert.Equal(t, 200.0, row.Usage.CPUm)
		assert.Equal(t, 1710.0, row.Usage.MemMiB)
	}
}

func TestMergeUsageSkipsBlankLines(t *testing.T) {
	row := domain.NamespaceTotals{Namespace: "payments"}
	MergeUsage(&row, []domain.TopPodLine{
		{PodName: "broken"},
		{PodName: "ok", CPU: "50m", Memory: "100Mi"},
	})
	if assert.NotNil(t, row.Usage) {
		assert.Equal(t, 50.0, row.Usage.CPUm)
		assert.Equal(t, 100.0, row.Usage.MemMiB)
	}
}

func TestMergeUsageNoValidLinesMeansUnavailable(t *testing.T) {
	// Zero parseable lines is "unavailable", not "zero usage".
	row := domain.NamespaceTotals{Namespace: "payments"}
	MergeUsage(&row, []domain.TopPodLine{{PodName: "x"}, {PodName: "y"}})
	assert.Nil(t, row.Usage)

	empty := domain.NamespaceTotals{Namespace: "payments"}
	MergeUsage(&empty, nil)
	assert.Nil(t, empty.Usage)
}

func TestMergeUsageBareNumbersAreMiB(t *testing.T) {
	row := domain.NamespaceTotals{Namespace: "payments"}
	MergeUsage(&row, []domain.TopPodLine{
		{PodName: "a", CPU: "100m", Memory: "512"},
	})
	if assert.NotNil(t, row.Usage) {
		assert.Equal(t, 512.0, row.Usage.MemMiB)
	}
}
