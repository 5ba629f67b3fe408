package accounting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kubesize/kubesize/internal/domain"
)

func TestUnitDivisor(t *testing.T) {
	div, name := UnitDivisor("MiB")
	assert.Equal(t, 1.0, div)
	assert.Equal(t, UnitMiB, name)

	div, name = UnitDivisor("GiB")
	assert.Equal(t, 1024.0, div)
	assert.Equal(t, UnitGiB, name)

	div, name = UnitDivisor("parsecs")
	assert.Equal(t, 1024.0, div)
	assert.Equal(t, UnitGiB, name)
}

func TestValidUnit(t *testing.T) {
	for _, u := range []string{"MiB", "Mi", "mib", "GiB", "Gi", "gib"} {
		assert.True(t, ValidUnit(u), "unit %q", u)
	}
	assert.False(t, ValidUnit("parsecs"))
	assert.False(t, ValidUnit(""))
}

func TestFinalizeConvertsAndRounds(t *testing.T) {
	r := &domain.ClusterReport{
		Namespaces: []domain.NamespaceTotals{
			{
				Namespace: "a", CPURequestM: 333.3333,
				MemRequestMiB: 1536,
				Usage:         &domain.ActualUsage{CPUm: 10.555, MemMiB: 512},
			},
		},
		GrandTotal: domain.NamespaceTotals{MemRequestMiB: 1536},
		Nodes: []domain.NodeAccounting{
			{Name: "w1", AllocatableMiB: 16384, CommittedMiB: 4096, FreeReserveMiB: 12288, UtilizationPct: 25},
		},
	}
	Finalize(r, 1024)

	ns := r.Namespaces[0]
	assert.Equal(t, 333.33, ns.CPURequestM)
	assert.Equal(t, 1.5, ns.MemRequestMiB)
	assert.Equal(t, 10.56, ns.Usage.CPUm)
	assert.Equal(t, 0.5, ns.Usage.MemMiB)
	assert.Equal(t, 1.5, r.GrandTotal.MemRequestMiB)

	n := r.Nodes[0]
	assert.Equal(t, 16.0, n.AllocatableMiB)
	assert.Equal(t, 4.0, n.CommittedMiB)
	assert.Equal(t, 12.0, n.FreeReserveMiB)
	assert.Equal(t, 25.0, n.UtilizationPct)
}
