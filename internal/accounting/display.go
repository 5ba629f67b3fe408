package accounting

import (
	"math"

	"github.com/kubesize/kubesize/internal/domain"
)

// Display units for memory columns. The divisor applies only when the
// report is finalized; aggregation always runs on full-precision MiB.
const (
	UnitMiB = "MiB"
	UnitGiB = "GiB"
)

// UnitDivisor maps a display unit to the MiB divisor (1 for MiB, 1024
// for GiB). Unknown units fall back to GiB, the planning default;
// config validation rejects them before a report run starts.
func UnitDivisor(unit string) (float64, string) {
	switch unit {
	case UnitMiB, "Mi", "mib":
		return 1, UnitMiB
	case UnitGiB, "Gi", "gib":
		return 1024, UnitGiB
	default:
		return 1024, UnitGiB
	}
}

// ValidUnit reports whether UnitDivisor recognizes the unit without
// falling back.
func ValidUnit(unit string) bool {
	switch unit {
	case UnitMiB, "Mi", "mib", UnitGiB, "Gi", "gib":
		return true
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Finalize converts a report's memory fields to the display unit and
// rounds every numeric field to two decimals. Call exactly once, after
// all aggregation is done.
func Finalize(r *domain.ClusterReport, memDivisor float64) {
	for i := range r.Namespaces {
		finalizeTotals(&r.Namespaces[i], memDivisor)
	}
	finalizeTotals(&r.GrandTotal, memDivisor)
	for i := range r.Nodes {
		n := &r.Nodes[i]
		n.CapacityMiB = round2(n.CapacityMiB / memDivisor)
		n.AllocatableMiB = round2(n.AllocatableMiB / memDivisor)
		n.CommittedMiB = round2(n.CommittedMiB / memDivisor)
		n.FreeReserveMiB = round2(n.FreeReserveMiB / memDivisor)
		n.UtilizationPct = round2(n.UtilizationPct)
	}
	for i := range r.Workloads {
		finalizeProfile(&r.Workloads[i].PerReplica, memDivisor)
		finalizeProfile(&r.Workloads[i].Total, memDivisor)
	}
}

func finalizeTotals(t *domain.NamespaceTotals, div float64) {
	t.CPURequestM = round2(t.CPURequestM)
	t.CPULimitM = round2(t.CPULimitM)
	t.MemRequestMiB = round2(t.MemRequestMiB / div)
	t.MemLimitMiB = round2(t.MemLimitMiB / div)
	if t.Usage != nil {
		t.Usage.CPUm = round2(t.Usage.CPUm)
		t.Usage.MemMiB = round2(t.Usage.MemMiB / div)
	}
}

func finalizeProfile(p *domain.PodResourceProfile, div float64) {
	p.CPURequestM = round2(p.CPURequestM)
	p.CPULimitM = round2(p.CPULimitM)
	p.MemRequestMiB = round2(p.MemRequestMiB / div)
	p.MemLimitMiB = round2(p.MemLimitMiB / div)
}
