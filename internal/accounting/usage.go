package accounting

import (
	"k8s.io/klog/v2"

	"github.com/kubesize/kubesize/internal/domain"
	"github.com/kubesize/kubesize/internal/quantity"
)

// MergeUsage sums a live-usage snapshot into a namespace row. Lines
// that fail to parse are skipped, and a snapshot that yields zero valid
// lines leaves Usage nil: "unavailable" and "zero usage" must not be
// conflated. Top output expresses bare memory numbers in MiB, not bytes.
func MergeUsage(t *domain.NamespaceTotals, lines []domain.TopPodLine) {
	if len(lines) == 0 {
		return
	}
	var u domain.ActualUsage
	parsed := 0
	for _, ln := range lines {
		if ln.CPU == "" && ln.Memory == "" {
			continue
		}
		u.CPUm += quantity.ParseCPU(ln.CPU)
		u.MemMiB += quantity.ParseMemory(ln.Memory, quantity.BareMiB)
		parsed++
	}
	if parsed == 0 {
		klog.V(2).InfoS("usage snapshot had no parseable lines",
			"namespace", t.Namespace, "lines", len(lines))
		return
	}
	t.Usage = &u
}
