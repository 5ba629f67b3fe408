package accounting

import (
	"sort"

	"github.com/kubesize/kubesize/internal/domain"
)

// AggregatePods folds running pods into one NamespaceTotals row. Pod
// counts increment once per pod instance, not per container; a pod joins
// PodsWithoutRequests only when no container declared any request.
func AggregatePods(namespace string, pods []domain.PodObject) domain.NamespaceTotals {
	t := domain.NamespaceTotals{Namespace: namespace}
	for _, pod := range pods {
		t.Pods++
		p := PodProfile(pod.Containers)
		t.CPURequestM += p.CPURequestM
		t.CPULimitM += p.CPULimitM
		t.MemRequestMiB += p.MemRequestMiB
		t.MemLimitMiB += p.MemLimitMiB
		if !p.HasAnyRequest {
			t.PodsWithoutRequests++
		}
	}
	return t
}

// ErrorTotals builds the row recorded for a namespace whose fetch
// failed: error set, every numeric field zero. The row stays listed but
// never contributes to grand totals.
func ErrorTotals(namespace string, err error) domain.NamespaceTotals {
	return domain.NamespaceTotals{Namespace: namespace, Err: err.Error()}
}

// GrandTotal sums the rows that carry no error. Usage sums only count
// namespaces whose snapshot was available; if none was, the grand-total
// usage stays nil.
func GrandTotal(rows []domain.NamespaceTotals) domain.NamespaceTotals {
	g := domain.NamespaceTotals{Namespace: "TOTAL"}
	var usage *domain.ActualUsage
	for _, r := range rows {
		if r.Err != "" {
			continue
		}
		g.Pods += r.Pods
		g.CPURequestM += r.CPURequestM
		g.CPULimitM += r.CPULimitM
		g.MemRequestMiB += r.MemRequestMiB
		g.MemLimitMiB += r.MemLimitMiB
		g.PodsWithoutRequests += r.PodsWithoutRequests
		if r.Usage != nil {
			if usage == nil {
				usage = &domain.ActualUsage{}
			}
			usage.CPUm += r.Usage.CPUm
			usage.MemMiB += r.Usage.MemMiB
		}
	}
	g.Usage = usage
	return g
}

// Sort keys for namespace rows. "name" sorts ascending; every numeric
// key sorts descending, matching how capacity reports are read (biggest
// consumers first).
const (
	SortByName       = "name"
	SortByPods       = "pods"
	SortByCPURequest = "cpu-req"
	SortByCPULimit   = "cpu-lim"
	SortByMemRequest = "mem-req"
	SortByMemLimit   = "mem-lim"
)

// SortKeys lists the accepted --sort values.
var SortKeys = []string{
	SortByCPURequest, SortByCPULimit, SortByMemRequest, SortByMemLimit,
	SortByPods, SortByName,
}

// SortNamespaces orders rows by the given key, name ascending as the
// tie-breaker so the final ordering is deterministic regardless of how
// the rows were collected.
func SortNamespaces(rows []domain.NamespaceTotals, key string) {
	val := func(r domain.NamespaceTotals) float64 {
		switch key {
		case SortByPods:
			return float64(r.Pods)
		case SortByCPULimit:
			return r.CPULimitM
		case SortByMemRequest:
			return r.MemRequestMiB
		case SortByMemLimit:
			return r.MemLimitMiB
		default:
			return r.CPURequestM
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if key == SortByName {
			return rows[i].Namespace < rows[j].Namespace
		}
		vi, vj := val(rows[i]), val(rows[j])
		if vi != vj {
			return vi > vj
		}
		return rows[i].Namespace < rows[j].Namespace
	})
}
