package accounting

import (
	"sort"

	"k8s.io/klog/v2"

	"github.com/kubesize/kubesize/internal/domain"
	"github.com/kubesize/kubesize/internal/quantity"
)

// AnalyzeNodes computes allocatable vs committed memory per node by
// attributing pods to the node they were scheduled onto. Only Running
// and Pending pods that already carry a node name reserve capacity;
// unscheduled pods contribute nothing. Pods pointing at a node absent
// from the fetched list are counted as unmatched, a diagnostic rather
// than an error.
//
// The returned rows are ordered by node name. FreeReserveMiB goes
// negative on over-committed nodes and is surfaced as-is.
func AnalyzeNodes(nodes []domain.NodeObject, pods []domain.PodObject) ([]domain.NodeAccounting, int) {
	byName := make(map[string]*domain.NodeAccounting, len(nodes))
	for _, n := range nodes {
		byName[n.Name] = &domain.NodeAccounting{
			Name:           n.Name,
			CapacityMiB:    quantity.ParseMemory(n.CapacityMemory, quantity.BareBytes),
			AllocatableMiB: quantity.ParseMemory(n.AllocatableMemory, quantity.BareBytes),
		}
	}

	unmatched := 0
	for _, pod := range pods {
		if pod.Phase != "Running" && pod.Phase != "Pending" {
			continue
		}
		if pod.NodeName == "" {
			continue
		}
		acc, ok := byName[pod.NodeName]
		if !ok {
			unmatched++
			continue
		}
		for _, c := range pod.Containers {
			acc.CommittedMiB += quantity.ParseMemory(c.Resources.MemRequest, quantity.BareBytes)
		}
	}
	if unmatched > 0 {
		klog.V(2).InfoS("pods assigned to unknown nodes", "count", unmatched)
	}

	out := make([]domain.NodeAccounting, 0, len(byName))
	for _, acc := range byName {
		acc.FreeReserveMiB = acc.AllocatableMiB - acc.CommittedMiB
		if acc.AllocatableMiB > 0 {
			acc.UtilizationPct = acc.CommittedMiB / acc.AllocatableMiB * 100
		}
		out = append(out, *acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, unmatched
}
