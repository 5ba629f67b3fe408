// Package accounting derives resource accounting values from normalized
// cluster objects: per-container sums up to pods, workloads, namespaces,
// and nodes.
package accounting

import (
	"k8s.io/klog/v2"

	"github.com/kubesize/kubesize/internal/domain"
	"github.com/kubesize/kubesize/internal/quantity"
)

// daemonSetSkipReason is attached to DaemonSet rows instead of summing
// them: their real replica multiplier is the node count, which this
// engine does not query, so summing with replicas=1 would undercount.
const daemonSetSkipReason = "resources multiply per node; size separately against the node count"

// containerProfile resolves one container's quantity strings. Spec
// quantities coming from the API serialize bare memory numbers as bytes.
func containerProfile(c domain.ContainerObject) domain.PodResourceProfile {
	r := c.Resources
	return domain.PodResourceProfile{
		CPURequestM:   quantity.ParseCPU(r.CPURequest),
		CPULimitM:     quantity.ParseCPU(r.CPULimit),
		MemRequestMiB: quantity.ParseMemory(r.MemRequest, quantity.BareBytes),
		MemLimitMiB:   quantity.ParseMemory(r.MemLimit, quantity.BareBytes),
		HasAnyRequest: r.CPURequest != "" || r.MemRequest != "",
	}
}

// PodProfile sums the regular containers of one pod instance.
func PodProfile(containers []domain.ContainerObject) domain.PodResourceProfile {
	var p domain.PodResourceProfile
	for _, c := range containers {
		p.Add(containerProfile(c))
	}
	return p
}

// ExtractWorkload computes the accounting record for one workload
// object. DaemonSets come back as skipped rows. A replica count <= 0
// yields an all-zero total; the row is still produced so the workload
// stays visible in the report.
func ExtractWorkload(w domain.WorkloadObject) domain.WorkloadAccounting {
	acc := domain.WorkloadAccounting{
		Kind:      w.Kind,
		Name:      w.Name,
		Namespace: w.Namespace,
		Replicas:  w.Replicas,
	}
	if w.Kind == domain.KindDaemonSet {
		acc.Skipped = true
		acc.SkipReason = daemonSetSkipReason
		klog.V(2).InfoS("skipping DaemonSet in request/limit sums",
			"namespace", w.Namespace, "name", w.Name)
		return acc
	}
	acc.PerReplica = PodProfile(w.Containers)
	if w.Replicas > 0 {
		acc.Total = acc.PerReplica.Scale(w.Replicas)
	} else {
		acc.Total.HasAnyRequest = acc.PerReplica.HasAnyRequest
	}
	return acc
}

// ExtractWorkloads maps ExtractWorkload over a fetched list, preserving
// order.
func ExtractWorkloads(ws []domain.WorkloadObject) []domain.WorkloadAccounting {
	out := make([]domain.WorkloadAccounting, 0, len(ws))
	for _, w := range ws {
		out = append(out, ExtractWorkload(w))
	}
	return out
}
