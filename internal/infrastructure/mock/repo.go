// Package mock is a fixture-backed ClusterDataSource for demos and
// tests. Data is fixed so repeated runs render identical reports.
package mock

import (
	"context"
	"fmt"

	"github.com/kubesize/kubesize/internal/domain"
)

type Repo struct {
	// DenyNamespaces simulates RBAC failures: listing pods in any of
	// these namespaces returns an error.
	DenyNamespaces map[string]bool
	// NoMetrics simulates an absent metrics pipeline.
	NoMetrics bool
}

func New() *Repo {
	return &Repo{DenyNamespaces: map[string]bool{}}
}

func (r *Repo) ListNamespaces(ctx context.Context) ([]string, error) {
	return []string{"default", "kube-system", "payments", "staging"}, nil
}

func resources(cpuReq, memReq, cpuLim, memLim string) domain.ResourceStrings {
	return domain.ResourceStrings{
		CPURequest: cpuReq, MemRequest: memReq,
		CPULimit: cpuLim, MemLimit: memLim,
	}
}

func (r *Repo) ListPods(ctx context.Context, namespace string, phase string) ([]domain.PodObject, error) {
	all := []domain.PodObject{
		{
			Name: "api-7cfb9d9c9c-9tghd", Namespace: "payments",
			Phase: "Running", NodeName: "ip-10-0-1-5",
			Containers: []domain.ContainerObject{
				{Name: "api", Resources: resources("500m", "256Mi", "1", "512Mi")},
				{Name: "sidecar", Resources: resources("0.5", "1Gi", "", "")},
			},
		},
		{
			Name: "worker-5f7dcbffd6-2jqkz", Namespace: "payments",
			Phase: "Running", NodeName: "ip-10-0-1-12",
			Containers: []domain.ContainerObject{
				{Name: "worker", Resources: resources("250m", "2Gi", "500m", "4Gi")},
			},
		},
		{
			Name: "cart-6d79f8b5f7-m2x8l", Namespace: "staging",
			Phase: "Running", NodeName: "ip-10-0-1-5",
			Containers: []domain.ContainerObject{
				{Name: "cart", Resources: resources("", "", "", "1Gi")},
			},
		},
		{
			Name: "batch-import-1", Namespace: "staging",
			Phase: "Succeeded", NodeName: "ip-10-0-1-12",
			Containers: []domain.ContainerObject{
				{Name: "import", Resources: resources("2", "4Gi", "", "")},
			},
		},
		{
			Name: "pending-resize-0", Namespace: "staging",
			Phase: "Pending", NodeName: "",
			Containers: []domain.ContainerObject{
				{Name: "resize", Resources: resources("100m", "128Mi", "", "")},
			},
		},
		{
			Name: "coredns-558bd4d5db-x7ffz", Namespace: "kube-system",
			Phase: "Running", NodeName: "ip-10-0-1-5",
			Containers: []domain.ContainerObject{
				{Name: "coredns", Resources: resources("100m", "70Mi", "", "170Mi")},
			},
		},
	}

	if namespace != "" && r.DenyNamespaces[namespace] {
		return nil, fmt.Errorf("pods is forbidden: cannot list resource \"pods\" in namespace %q", namespace)
	}

	out := make([]domain.PodObject, 0, len(all))
	for _, p := range all {
		if namespace != "" && p.Namespace != namespace {
			continue
		}
		if phase != "" && p.Phase != phase {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *Repo) ListWorkloads(ctx context.Context, namespace string, kinds []string) ([]domain.WorkloadObject, error) {
	all := []domain.WorkloadObject{
		{
			Kind: domain.KindDeployment, Name: "api", Namespace: "payments", Replicas: 3,
			Containers: []domain.ContainerObject{
				{Name: "api", Resources: resources("500m", "256Mi", "1", "512Mi")},
			},
		},
		{
			Kind: domain.KindDeployment, Name: "retired-frontend", Namespace: "payments", Replicas: 0,
			Containers: []domain.ContainerObject{
				{Name: "frontend", Resources: resources("200m", "128Mi", "", "")},
			},
		},
		{
			Kind: domain.KindStatefulSet, Name: "ledger-db", Namespace: "payments", Replicas: 2,
			Containers: []domain.ContainerObject{
				{Name: "postgres", Resources: resources("1", "4Gi", "2", "8Gi")},
			},
		},
		{
			Kind: domain.KindDeploymentConfig, Name: "legacy-gateway", Namespace: "payments", Replicas: 1,
			Containers: []domain.ContainerObject{
				{Name: "gateway", Resources: resources("250m", "512Mi", "", "1Gi")},
			},
		},
		{
			Kind: domain.KindDaemonSet, Name: "log-shipper", Namespace: "payments",
			Containers: []domain.ContainerObject{
				{Name: "fluentd", Resources: resources("100m", "200Mi", "", "")},
			},
		},
	}

	wanted := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}
	out := make([]domain.WorkloadObject, 0, len(all))
	for _, w := range all {
		if w.Namespace == namespace && wanted[w.Kind] {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *Repo) ListNodes(ctx context.Context) ([]domain.NodeObject, error) {
	return []domain.NodeObject{
		{Name: "ip-10-0-1-5", CapacityMemory: "16Gi", AllocatableMemory: "15Gi"},
		{Name: "ip-10-0-1-12", CapacityMemory: "32Gi", AllocatableMemory: "30Gi"},
	}, nil
}

func (r *Repo) TopPods(ctx context.Context, namespace string) ([]domain.TopPodLine, error) {
	if r.NoMetrics {
		return nil, nil
	}
	byNS := map[string][]domain.TopPodLine{
		"payments": {
			{PodName: "api-7cfb9d9c9c-9tghd", CPU: "120m", Memory: "310Mi"},
			{PodName: "worker-5f7dcbffd6-2jqkz", CPU: "80m", Memory: "1400Mi"},
		},
		"staging": {
			{PodName: "cart-6d79f8b5f7-m2x8l", CPU: "15m", Memory: "95Mi"},
		},
	}
	return byNS[namespace], nil
}
