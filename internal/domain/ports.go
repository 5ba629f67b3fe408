package domain

import "context"

// Workload kinds the data source knows how to list. Bare pods are not a
// listable workload kind; they flow through ListPods.
const (
	KindDeployment       = "Deployment"
	KindStatefulSet      = "StatefulSet"
	KindDaemonSet        = "DaemonSet"
	KindDeploymentConfig = "DeploymentConfig"
)

// ClusterDataSource is the boundary to the cluster. Implementations
// normalize every kind into the canonical raw object shapes; transport
// and auth failures surface as errors on the individual call.
type ClusterDataSource interface {
	ListNamespaces(ctx context.Context) ([]string, error)
	// ListWorkloads returns the workloads of the given kinds in one
	// namespace. Kinds the cluster does not serve (DeploymentConfig on
	// plain Kubernetes) are silently absent from the result.
	ListWorkloads(ctx context.Context, namespace string, kinds []string) ([]WorkloadObject, error)
	// ListPods returns pods in the namespace ("" = all namespaces),
	// optionally filtered to one lifecycle phase.
	ListPods(ctx context.Context, namespace string, phase string) ([]PodObject, error)
	ListNodes(ctx context.Context) ([]NodeObject, error)
	// TopPods returns a live-usage snapshot for the namespace, or nil
	// when the metrics pipeline is not installed or not responding.
	TopPods(ctx context.Context, namespace string) ([]TopPodLine, error)
}
