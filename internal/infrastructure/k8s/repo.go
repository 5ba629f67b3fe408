// Package k8s implements the ClusterDataSource port on client-go. Every
// workload kind is decoded here, once, into the canonical raw object
// shapes; the accounting layer never sees API types.
package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/klog/v2"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/kubesize/kubesize/internal/domain"
)

// deploymentConfigGVR addresses the OpenShift DeploymentConfig API,
// which is not part of the typed clientset.
var deploymentConfigGVR = schema.GroupVersionResource{
	Group:    "apps.openshift.io",
	Version:  "v1",
	Resource: "deploymentconfigs",
}

type Repo struct {
	core    *kubernetes.Clientset
	dyn     dynamic.Interface
	metrics *metricsclient.Clientset
}

func New(kubeconfigPath, contextName string) (*Repo, error) {
	cfg, err := loadRESTConfig(kubeconfigPath, contextName)
	if err != nil {
		return nil, err
	}
	cfg.QPS = 30
	cfg.Burst = 60
	core, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, err
	}
	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, err
	}
	m, err := metricsclient.NewForConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Repo{core: core, dyn: dyn, metrics: m}, nil
}

func loadRESTConfig(kubeconfigPath, contextName string) (*rest.Config, error) {
	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, nil
	}
	loadingRules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfigPath}
	overrides := &clientcmd.ConfigOverrides{}
	if contextName != "" {
		overrides.CurrentContext = contextName
	}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides).ClientConfig()
}

// CheckAccess probes the API server with the cheapest authenticated
// call available. Run before any report so auth and connectivity
// problems surface as one clear failure instead of a row of errors.
func (r *Repo) CheckAccess(ctx context.Context) error {
	if _, err := r.core.CoreV1().Namespaces().List(ctx, metav1.ListOptions{Limit: 1}); err != nil {
		return fmt.Errorf("cluster access check failed: %w", err)
	}
	return nil
}

func (r *Repo) ListNamespaces(ctx context.Context) ([]string, error) {
	list, err := r.core.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		out = append(out, ns.Name)
	}
	return out, nil
}

func (r *Repo) ListWorkloads(ctx context.Context, namespace string, kinds []string) ([]domain.WorkloadObject, error) {
	var out []domain.WorkloadObject
	for _, kind := range kinds {
		var (
			objs []domain.WorkloadObject
			err  error
		)
		switch kind {
		case domain.KindDeployment:
			objs, err = r.listDeployments(ctx, namespace)
		case domain.KindStatefulSet:
			objs, err = r.listStatefulSets(ctx, namespace)
		case domain.KindDaemonSet:
			objs, err = r.listDaemonSets(ctx, namespace)
		case domain.KindDeploymentConfig:
			objs, err = r.listDeploymentConfigs(ctx, namespace)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("listing %ss: %w", kind, err)
		}
		out = append(out, objs...)
	}
	return out, nil
}

func (r *Repo) listDeployments(ctx context.Context, ns string) ([]domain.WorkloadObject, error) {
	list, err := r.core.AppsV1().Deployments(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]domain.WorkloadObject, 0, len(list.Items))
	for _, d := range list.Items {
		replicas := int32(0)
		if d.Spec.Replicas != nil {
			replicas = *d.Spec.Replicas
		}
		out = append(out, domain.WorkloadObject{
			Kind:       domain.KindDeployment,
			Name:       d.Name,
			Namespace:  d.Namespace,
			Replicas:   replicas,
			Containers: containerObjects(d.Spec.Template.Spec.Containers),
		})
	}
	return out, nil
}

func (r *Repo) listStatefulSets(ctx context.Context, ns string) ([]domain.WorkloadObject, error) {
	list, err := r.core.AppsV1().StatefulSets(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]domain.WorkloadObject, 0, len(list.Items))
	for _, s := range list.Items {
		replicas := int32(0)
		if s.Spec.Replicas != nil {
			replicas = *s.Spec.Replicas
		}
		out = append(out, domain.WorkloadObject{
			Kind:       domain.KindStatefulSet,
			Name:       s.Name,
			Namespace:  s.Namespace,
			Replicas:   replicas,
			Containers: containerObjects(s.Spec.Template.Spec.Containers),
		})
	}
	return out, nil
}

func (r *Repo) listDaemonSets(ctx context.Context, ns string) ([]domain.WorkloadObject, error) {
	list, err := r.core.AppsV1().DaemonSets(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]domain.WorkloadObject, 0, len(list.Items))
	for _, d := range list.Items {
		out = append(out, domain.WorkloadObject{
			Kind:       domain.KindDaemonSet,
			Name:       d.Name,
			Namespace:  d.Namespace,
			Containers: containerObjects(d.Spec.Template.Spec.Containers),
		})
	}
	return out, nil
}

// listDeploymentConfigs goes through the dynamic client. Clusters that
// do not serve the OpenShift API simply have no DeploymentConfigs.
func (r *Repo) listDeploymentConfigs(ctx context.Context, ns string) ([]domain.WorkloadObject, error) {
	list, err := r.dyn.Resource(deploymentConfigGVR).Namespace(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) || meta.IsNoMatchError(err) {
			klog.V(2).InfoS("DeploymentConfig API not served, skipping", "namespace", ns)
			return nil, nil
		}
		return nil, err
	}
	out := make([]domain.WorkloadObject, 0, len(list.Items))
	for _, item := range list.Items {
		out = append(out, decodeDeploymentConfig(item))
	}
	return out, nil
}

func decodeDeploymentConfig(u unstructured.Unstructured) domain.WorkloadObject {
	w := domain.WorkloadObject{
		Kind:      domain.KindDeploymentConfig,
		Name:      u.GetName(),
		Namespace: u.GetNamespace(),
	}
	if replicas, found, _ := unstructured.NestedInt64(u.Object, "spec", "replicas"); found {
		w.Replicas = int32(replicas)
	}
	containers, _, _ := unstructured.NestedSlice(u.Object, "spec", "template", "spec", "containers")
	for _, c := range containers {
		cm, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		name, _, _ := unstructured.NestedString(cm, "name")
		w.Containers = append(w.Containers, domain.ContainerObject{
			Name: name,
			Resources: domain.ResourceStrings{
				CPURequest: nestedQuantity(cm, "resources", "requests", "cpu"),
				MemRequest: nestedQuantity(cm, "resources", "requests", "memory"),
				CPULimit:   nestedQuantity(cm, "resources", "limits", "cpu"),
				MemLimit:   nestedQuantity(cm, "resources", "limits", "memory"),
			},
		})
	}
	return w
}

// nestedQuantity tolerates quantities decoded as either string or
// number; JSON from the dynamic client may carry both.
func nestedQuantity(obj map[string]interface{}, fields ...string) string {
	v, found, _ := unstructured.NestedFieldNoCopy(obj, fields...)
	if !found || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return fmt.Sprintf("%d", t)
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		return ""
	}
}

func (r *Repo) ListPods(ctx context.Context, namespace string, phase string) ([]domain.PodObject, error) {
	opts := metav1.ListOptions{}
	if phase != "" {
		opts.FieldSelector = "status.phase=" + phase
	}
	list, err := r.core.CoreV1().Pods(namespace).List(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PodObject, 0, len(list.Items))
	for _, p := range list.Items {
		out = append(out, domain.PodObject{
			Name:       p.Name,
			Namespace:  p.Namespace,
			Phase:      string(p.Status.Phase),
			NodeName:   p.Spec.NodeName,
			Containers: containerObjects(p.Spec.Containers),
		})
	}
	return out, nil
}

func (r *Repo) ListNodes(ctx context.Context) ([]domain.NodeObject, error) {
	list, err := r.core.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]domain.NodeObject, 0, len(list.Items))
	for _, n := range list.Items {
		node := domain.NodeObject{Name: n.Name}
		if q, ok := n.Status.Capacity[corev1.ResourceMemory]; ok {
			node.CapacityMemory = q.String()
		}
		if q, ok := n.Status.Allocatable[corev1.ResourceMemory]; ok {
			node.AllocatableMemory = q.String()
		}
		out = append(out, node)
	}
	return out, nil
}

// TopPods reads the metrics API. Gracefully degrades to a nil snapshot
// when the metrics pipeline is not installed or not responding; callers
// treat nil as "usage not available".
func (r *Repo) TopPods(ctx context.Context, namespace string) ([]domain.TopPodLine, error) {
	list, err := r.metrics.MetricsV1beta1().PodMetricses(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		klog.V(2).InfoS("pod metrics unavailable", "namespace", namespace, "err", err)
		return nil, nil
	}
	out := make([]domain.TopPodLine, 0, len(list.Items))
	for _, m := range list.Items {
		var cpuMilli, memBytes int64
		for _, c := range m.Containers {
			if q, ok := c.Usage[corev1.ResourceCPU]; ok {
				cpuMilli += q.MilliValue()
			}
			if q, ok := c.Usage[corev1.ResourceMemory]; ok {
				memBytes += q.Value()
			}
		}
		out = append(out, domain.TopPodLine{
			PodName: m.Name,
			CPU:     fmt.Sprintf("%dm", cpuMilli),
			Memory:  fmt.Sprintf("%dMi", memBytes/(1024*1024)),
		})
	}
	return out, nil
}

func containerObjects(containers []corev1.Container) []domain.ContainerObject {
	out := make([]domain.ContainerObject, 0, len(containers))
	for _, c := range containers {
		out = append(out, domain.ContainerObject{
			Name: c.Name,
			Resources: domain.ResourceStrings{
				CPURequest: quantityString(c.Resources.Requests, corev1.ResourceCPU),
				MemRequest: quantityString(c.Resources.Requests, corev1.ResourceMemory),
				CPULimit:   quantityString(c.Resources.Limits, corev1.ResourceCPU),
				MemLimit:   quantityString(c.Resources.Limits, corev1.ResourceMemory),
			},
		})
	}
	return out
}

// quantityString re-serializes a declared quantity to its canonical
// string form; absent entries stay "" so presence survives the boundary.
func quantityString(rl corev1.ResourceList, name corev1.ResourceName) string {
	if rl == nil {
		return ""
	}
	if q, ok := rl[name]; ok {
		return q.String()
	}
	return ""
}
