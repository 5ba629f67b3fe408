package domain

// Raw cluster objects, normalized at the infrastructure boundary. Every
// workload kind decodes into the same WorkloadObject shape exactly once,
// at the edge; quantity values stay strings until the accounting layer
// resolves them.

// ResourceStrings carries the four quantity strings of one container.
// An empty string means the field was not declared, which is not the
// same thing as "0" for warning purposes.
type ResourceStrings struct {
	CPURequest string
	MemRequest string
	CPULimit   string
	MemLimit   string
}

// ContainerObject is one regular container of a pod template or pod.
type ContainerObject struct {
	Name      string
	Resources ResourceStrings
}

// WorkloadObject is the canonical shape of a fetched workload
// (Deployment, StatefulSet, DeploymentConfig, DaemonSet).
type WorkloadObject struct {
	Kind       string
	Name       string
	Namespace  string
	Replicas   int32
	Containers []ContainerObject
}

// PodObject is one fetched pod instance.
type PodObject struct {
	Name       string
	Namespace  string
	Phase      string
	NodeName   string
	Containers []ContainerObject
}

// NodeObject carries the memory figures of one node as quantity strings.
type NodeObject struct {
	Name              string
	CapacityMemory    string
	AllocatableMemory string
}

// TopPodLine is one row of a live-usage snapshot for a pod.
type TopPodLine struct {
	PodName string
	CPU     string
	Memory  string
}

// Derived accounting values. All numeric fields are full-precision
// floats in millicores / MiB; display rounding happens at render time.

// PodResourceProfile is the container sum for one pod instance. Init
// containers are excluded: they run sequentially and never consume
// resources concurrently with the main containers.
type PodResourceProfile struct {
	CPURequestM   float64
	CPULimitM     float64
	MemRequestMiB float64
	MemLimitMiB   float64
	// HasAnyRequest is true when at least one container declared a CPU
	// or memory request.
	HasAnyRequest bool
}

// Add folds another profile into p.
func (p *PodResourceProfile) Add(o PodResourceProfile) {
	p.CPURequestM += o.CPURequestM
	p.CPULimitM += o.CPULimitM
	p.MemRequestMiB += o.MemRequestMiB
	p.MemLimitMiB += o.MemLimitMiB
	p.HasAnyRequest = p.HasAnyRequest || o.HasAnyRequest
}

// Scale returns the profile multiplied by n replicas. HasAnyRequest is
// carried through untouched.
func (p PodResourceProfile) Scale(n int32) PodResourceProfile {
	f := float64(n)
	return PodResourceProfile{
		CPURequestM:   p.CPURequestM * f,
		CPULimitM:     p.CPULimitM * f,
		MemRequestMiB: p.MemRequestMiB * f,
		MemLimitMiB:   p.MemLimitMiB * f,
		HasAnyRequest: p.HasAnyRequest,
	}
}

// WorkloadAccounting is the per-workload result: the per-replica profile
// and the replica-multiplied total. Computed once per fetched object and
// never mutated afterwards.
type WorkloadAccounting struct {
	Kind      string
	Name      string
	Namespace string
	Replicas  int32
	// Skipped workloads (DaemonSets, whose real multiplier is the node
	// count this engine does not query) carry a note and zero profiles.
	Skipped    bool
	SkipReason string
	PerReplica PodResourceProfile
	Total      PodResourceProfile
}

// ActualUsage is a merged live-usage snapshot for a namespace. A nil
// *ActualUsage means "unavailable", which is not the same as zero usage.
type ActualUsage struct {
	CPUm   float64
	MemMiB float64
}

// NamespaceTotals is one row of the namespace report. If Err is set all
// numeric fields are zero and the row is excluded from grand totals but
// still listed.
type NamespaceTotals struct {
	Namespace     string
	Pods          int
	CPURequestM   float64
	CPULimitM     float64
	MemRequestMiB float64
	MemLimitMiB   float64
	// PodsWithoutRequests counts pods that declared no requests at all
	// across their containers (limits do not count).
	PodsWithoutRequests int
	Usage               *ActualUsage
	Err                 string
}

// NodeAccounting is one row of the node report. FreeReserveMiB may be
// negative when the node is over-committed; that is a signal, not an
// error, and is never clamped.
type NodeAccounting struct {
	Name           string
	CapacityMiB    float64
	AllocatableMiB float64
	CommittedMiB   float64
	FreeReserveMiB float64
	UtilizationPct float64
}

// ClusterReport is the full structured result handed to a renderer:
// ordered rows, a grand total over the non-errored rows, and a warnings
// list kept separate from the successful rows.
type ClusterReport struct {
	Namespaces []NamespaceTotals
	Nodes      []NodeAccounting
	Workloads  []WorkloadAccounting
	GrandTotal NamespaceTotals
	// UnmatchedPods counts pods assigned to a node name absent from the
	// fetched node list (diagnostic only).
	UnmatchedPods int
	Warnings      []string
}
