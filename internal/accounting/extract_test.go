package accounting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kubesize/kubesize/internal/domain"
)

func container(name, cpuReq, memReq, cpuLim, memLim string) domain.ContainerObject {
	return domain.ContainerObject{
		Name: name,
		Resources: domain.ResourceStrings{
			CPURequest: cpuReq, MemRequest: memReq,
			CPULimit: cpuLim, MemLimit: memLim,
		},
	}
}

func TestPodProfileSumsContainers(t *testing.T) {
	p := PodProfile([]domain.ContainerObject{
		container("a", "500m", "256Mi", "1", "512Mi"),
		container("b", "0.5", "1Gi", "", ""),
	})
	assert.Equal(t, 1000.0, p.CPURequestM)
	assert.Equal(t, 1280.0, p.MemRequestMiB)
	assert.Equal(t, 1000.0, p.CPULimitM)
	assert.Equal(t, 512.0, p.MemLimitMiB)
	assert.True(t, p.HasAnyRequest)
}

func TestPodProfileAbsentIsNotARequest(t *testing.T) {
	// A limit alone does not make the pod "requesting".
	p := PodProfile([]domain.ContainerObject{
		container("only-limits", "", "", "500m", "1Gi"),
	})
	assert.False(t, p.HasAnyRequest)
	assert.Equal(t, 0.0, p.CPURequestM)
	assert.Equal(t, 500.0, p.CPULimitM)
}

func TestExtractWorkloadScalingLaw(t *testing.T) {
	w := domain.WorkloadObject{
		Kind: domain.KindDeployment, Name: "api", Namespace: "payments", Replicas: 3,
		Containers: []domain.ContainerObject{
			container("api", "250m", "512Mi", "500m", "1Gi"),
		},
	}
	acc := ExtractWorkload(w)
	assert.Equal(t, acc.PerReplica.CPURequestM*3, acc.Total.CPURequestM)
	assert.Equal(t, acc.PerReplica.MemRequestMiB*3, acc.Total.MemRequestMiB)
	assert.Equal(t, acc.PerReplica.CPULimitM*3, acc.Total.CPULimitM)
	assert.Equal(t, acc.PerReplica.MemLimitMiB*3, acc.Total.MemLimitMiB)
}

func TestExtractWorkloadZeroReplicasStillListed(t *testing.T) {
	w := domain.WorkloadObject{
		Kind: domain.KindDeployment, Name: "retired", Namespace: "payments", Replicas: 0,
		Containers: []domain.ContainerObject{
			container("app", "1", "1Gi", "", ""),
		},
	}
	acc := ExtractWorkload(w)
	assert.False(t, acc.Skipped)
	assert.Equal(t, 1000.0, acc.PerReplica.CPURequestM)
	assert.Zero(t, acc.Total.CPURequestM)
	assert.Zero(t, acc.Total.MemRequestMiB)
}

func TestExtractWorkloadDaemonSetSkipped(t *testing.T) {
	w := domain.WorkloadObject{
		Kind: domain.KindDaemonSet, Name: "log-shipper", Namespace: "payments",
		Containers: []domain.ContainerObject{
			container("fluentd", "100m", "200Mi", "", ""),
		},
	}
	acc := ExtractWorkload(w)
	assert.True(t, acc.Skipped)
	assert.NotEmpty(t, acc.SkipReason)
	assert.Zero(t, acc.Total.CPURequestM)
	assert.Zero(t, acc.PerReplica.CPURequestM)
}
