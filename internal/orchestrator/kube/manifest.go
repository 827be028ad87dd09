package kube

import (
	"fmt"
	"strconv"
	"strings"

	"procman/internal/apperrors"
	"procman/internal/job"

	"github.com/kballard/go-shellquote"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Fixed job-level bounds. Completed jobs are garbage-collected by the
// cluster after the TTL; activeDeadlineSeconds is the ceiling on total
// runtime enforced by the cluster, not by this service.
const (
	ttlSecondsAfterFinished int32 = 20
	activeDeadlineSeconds   int64 = 36000
)

// sharePlaceholder in a request command is replaced with the caller's
// shared directory path before tokenization.
const sharePlaceholder = "/share"

// jobOriginLabel tags every pod template produced by this service.
const jobOriginLabel = "procman"

// gpuResource is the extended resource name for NVIDIA GPUs.
const gpuResource corev1.ResourceName = "nvidia.com/gpu"

// Minimum request floor in the non-GPU branch, independent of the requested
// limits, so every job stays schedulable on a busy cluster.
const (
	minMemoryRequest = "150Mi"
	minCPURequest    = "250m"
)

// BuildManifest converts a job request into a fully-resolved batch Job
// manifest. Pure and deterministic; all errors are detected here, before
// any network call. The manifest is never mutated after construction.
func BuildManifest(req *job.Request, cfg OrchestratorConfig) (*batchv1.Job, error) {
	if err := req.Resources.Validate(); err != nil {
		return nil, err
	}

	command := strings.ReplaceAll(req.Command, sharePlaceholder, req.SharedDir)
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, apperrors.Validation("command", fmt.Sprintf("cannot tokenize command: %v", err))
	}

	workers := *req.Resources.NumberOfWorkers
	memoryLimit := fmt.Sprintf("%dMi", *req.Resources.MemoryLimitMiB)
	cpuLimit := fmt.Sprintf("%dm", *req.Resources.CPULimitMillis)
	gpuLimit := *req.Resources.GPULimit

	container := corev1.Container{
		Name:            req.Name,
		Image:           req.Image,
		ImagePullPolicy: corev1.PullIfNotPresent,
		Command:         argv,
		Env: []corev1.EnvVar{
			{Name: "NUMBER_OF_WORKERS", Value: strconv.Itoa(int(workers))},
			{Name: "CPU_LIMIT", Value: cpuLimit},
			{Name: "MEMORY_LIMIT", Value: memoryLimit},
		},
		Resources: corev1.ResourceRequirements{
			Limits: corev1.ResourceList{
				corev1.ResourceMemory: resource.MustParse(memoryLimit),
				corev1.ResourceCPU:    resource.MustParse(cpuLimit),
			},
			Requests: corev1.ResourceList{
				corev1.ResourceMemory: resource.MustParse(minMemoryRequest),
				corev1.ResourceCPU:    resource.MustParse(minCPURequest),
			},
		},
		VolumeMounts: []corev1.VolumeMount{
			{Name: cfg.StorageVolume, MountPath: cfg.SharedMountPath},
		},
	}

	if gpuLimit > 0 {
		// GPU jobs schedule on the GPU resource alone. CPU/memory limits
		// and requests are discarded, and the container runs under a
		// hardened security context. Only the work container is modified;
		// containers appended later keep their own settings.
		container.Resources = corev1.ResourceRequirements{
			Limits: corev1.ResourceList{
				gpuResource: *resource.NewQuantity(gpuLimit, resource.DecimalSI),
			},
		}
		container.SecurityContext = &corev1.SecurityContext{
			AllowPrivilegeEscalation: boolPtr(false),
			Capabilities: &corev1.Capabilities{
				Drop: []corev1.Capability{"ALL"},
			},
			SELinuxOptions: &corev1.SELinuxOptions{
				Type: "nvidia_container_t",
			},
		}
	}

	manifest := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name: req.Name,
		},
		Spec: batchv1.JobSpec{
			TTLSecondsAfterFinished: int32Ptr(ttlSecondsAfterFinished),
			// The job is complete only when all workers succeed, not a
			// drain-one-at-a-time queue.
			Parallelism:           int32Ptr(workers),
			Completions:           int32Ptr(workers),
			ActiveDeadlineSeconds: int64Ptr(activeDeadlineSeconds),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Name: req.Name,
					Labels: map[string]string{
						"job-origin": jobOriginLabel,
					},
				},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers:    []corev1.Container{container},
					Volumes: []corev1.Volume{
						{
							Name: cfg.StorageVolume,
							VolumeSource: corev1.VolumeSource{
								PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
									ClaimName: cfg.StorageClaim,
								},
							},
						},
						{
							Name: "swift-credentials",
							VolumeSource: corev1.VolumeSource{
								Secret: &corev1.SecretVolumeSource{
									SecretName: cfg.SwiftSecret,
								},
							},
						},
						{
							Name: "kubecfg-volume",
							VolumeSource: corev1.VolumeSource{
								Secret: &corev1.SecretVolumeSource{
									SecretName: cfg.KubecfgSecret,
								},
							},
						},
					},
				},
			},
		},
	}

	return manifest, nil
}

func int32Ptr(i int32) *int32 {
	return &i
}

func int64Ptr(i int64) *int64 {
	return &i
}

func boolPtr(b bool) *bool {
	return &b
}
