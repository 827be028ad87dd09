package kube

import (
	"procman/internal/config"
)

// OrchestratorConfig holds configuration for the Kubernetes orchestrator.
type OrchestratorConfig struct {
	Namespace       string // Namespace/project jobs are created in
	StorageVolume   string // Name of the shared-storage volume in the pod template
	StorageClaim    string // Persistent volume claim backing the shared storage
	SwiftSecret     string // Secret holding object-store credentials
	KubecfgSecret   string // Secret holding the service-account kubeconfig
	SharedMountPath string // Where the shared storage is mounted in the work container
}

// LoadConfigFromEnv loads orchestrator configuration from environment variables.
func LoadConfigFromEnv() OrchestratorConfig {
	return OrchestratorConfig{
		Namespace:       config.GetEnv("JOB_NAMESPACE", "myproject"),
		StorageVolume:   config.GetEnv("STORAGE_VOLUME", "gluster-vol1"),
		StorageClaim:    config.GetEnv("STORAGE_CLAIM", "gluster1"),
		SwiftSecret:     config.GetEnv("SWIFT_SECRET", "swift-credentials"),
		KubecfgSecret:   config.GetEnv("KUBECFG_SECRET", "kubecfg"),
		SharedMountPath: config.GetEnv("SHARED_MOUNT_PATH", "/share"),
	}
}
