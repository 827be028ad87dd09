// Package config provides configuration loading from environment variables.
package config

import (
	"time"

	"github.com/joho/godotenv"
)

// ServiceConfig holds configuration for the jobs service.
type ServiceConfig struct {
	Port              string
	MetricsPort       string
	APIKey            string
	ShutdownDrainWait time.Duration // Time to wait for load balancer to drain (0 to skip)

	KubeconfigPath string // Path to kubeconfig; empty means default kubeconfig, then in-cluster
}

// LoadServiceConfig loads service configuration from environment variables.
// A .env file, when present, seeds the environment first.
func LoadServiceConfig() *ServiceConfig {
	_ = godotenv.Load()

	return &ServiceConfig{
		Port:              GetEnv("PORT", "8080"),
		MetricsPort:       GetEnv("METRICS_PORT", "9090"),
		APIKey:            GetSecretFile(GetEnv("API_KEY_FILE", "")),
		ShutdownDrainWait: GetDurationEnv("SHUTDOWN_DRAIN_WAIT", 5*time.Second),
		KubeconfigPath:    GetEnv("KUBECFG_PATH", ""),
	}
}
