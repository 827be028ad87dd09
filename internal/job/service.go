package job

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"procman/internal/apperrors"
	"procman/internal/observability"
)

// Validation limits
const (
	maxNameLength = 63    // cluster object name limit
	maxWorkers    = 256
	maxMemoryMiB  = 65536 // 64GiB
	maxCPUMillis  = 64000 // 64 cores
	maxGPUs       = 16
)

// namePattern follows RFC 1123 label rules, which job names must satisfy
// to be valid cluster object names.
var namePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// Service manages job lifecycle using an orchestrator.
//
// The Service is stateless - all job state lives in the orchestrator.
type Service struct {
	orchestrator Orchestrator
	metrics      *observability.Metrics
}

// NewService creates a new job service.
func NewService(orchestrator Orchestrator, metrics *observability.Metrics) *Service {
	return &Service{
		orchestrator: orchestrator,
		metrics:      metrics,
	}
}

// Create validates and schedules a new job.
func (s *Service) Create(ctx context.Context, req *Request) (*Response, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	logger := slog.With("job", req.Name, "image", req.Image)

	if err := s.orchestrator.Schedule(ctx, req); err != nil {
		logger.Error("Job failed to schedule", "error", err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordJobSubmitted(ctx, req.Image)
	}

	logger.Info("Job scheduled", "workers", *req.Resources.NumberOfWorkers)

	return &Response{
		Name:   req.Name,
		Status: StatusNotStarted,
	}, nil
}

// Get returns the current lifecycle snapshot of a job.
func (s *Service) Get(ctx context.Context, name string) (*Info, error) {
	info, err := s.orchestrator.Info(ctx, name)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordStatusResolved(ctx, string(info.Status))
	}
	return info, nil
}

// Logs returns the concatenated logs of all pods belonging to a job.
func (s *Service) Logs(ctx context.Context, name string) (string, error) {
	return s.orchestrator.Logs(ctx, name)
}

// Remove deletes a job; dependent pods are reclaimed asynchronously.
func (s *Service) Remove(ctx context.Context, name string) error {
	logger := slog.With("job", name)
	if err := s.orchestrator.Remove(ctx, name); err != nil {
		logger.Error("Job removal failed", "error", err)
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordJobRemoved(ctx)
	}
	logger.Info("Job removed")
	return nil
}

// RemovePod deletes a single pod.
func (s *Service) RemovePod(ctx context.Context, name string) error {
	return s.orchestrator.RemovePod(ctx, name)
}

// RemoveStorageClaim deletes the storage claim associated with a job.
// Storage reclamation is deliberately decoupled from Remove.
func (s *Service) RemoveStorageClaim(ctx context.Context, jobID string) error {
	logger := slog.With("job", jobID)
	if err := s.orchestrator.RemoveStorageClaim(ctx, jobID); err != nil {
		logger.Error("Storage claim removal failed", "error", err)
		return err
	}
	logger.Info("Storage claim removed")
	return nil
}

// validate validates a job request. Does not modify the request.
func (s *Service) validate(req *Request) error {
	if req.Name == "" {
		return apperrors.Validation("name", "job name is required")
	}
	if len(req.Name) > maxNameLength {
		return apperrors.Validation("name", fmt.Sprintf("job name exceeds maximum length of %d", maxNameLength))
	}
	if !namePattern.MatchString(req.Name) {
		return apperrors.Validation("name", "job name must be lowercase alphanumeric (hyphens allowed, cannot start or end with hyphen)")
	}

	if req.Image == "" {
		return apperrors.Validation("image", "image is required")
	}
	if req.Command == "" {
		return apperrors.Validation("command", "command is required")
	}

	if err := req.Resources.Validate(); err != nil {
		return err
	}

	if *req.Resources.NumberOfWorkers > maxWorkers {
		return apperrors.Validation("number_of_workers", fmt.Sprintf("worker count exceeds maximum of %d", maxWorkers))
	}
	if *req.Resources.MemoryLimitMiB > maxMemoryMiB {
		return apperrors.Validation("memory_limit", fmt.Sprintf("memory exceeds maximum of %d MiB", maxMemoryMiB))
	}
	if *req.Resources.CPULimitMillis > maxCPUMillis {
		return apperrors.Validation("cpu_limit", fmt.Sprintf("CPU exceeds maximum of %d millicores", maxCPUMillis))
	}
	if *req.Resources.GPULimit > maxGPUs {
		return apperrors.Validation("gpu_limit", fmt.Sprintf("GPU count exceeds maximum of %d", maxGPUs))
	}

	return nil
}
