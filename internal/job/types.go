package job

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"procman/internal/apperrors"
)

// Request represents a request to schedule a new compute job.
type Request struct {
	Name      string       `json:"name"`
	Image     string       `json:"image"`
	Command   string       `json:"command"`
	SharedDir string       `json:"shared_dir"`
	Resources ResourceSpec `json:"resources"`
}

// ResourceSpec declares the resources a job needs. All four fields are
// required; a missing field is a configuration error, not a zero value.
type ResourceSpec struct {
	NumberOfWorkers *int32 `json:"number_of_workers"`
	MemoryLimitMiB  *int64 `json:"memory_limit"`
	CPULimitMillis  *int64 `json:"cpu_limit"`
	GPULimit        *int64 `json:"gpu_limit"`
}

// UnmarshalJSON accepts each resource field as either a JSON number or a
// numeric string. A non-numeric value fails with a validation error before
// any cast, so a bad gpu_limit never reaches the manifest builder.
func (s *ResourceSpec) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	workers, err := parseResourceField(raw, "number_of_workers")
	if err != nil {
		return err
	}
	if workers != nil {
		// Range-check before narrowing; a silent truncation would let an
		// absurd worker count alias to a small valid one.
		if *workers > math.MaxInt32 || *workers < math.MinInt32 {
			return apperrors.Validation("number_of_workers", fmt.Sprintf("number_of_workers is out of range: %d", *workers))
		}
		w := int32(*workers)
		s.NumberOfWorkers = &w
	}

	if s.MemoryLimitMiB, err = parseResourceField(raw, "memory_limit"); err != nil {
		return err
	}
	if s.CPULimitMillis, err = parseResourceField(raw, "cpu_limit"); err != nil {
		return err
	}
	if s.GPULimit, err = parseResourceField(raw, "gpu_limit"); err != nil {
		return err
	}
	return nil
}

// parseResourceField reads an optional integer field that may arrive as a
// number or a quoted string. Returns nil when the field is absent.
func parseResourceField(raw map[string]json.RawMessage, field string) (*int64, error) {
	msg, ok := raw[field]
	if !ok || string(msg) == "null" {
		return nil, nil
	}

	var str string
	if err := json.Unmarshal(msg, &str); err == nil {
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, apperrors.Validation(field, fmt.Sprintf("%s is not a number: %q", field, str))
		}
		return &n, nil
	}

	var n int64
	if err := json.Unmarshal(msg, &n); err != nil {
		return nil, apperrors.Validation(field, fmt.Sprintf("%s is not a number", field))
	}
	return &n, nil
}

// Validate checks that every required resource field is present and sane.
func (s *ResourceSpec) Validate() error {
	fields := []struct {
		name    string
		present bool
	}{
		{"number_of_workers", s.NumberOfWorkers != nil},
		{"memory_limit", s.MemoryLimitMiB != nil},
		{"cpu_limit", s.CPULimitMillis != nil},
		{"gpu_limit", s.GPULimit != nil},
	}
	for _, f := range fields {
		if !f.present {
			return apperrors.Configuration(f.name, fmt.Sprintf("resource spec is missing %s", f.name))
		}
	}

	if *s.NumberOfWorkers < 1 {
		return apperrors.Validation("number_of_workers", "number_of_workers must be at least 1")
	}
	if *s.MemoryLimitMiB < 0 {
		return apperrors.Validation("memory_limit", "memory_limit must not be negative")
	}
	if *s.CPULimitMillis < 0 {
		return apperrors.Validation("cpu_limit", "cpu_limit must not be negative")
	}
	if *s.GPULimit < 0 {
		return apperrors.Validation("gpu_limit", "gpu_limit must not be negative")
	}
	return nil
}

// Response represents the response when a job is scheduled.
type Response struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// TimeStamp is an ISO-8601 timestamp, or the empty string when the job has
// no completion time yet.
type TimeStamp string

// Info is a read-only snapshot of a job, recomputed from live cluster state
// on every query.
type Info struct {
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Command   string    `json:"cmd"`
	Timestamp TimeStamp `json:"timestamp"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
}

// Status is the normalized lifecycle state of a job.
type Status string

const (
	StatusNotStarted           Status = "notstarted"
	StatusStarted              Status = "started"
	StatusFinishedSuccessfully Status = "finishedSuccessfully"
	StatusFinishedWithError    Status = "finishedWithError"
	StatusUndefined            Status = "undefined"
)
