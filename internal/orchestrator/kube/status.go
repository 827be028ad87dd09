package kube

import (
	"strings"
	"time"

	"procman/internal/job"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
)

// ResolveInfo derives the lifecycle snapshot of a job from its live cluster
// object. Pure function; resolution happens on every query, nothing is cached.
//
// The rules are ordered and the first match wins:
//
//  1. No conditions and no counters yet: the job has not started.
//  2. Any Failed condition with status True, scanning the list in order:
//     failure overrides everything, including a nonzero succeeded counter
//     from earlier completions.
//  3. A completion time with succeeded pods: finished successfully.
//  4. Active pods: running.
//  5. Anything else is an indeterminate in-between state.
func ResolveInfo(j *batchv1.Job) *job.Info {
	info := &job.Info{
		Name:      j.Name,
		Timestamp: completionTimestamp(j),
	}
	if containers := j.Spec.Template.Spec.Containers; len(containers) > 0 {
		info.Image = containers[0].Image
		info.Command = strings.Join(containers[0].Command, " ")
	}

	info.Status, info.Message = resolveStatus(&j.Status)
	return info
}

// resolveStatus maps raw cluster status to the normalized lifecycle state.
// The batch API reports counters as plain integers, so a zero counter is
// treated the same as an absent one.
func resolveStatus(s *batchv1.JobStatus) (job.Status, string) {
	if len(s.Conditions) == 0 && s.Failed == 0 && s.Succeeded == 0 {
		return job.StatusNotStarted, "task not available yet"
	}

	for _, c := range s.Conditions {
		if c.Type == batchv1.JobFailed && c.Status == corev1.ConditionTrue {
			return job.StatusFinishedWithError, c.Message
		}
	}

	if s.CompletionTime != nil && s.Succeeded > 0 {
		return job.StatusFinishedSuccessfully, "finished"
	}

	if s.Active > 0 {
		return job.StatusStarted, "running"
	}

	return job.StatusUndefined, "inactive"
}

// completionTimestamp renders the completion time in RFC 3339, or an empty
// string while the job is still running.
func completionTimestamp(j *batchv1.Job) job.TimeStamp {
	if j.Status.CompletionTime == nil {
		return ""
	}
	return job.TimeStamp(j.Status.CompletionTime.Format(time.RFC3339))
}
