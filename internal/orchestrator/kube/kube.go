// Package kube implements the job.Orchestrator interface on top of a
// Kubernetes (or OpenShift) cluster. Jobs are batch Job objects, job state
// is derived from live cluster state on every query, and logs are read from
// the pods the cluster spawns for each job.
package kube

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"procman/internal/apperrors"
	"procman/internal/job"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// podLogPlaceholder is the line contributed by a pod whose container has not
// produced logs yet. Matching the pod message keeps partially-started jobs
// readable instead of failing the whole aggregation.
const podLogPlaceholder = "Pod %s is being created. Logs will appear shortly"

// LogFetcher reads the log stream of a single pod. The orchestrator depends
// on this narrow interface rather than the full clientset so the aggregation
// path is testable.
type LogFetcher interface {
	PodLog(ctx context.Context, namespace, name string) (string, error)
}

// clientsetLogFetcher reads pod logs through the clientset's REST subresource.
type clientsetLogFetcher struct {
	client kubernetes.Interface
}

func (f *clientsetLogFetcher) PodLog(ctx context.Context, namespace, name string) (string, error) {
	raw, err := f.client.CoreV1().Pods(namespace).GetLogs(name, &corev1.PodLogOptions{}).DoRaw(ctx)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Orchestrator implements job.Orchestrator using the Kubernetes batch API.
type Orchestrator struct {
	client kubernetes.Interface
	logs   LogFetcher
	cfg    OrchestratorConfig
}

// Verify interface compliance at compile time
var _ job.Orchestrator = (*Orchestrator)(nil)

// NewOrchestrator creates a Kubernetes orchestrator on an existing clientset.
func NewOrchestrator(client kubernetes.Interface, cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		client: client,
		logs:   &clientsetLogFetcher{client: client},
		cfg:    cfg,
	}
}

// NewClientset builds a clientset from, in order of preference: the explicit
// kubeconfig path, the default kubeconfig in the home directory, or the
// in-cluster service-account credentials.
func NewClientset(kubeconfigPath string) (kubernetes.Interface, error) {
	if kubeconfigPath == "" {
		if home := homedir.HomeDir(); home != "" {
			candidate := filepath.Join(home, ".kube", "config")
			if _, err := os.Stat(candidate); err == nil {
				kubeconfigPath = candidate
			}
		}
	}

	var restCfg *rest.Config
	var err error
	if kubeconfigPath != "" {
		restCfg, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
		if err != nil {
			return nil, apperrors.Orchestrator("load kubeconfig", err)
		}
		slog.Info("Using kubeconfig", "path", kubeconfigPath)
	} else {
		restCfg, err = rest.InClusterConfig()
		if err != nil {
			return nil, apperrors.Orchestrator("load in-cluster config", err)
		}
		slog.Info("Using in-cluster configuration")
	}

	client, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, apperrors.Orchestrator("create clientset", err)
	}
	return client, nil
}

// Schedule builds the job manifest and submits it to the cluster.
func (o *Orchestrator) Schedule(ctx context.Context, req *job.Request) error {
	manifest, err := BuildManifest(req, o.cfg)
	if err != nil {
		return err
	}

	_, err = o.client.BatchV1().Jobs(o.cfg.Namespace).Create(ctx, manifest, metav1.CreateOptions{})
	if err != nil {
		if k8serrors.IsAlreadyExists(err) {
			return apperrors.Conflict("job", req.Name, "a job with this name already exists")
		}
		return apperrors.Orchestrator("create job", err)
	}
	return nil
}

// Info fetches the job and derives its lifecycle snapshot.
func (o *Orchestrator) Info(ctx context.Context, name string) (*job.Info, error) {
	j, err := o.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return ResolveInfo(j), nil
}

// Logs concatenates the logs of every pod belonging to the job, in listing
// order. A pod whose container has not started yet contributes a placeholder
// line; only the pod listing itself can fail the call.
func (o *Orchestrator) Logs(ctx context.Context, name string) (string, error) {
	pods, err := o.client.CoreV1().Pods(o.cfg.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: fmt.Sprintf("job-name=%s", name),
	})
	if err != nil {
		return "", apperrors.Orchestrator("list pods", err)
	}

	var sb strings.Builder
	for _, pod := range pods.Items {
		log, err := o.logs.PodLog(ctx, o.cfg.Namespace, pod.Name)
		if err != nil {
			slog.Debug("Pod logs not available yet", "pod", pod.Name, "error", err)
			sb.WriteString(fmt.Sprintf(podLogPlaceholder, pod.Name))
			continue
		}
		sb.WriteString(log)
	}
	return sb.String(), nil
}

// Remove deletes the job with a background cascade so the cluster reclaims
// dependent pods asynchronously. Removing an absent job succeeds.
func (o *Orchestrator) Remove(ctx context.Context, name string) error {
	policy := metav1.DeletePropagationBackground
	err := o.client.BatchV1().Jobs(o.cfg.Namespace).Delete(ctx, name, metav1.DeleteOptions{
		PropagationPolicy: &policy,
	})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return nil
		}
		return apperrors.Orchestrator("delete job", err)
	}
	return nil
}

// RemovePod deletes a single pod directly.
func (o *Orchestrator) RemovePod(ctx context.Context, name string) error {
	err := o.client.CoreV1().Pods(o.cfg.Namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return nil
		}
		return apperrors.Orchestrator("delete pod", err)
	}
	return nil
}

// RemoveStorageClaim deletes the persistent volume claim derived from the
// job identifier.
func (o *Orchestrator) RemoveStorageClaim(ctx context.Context, jobID string) error {
	claim := StorageClaimName(jobID)
	err := o.client.CoreV1().PersistentVolumeClaims(o.cfg.Namespace).Delete(ctx, claim, metav1.DeleteOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return nil
		}
		return apperrors.Orchestrator("delete storage claim", err)
	}
	return nil
}

// Ready checks that the cluster API server answers.
func (o *Orchestrator) Ready(ctx context.Context) error {
	if _, err := o.client.Discovery().ServerVersion(); err != nil {
		return apperrors.Orchestrator("discover server version", err)
	}
	return nil
}

// StorageClaimName derives the name of the per-job storage claim.
func StorageClaimName(jobID string) string {
	return jobID + "-storage-claim"
}

// fetch retrieves the raw job object, mapping an absent job to a not-found
// error.
func (o *Orchestrator) fetch(ctx context.Context, name string) (*batchv1.Job, error) {
	j, err := o.client.BatchV1().Jobs(o.cfg.Namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return nil, apperrors.NotFound("job", name)
		}
		return nil, apperrors.Orchestrator("get job", err)
	}
	return j, nil
}
