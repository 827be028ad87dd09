package kube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"procman/internal/apperrors"
	"procman/internal/job"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

// stubLogFetcher substitutes for the clientset log subresource, which the
// fake clientset cannot serve faithfully.
type stubLogFetcher struct {
	logs map[string]string
	errs map[string]error
}

func (f *stubLogFetcher) PodLog(_ context.Context, _ string, name string) (string, error) {
	if err, ok := f.errs[name]; ok {
		return "", err
	}
	return f.logs[name], nil
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fake.Clientset) {
	t.Helper()
	client := fake.NewSimpleClientset()
	return NewOrchestrator(client, testConfig()), client
}

func TestSchedule(t *testing.T) {
	t.Parallel()

	o, client := newTestOrchestrator(t)
	ctx := context.Background()

	if err := o.Schedule(ctx, testRequest(0)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	created, err := client.BatchV1().Jobs("myproject").Get(ctx, "plugin-run-1", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("Job was not created: %v", err)
	}
	if *created.Spec.Parallelism != 2 {
		t.Errorf("Expected parallelism 2, got %d", *created.Spec.Parallelism)
	}
}

func TestSchedule_Duplicate(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	if err := o.Schedule(ctx, testRequest(0)); err != nil {
		t.Fatalf("Unexpected error on first submit: %v", err)
	}

	err := o.Schedule(ctx, testRequest(0))
	if err == nil {
		t.Fatal("Expected error for duplicate submission")
	}
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("Expected conflict error, got %v", err)
	}
}

func TestInfo(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	if err := o.Schedule(ctx, testRequest(0)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	info, err := o.Info(ctx, "plugin-run-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if info.Status != job.StatusNotStarted {
		t.Errorf("Expected notstarted for a fresh job, got %q", info.Status)
	}
	if info.Message != "task not available yet" {
		t.Errorf("Unexpected message %q", info.Message)
	}
}

func TestInfo_NotFound(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(t)

	_, err := o.Info(context.Background(), "no-such-job")
	if err == nil {
		t.Fatal("Expected error for absent job")
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

func TestLogs_AggregatesAcrossPods(t *testing.T) {
	t.Parallel()

	client := fake.NewSimpleClientset(
		podForJob("plugin-run-1", "plugin-run-1-abc"),
		podForJob("plugin-run-1", "plugin-run-1-def"),
		podForJob("other-job", "other-job-xyz"),
	)
	o := NewOrchestrator(client, testConfig())
	o.logs = &stubLogFetcher{
		logs: map[string]string{
			"plugin-run-1-abc": "line one\n",
			"plugin-run-1-def": "line two\n",
			"other-job-xyz":    "unrelated\n",
		},
	}

	out, err := o.Logs(context.Background(), "plugin-run-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "line one") || !strings.Contains(out, "line two") {
		t.Errorf("Expected logs from both pods, got %q", out)
	}
	if strings.Contains(out, "unrelated") {
		t.Errorf("Expected logs from other jobs to be excluded, got %q", out)
	}
}

func TestLogs_PlaceholderForUnstartedPod(t *testing.T) {
	t.Parallel()

	client := fake.NewSimpleClientset(
		podForJob("plugin-run-1", "plugin-run-1-abc"),
		podForJob("plugin-run-1", "plugin-run-1-def"),
	)
	o := NewOrchestrator(client, testConfig())
	o.logs = &stubLogFetcher{
		logs: map[string]string{"plugin-run-1-abc": "line one\n"},
		errs: map[string]error{"plugin-run-1-def": errors.New("container is waiting to start")},
	}

	out, err := o.Logs(context.Background(), "plugin-run-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "line one") {
		t.Errorf("Expected logs from the started pod, got %q", out)
	}
	want := fmt.Sprintf(podLogPlaceholder, "plugin-run-1-def")
	if !strings.Contains(out, want) {
		t.Errorf("Expected placeholder %q, got %q", want, out)
	}
}

func TestRemove_Idempotent(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	if err := o.Schedule(ctx, testRequest(0)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := o.Remove(ctx, "plugin-run-1"); err != nil {
		t.Fatalf("Unexpected error removing job: %v", err)
	}
	if err := o.Remove(ctx, "plugin-run-1"); err != nil {
		t.Errorf("Expected removal of an absent job to succeed, got %v", err)
	}

	if _, err := o.Info(ctx, "plugin-run-1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected job to be gone, got %v", err)
	}
}

func TestRemovePod(t *testing.T) {
	t.Parallel()

	client := fake.NewSimpleClientset(podForJob("plugin-run-1", "plugin-run-1-abc"))
	o := NewOrchestrator(client, testConfig())
	ctx := context.Background()

	if err := o.RemovePod(ctx, "plugin-run-1-abc"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := o.RemovePod(ctx, "plugin-run-1-abc"); err != nil {
		t.Errorf("Expected removal of an absent pod to succeed, got %v", err)
	}
}

func TestRemoveStorageClaim(t *testing.T) {
	t.Parallel()

	claim := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "plugin-run-1-storage-claim",
			Namespace: "myproject",
		},
	}
	client := fake.NewSimpleClientset(claim)
	o := NewOrchestrator(client, testConfig())
	ctx := context.Background()

	if err := o.RemoveStorageClaim(ctx, "plugin-run-1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, err := client.CoreV1().PersistentVolumeClaims("myproject").Get(ctx, "plugin-run-1-storage-claim", metav1.GetOptions{})
	if err == nil {
		t.Error("Expected claim to be deleted")
	}

	if err := o.RemoveStorageClaim(ctx, "plugin-run-1"); err != nil {
		t.Errorf("Expected removal of an absent claim to succeed, got %v", err)
	}
}

func podForJob(jobName, podName string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      podName,
			Namespace: "myproject",
			Labels:    map[string]string{"job-name": jobName},
		},
	}
}
