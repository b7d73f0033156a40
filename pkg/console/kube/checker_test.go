package kube

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/version"
	fakediscovery "k8s.io/client-go/discovery/fake"
	"k8s.io/client-go/kubernetes"
	kubefake "k8s.io/client-go/kubernetes/fake"

	"github.com/garunski/conductor-console/pkg/console/connections"
	"github.com/garunski/conductor-console/pkg/console/database"
	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
	"github.com/garunski/conductor-console/pkg/console/events"
)

var testConn = connections.Connection{
	ID:     "conn-1",
	Name:   "kind-dev",
	Kind:   connections.KindKubernetes,
	Status: connections.StatusConnected,
}

func int32Ptr(i int32) *int32 { return &i }

func deployment(name, image string, replicas, ready int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: DefaultOperatorNamespace},
		Spec: appsv1.DeploymentSpec{
			Replicas: int32Ptr(replicas),
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{Containers: []corev1.Container{{Name: name, Image: image}}},
			},
		},
		Status: appsv1.DeploymentStatus{ReadyReplicas: ready},
	}
}

func meshsyncPod(name string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: DefaultOperatorNamespace,
			Labels:    map[string]string{"component": "meshsync"},
		},
	}
}

func setupChecker(t *testing.T, objects ...runtime.Object) (*Checker, *kubefake.Clientset, *events.Storage) {
	t.Helper()
	db, err := database.NewTestDB(t)
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	eventStore := events.NewStorage(db, logr.Discard())
	clientset := kubefake.NewSimpleClientset(objects...)
	factory := func(connections.Connection) (kubernetes.Interface, error) {
		return clientset, nil
	}
	return NewChecker(factory, "", logr.Discard(), eventStore), clientset, eventStore
}

func recordedEvents(t *testing.T, store *events.Storage) []events.Event {
	t.Helper()
	page, err := store.ListEvents(events.EventFilters{ResourceKey: "kubernetes/kind-dev"})
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	return page.Events
}

func TestNewChecker_Defaults(t *testing.T) {
	checker := NewChecker(nil, "", logr.Discard(), nil)
	if checker.Namespace() != DefaultOperatorNamespace {
		t.Errorf("Namespace() = %q, want %q", checker.Namespace(), DefaultOperatorNamespace)
	}
	if checker.factory == nil {
		t.Error("NewChecker() left factory nil")
	}
}

func TestChecker_Ping(t *testing.T) {
	checker, clientset, store := setupChecker(t)
	clientset.Discovery().(*fakediscovery.FakeDiscovery).FakedServerVersion = &version.Info{GitVersion: "v1.31.2", Platform: "linux/amd64"}

	result, err := checker.Ping(context.Background(), testConn)
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if result.Version != "v1.31.2" {
		t.Errorf("Ping() version = %q, want v1.31.2", result.Version)
	}
	if result.ConnectionID != testConn.ID {
		t.Errorf("Ping() connection = %q, want %q", result.ConnectionID, testConn.ID)
	}

	recorded := recordedEvents(t, store)
	if len(recorded) != 1 || recorded[0].Action != "ping" || recorded[0].Severity != events.SeverityInfo {
		t.Errorf("Ping() recorded %+v, want one informational ping event", recorded)
	}
}

func TestChecker_Ping_FactoryError(t *testing.T) {
	_, _, store := setupChecker(t)
	boom := apperrors.WrapKubernetes(errors.New("no route to host"), "create clientset")
	checker := NewChecker(func(connections.Connection) (kubernetes.Interface, error) {
		return nil, boom
	}, "", logr.Discard(), store)

	_, err := checker.Ping(context.Background(), testConn)
	if !errors.Is(err, apperrors.ErrKubernetes) {
		t.Fatalf("Ping() error = %v, want ErrKubernetes", err)
	}

	recorded := recordedEvents(t, store)
	if len(recorded) != 1 || recorded[0].Severity != events.SeverityError {
		t.Fatalf("Ping() recorded %+v, want one error event", recorded)
	}
	if recorded[0].Error == "" {
		t.Error("error event has no error text")
	}
}

func TestChecker_WrongKind(t *testing.T) {
	checker, _, _ := setupChecker(t)
	conn := testConn
	conn.Kind = connections.KindGrafana

	if _, err := checker.Ping(context.Background(), conn); !errors.Is(err, apperrors.ErrInvalid) {
		t.Errorf("Ping() error = %v, want ErrInvalid", err)
	}
	if _, err := checker.FlushMeshSync(context.Background(), conn); !errors.Is(err, apperrors.ErrInvalid) {
		t.Errorf("FlushMeshSync() error = %v, want ErrInvalid", err)
	}
}

func TestChecker_OperatorStatus(t *testing.T) {
	broker := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Name: BrokerStatefulSet, Namespace: DefaultOperatorNamespace},
		Spec: appsv1.StatefulSetSpec{
			Replicas: int32Ptr(1),
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{Containers: []corev1.Container{{Image: "nats:2.10-alpine"}}},
			},
		},
		Status: appsv1.StatefulSetStatus{ReadyReplicas: 0},
	}
	checker, _, _ := setupChecker(t,
		deployment(OperatorDeployment, "layer5/meshery-operator:stable-v0.7.0", 1, 1),
		broker,
	)

	status, err := checker.OperatorStatus(context.Background(), testConn)
	if err != nil {
		t.Fatalf("OperatorStatus() error = %v", err)
	}

	want := Component{Name: OperatorDeployment, Enabled: true, Ready: true, Version: "stable-v0.7.0"}
	if status.Operator != want {
		t.Errorf("Operator = %+v, want %+v", status.Operator, want)
	}
	if status.MeshSync.Enabled || status.MeshSync.Ready || status.MeshSync.Name != MeshSyncDeployment {
		t.Errorf("MeshSync = %+v, want missing component reported disabled", status.MeshSync)
	}
	if !status.Broker.Enabled || status.Broker.Ready || status.Broker.Version != "2.10-alpine" {
		t.Errorf("Broker = %+v, want enabled, not ready, version 2.10-alpine", status.Broker)
	}
	if status.Namespace != DefaultOperatorNamespace {
		t.Errorf("Namespace = %q, want %q", status.Namespace, DefaultOperatorNamespace)
	}
}

func TestChecker_SetOperator(t *testing.T) {
	checker, clientset, store := setupChecker(t, deployment(OperatorDeployment, "layer5/meshery-operator:v0.7.0", 1, 1))
	ctx := context.Background()

	if err := checker.SetOperator(ctx, testConn, false); err != nil {
		t.Fatalf("SetOperator(false) error = %v", err)
	}
	got, err := clientset.AppsV1().Deployments(DefaultOperatorNamespace).Get(ctx, OperatorDeployment, metav1.GetOptions{})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if *got.Spec.Replicas != 0 {
		t.Errorf("replicas = %d after disable, want 0", *got.Spec.Replicas)
	}

	if err := checker.SetOperator(ctx, testConn, true); err != nil {
		t.Fatalf("SetOperator(true) error = %v", err)
	}
	got, _ = clientset.AppsV1().Deployments(DefaultOperatorNamespace).Get(ctx, OperatorDeployment, metav1.GetOptions{})
	if *got.Spec.Replicas != 1 {
		t.Errorf("replicas = %d after enable, want 1", *got.Spec.Replicas)
	}

	if n := len(recordedEvents(t, store)); n != 2 {
		t.Errorf("SetOperator() recorded %d events, want 2", n)
	}
}

func TestChecker_SetOperator_NotInstalled(t *testing.T) {
	checker, _, _ := setupChecker(t)

	err := checker.SetOperator(context.Background(), testConn, true)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("SetOperator() error = %v, want ErrNotFound", err)
	}
}

func TestChecker_FlushMeshSync(t *testing.T) {
	other := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{
		Name:      "meshery-operator-abc",
		Namespace: DefaultOperatorNamespace,
		Labels:    map[string]string{"component": "operator"},
	}}
	checker, clientset, _ := setupChecker(t, meshsyncPod("meshsync-0"), meshsyncPod("meshsync-1"), other)
	ctx := context.Background()

	deleted, err := checker.FlushMeshSync(ctx, testConn)
	if err != nil {
		t.Fatalf("FlushMeshSync() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("FlushMeshSync() deleted %d pods, want 2", deleted)
	}

	pods, err := clientset.CoreV1().Pods(DefaultOperatorNamespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(pods.Items) != 1 || pods.Items[0].Name != "meshery-operator-abc" {
		t.Errorf("remaining pods = %v, want only the operator pod", pods.Items)
	}
}

func TestChecker_FlushMeshSync_NoPods(t *testing.T) {
	checker, _, store := setupChecker(t)

	deleted, err := checker.FlushMeshSync(context.Background(), testConn)
	if err != nil {
		t.Fatalf("FlushMeshSync() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("FlushMeshSync() deleted %d pods, want 0", deleted)
	}
	recorded := recordedEvents(t, store)
	if len(recorded) != 1 || recorded[0].Severity != events.SeverityWarning {
		t.Errorf("FlushMeshSync() recorded %+v, want one warning", recorded)
	}
}

func TestTagOf(t *testing.T) {
	tests := []struct {
		image string
		want  string
	}{
		{"layer5/meshery-operator:stable-v0.7.0", "stable-v0.7.0"},
		{"nats:2.10", "2.10"},
		{"registry.local:5000/meshsync", ""},
		{"registry.local:5000/meshsync:v1@sha256:abcd", "v1"},
		{"meshsync", ""},
	}
	for _, tt := range tests {
		if got := tagOf(tt.image); got != tt.want {
			t.Errorf("tagOf(%q) = %q, want %q", tt.image, got, tt.want)
		}
	}
}
