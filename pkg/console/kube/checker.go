package kube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/garunski/conductor-console/pkg/console/connections"
	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
	"github.com/garunski/conductor-console/pkg/console/events"
)

// Checker runs health and operator actions against Kubernetes connections.
// Every action is recorded in the event store.
type Checker struct {
	factory    ClientFactory
	namespace  string
	logger     logr.Logger
	eventStore events.EventStorage
	now        func() time.Time
}

func NewChecker(factory ClientFactory, namespace string, logger logr.Logger, eventStore events.EventStorage) *Checker {
	if factory == nil {
		factory = DefaultClientFactory
	}
	if namespace == "" {
		namespace = DefaultOperatorNamespace
	}
	return &Checker{
		factory:    factory,
		namespace:  namespace,
		logger:     logger.WithName("kube"),
		eventStore: eventStore,
		now:        time.Now,
	}
}

func (c *Checker) Namespace() string {
	return c.namespace
}

func (c *Checker) client(conn connections.Connection) (kubernetes.Interface, error) {
	if conn.Kind != connections.KindKubernetes {
		return nil, fmt.Errorf("%w: connection %s is of kind %s", apperrors.ErrInvalid, conn.ID, conn.Kind)
	}
	clientset, err := c.factory(conn)
	if err != nil {
		return nil, err
	}
	return clientset, nil
}

func (c *Checker) record(event events.Event) {
	events.StoreEventSafe(c.eventStore, c.logger, event)
}

func (c *Checker) fail(conn connections.Connection, action, description string, err error) error {
	c.logger.Error(err, description, "connection", conn.ID, "action", action)
	c.record(events.Error(resourceKey(conn), action, description, err))
	return err
}

func resourceKey(conn connections.Connection) string {
	return string(connections.KindKubernetes) + "/" + conn.Name
}

// Ping asks the API server for its version and measures the round trip.
func (c *Checker) Ping(ctx context.Context, conn connections.Connection) (*PingResult, error) {
	clientset, err := c.client(conn)
	if err != nil {
		return nil, c.fail(conn, "ping", "failed to build Kubernetes client", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, apperrors.WrapKubernetes(err, "ping")
	}

	start := c.now()
	info, err := clientset.Discovery().ServerVersion()
	if err != nil {
		return nil, c.fail(conn, "ping", "Kubernetes API server unreachable", apperrors.WrapKubernetes(err, "server version"))
	}

	result := &PingResult{
		ConnectionID: conn.ID,
		Version:      info.GitVersion,
		Platform:     info.Platform,
		Latency:      c.now().Sub(start),
	}
	c.logger.V(1).Info("pinged cluster", "connection", conn.ID, "version", result.Version, "latency", result.Latency)
	c.record(events.Success(resourceKey(conn), "ping", fmt.Sprintf("Kubernetes API server %s reachable", result.Version)))
	return result, nil
}

// OperatorStatus reports the operator, MeshSync and broker workloads.
// Missing workloads are reported as disabled rather than as errors.
func (c *Checker) OperatorStatus(ctx context.Context, conn connections.Connection) (*OperatorStatus, error) {
	clientset, err := c.client(conn)
	if err != nil {
		return nil, c.fail(conn, "operator-status", "failed to build Kubernetes client", err)
	}

	operator, err := c.deploymentComponent(ctx, clientset, OperatorDeployment)
	if err != nil {
		return nil, c.fail(conn, "operator-status", "failed to read operator deployment", err)
	}
	meshsync, err := c.deploymentComponent(ctx, clientset, MeshSyncDeployment)
	if err != nil {
		return nil, c.fail(conn, "operator-status", "failed to read MeshSync deployment", err)
	}
	broker, err := c.statefulSetComponent(ctx, clientset, BrokerStatefulSet)
	if err != nil {
		return nil, c.fail(conn, "operator-status", "failed to read broker statefulset", err)
	}

	return &OperatorStatus{
		ConnectionID: conn.ID,
		Namespace:    c.namespace,
		Operator:     operator,
		MeshSync:     meshsync,
		Broker:       broker,
	}, nil
}

// SetOperator scales the operator deployment to one replica when enabled and
// to zero otherwise.
func (c *Checker) SetOperator(ctx context.Context, conn connections.Connection, enabled bool) error {
	clientset, err := c.client(conn)
	if err != nil {
		return c.fail(conn, "operator-toggle", "failed to build Kubernetes client", err)
	}

	deployments := clientset.AppsV1().Deployments(c.namespace)
	deployment, err := deployments.Get(ctx, OperatorDeployment, metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			err = apperrors.WrapNotFound(err, "operator deployment")
		} else {
			err = apperrors.WrapKubernetes(err, "get operator deployment")
		}
		return c.fail(conn, "operator-toggle", "failed to read operator deployment", err)
	}

	replicas := int32(0)
	if enabled {
		replicas = 1
	}
	deployment.Spec.Replicas = &replicas
	if _, err := deployments.Update(ctx, deployment, metav1.UpdateOptions{}); err != nil {
		return c.fail(conn, "operator-toggle", "failed to scale operator deployment", apperrors.WrapKubernetes(err, "update operator deployment"))
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	c.logger.Info("operator toggled", "connection", conn.ID, "enabled", enabled)
	c.record(events.Success(resourceKey(conn), "operator-toggle", "Meshery operator "+state))
	return nil
}

// FlushMeshSync deletes the MeshSync pods so their controller re-creates
// them with an empty cache. It returns the number of pods deleted.
func (c *Checker) FlushMeshSync(ctx context.Context, conn connections.Connection) (int, error) {
	clientset, err := c.client(conn)
	if err != nil {
		return 0, c.fail(conn, "meshsync-flush", "failed to build Kubernetes client", err)
	}

	pods := clientset.CoreV1().Pods(c.namespace)
	list, err := pods.List(ctx, metav1.ListOptions{LabelSelector: meshSyncSelector})
	if err != nil {
		return 0, c.fail(conn, "meshsync-flush", "failed to list MeshSync pods", apperrors.WrapKubernetes(err, "list meshsync pods"))
	}

	deleted := 0
	for _, pod := range list.Items {
		if err := pods.Delete(ctx, pod.Name, metav1.DeleteOptions{}); err != nil && !k8serrors.IsNotFound(err) {
			return deleted, c.fail(conn, "meshsync-flush", "failed to delete MeshSync pod "+pod.Name, apperrors.WrapKubernetes(err, "delete meshsync pod"))
		}
		deleted++
	}

	if deleted == 0 {
		c.record(events.Warning(resourceKey(conn), "meshsync-flush", "no MeshSync pods found"))
	} else {
		c.record(events.Success(resourceKey(conn), "meshsync-flush", fmt.Sprintf("flushed %d MeshSync pod(s)", deleted)))
	}
	return deleted, nil
}

func (c *Checker) deploymentComponent(ctx context.Context, clientset kubernetes.Interface, name string) (Component, error) {
	deployment, err := clientset.AppsV1().Deployments(c.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return Component{Name: name}, nil
		}
		return Component{}, apperrors.WrapKubernetes(err, "get deployment "+name)
	}
	desired := desiredReplicas(deployment.Spec.Replicas)
	return Component{
		Name:    name,
		Enabled: desired > 0,
		Ready:   desired > 0 && deployment.Status.ReadyReplicas >= desired,
		Version: imageTag(deployment.Spec.Template.Spec.Containers),
	}, nil
}

func (c *Checker) statefulSetComponent(ctx context.Context, clientset kubernetes.Interface, name string) (Component, error) {
	sts, err := clientset.AppsV1().StatefulSets(c.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return Component{Name: name}, nil
		}
		return Component{}, apperrors.WrapKubernetes(err, "get statefulset "+name)
	}
	desired := desiredReplicas(sts.Spec.Replicas)
	return Component{
		Name:    name,
		Enabled: desired > 0,
		Ready:   desired > 0 && sts.Status.ReadyReplicas >= desired,
		Version: imageTag(sts.Spec.Template.Spec.Containers),
	}, nil
}

// nil replicas defaults to 1 on the API server
func desiredReplicas(replicas *int32) int32 {
	if replicas == nil {
		return 1
	}
	return *replicas
}

func imageTag(containers []corev1.Container) string {
	if len(containers) == 0 {
		return ""
	}
	return tagOf(containers[0].Image)
}

func tagOf(image string) string {
	if at := strings.Index(image, "@"); at >= 0 {
		image = image[:at]
	}
	colon := strings.LastIndex(image, ":")
	if colon < 0 || colon < strings.LastIndex(image, "/") {
		return ""
	}
	return image[colon+1:]
}
