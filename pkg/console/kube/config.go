package kube

import (
	"fmt"
	"os"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/garunski/conductor-console/pkg/console/connections"
	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
)

// ClientFactory builds a clientset for the cluster behind a connection.
type ClientFactory func(conn connections.Connection) (kubernetes.Interface, error)

const defaultRequestTimeout = 10 * time.Second

// GetKubernetesConfig resolves the console's own cluster config: in-cluster
// first, then $KUBECONFIG, then the home kubeconfig.
func GetKubernetesConfig() (*rest.Config, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		kubeconfig := os.Getenv("KUBECONFIG")
		if kubeconfig == "" {
			kubeconfig = clientcmd.RecommendedHomeFile
		}
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("%w: kubernetes get config: failed to get Kubernetes config: %w", apperrors.ErrKubernetes, err)
		}
	}
	return config, nil
}

// ConnectionConfig returns the rest config for a Kubernetes connection. The
// kubeconfig path and context come from the connection metadata; without a
// kubeconfig the console's own cluster config is used.
func ConnectionConfig(conn connections.Connection) (*rest.Config, error) {
	if conn.Kind != connections.KindKubernetes {
		return nil, fmt.Errorf("%w: connection %s is of kind %s", apperrors.ErrInvalid, conn.ID, conn.Kind)
	}

	kubeconfig := conn.MetadataString("kubeconfig")
	if kubeconfig == "" {
		return GetKubernetesConfig()
	}

	loader := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfig},
		&clientcmd.ConfigOverrides{CurrentContext: conn.MetadataString("context")},
	)
	config, err := loader.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: kubernetes connection %s config: %w", apperrors.ErrKubernetes, conn.ID, err)
	}
	return config, nil
}

// DefaultClientFactory builds a real clientset from ConnectionConfig.
func DefaultClientFactory(conn connections.Connection) (kubernetes.Interface, error) {
	config, err := ConnectionConfig(conn)
	if err != nil {
		return nil, err
	}
	if config.Timeout == 0 {
		config.Timeout = defaultRequestTimeout
	}
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, apperrors.WrapKubernetes(err, "create clientset")
	}
	return clientset, nil
}
