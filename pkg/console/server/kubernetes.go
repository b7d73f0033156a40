package server

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"

	"github.com/garunski/conductor-console/pkg/console/config"
	"github.com/garunski/conductor-console/pkg/console/events"
	"github.com/garunski/conductor-console/pkg/console/kube"
)

// NewKubeChecker returns a checker when the console can reach some cluster
// configuration: the configured kubeconfig, or whatever
// kube.GetKubernetesConfig resolves.
func NewKubeChecker(cfg *config.Config, logger logr.Logger, eventStore events.EventStorage) (*kube.Checker, error) {
	logger.Info("Setting up Kubernetes checker")
	if cfg.Kubeconfig != "" {
		if _, err := os.Stat(cfg.Kubeconfig); err != nil {
			return nil, fmt.Errorf("failed to read kubeconfig %s: %w", cfg.Kubeconfig, err)
		}
	} else if _, err := kube.GetKubernetesConfig(); err != nil {
		return nil, fmt.Errorf("failed to get Kubernetes config: %w", err)
	}

	return kube.NewChecker(kube.DefaultClientFactory, cfg.OperatorNamespace, logger, eventStore), nil
}
