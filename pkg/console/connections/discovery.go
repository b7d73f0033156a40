package connections

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"k8s.io/client-go/tools/clientcmd"

	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
)

// kubernetesNamespace seeds the name-based ids of discovered Kubernetes contexts.
var kubernetesNamespace = uuid.MustParse("5c1c6f0e-3a8e-4d0f-9c57-2f0d8a4d7e61")

// KubernetesConnectionID derives a stable connection id from a cluster server
// URL and a kubeconfig context name.
func KubernetesConnectionID(server, context string) string {
	return uuid.NewSHA1(kubernetesNamespace, []byte(server+"|"+context)).String()
}

// DiscoverKubernetes registers one connection per context found in the
// kubeconfig at path. New contexts are stored as discovered; contexts that
// are already known keep their status and only have their metadata refreshed.
func (s *Storage) DiscoverKubernetes(path string) ([]Connection, error) {
	cfg, err := clientcmd.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load kubeconfig %s: %w", apperrors.ErrInvalid, path, err)
	}

	names := make([]string, 0, len(cfg.Contexts))
	for name := range cfg.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)

	discovered := make([]Connection, 0, len(names))
	for _, name := range names {
		kubeContext := cfg.Contexts[name]
		if kubeContext == nil {
			continue
		}
		server := ""
		if cluster, ok := cfg.Clusters[kubeContext.Cluster]; ok && cluster != nil {
			server = cluster.Server
		}

		c := Connection{
			ID:      KubernetesConnectionID(server, name),
			Name:    name,
			Kind:    KindKubernetes,
			Type:    "platform",
			SubType: "orchestrator",
			Status:  StatusDiscovered,
			Metadata: map[string]interface{}{
				"server":     server,
				"context":    name,
				"cluster":    kubeContext.Cluster,
				"namespace":  kubeContext.Namespace,
				"kubeconfig": path,
			},
		}
		if existing, err := s.Get(c.ID); err == nil {
			c.Status = existing.Status
			c.CredentialID = existing.CredentialID
		}

		saved, err := s.Save(c)
		if err != nil {
			return discovered, fmt.Errorf("save discovered context %s: %w", name, err)
		}
		discovered = append(discovered, saved)
	}

	s.logger.Info("Discovered Kubernetes contexts", "kubeconfig", path, "count", len(discovered))
	return discovered, nil
}
