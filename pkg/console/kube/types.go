package kube

import "time"

const (
	DefaultOperatorNamespace = "meshery"

	OperatorDeployment = "meshery-operator"
	MeshSyncDeployment = "meshery-meshsync"
	BrokerStatefulSet  = "meshery-broker"

	meshSyncSelector = "component=meshsync"
)

type PingResult struct {
	ConnectionID string        `json:"connection_id"`
	Version      string        `json:"version"`
	Platform     string        `json:"platform,omitempty"`
	Latency      time.Duration `json:"latency"`
}

// Component describes one workload of the operator stack.
type Component struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Ready   bool   `json:"ready"`
	Version string `json:"version,omitempty"`
}

type OperatorStatus struct {
	ConnectionID string    `json:"connection_id"`
	Namespace    string    `json:"namespace"`
	Operator     Component `json:"operator"`
	MeshSync     Component `json:"meshsync"`
	Broker       Component `json:"broker"`
}
