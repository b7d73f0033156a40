package connections

import (
	"os"
	"path/filepath"
	"testing"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: dev
  cluster:
    server: https://127.0.0.1:6443
- name: prod
  cluster:
    server: https://prod.example.com:6443
contexts:
- name: kind-dev
  context:
    cluster: dev
    user: dev-admin
    namespace: default
- name: prod-admin
  context:
    cluster: prod
    user: prod-admin
current-context: kind-dev
users:
- name: dev-admin
  user:
    token: dev-token
- name: prod-admin
  user:
    token: prod-token
`

func writeKubeconfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(testKubeconfig), 0600); err != nil {
		t.Fatalf("failed to write kubeconfig: %v", err)
	}
	return path
}
