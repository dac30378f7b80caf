// Package k8s builds topology documents from Kubernetes clusters.
package k8s

import (
	"fmt"
	"strings"

	istio "istio.io/client-go/pkg/clientset/versioned"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Client wraps the Kubernetes and Istio clientsets.
type Client struct {
	clientset kubernetes.Interface
	istio     istio.Interface
}

// NewClient creates a new client using the provided kubeconfig path.
// If kubeconfig is empty, it attempts to use in-cluster config.
func NewClient(kubeconfig string) (*Client, error) {
	var config *rest.Config
	var err error

	if kubeconfig == "" {
		config, err = rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create in-cluster config: %w", err)
		}
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build config from kubeconfig: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	istioClient, err := istio.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create istio clientset: %w", err)
	}

	return &Client{clientset: clientset, istio: istioClient}, nil
}

// NewClientWithInterface creates a new Client with provided clientsets.
// A nil istio clientset skips AuthorizationPolicies. This is useful for
// testing.
func NewClientWithInterface(clientset kubernetes.Interface, istioClient istio.Interface) *Client {
	return &Client{clientset: clientset, istio: istioClient}
}

// ParseNamespaces parses a comma-separated list of namespaces.
func ParseNamespaces(namespaces string) []string {
	parts := strings.Split(namespaces, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
