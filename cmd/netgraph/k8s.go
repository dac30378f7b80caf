package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"k8s.io/client-go/util/homedir"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/diagram"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/k8s"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/render"
)

func defaultKubeconfig() string {
	if home := homedir.HomeDir(); home != "" {
		return filepath.Join(home, ".kube", "config")
	}
	return ""
}

func k8sCmd() *cobra.Command {
	var (
		kubeconfig string
		namespaces string
		output     string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "k8s",
		Short: "Map a Kubernetes cluster into a topology",
		Long: `Scan cluster nodes, pods, services, NetworkPolicies and Istio
AuthorizationPolicies and write the topology as an HTML map or as a
node-link document.

  netgraph k8s --namespaces default,payments
  netgraph k8s --format yaml -o cluster.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("kubeconfig") && cfg.Kubernetes.Kubeconfig != "" {
				kubeconfig = cfg.Kubernetes.Kubeconfig
			}
			if !cmd.Flags().Changed("namespaces") {
				namespaces = cfg.Kubernetes.Namespaces
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			doc, err := clusterTopology(ctx, kubeconfig, namespaces)
			if err != nil {
				return err
			}
			fmt.Printf("Generated topology with %d nodes and %d links\n", len(doc.Nodes), len(doc.Links))

			content, err := encodeTopology(doc, format)
			if err != nil {
				return err
			}
			if output == "" {
				output = "network-map." + format
			}
			if err := writeOutput(output, content); err != nil {
				return err
			}
			if output != "-" {
				fmt.Printf("Network map written to: %s\n", Info.Sprint(output))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kubeconfig, "kubeconfig", defaultKubeconfig(), "path to the kubeconfig file (empty for in-cluster)")
	cmd.Flags().StringVar(&namespaces, "namespaces", "", "comma-separated list of namespaces to scan")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file path ("-" for stdout, default network-map.<format>)`)
	cmd.Flags().StringVar(&format, "format", "html", "output format: html, json, yaml")
	return cmd
}

func clusterTopology(ctx context.Context, kubeconfig, namespaces string) (*graph.Document, error) {
	client, err := k8s.NewClient(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	nsList := k8s.ParseNamespaces(namespaces)
	fmt.Printf("Scanning namespaces: %s\n", strings.Join(nsList, ", "))

	doc, err := client.Topology(ctx, nsList)
	if err != nil {
		return nil, fmt.Errorf("failed to collect topology: %w", err)
	}
	return doc, nil
}

func encodeTopology(doc *graph.Document, format string) (string, error) {
	switch format {
	case "json":
		data, err := doc.Encode()
		return string(data) + "\n", err
	case "yaml":
		data, err := doc.ToYAML()
		return string(data), err
	case "html":
		d, err := diagram.Render(doc, diagram.Query{}, cfg.Simulation.MaxTicks, diagram.ConfigOptions(cfg.Simulation)...)
		if err != nil {
			return "", err
		}
		defer d.Close()

		renderer, err := render.NewHTMLRenderer()
		if err != nil {
			return "", fmt.Errorf("failed to create renderer: %w", err)
		}
		return renderer.Render("cluster", d)
	default:
		return "", fmt.Errorf("unknown format %q, try one of html, json, yaml", format)
	}
}
