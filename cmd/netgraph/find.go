package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
)

func findCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Search a topology document by address",
		Long: `Look up networks and paths in a node-link document.

  netgraph find addr lab.json 10.0.1.7
  netgraph find path lab.json 10.0.1.7 10.0.2.9 --node-type firewall`,
	}
	cmd.AddCommand(findAddrCmd(), findPathCmd())
	return cmd
}

func loadFinder(path string) (*graph.Finder, error) {
	doc, err := graph.Load(path)
	if err != nil {
		return nil, err
	}
	return graph.NewFinder(doc)
}

func nodeRow(n graph.NodeSpec) []string {
	return []string{string(n.ID), string(n.Type), n.Name, strings.Join(n.Addrs, " ")}
}

var nodeHeaders = []string{"ID", "TYPE", "NAME", "ADDRS"}

func findAddrCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "addr <document> <ip>",
		Short: "List the networks containing an address, most specific first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFinder(args[0])
			if err != nil {
				return err
			}
			nets, err := f.NetworksByAddr(args[1])
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n\n", statusIcon(len(nets) > 0), Info.Sprintf("%d network(s) contain %s", len(nets), args[1]))
			rows := make([][]string, 0, len(nets))
			for _, n := range nets {
				rows = append(rows, nodeRow(n))
			}
			printTable(os.Stdout, nodeHeaders, rows)
			return nil
		},
	}
}

func findPathCmd() *cobra.Command {
	var nodeType string

	cmd := &cobra.Command{
		Use:   "path <document> <src> <dst>",
		Short: "List the shortest paths between the networks of two addresses",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFinder(args[0])
			if err != nil {
				return err
			}
			paths, err := f.Paths(args[1], args[2], graph.NodeType(nodeType))
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n", statusIcon(len(paths) > 0), Info.Sprintf("%d path(s) from %s to %s", len(paths), args[1], args[2]))
			for i, p := range paths {
				fmt.Println()
				Brand.Printf("  path %d\n", i)
				rows := make([][]string, 0, len(p))
				for _, n := range p {
					rows = append(rows, nodeRow(n))
				}
				printTable(os.Stdout, nodeHeaders, rows)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&nodeType, "node-type", "", `keep only path nodes of this type ("any" keeps all)`)
	return cmd
}
