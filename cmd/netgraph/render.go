package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/diagram"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/render"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/tui"
)

const (
	defaultHTMLOutput = "network-map.html"
	defaultSVGOutput  = "network-map.svg"
)

// queryFlags are the highlight selectors shared by the diagram commands.
type queryFlags struct {
	addr, src, dst, nodeType string
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&q.addr, "addr", "", "highlight the networks containing this address")
	cmd.Flags().StringVar(&q.src, "src", "", "path source address (requires --dst)")
	cmd.Flags().StringVar(&q.dst, "dst", "", "path destination address (requires --src)")
	cmd.Flags().StringVar(&q.nodeType, "node-type", "", "keep only path nodes of this type")
}

func (q *queryFlags) query() diagram.Query {
	return diagram.Query{Addr: q.addr, Src: q.src, Dst: q.dst, NodeType: graph.NodeType(q.nodeType)}
}

func titleOf(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// settled loads the document at path and lays it out without a timer.
func settled(path string, q diagram.Query) (*diagram.Diagram, error) {
	doc, err := graph.Load(path)
	if err != nil {
		return nil, err
	}
	return diagram.Render(doc, q, cfg.Simulation.MaxTicks, diagram.ConfigOptions(cfg.Simulation)...)
}

func writeOutput(path, content string) error {
	if path == "-" {
		_, err := fmt.Fprint(os.Stdout, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func renderCmd() *cobra.Command {
	var (
		q      queryFlags
		output string
		title  string
	)

	cmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Render a topology document as an interactive HTML page",
		Long: `Lay out a node-link document (JSON or YAML) and write a D3 page that
continues the simulation in the browser.

  netgraph render lab.json
  netgraph render lab.json --addr 10.0.1.7 -o lab.html
  netgraph render lab.json --src 10.0.1.7 --dst 10.0.2.9 --node-type firewall`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := settled(args[0], q.query())
			if err != nil {
				return err
			}
			defer d.Close()

			renderer, err := render.NewHTMLRenderer()
			if err != nil {
				return fmt.Errorf("failed to create renderer: %w", err)
			}
			if title == "" {
				title = titleOf(args[0])
			}
			html, err := renderer.Render(title, d)
			if err != nil {
				return fmt.Errorf("failed to render graph: %w", err)
			}
			if err := writeOutput(output, html); err != nil {
				return err
			}
			if output != "-" {
				m := d.Model()
				fmt.Printf("%s %d nodes, %d links\n", statusIcon(true), len(m.Nodes), len(m.Links))
				fmt.Printf("Network map written to: %s\n", Info.Sprint(output))
			}
			return nil
		},
	}
	q.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", defaultHTMLOutput, `output HTML file path ("-" for stdout)`)
	cmd.Flags().StringVar(&title, "title", "", "page title (default document name)")
	return cmd
}

func snapshotCmd() *cobra.Command {
	var (
		q      queryFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "snapshot <document>",
		Short: "Write a static SVG of the settled layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := settled(args[0], q.query())
			if err != nil {
				return err
			}
			defer d.Close()

			renderer, err := render.NewSVGRenderer()
			if err != nil {
				return fmt.Errorf("failed to create renderer: %w", err)
			}
			svg, err := renderer.Render(d)
			if err != nil {
				return fmt.Errorf("failed to render snapshot: %w", err)
			}
			if err := writeOutput(output, svg); err != nil {
				return err
			}
			if output != "-" {
				fmt.Printf("Snapshot written to: %s\n", Info.Sprint(output))
			}
			return nil
		},
	}
	q.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", defaultSVGOutput, `output SVG file path ("-" for stdout)`)
	return cmd
}

func viewCmd() *cobra.Command {
	var q queryFlags

	cmd := &cobra.Command{
		Use:   "view <document>",
		Short: "Explore a topology document in the terminal",
		Long: `Run the live simulation in the terminal. Drag nodes with the mouse,
hover for a tooltip, click for details.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := graph.Load(args[0])
			if err != nil {
				return err
			}
			sets, err := q.query().Highlights(doc)
			if err != nil {
				return fmt.Errorf("failed to resolve highlights: %w", err)
			}

			opts := diagram.ConfigOptions(cfg.Simulation)
			for _, s := range sets {
				opts = append(opts, diagram.WithHighlights(s.Name, s.Addrs))
			}
			d, err := diagram.Build(doc, opts...)
			if err != nil {
				return err
			}
			defer d.Close()

			return tui.Run(titleOf(args[0]), d)
		},
	}
	q.register(cmd)
	return cmd
}
