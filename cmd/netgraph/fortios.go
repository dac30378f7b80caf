package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/fortios"
)

func fortiosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fortios",
		Short: "Parse FortiOS configuration dumps",
		Long: `Parse "show full-configuration" output and normalize its firewall
policies.

  netgraph fortios parse fw01.conf --group firewall
  netgraph fortios policies fw01.conf --search LAN_NET`,
	}
	cmd.AddCommand(fortiosParseCmd(), fortiosPoliciesCmd())
	return cmd
}

func loadFortiOS(path string) (*fortios.Configs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	defer f.Close()
	return fortios.Parse(f)
}

func fortiosParseCmd() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "parse <config>",
		Short: "Print the parsed configuration tree as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if group != "" {
				if err := fortios.ValidateGroup(group); err != nil {
					return err
				}
			}
			configs, err := loadFortiOS(args[0])
			if err != nil {
				return err
			}

			var v any = configs
			if group != "" {
				if v, err = configs.Group(group); err != nil {
					return err
				}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "print only this config group (firewall, router)")
	return cmd
}

func fortiosPoliciesCmd() *cobra.Command {
	var (
		profileName string
		search      string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "policies <config>",
		Short: "Print the normalized firewall policy table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("profile") {
				profileName = cfg.FortiOS.Profile
			}
			profile, err := fortios.ProfileByName(profileName)
			if err != nil {
				return err
			}
			configs, err := loadFortiOS(args[0])
			if err != nil {
				return err
			}
			rows, err := configs.Policies(profile)
			if err != nil {
				return err
			}
			if search != "" {
				rows = fortios.Search(rows, search)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"profile": profile.Name, "firewall_policies": rows})
			}

			if host, ok := configs.Hostname(); ok {
				fmt.Printf("%s %s\n", Brand.Sprint(host), Subtle.Sprintf("(%s profile)", profile.Name))
			}
			fmt.Printf("%s\n\n", Info.Sprintf("%d firewall policies", len(rows)))

			headers := append([]string{fortios.KeyID}, profile.Keys...)
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				line := make([]string, len(headers))
				for i, k := range headers {
					line[i] = r.Get(k)
				}
				table = append(table, line)
			}
			printTable(os.Stdout, headers, table)
			return nil
		},
	}
	cmd.Flags().StringVar(&profileName, "profile", "", "normalization profile: full, legacy (default from config)")
	cmd.Flags().StringVar(&search, "search", "", "keep only policies mentioning this word")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print rows as JSON")
	return cmd
}
