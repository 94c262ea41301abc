// cmd/activities-api/activities.go
package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"mergington-activities/internal/activities"
	"mergington-activities/pkg/registry"
)

func newActivitiesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activities",
		Short: "Inspect the activity roster",
	}

	var seedPath string
	cmd.PersistentFlags().StringVar(&seedPath, "seed", "",
		"seed catalog file (default: seed.path from config, else the embedded catalog)")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the startup roster as JSON",
		Long: `Print the roster the server would start with, in the same shape as
GET /activities.

Examples:
  activities-api activities list
  activities-api activities list --seed ./catalog.yaml | jq 'keys'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := startupRegistry(cmd, root, seedPath)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), reg.List(cmd.Context()))
		},
	}

	get := &cobra.Command{
		Use:   "get <name>",
		Short: "Print one activity of the startup roster as JSON",
		Long: `Print one activity of the startup roster as JSON.

Examples:
  activities-api activities get "Chess Club"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := startupRegistry(cmd, root, seedPath)
			if err != nil {
				return err
			}
			activity, err := reg.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), activity)
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

// startupRegistry builds the registry the server would start with. An
// explicit --seed wins over seed.path from config.
func startupRegistry(cmd *cobra.Command, root *rootOptions, seedPath string) (*activities.Registry, error) {
	path := seedPath
	if !cmd.Flags().Changed("seed") {
		cfg, err := root.loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Seed.Path
	}

	var (
		seed *registry.ActivityRegistry
		err  error
	)
	if path == "" {
		seed, err = registry.Default()
	} else {
		seed, err = registry.LoadRegistry(path)
	}
	if err != nil {
		return nil, err
	}
	return activities.NewRegistry(seed)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
