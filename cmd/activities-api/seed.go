// cmd/activities-api/seed.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mergington-activities/pkg/registry"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Inspect and edit seed catalogs",
	}
	cmd.AddCommand(newSeedValidateCmd(), newSeedAddCmd(), newSeedUpdateCmd())
	return cmd
}

func newSeedValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a catalog against the schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(args[0])
			if err != nil {
				return fmt.Errorf("catalog validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog valid: %d activities\n", len(reg.Activities))
			return nil
		},
	}
}

func newSeedAddCmd() *cobra.Command {
	var (
		file         string
		activity     registry.Activity
		participants []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append an activity to a catalog, creating the file if needed",
		Long: `Append an activity to a catalog, creating the file if needed.

Examples:
  activities-api seed add --file catalog.yaml --name Robotics \
    --description "Build and program robots" \
    --schedule "Mondays, 3:30 PM - 5:00 PM" --max-participants 8`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(file)
			if err != nil {
				if !os.IsNotExist(err) {
					return fmt.Errorf("failed to load catalog: %w", err)
				}
				reg = &registry.ActivityRegistry{
					Version:     "1.0.0",
					LastUpdated: time.Now().UTC().Format(time.RFC3339),
				}
			}

			activity.Participants = participants
			if err := reg.AddActivity(activity); err != nil {
				return err
			}
			if err := registry.Validate(reg); err != nil {
				return err
			}
			if err := registry.Save(reg, file); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", activity.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog file (YAML, or JSON with a .json extension)")
	cmd.Flags().StringVar(&activity.Name, "name", "", "activity name")
	cmd.Flags().StringVar(&activity.Description, "description", "", "activity description")
	cmd.Flags().StringVar(&activity.Schedule, "schedule", "", "human-readable schedule")
	cmd.Flags().IntVar(&activity.MaxParticipants, "max-participants", 0, "advertised capacity")
	cmd.Flags().StringArrayVar(&participants, "participant", nil, "initial participant email (repeatable)")
	for _, name := range []string{"file", "name", "description", "schedule", "max-participants"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newSeedUpdateCmd() *cobra.Command {
	var file, name, field, value string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change description, schedule or max_participants of an activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(file)
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}
			if err := reg.UpdateActivity(name, field, value); err != nil {
				return err
			}
			if err := registry.Validate(reg); err != nil {
				return err
			}
			if err := registry.Save(reg, file); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", name, field, value)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog file")
	cmd.Flags().StringVar(&name, "name", "", "activity name")
	cmd.Flags().StringVar(&field, "field", "", "description, schedule or max_participants")
	cmd.Flags().StringVar(&value, "value", "", "new value")
	for _, flag := range []string{"file", "name", "field", "value"} {
		_ = cmd.MarkFlagRequired(flag)
	}
	return cmd
}
