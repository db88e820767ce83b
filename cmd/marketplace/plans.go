package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/autovitrine/marketplace/internal/store"
	"github.com/autovitrine/marketplace/pkg/pg"
	"github.com/autovitrine/marketplace/pkg/plans"
)

func newPlansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Inspect and publish the plan catalog",
	}
	cmd.AddCommand(newPlansShowCmd(), newPlansPublishCmd())
	return cmd
}

func newPlansShowCmd() *cobra.Command {
	var (
		file   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a catalog file, or the built-in catalog when no file is given",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src := plans.DefaultSource()
			if file != "" {
				src = plans.NewYAMLSource(file)
			}
			catalog, err := src.Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(catalog.Document())
			case "yaml":
				enc := yaml.NewEncoder(out)
				defer enc.Close()
				return enc.Encode(catalog.Document())
			case "table":
				fmt.Fprintf(out, "catalog v%d, base plan %s\n", catalog.Version(), catalog.Base().ID)
				for _, p := range catalog.Plans() {
					fmt.Fprintf(out, "%-14s %-16s R$ %7.2f  vehicles=%-9s featured=%-9s public=%t\n",
						p.ID, p.Name, float64(p.Price.Amount)/100,
						p.Limit(plans.ResourceVehicles), p.Limit(plans.ResourceFeaturedVehicles), p.Public)
				}
				return nil
			}
			return fmt.Errorf("unknown output format %q", format)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog to validate and print")
	cmd.Flags().StringVarP(&format, "output", "o", "table", "output format: table, json, yaml")
	return cmd
}

func newPlansPublishCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Validate a YAML catalog and store it as the latest version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			catalog, err := plans.NewYAMLSource(file).Load(cmd.Context())
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := pg.Connect(cmd.Context(), cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.NewCatalogRepo(pool).Publish(cmd.Context(), catalog); err != nil {
				if errors.Is(err, store.ErrCatalogVersionExists) {
					return fmt.Errorf("catalog version %d is already published, bump the version", catalog.Version())
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published catalog v%d with %d plans\n", catalog.Version(), len(catalog.Plans()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog to publish")
	return cmd
}
