package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/flexoplate-iq/internal/cli"
	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/service"
)

func (a *app) platesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plates",
		Short: "Browse the plate catalog",
	}

	cmd.AddCommand(a.platesListCmd())
	cmd.AddCommand(a.platesShowCmd())
	cmd.AddCommand(a.familiesCmd())

	return cmd
}

func (a *app) platesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog plates",
		Long: `List active catalog plates, optionally narrowed by supplier, family,
process or thickness. --search matches plate names, families and SKUs.`,
		Args: cobra.NoArgs,
		RunE: a.runPlatesList,
	}

	cmd.Flags().String("supplier", "", "supplier name")
	cmd.Flags().String("family", "", "family name")
	cmd.Flags().String("process", "", "process type (solvent, thermal, water_wash)")
	cmd.Flags().Float64("thickness", 0, "thickness in mm")
	cmd.Flags().String("search", "", "free text search")
	cmd.Flags().String("org", "", "include this organization's private plates")
	cmd.Flags().Bool("all", false, "include inactive plates")
	cmd.Flags().Int("limit", 0, "maximum number of plates")
	cmd.Flags().Bool("json", false, "print plates as JSON")

	return cmd
}

func (a *app) runPlatesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var filter service.PlateFilter
	filter.Supplier, _ = cmd.Flags().GetString("supplier")
	filter.Family, _ = cmd.Flags().GetString("family")
	filter.Search, _ = cmd.Flags().GetString("search")
	filter.IncludeInactive, _ = cmd.Flags().GetBool("all")
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")
	org, _ := cmd.Flags().GetString("org")
	filter.OrganizationID = optional(org)

	if process, _ := cmd.Flags().GetString("process"); process != "" {
		filter.ProcessType = model.ProcessType(process)
		switch filter.ProcessType {
		case model.ProcessSolvent, model.ProcessThermal, model.ProcessWaterWash:
		default:
			return fmt.Errorf("unknown process type %q", process)
		}
	}
	if cmd.Flags().Changed("thickness") {
		thickness, _ := cmd.Flags().GetFloat64("thickness")
		if thickness <= 0 {
			return fmt.Errorf("--thickness must be positive, got %g", thickness)
		}
		filter.ThicknessMM = &thickness
	}

	store, err := a.openStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	plates, err := store.GetPlates(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list plates: %w", err)
	}

	if asJSON {
		return cli.WriteJSON(cmd.OutOrStdout(), plates)
	}
	return cli.RenderPlates(cmd.OutOrStdout(), plates)
}

func (a *app) platesShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <plate-id>",
		Short: "Show every attribute of a plate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			asJSON, _ := cmd.Flags().GetBool("json")

			store, err := a.openStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			plate, err := store.GetPlate(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), plate)
			}
			return cli.RenderPlate(cmd.OutOrStdout(), *plate)
		},
	}
	cmd.Flags().Bool("json", false, "print the plate as JSON")
	return cmd
}

func (a *app) familiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "families",
		Short: "List plate families",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			supplier, _ := cmd.Flags().GetString("supplier")

			store, err := a.openStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			families, err := store.GetPlateFamilies(ctx, supplier)
			if err != nil {
				return fmt.Errorf("failed to list families: %w", err)
			}
			return cli.RenderFamilies(cmd.OutOrStdout(), families)
		},
	}
	cmd.Flags().String("supplier", "", "only this supplier's families")
	return cmd
}

func (a *app) suppliersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suppliers",
		Short: "Manage plate suppliers",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List suppliers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			asJSON, _ := cmd.Flags().GetBool("json")

			store, err := a.openStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			suppliers, err := store.GetSuppliers(ctx)
			if err != nil {
				return fmt.Errorf("failed to list suppliers: %w", err)
			}
			if asJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), suppliers)
			}
			if len(suppliers) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No suppliers yet. Run 'flexo catalog seed' to load the reference catalog."))
				return err
			}
			return cli.RenderSuppliers(cmd.OutOrStdout(), suppliers)
		},
	}
	list.Flags().Bool("json", false, "print suppliers as JSON")

	cmd.AddCommand(list)
	return cmd
}
