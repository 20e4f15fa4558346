package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/flexoplate-iq/internal/cli"
	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/service"
)

func (a *app) equipmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "equipment",
		Short: "Browse platemaking equipment",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List equipment models",
		Long: `List exposure units, processors, imagers and finishers in the catalog.
--type takes an exact equipment type or one of the categories exposure,
processor, imager and dryer.`,
		Example: `  flexo equipment list --type exposure
  flexo equipment list --supplier XSYS --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			kind, _ := cmd.Flags().GetString("type")
			supplier, _ := cmd.Flags().GetString("supplier")
			asJSON, _ := cmd.Flags().GetBool("json")

			types, err := model.ParseEquipmentTypes(kind)
			if err != nil {
				return err
			}

			store, err := a.openStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			equipment, err := store.GetEquipmentModels(ctx, service.EquipmentFilter{Supplier: supplier, Types: types})
			if err != nil {
				return fmt.Errorf("failed to list equipment: %w", err)
			}
			if asJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), equipment)
			}
			if len(equipment) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No equipment matches. Run 'flexo catalog seed' to load the reference catalog."))
				return err
			}
			return cli.RenderEquipment(cmd.OutOrStdout(), equipment)
		},
	}
	list.Flags().String("type", "", "equipment type or category")
	list.Flags().String("supplier", "", "only this supplier's equipment")
	list.Flags().Bool("json", false, "print equipment as JSON")

	cmd.AddCommand(list)
	return cmd
}
