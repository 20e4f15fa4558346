package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/flexoplate-iq/internal/cli"
	"github.com/Veraticus/flexoplate-iq/internal/exposure"
)

func (a *app) exposureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exposure",
		Short: "Convert datasheet UV energy into exposure times",
	}

	cmd.AddCommand(a.exposureCalcCmd())
	cmd.AddCommand(exposureScaleCmd())

	return cmd
}

func (a *app) exposureCalcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc <plate-id>",
		Short: "Exposure times for a plate at a lamp intensity",
		Long: `Divide the plate's datasheet energies (mJ/cm²) by the lamp intensity
(mW/cm²) to get back, main, post and detack times. --equipment uses the
nominal intensity of a catalog exposure unit instead of a measured one.
--floor adjusts the back exposure toward a target floor thickness.`,
		Example: `  flexo exposure calc <plate-id> --intensity 18
  flexo exposure calc <plate-id> --intensity 18 --floor 0.7
  flexo exposure calc <plate-id> --equipment <equipment-id>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			intensity, _ := cmd.Flags().GetFloat64("intensity")
			asJSON, _ := cmd.Flags().GetBool("json")

			var floor *float64
			if cmd.Flags().Changed("floor") {
				f, _ := cmd.Flags().GetFloat64("floor")
				floor = &f
			}

			store, err := a.openStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			eng, err := a.newEngine(store)
			if err != nil {
				return err
			}

			if equipmentID, _ := cmd.Flags().GetString("equipment"); !cmd.Flags().Changed("intensity") {
				if intensity, err = eng.EquipmentIntensity(ctx, equipmentID); err != nil {
					return err
				}
			}

			res, err := eng.CalculateExposure(ctx, args[0], intensity, floor)
			if err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), res)
			}
			return cli.RenderExposure(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().Float64("intensity", 0, "lamp intensity in mW/cm²")
	cmd.Flags().String("equipment", "", "exposure unit id to take the intensity from")
	cmd.Flags().Float64("floor", 0, "target floor thickness in mm")
	cmd.Flags().Bool("json", false, "print the result as JSON")
	cmd.MarkFlagsOneRequired("intensity", "equipment")
	cmd.MarkFlagsMutuallyExclusive("intensity", "equipment")

	return cmd
}

func exposureScaleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scale",
		Short: "Rescale a known exposure time for a different lamp intensity",
		Example: `  # 54s was right at 20 mW/cm², the lamps now read 15
  flexo exposure scale --time 54 --ref-intensity 20 --intensity 15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			timeS, _ := cmd.Flags().GetFloat64("time")
			ref, _ := cmd.Flags().GetFloat64("ref-intensity")
			current, _ := cmd.Flags().GetFloat64("intensity")
			asJSON, _ := cmd.Flags().GetBool("json")

			res, err := exposure.Scale(timeS, ref, current)
			if err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), res)
			}
			return cli.RenderScale(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().Float64("time", 0, "known exposure time in seconds")
	cmd.Flags().Float64("ref-intensity", 0, "lamp intensity the known time was measured at")
	cmd.Flags().Float64("intensity", 0, "current lamp intensity")
	cmd.Flags().Bool("json", false, "print the result as JSON")
	for _, name := range []string{"time", "ref-intensity", "intensity"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
