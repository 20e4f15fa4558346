package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/flexoplate-iq/internal/catalog"
	"github.com/Veraticus/flexoplate-iq/internal/cli"
	"github.com/Veraticus/flexoplate-iq/internal/model"
)

func (a *app) profilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile"},
		Short:   "Manage weight profiles",
		Long: `Weight profiles decide how much each attribute counts toward the
similarity score, and how far thickness and hardness may drift before
they stop counting as a match.`,
	}

	cmd.AddCommand(a.profilesListCmd())
	cmd.AddCommand(a.profilesAddCmd())
	cmd.AddCommand(a.profilesSetDefaultCmd())

	return cmd
}

func (a *app) profilesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List global profiles and an organization's own",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			org, _ := cmd.Flags().GetString("org")
			asJSON, _ := cmd.Flags().GetBool("json")

			store, err := a.openStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			profiles, err := store.GetWeightProfiles(ctx, optional(org))
			if err != nil {
				return fmt.Errorf("failed to list profiles: %w", err)
			}
			if asJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), profiles)
			}
			return cli.RenderProfiles(cmd.OutOrStdout(), profiles)
		},
	}
	cmd.Flags().String("org", "", "organization id")
	cmd.Flags().Bool("json", false, "print profiles as JSON")
	return cmd
}

func (a *app) profilesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create or update a weight profile",
		Long: `Create a weight profile from the standard weights. Each --weight flag
replaces one attribute weight. Saving a profile with the same name and
organization again updates it.

Attributes: thickness, process_type, hardness, surface_type, lpi_range,
application, ink_compat.`,
		Example: `  flexo profiles add --name "Thickness first" --weight thickness=60 --weight lpi_range=0
  flexo profiles add --name Strict --org acme --thickness-tolerance 0.02 --default`,
		Args: cobra.NoArgs,
		RunE: a.runProfilesAdd,
	}

	cmd.Flags().String("name", "", "profile name")
	cmd.Flags().String("org", "", "organization that owns the profile (default: global)")
	cmd.Flags().StringToString("weight", nil, "attribute weight as attr=value (repeatable)")
	cmd.Flags().Float64("hardness-tolerance", 0, "hardness tolerance in Shore A (default from the standard profile)")
	cmd.Flags().Float64("thickness-tolerance", 0, "thickness tolerance in mm (default from the standard profile)")
	cmd.Flags().Bool("default", false, "make this the default profile for its scope")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func (a *app) runProfilesAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	name, _ := cmd.Flags().GetString("name")
	org, _ := cmd.Flags().GetString("org")
	weights, _ := cmd.Flags().GetStringToString("weight")
	isDefault, _ := cmd.Flags().GetBool("default")

	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("--name must not be empty")
	}

	profile := model.DefaultWeightProfile()
	profile.Name = name
	profile.OrganizationID = optional(org)
	profile.IsDefault = isDefault
	profile.ID = catalog.ProfileID(org, name)

	profile, err := applyWeights(profile, weights)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("hardness-tolerance") {
		profile.HardnessTolerance, _ = cmd.Flags().GetFloat64("hardness-tolerance")
	}
	if cmd.Flags().Changed("thickness-tolerance") {
		profile.ThicknessToleranceMM, _ = cmd.Flags().GetFloat64("thickness-tolerance")
	}
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	store, err := a.openStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	if err := store.SaveWeightProfile(ctx, &profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved profile %q (%s)", profile.Name, profile.ID)))
	return err
}

// applyWeights replaces the named attribute weights with the parsed values.
func applyWeights(profile model.WeightProfile, raw map[string]string) (model.WeightProfile, error) {
	for key, value := range raw {
		attr := model.Attribute(strings.TrimSpace(key))
		if !attr.IsKnown() {
			return profile, fmt.Errorf("%w: %q", model.ErrUnknownAttribute, key)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return profile, fmt.Errorf("invalid weight for %s: %w", attr, err)
		}
		profile = profile.WithWeight(attr, w)
	}
	return profile, nil
}

func (a *app) profilesSetDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-default <profile-id>",
		Short: "Make a profile the default for its scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := a.openStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			if err := store.SetDefaultWeightProfile(ctx, args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Default profile set to "+args[0]))
			return err
		},
	}
}
