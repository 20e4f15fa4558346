package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/flexoplate-iq/internal/cli"
	"github.com/Veraticus/flexoplate-iq/internal/common"
	"github.com/Veraticus/flexoplate-iq/internal/model"
)

func (a *app) overridesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "overrides",
		Aliases: []string{"override"},
		Short:   "Manage reviewer overrides",
		Long: `An override records a reviewer's similarity score for one ordered pair
of plates. It replaces the computed score whenever that pair is ranked.`,
	}

	cmd.AddCommand(a.overridesListCmd())
	cmd.AddCommand(a.overridesAddCmd())
	cmd.AddCommand(a.overridesDeleteCmd())

	return cmd
}

func (a *app) overridesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [source-plate-id]",
		Short: "List override rules, optionally for one source plate",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			asJSON, _ := cmd.Flags().GetBool("json")

			store, err := a.openStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			var rules []model.OverrideRule
			if len(args) == 1 {
				rules, err = store.GetOverrideRulesForSource(ctx, args[0])
			} else {
				rules, err = store.GetOverrideRules(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list overrides: %w", err)
			}

			if asJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), rules)
			}
			return cli.RenderOverrides(cmd.OutOrStdout(), rules)
		},
	}
	cmd.Flags().Bool("json", false, "print rules as JSON")
	return cmd
}

func (a *app) overridesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a reviewer score for a plate pair",
		Long: `Record a reviewer score for a source and target plate. Adding a rule
for a pair that already has one replaces it.`,
		Example: `  flexo overrides add --source <plate-id> --target <plate-id> --score 92 --confidence verified`,
		Args:    cobra.NoArgs,
		RunE:    a.runOverridesAdd,
	}

	cmd.Flags().String("source", "", "source plate id")
	cmd.Flags().String("target", "", "target plate id")
	cmd.Flags().Int("score", -1, "similarity score (0-100)")
	cmd.Flags().String("confidence", string(model.ConfidenceMedium), "confidence (low, medium, high, verified)")
	cmd.Flags().String("notes", "", "why the computed score is wrong")
	cmd.Flags().String("by", "", "reviewer name")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("score")

	return cmd
}

func (a *app) runOverridesAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rule := model.OverrideRule{}
	rule.SourcePlateID, _ = cmd.Flags().GetString("source")
	rule.TargetPlateID, _ = cmd.Flags().GetString("target")
	rule.SimilarityScore, _ = cmd.Flags().GetInt("score")
	rule.AdjustmentNotes, _ = cmd.Flags().GetString("notes")
	rule.CreatedBy, _ = cmd.Flags().GetString("by")
	confidence, _ := cmd.Flags().GetString("confidence")
	rule.ConfidenceLevel = model.ConfidenceLevel(strings.ToLower(strings.TrimSpace(confidence)))

	if err := rule.Validate(); err != nil {
		return fmt.Errorf("invalid override: %w", err)
	}

	store, err := a.openStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	for _, id := range []string{rule.SourcePlateID, rule.TargetPlateID} {
		if _, err := store.GetPlate(ctx, id); err != nil {
			if common.IsNotFound(err) {
				return common.NewUserError(fmt.Sprintf("No plate with id %s", id), err)
			}
			return err
		}
	}

	if err := store.SaveOverrideRule(ctx, &rule); err != nil {
		return fmt.Errorf("failed to save override: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
		fmt.Sprintf("Saved override %s: %d/100 (%s)", rule.ID, rule.SimilarityScore, rule.ConfidenceLevel)))
	return err
}

func (a *app) overridesDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <override-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an override rule",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			yes, _ := cmd.Flags().GetBool("yes")

			store, err := a.openStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			rule, err := store.GetOverrideRule(ctx, args[0])
			if err != nil {
				return err
			}

			if !yes {
				if err := cli.RenderOverrides(cmd.OutOrStdout(), []model.OverrideRule{*rule}); err != nil {
					return err
				}
				ok, err := cli.NewConfirmer(cmd.InOrStdin(), cmd.OutOrStdout()).Confirm(ctx, "Delete this override?", false)
				if err != nil {
					return err
				}
				if !ok {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Kept override "+rule.ID))
					return err
				}
			}

			if err := store.DeleteOverrideRule(ctx, rule.ID); err != nil {
				return fmt.Errorf("failed to delete override: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted override "+rule.ID))
			return err
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "delete without asking")
	return cmd
}
