package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/flexoplate-iq/internal/api"
	"github.com/Veraticus/flexoplate-iq/internal/cli"
	"github.com/Veraticus/flexoplate-iq/internal/engine"
	"github.com/Veraticus/flexoplate-iq/internal/equivalency"
	"github.com/Veraticus/flexoplate-iq/internal/tui"
)

func (a *app) equivalentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "equivalents <plate-id>",
		Aliases: []string{"eq", "match"},
		Short:   "Find equivalent plates from other suppliers",
		Long: `Rank catalog plates by similarity to the given plate.

Plates from the source plate's own supplier are left out unless
--same-supplier is set or --supplier names a target supplier. Reviewer
overrides replace the computed score for their plate pair.

--substrate, --ink and --application describe the job. They add notes
saying whether each candidate lists it, without changing the score.`,
		Example: `  flexo plates list --search "FTF 1.14"
  flexo equivalents <plate-id> --supplier Miraclon --limit 3
  flexo equivalents <plate-id> --min-score 70 --substrate film --ink UV -v
  flexo equivalents <plate-id> --org acme --interactive`,
		Args: cobra.ExactArgs(1),
		RunE: a.runEquivalents,
	}

	cmd.Flags().StringP("supplier", "s", "", "only rank plates from this supplier")
	cmd.Flags().IntP("limit", "n", 0, "maximum number of results (default from matching.default_limit)")
	cmd.Flags().String("org", "", "organization whose private plates and profiles apply")
	cmd.Flags().String("profile", "", "weight profile id (default: organization or global default)")
	cmd.Flags().Bool("same-supplier", false, "include plates from the source plate's supplier")
	cmd.Flags().Int("min-score", 0, "drop candidates scoring below this (default from matching.min_score)")
	cmd.Flags().String("substrate", "", "substrate the job prints on")
	cmd.Flags().String("ink", "", "ink system the job uses")
	cmd.Flags().String("application", "", "application the job is for")
	cmd.Flags().BoolP("verbose", "v", false, "show every match note")
	cmd.Flags().Bool("json", false, "print results as JSON")
	cmd.Flags().BoolP("interactive", "i", false, "browse results in an interactive table")
	cmd.Flags().Bool("inline", false, "keep the interactive browser in the scrollback instead of the full screen")
	cmd.MarkFlagsMutuallyExclusive("json", "interactive")

	return cmd
}

func (a *app) runEquivalents(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	supplier, _ := cmd.Flags().GetString("supplier")
	limit, _ := cmd.Flags().GetInt("limit")
	org, _ := cmd.Flags().GetString("org")
	profileID, _ := cmd.Flags().GetString("profile")
	verbose, _ := cmd.Flags().GetBool("verbose")
	asJSON, _ := cmd.Flags().GetBool("json")
	interactive, _ := cmd.Flags().GetBool("interactive")
	inline, _ := cmd.Flags().GetBool("inline")

	prefs := equivalency.Preferences{}
	prefs.Substrate, _ = cmd.Flags().GetString("substrate")
	prefs.InkSystem, _ = cmd.Flags().GetString("ink")
	prefs.Application, _ = cmd.Flags().GetString("application")

	if limit < 0 {
		return fmt.Errorf("--limit must not be negative, got %d", limit)
	}
	var minScore *int
	if cmd.Flags().Changed("min-score") {
		floor, _ := cmd.Flags().GetInt("min-score")
		if floor < 0 || floor > 100 {
			return fmt.Errorf("--min-score must be between 0 and 100, got %d", floor)
		}
		minScore = &floor
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

	req := engine.Request{
		SourcePlateID:  args[0],
		TargetSupplier: supplier,
		ProfileID:      profileID,
		OrganizationID: optional(org),
		Limit:          limit,
		MinScore:       minScore,
		Preferences:    prefs,
	}
	if cmd.Flags().Changed("same-supplier") {
		same, _ := cmd.Flags().GetBool("same-supplier")
		req.IncludeSameSupplier = &same
	}

	resp, err := eng.FindEquivalents(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case asJSON:
		return cli.WriteJSON(out, api.NewFindResponse(resp))
	case interactive:
		opts := []tui.Option{
			tui.WithSearcher(req, eng.FindEquivalents),
			tui.WithIO(cmd.InOrStdin(), out),
		}
		if inline {
			opts = append(opts, tui.WithAltScreen(false), tui.WithMouse(false))
		}
		return tui.Browse(ctx, resp, opts...)
	default:
		return cli.RenderEquivalents(out, resp, verbose)
	}
}
