package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/flexoplate-iq/internal/catalog"
	"github.com/Veraticus/flexoplate-iq/internal/cli"
)

func (a *app) catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Load plate catalogs",
		Long: `Load suppliers, plate families, plates, profiles and overrides from a
YAML catalog. Imports are idempotent: importing the same file twice
updates records in place instead of duplicating them.`,
	}

	cmd.AddCommand(a.catalogImportCmd())
	cmd.AddCommand(a.catalogSeedCmd())
	cmd.AddCommand(catalogValidateCmd())

	return cmd
}

func (a *app) catalogImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.yaml>",
		Short: "Import a catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd, func(ctx context.Context, im *catalog.Importer) (catalog.Summary, error) {
				return im.ImportFile(ctx, args[0])
			})
		},
	}
}

func (a *app) catalogSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Import the bundled reference catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runImport(cmd, func(ctx context.Context, im *catalog.Importer) (catalog.Summary, error) {
				return im.Seed(ctx)
			})
		},
	}
}

func (a *app) runImport(cmd *cobra.Command, load func(context.Context, *catalog.Importer) (catalog.Summary, error)) error {
	interruptHandler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Catalog import").
		WithHint("No changes were written")
	ctx, stop := interruptHandler.HandleInterrupts(cmd.Context())
	defer stop()

	store, err := a.openStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	summary, err := load(ctx, catalog.NewImporter(store, cmd.ErrOrStderr()))
	if err != nil {
		if interruptHandler.WasInterrupted() && errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return cli.RenderImportSummary(cmd.OutOrStdout(), summary)
}

func catalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <catalog.yaml>",
		Short: "Check a catalog file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := catalog.ParseFile(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"%s is valid: %d suppliers, %d families, %d plates, %d profiles, %d overrides, %d equipment",
				args[0], len(f.Suppliers), len(f.Families), len(f.Plates), len(f.Profiles), len(f.Overrides), len(f.Equipment))))
			return err
		},
	}
}
