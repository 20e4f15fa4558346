package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/flexoplate-iq/internal/api"
	"github.com/Veraticus/flexoplate-iq/internal/cli"
	"github.com/Veraticus/flexoplate-iq/internal/config"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the equivalency API over HTTP",
		Long: `Serve the JSON API used by the web frontend. Prometheus metrics are
exposed on /metrics and health on /health.`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default from server.addr)")
	_ = a.v.BindPFlag(config.KeyServerAddr, cmd.Flags().Lookup("addr"))

	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	interruptHandler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Server").
		WithHint("Shutting down gracefully")
	ctx, stop := interruptHandler.HandleInterrupts(cmd.Context())
	defer stop()

	serverCfg, err := config.LoadServerConfig(a.v)
	if err != nil {
		return err
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

	srv := api.NewServer(store, eng, api.Options{Version: version, Server: serverCfg})
	return srv.Start(ctx)
}
