package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Leganyst/service-marketplace/internal/config"
	"github.com/Leganyst/service-marketplace/internal/geo"
	"github.com/Leganyst/service-marketplace/internal/logging"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <cep> [street] [number]",
	Short: "Resolve a postal code to coordinates",
	Long: `Runs the address resolver against the configured providers and prints
the result. Useful for checking provider availability without a database.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadAppConfig()
	if err != nil {
		return fmt.Errorf("load app config: %w", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	q := geo.AddressQuery{PostalCode: args[0]}
	if len(args) > 1 {
		q.Street = args[1]
	}
	if len(args) > 2 {
		q.Number = args[2]
	}

	addr, ok := newResolver(cfg.Geo, logger).Resolve(cmd.Context(), q)
	if !ok {
		return fmt.Errorf("address for %s could not be resolved", args[0])
	}
	cmd.Printf("%.8f,%.8f %s, %s, %s (%s)\n",
		addr.Latitude, addr.Longitude, addr.City, addr.Neighborhood, addr.State, addr.Source)
	return nil
}
