/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/suparena/entityrecord"
	"github.com/suparena/entityrecord/config"
	"github.com/suparena/entityrecord/datastore/fixtures"
	"github.com/suparena/entityrecord/dispatch"
	"github.com/suparena/entityrecord/logging"
)

type globalFlags struct {
	configFile string
	envPrefix  string
	fixtures   string
}

// session is an opened store with its facade.
type session struct {
	records *entityrecord.Records
	logger  logging.Logger
	close   func()
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           "recordctl",
		Short:         "Query and aggregate entities in a record store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&g.envPrefix, "env-prefix", config.DefaultPrefix, "Environment variable prefix")
	root.PersistentFlags().StringVar(&g.fixtures, "fixtures", "", "Fixture YAML to insert before running the command")

	root.AddCommand(
		newVersionCmd(),
		newLoadCmd(&g),
		newFindCmd(&g),
		newCountCmd(&g),
		newDeleteCmd(&g),
		newUpdateCmd(&g),
		newAggregateCmd(&g),
	)
	return root
}

// open loads configuration, opens the store and applies --fixtures.
func open(ctx context.Context, g *globalFlags) (*session, error) {
	cfg, err := config.Load(g.envPrefix, g.configFile)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger()

	schemas, err := cfg.Schemas()
	if err != nil {
		return nil, err
	}
	if len(schemas.Names()) == 0 {
		return nil, fmt.Errorf("no schemas loaded; set schema.file")
	}

	store, closeStore, err := config.OpenStore(ctx, cfg, schemas, logger)
	if err != nil {
		return nil, err
	}
	d, err := dispatch.New(dispatch.WithPoolSize(cfg.Dispatch.PoolSize), dispatch.WithLogger(logger))
	if err != nil {
		closeStore()
		return nil, err
	}
	records, err := entityrecord.New(store, entityrecord.WithLogger(logger), entityrecord.WithDispatcher(d))
	if err != nil {
		d.Close()
		closeStore()
		return nil, err
	}

	s := &session{
		records: records,
		logger:  logger,
		close: func() {
			records.Close()
			d.Close()
			if err := closeStore(); err != nil {
				logger.Warn("failed to close store", "error", err)
			}
		},
	}

	if g.fixtures != "" {
		if _, err := loadFixtures(ctx, s, g.fixtures); err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

func loadFixtures(ctx context.Context, s *session, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open fixtures: %w", err)
	}
	defer f.Close()

	byKey, err := fixtures.Load(ctx, s.records.Store(), f)
	if err != nil {
		return 0, err
	}
	s.logger.Info("loaded fixtures", "path", path, "keyed", len(byKey))
	return len(byKey), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := entityrecord.GetVersionInfo()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "EntityRecord recordctl version %s\n", info.Version)
			fmt.Fprintf(out, "Git commit: %s\n", info.GitCommit)
			fmt.Fprintf(out, "Build date: %s\n", info.BuildDate)
			fmt.Fprintf(out, "Go version: %s\n", info.GoVersion)
		},
	}
}
