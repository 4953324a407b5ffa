// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the catalogd API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"catalogd/internal/config"
	"catalogd/internal/database"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:          "catalogd",
		Short:        "Media catalog API server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:          "serve",
			Short:        "Start the HTTP API server",
			SilenceUsage: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe()
			},
		},
		&cobra.Command{
			Use:          "migrate",
			Short:        "Apply pending database migrations and exit",
			SilenceUsage: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate()
			},
		},
		createAdminCmd(),
	)

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// runMigrate connects to the database, applies migrations, and exits.
func runMigrate() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := database.Connect(context.Background(), cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	return database.Migrate(db)
}

// createAdminCmd bootstraps an admin account from the command line, useful
// when the seeded account has been removed or locked out.
func createAdminCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:          "create-admin",
		Short:        "Create a super admin account",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || email == "" || password == "" {
				return fmt.Errorf("--username, --email and --password are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			db, err := database.Connect(cmd.Context(), cfg.DSN())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}

			if err := database.CreateSuperAdmin(db, username, email, password); err != nil {
				return err
			}

			slog.Info("super admin created", "username", username, "email", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")

	return cmd
}
