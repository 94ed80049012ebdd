package main

import (
	"github.com/spf13/cobra"

	"github.com/saulo-duarte/codequiz-lambda/internal/config"
	"github.com/saulo-duarte/codequiz-lambda/internal/container"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and seed the topic catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, err := buildContainer(ctx, cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := container.Migrate(ctx, c.DB); err != nil {
			return err
		}
		config.WithContext(ctx).Info("Migrations applied")
		return nil
	},
}
