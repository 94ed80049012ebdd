package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/saulo-duarte/codequiz-lambda/internal/config"
	"github.com/saulo-duarte/codequiz-lambda/internal/container"
)

var rootCmd = &cobra.Command{
	Use:   "codequiz",
	Short: "AI programming quiz backend",
	Long:  "codequiz generates programming quizzes with an LLM, tracks attempts and explains wrong answers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Inside Lambda the bare binary serves API Gateway events.
		if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
			return lambdaCmd.RunE(cmd, args)
		}
		return serveCmd.RunE(cmd, args)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (environment variables take precedence)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lambdaCmd)
	rootCmd.AddCommand(migrateCmd)
}

func buildContainer(ctx context.Context, cmd *cobra.Command) (*container.Container, error) {
	configFile, _ := cmd.Flags().GetString("config")

	settings, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	return container.New(ctx, settings)
}
