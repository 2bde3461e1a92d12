package main

import (
	"context"

	"tour-sync/internal/app"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Run inventory, content and publish, then send the run report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) (interface{}, error) {
			if err := a.Migrate(ctx); err != nil {
				return nil, err
			}
			return a.Pipeline.Daily(ctx)
		})
	},
}

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Load the trip type and pricing exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) (interface{}, error) {
			return a.Pipeline.Inventory(ctx)
		})
	},
}

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Load the website export and reconcile content links",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) (interface{}, error) {
			res, links, err := a.Pipeline.Content(ctx)
			return map[string]interface{}{"content": res, "links": links}, err
		})
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Render and publish every tour document",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) (interface{}, error) {
			return a.Pipeline.Publish(ctx)
		})
	},
}

var reverseCmd = &cobra.Command{
	Use:   "reverse",
	Short: "Push subtitle and description edits from the documents to the inventory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) (interface{}, error) {
			return a.Pipeline.ReverseSync(ctx)
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the canonical store tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) (interface{}, error) {
			return nil, a.Migrate(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(dailyCmd, inventoryCmd, contentCmd, publishCmd, reverseCmd, migrateCmd)
}
