package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/guidebook/core/cmd/api/commands"
)

// @title Guidebook API
// @version 1.0
// @description Character guide documents and image uploads

// @host localhost:4001
// @BasePath /api

// @securityDefinitions.apikey EditorAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and an editor token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "guidebook",
		Short: "Guidebook API server and editor",
		Long:  `Guidebook stores game-character guides as JSON documents, serves uploaded images and edits guides from the command line.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewTokenCommand())
	rootCmd.AddCommand(commands.NewGuidesCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
