package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dateguard",
	Short: "Photo moderation and liturgical calendar service for a dating site",
	Long: `Dateguard detects duplicate profile photos with perceptual hashing and
serves the Orthodox liturgical calendar. It runs as a web server and ships
admin tooling for bulk photo verification.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
