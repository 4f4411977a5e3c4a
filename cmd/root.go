package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "A webcam attendance kiosk backed by a face recognition service",
	Long: `Face Attendance runs an attendance kiosk on top of a local webcam and a
remote face recognition backend. It serves a browser UI for registering
subjects and recording attendance, and ships CLI commands for registering
and verifying images directly.`,
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
