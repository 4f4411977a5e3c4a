package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Calendar-One/face-attendance-ui/internal/attendance"
	"github.com/Calendar-One/face-attendance-ui/internal/camera"
	"github.com/Calendar-One/face-attendance-ui/internal/config"
	"github.com/Calendar-One/face-attendance-ui/internal/faceapi"
	"github.com/Calendar-One/face-attendance-ui/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance kiosk",
	Long: `Start the Face Attendance web server.
The server drives the webcam, talks to the face recognition backend, and
provides the browser UI for registration, verification, and the attendance
log.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Backend.URL == "" {
		return errors.New("BACKEND_URL environment variable is required")
	}

	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}

	client, err := faceapi.NewClient(cfg.Backend.URL)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	manager := camera.NewManager(&cfg.Camera, nil)
	attLog := attendance.NewLog()
	notifier := attendance.NewNotifier()
	poller := attendance.NewPoller(manager, client, attLog, notifier)
	registration := attendance.NewRegistration(manager, client, client, notifier)

	server := web.NewServer(cfg, manager, poller, registration, attLog, notifier)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Attendance kiosk on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Printf("Recognition backend: %s\n", cfg.Backend.URL)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
