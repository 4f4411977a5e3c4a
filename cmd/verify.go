package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Calendar-One/face-attendance-ui/internal/attendance"
	"github.com/Calendar-One/face-attendance-ui/internal/camera"
	"github.com/Calendar-One/face-attendance-ui/internal/config"
	"github.com/Calendar-One/face-attendance-ui/internal/faceapi"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [image-file]",
	Short: "Verify a face against the registered subjects",
	Long: `Verify a single still against the face recognition backend.

With an image file argument the file is submitted as-is. Without one, a
single frame is captured from the configured camera and submitted.

Example:
  face-attendance verify ./snapshot.jpg
  face-attendance verify --facing back`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().String("facing", "front", "Facing mode to capture from when no file is given")
}

// captureOneFrame starts the configured camera, waits for the first frame,
// snapshots it, and releases the device.
func captureOneFrame(ctx context.Context, cfg *config.Config, facingMode string) ([]byte, error) {
	manager := camera.NewManager(&cfg.Camera, nil)
	if err := manager.Start(ctx, facingMode); err != nil {
		return nil, err
	}
	defer manager.Stop()

	readyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := manager.WaitReady(readyCtx); err != nil {
		return nil, fmt.Errorf("camera did not become ready: %w", err)
	}

	frame, err := manager.Capture()
	if err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, fmt.Errorf("no frame available from the camera")
	}
	return frame, nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Backend.URL == "" {
		return fmt.Errorf("BACKEND_URL environment variable is required")
	}

	client, err := faceapi.NewClient(cfg.Backend.URL)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	var image []byte
	if len(args) == 1 {
		image, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", args[0], err)
		}
	} else {
		facingMode := mustGetString(cmd, "facing")
		fmt.Printf("Capturing one frame from the %s camera...\n", facingMode)
		image, err = captureOneFrame(cmd.Context(), cfg, facingMode)
		if err != nil {
			return err
		}
	}

	result, err := client.Verify(cmd.Context(), image)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if result.Verified {
		fmt.Printf("Verified: %s (%s%% confidence)\n", result.SubjectID, attendance.FormatConfidence(result.Confidence))
		return nil
	}

	if result.Message != "" {
		fmt.Printf("Not verified: %s\n", result.Message)
	} else {
		fmt.Println("Not verified")
	}
	return nil
}
