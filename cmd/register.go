package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Calendar-One/face-attendance-ui/internal/config"
	"github.com/Calendar-One/face-attendance-ui/internal/faceapi"
)

var registerCmd = &cobra.Command{
	Use:   "register <subject-id> <image-file> [image-file...]",
	Short: "Register a subject from image files",
	Long: `Register a subject with the face recognition backend using one or
more JPEG stills. All images are submitted concurrently; the registration
succeeds only if every single image is accepted.

Example:
  face-attendance register alice ./alice-1.jpg ./alice-2.jpg ./alice-3.jpg`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
}

// isJPEGFile checks if a file has a JPEG extension
func isJPEGFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".jpg" || ext == ".jpeg"
}

func runRegister(cmd *cobra.Command, args []string) error {
	subjectID := strings.TrimSpace(args[0])
	if subjectID == "" {
		return fmt.Errorf("subject id must not be empty")
	}
	filePaths := args[1:]

	cfg := config.Load()
	if cfg.Backend.URL == "" {
		return fmt.Errorf("BACKEND_URL environment variable is required")
	}

	client, err := faceapi.NewClient(cfg.Backend.URL)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	// Read every still up front so a missing file fails before any request.
	images := make([][]byte, 0, len(filePaths))
	for _, path := range filePaths {
		if !isJPEGFile(path) {
			return fmt.Errorf("%s is not a JPEG file", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}
		images = append(images, data)
	}

	fmt.Printf("Registering %d image(s) for subject '%s'\n", len(images), subjectID)

	bar := progressbar.NewOptions(len(images),
		progressbar.OptionSetDescription("Registering"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	g, ctx := errgroup.WithContext(cmd.Context())
	for i, data := range images {
		i, data := i, data
		g.Go(func() error {
			if err := client.Register(ctx, subjectID, data); err != nil {
				return fmt.Errorf("%s: %w", filePaths[i], err)
			}
			bar.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Println()
		return fmt.Errorf("registration failed: %w", err)
	}
	fmt.Println()

	fmt.Printf("\nDone! Registered %d image(s) for subject '%s'\n", len(images), subjectID)
	return nil
}
