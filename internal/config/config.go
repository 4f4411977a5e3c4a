package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed cameras.yaml
var camerasYAML []byte

type Config struct {
	Backend BackendConfig
	Camera  CameraConfig
	Web     WebConfig
}

type BackendConfig struct {
	URL string // base URL of the face recognition backend (e.g., http://localhost:8000)
}

type CameraConfig struct {
	FacingModes map[string]string // facing mode name -> V4L2 device path
	Width       int
	Height      int
	FPS         int
}

// Device resolves a facing mode to a device path.
// Returns empty string if the facing mode is not configured.
func (c *CameraConfig) Device(facingMode string) string {
	return c.FacingModes[facingMode]
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins string // comma-separated list of allowed CORS origins
}

// cameraProfiles mirrors the embedded cameras.yaml layout.
type cameraProfiles struct {
	FacingModes map[string]string `yaml:"facing_modes"`
	Capture     struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
		FPS    int `yaml:"fps"`
	} `yaml:"capture"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var profiles cameraProfiles
	if err := yaml.Unmarshal(camerasYAML, &profiles); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded cameras.yaml: " + err.Error())
	}

	facingModes := make(map[string]string, len(profiles.FacingModes))
	for mode, device := range profiles.FacingModes {
		facingModes[mode] = device
	}
	// Per-mode device overrides: CAMERA_FRONT_DEVICE, CAMERA_BACK_DEVICE.
	if front := os.Getenv("CAMERA_FRONT_DEVICE"); front != "" {
		facingModes["front"] = front
	}
	if back := os.Getenv("CAMERA_BACK_DEVICE"); back != "" {
		facingModes["back"] = back
	}

	return &Config{
		Backend: BackendConfig{
			URL: os.Getenv("BACKEND_URL"),
		},
		Camera: CameraConfig{
			FacingModes: facingModes,
			Width:       envInt("CAMERA_WIDTH", profiles.Capture.Width),
			Height:      envInt("CAMERA_HEIGHT", profiles.Capture.Height),
			FPS:         envInt("CAMERA_FPS", profiles.Capture.FPS),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			AllowedOrigins: os.Getenv("WEB_ALLOWED_ORIGINS"),
		},
	}
}
