// Package settings loads the program settings: built in defaults, then an
// optional TOML file, then ARTWALL_* environment variables.
package settings

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Settings struct {
	Port       string  `toml:"port"`
	DataDir    string  `toml:"data_dir"`
	ExportDir  string  `toml:"export_dir"`
	ImageDir   string  `toml:"image_dir"`
	PixelRatio float64 `toml:"pixel_ratio"`
	// seconds allowed for fetching one remote picture
	FetchTimeout int `toml:"fetch_timeout"`

	ReadTimeout  int `toml:"read_timeout"`
	WriteTimeout int `toml:"write_timeout"`

	PhotoPrism PhotoPrism `toml:"photoprism"`
}

type PhotoPrism struct {
	Domain string `toml:"domain"`
	Token  string `toml:"token"`
}

func Default() Settings {
	return Settings{
		Port:         "3000",
		DataDir:      ".",
		ExportDir:    ".",
		PixelRatio:   2,
		FetchTimeout: 30,
		ReadTimeout:  10,
		WriteTimeout: 30,
	}
}

// Load reads path, which may be empty for no file, and applies the
// environment on top.
func Load(path string) (Settings, error) {
	s := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("settings: %w", err)
		}
		if err := toml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("settings %s: %w", path, err)
		}
	}
	s.applyEnv()
	return s, nil
}

// Timeout is the remote fetch timeout.
func (s Settings) Timeout() time.Duration {
	if s.FetchTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.FetchTimeout) * time.Second
}

func (s *Settings) applyEnv() {
	s.Port = getEnv("ARTWALL_PORT", s.Port)
	s.DataDir = getEnv("ARTWALL_DATA_DIR", s.DataDir)
	s.ExportDir = getEnv("ARTWALL_EXPORT_DIR", s.ExportDir)
	s.ImageDir = getEnv("ARTWALL_IMAGE_DIR", s.ImageDir)
	s.PixelRatio = getEnvAsFloat("ARTWALL_PIXEL_RATIO", s.PixelRatio)
	s.FetchTimeout = getEnvAsInt("ARTWALL_FETCH_TIMEOUT", s.FetchTimeout)
	s.ReadTimeout = getEnvAsInt("ARTWALL_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvAsInt("ARTWALL_WRITE_TIMEOUT", s.WriteTimeout)
	s.PhotoPrism.Domain = getEnv("PHOTOPRISM_DOMAIN", s.PhotoPrism.Domain)
	s.PhotoPrism.Token = getEnv("PHOTOPRISM_TOKEN", s.PhotoPrism.Token)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultVal
}
