package config

import (
	"path/filepath"
	"strings"
)

// DefaultReportPort is where the results server listens unless REPORT_PORT
// says otherwise.
const DefaultReportPort = "9323"

// ServerConfig holds report server configuration
type ServerConfig struct {
	Port         string
	ReportsDir   string
	ArtifactsDir string
}

// LoadServerConfig loads server configuration from environment variables
func LoadServerConfig(getenv func(string) string) ServerConfig {
	port := strings.TrimSpace(getenv("REPORT_PORT"))
	if port == "" {
		port = DefaultReportPort
	}
	dir := strings.TrimSpace(getenv("REPORTS_DIR"))
	if dir == "" {
		dir = DefaultReportsDir
	}
	artifacts := strings.TrimSpace(getenv("ARTIFACTS_DIR"))
	if artifacts == "" {
		artifacts = filepath.Join(dir, "artifacts")
	}

	return ServerConfig{
		Port:         port,
		ReportsDir:   dir,
		ArtifactsDir: artifacts,
	}
}
