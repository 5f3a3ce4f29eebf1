// Package epxconfig centralizes the environment-derived configuration
// every other package needs, so it can be constructed once and threaded
// explicitly through constructors instead of read ad hoc via os.Getenv.
package epxconfig

import (
	"os"
	"path/filepath"
)

// Config holds the environment-derived settings for a client session.
type Config struct {
	// CacheDir is where Run and Job state caches are persisted.
	CacheDir string
	// HubURL, if set along with HubToken, selects the hub-token-refresher
	// auth strategy.
	HubURL string
	// HubToken is the JupyterHub API token (JPY_API_TOKEN) exchanged for
	// a short-lived bearer token against HubURL.
	HubToken string
	// OfflineToken, if set, selects the offline-token auth strategy and
	// is sent directly as a bearer credential.
	OfflineToken string
}

const defaultCacheDirName = ".epx_client"

// FromEnv builds a Config from the process environment.
//
//   - EPX_CACHE_DIR (default: $HOME/.epx_client)
//   - EPX_HUB_URL
//   - JPY_API_TOKEN
//   - FRED_CLOUD_RUNNER_TOKEN
func FromEnv() Config {
	cacheDir := os.Getenv("EPX_CACHE_DIR")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cacheDir = filepath.Join(home, defaultCacheDirName)
		} else {
			cacheDir = defaultCacheDirName
		}
	}
	return Config{
		CacheDir:     cacheDir,
		HubURL:       os.Getenv("EPX_HUB_URL"),
		HubToken:     os.Getenv("JPY_API_TOKEN"),
		OfflineToken: os.Getenv("FRED_CLOUD_RUNNER_TOKEN"),
	}
}

// UseOfflineToken reports whether the offline-token auth strategy should
// be used.
func (c Config) UseOfflineToken() bool {
	return c.OfflineToken != ""
}

// UseHubTokenRefresher reports whether the hub-token-refresher auth
// strategy should be used.
func (c Config) UseHubTokenRefresher() bool {
	return c.HubURL != "" && c.HubToken != ""
}
