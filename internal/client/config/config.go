package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/keuthlie/internal/timex"
)

// Config holds runtime settings for the authctl CLI.
//
// Fields:
//   - ServerURL: base URL of the keuthlie HTTP API.
//   - RequestTimeout: deadline for a single API call.
//   - SessionDB: path of the SQLite file that keeps the last token per server.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	SessionDB      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.SessionDB = defaultSessionDB()
}

func defaultSessionDB() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "authctl.db"
	}
	return filepath.Join(dir, "keuthlie", "authctl.db")
}

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerURL      string          `json:"server_url"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	SessionDB      string          `json:"session_db"`
}

// LoadJSON overlays c with the values present in the JSON file at path.
func (c *Config) LoadJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		c.ServerURL = jc.ServerURL
	}
	if jc.RequestTimeout != nil {
		c.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.SessionDB != "" {
		c.SessionDB = jc.SessionDB
	}
	return nil
}
