package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	// DBPath is the SQLite database file holding players, tournaments and
	// rating history.
	DBPath string

	// HTTPAddr is the address the API listens on.
	HTTPAddr string

	// APIToken guards every write endpoint and signs chart links. An empty
	// token disables both checks, only do this locally.
	APIToken string

	// AutoAddPlayersDefault is used when a submission does not say whether
	// unknown players should be created.
	AutoAddPlayersDefault bool

	// SeedUnratedPlayers gives never-rated players an implicit 0 rating in
	// match-result submissions instead of leaving them out.
	SeedUnratedPlayers bool

	// SubmissionsPerMinute throttles tournament submissions over HTTP,
	// 0 disables throttling.
	SubmissionsPerMinute int
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DBPath:               "./pongrank.db",
		HTTPAddr:             "127.0.0.1:3001",
		SubmissionsPerMinute: 30,
	}
}

func NewFromUserConfigDir() (*Config, error) {
	c := &Config{}
	if err := c.ReloadFromUserConfigDir(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) expandFromEnv() {
	vars := []struct {
		src string
		dst *string
	}{
		{"PONGRANK_DB_PATH", &c.DBPath},
		{"PONGRANK_HTTP_ADDR", &c.HTTPAddr},
		{"PONGRANK_API_TOKEN", &c.APIToken},
	}

	for _, v := range vars {
		if str := os.Getenv(v.src); str != "" {
			*v.dst = str
		}
	}

	if str := os.Getenv("PONGRANK_SUBMISSIONS_PER_MINUTE"); str != "" {
		n, err := strconv.Atoi(str)
		if err != nil || n < 0 {
			log.Printf("warning: ignoring invalid PONGRANK_SUBMISSIONS_PER_MINUTE %q", str)
			return
		}
		c.SubmissionsPerMinute = n
	}
}

func (c *Config) ReloadFromUserConfigDir() error {
	path, err := getOrCreateUserConfigPath()
	if err != nil {
		return err
	}

	return c.ReloadFromFile(path)
}

// ReloadFromFile replaces c with the contents of the JSON file at path then
// applies environment overrides. A missing file yields Default().
func (c *Config) ReloadFromFile(path string) error {
	defer c.expandFromEnv()
	log.Printf("debug: reading conf from %s", path)

	*c = Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("unable to decode %s: %w", path, err)
	}

	return nil
}

func getOrCreateUserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(configDir, "pongrank")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	return filepath.Join(dir, "config.json"), nil
}

func (c *Config) Write() error {
	path, err := getOrCreateUserConfigPath()
	if err != nil {
		return err
	}
	log.Printf("debug: writing conf to %s", path)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	if err := enc.Encode(c); err != nil {
		if err2 := f.Close(); err2 != nil {
			return fmt.Errorf("unable to close file (%s) after error: %w", err2, err)
		}

		return err
	}

	return f.Close()
}
