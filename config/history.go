package config

import (
	"path/filepath"

	"github.com/projecteru2/docup/utils"
)

// EnsureHistoryDirs creates the directories used by the upload history.
func (c *Config) EnsureHistoryDirs() error {
	return utils.EnsureDirs(c.HistoryDir())
}

// Derived path helpers. History data lives under {RootDir}/history/.

func (c *Config) HistoryDir() string       { return filepath.Join(c.RootDir, "history") }
func (c *Config) HistoryIndexFile() string { return filepath.Join(c.HistoryDir(), "uploads.json") }
func (c *Config) HistoryIndexLock() string { return filepath.Join(c.HistoryDir(), "uploads.lock") }
