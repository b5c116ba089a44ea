package config

import (
	"os"
	"path/filepath"
)

// Home returns the mxd home directory holding the config file and the
// history database: MXD_HOME when set, otherwise .mxd under the working
// directory. The directory is not created here; the history store creates
// it when it first opens the database.
func Home() string {
	if home := os.Getenv("MXD_HOME"); home != "" {
		return home
	}
	return ".mxd"
}

// HistoryDBPath returns the default history database location under Home.
// An explicit history.db_path config value takes precedence over this.
func HistoryDBPath() string {
	return filepath.Join(Home(), "history.db")
}
