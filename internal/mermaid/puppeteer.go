package mermaid

import (
	"fmt"
	"path/filepath"

	"github.com/leynos/mxd/internal/filelock"
)

// puppeteerConfig disables Chromium sandboxing. The sandbox needs
// privileges the headless browser does not have inside containers and CI
// runners, and rendering throwaway SVGs does not warrant one.
const puppeteerConfig = `{"args": ["--no-sandbox"]}`

// puppeteerConfigName is the file name of the shared per-run config.
const puppeteerConfigName = "puppeteer-config.json"

// WriteConfig writes the shared puppeteer configuration under dir and
// returns its path. The write is atomic so concurrently starting renders
// never observe a partial file. The file is read-only state for the run;
// the caller owns its removal.
func WriteConfig(dir string) (string, error) {
	path := filepath.Join(dir, puppeteerConfigName)
	if err := filelock.AtomicWrite(path, []byte(puppeteerConfig)); err != nil {
		return "", fmt.Errorf("failed to write puppeteer config: %w", err)
	}
	return path, nil
}
