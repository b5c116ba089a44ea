// Package mermaid provides utilities for invoking the mermaid-cli renderer.
package mermaid

import (
	"fmt"
	"os/exec"
)

const (
	// mmdcExecutable is the mermaid-cli binary installed directly on PATH.
	mmdcExecutable = "mmdc"

	// npxExecutable runs mmdc through the npm package runner when no direct
	// install exists. The --yes flag lets npx fetch the package on first use.
	npxExecutable = "npx"
)

// packageRunnerArgs invoke mmdc through npx.
var packageRunnerArgs = []string{"--yes", "@mermaid-js/mermaid-cli", "mmdc"}

// CLI describes a resolved renderer invocation: the executable to spawn and
// any leading arguments that come before the per-render flags.
type CLI struct {
	Path string
	Args []string
}

// Locate resolves the renderer command.
// A mmdc binary on PATH is preferred; otherwise the npx package runner is
// used. Locate does not verify that npx itself exists because a missing
// runner surfaces as a tooling failure on the first render, with a better
// diagnostic than a resolution error here could give.
func Locate() CLI {
	if _, err := exec.LookPath(mmdcExecutable); err == nil {
		return CLI{Path: mmdcExecutable}
	}
	return CLI{Path: npxExecutable, Args: packageRunnerArgs}
}

// UsesPackageRunner reports whether renders go through npx rather than a
// direct mmdc binary. The first npx render on a cold npm cache downloads
// the mermaid-cli package, which callers may want to serialize.
func (c CLI) UsesPackageRunner() bool {
	return c.Path == npxExecutable
}

// MissingToolingHint returns the corrective message shown when the renderer
// executable cannot be started.
func MissingToolingHint(executable string) string {
	return fmt.Sprintf("Error: '%s' not found. Node.js with npx and @mermaid-js/mermaid-cli is required.", executable)
}
