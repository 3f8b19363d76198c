package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// getRuntime is swappable so tests can exercise the per-platform branches.
var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser launches the system default browser at url, used by the login
// flow to present Spotify's consent page. Platforms without a known open
// command get an error so the caller can fall back to printing the URL.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch rt := getRuntime(); rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
