package deps

import (
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"skipintro/internal/config"
)

// Requirement is an external program skipintro calls.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports whether a requirement was found.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the programs the configuration depends on. ffprobe is
// optional unless it is a configured chapter backend.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "mpv",
			Command:     cfg.PlayerBinary(),
			Description: "media player watched over its IPC socket",
		},
		{
			Name:        "ffprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "chapter extraction fallback",
			Optional:    !slices.Contains(cfg.Chapters.Backends, config.BackendFFprobe),
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		if path != cmd {
			status.Detail = path
		}
		results = append(results, status)
	}
	return results
}
