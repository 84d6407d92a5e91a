package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary Aerial relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
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
		if resolved, err := exec.LookPath(cmd); err == nil {
			status.Command = resolved
			status.Available = true
			results = append(results, status)
			continue
		}
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		results = append(results, status)
	}
	return results
}

// CheckFFmpeg reports the FFmpeg binary stream checks will execute. The
// lookup order matches the prober: PATH first, then the configured
// fallback path.
func CheckFFmpeg(configuredBinary string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Required for stream frame capture",
	}

	if resolved, err := exec.LookPath("ffmpeg"); err == nil {
		result.Command = resolved
		result.Available = true
		return result
	}

	fallback := strings.TrimSpace(configuredBinary)
	if fallback != "" {
		if resolved, err := exec.LookPath(fallback); err == nil {
			result.Command = resolved
			result.Available = true
			return result
		}
	}

	result.Command = "ffmpeg"
	result.Detail = `binary "ffmpeg" not found`
	return result
}
