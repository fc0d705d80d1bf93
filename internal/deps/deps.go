// Package deps reports whether external programs the supervisor launches can
// be resolved.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external program discjockey relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Path is the resolved executable when available.
	Path   string
	Detail string
}

// HandlerRequirement describes the configured media handler. The handler is
// optional at startup because launch failures are retried every pass.
func HandlerRequirement(command string) Requirement {
	return Requirement{
		Name:        "handler",
		Command:     command,
		Description: "launched for each drive that reports media",
		Optional:    true,
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, check(req))
	}
	return results
}

func check(req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(cmd)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		return status
	}
	status.Available = true
	status.Path = path
	return status
}
