package preflight

import (
	"os"

	"aerial/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the startup checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckTempSpace(os.TempDir()))
	for _, dep := range CheckSystemDeps(cfg) {
		results = append(results, Result{
			Name:   dep.Name,
			Passed: dep.Available || dep.Optional,
			Detail: detailOrCommand(dep.Detail, dep.Command),
		})
	}
	return results
}

func detailOrCommand(detail, command string) string {
	if detail != "" {
		return detail
	}
	return command
}
