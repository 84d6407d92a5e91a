package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"

	"aerial/internal/api"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorize(text, color string, enabled bool) string {
	if !enabled || color == "" {
		return text
	}
	return color + text + ansiReset
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func formatEnabled(enabled bool) string {
	if enabled {
		return "yes"
	}
	return "no"
}

func formatCheckStatus(ch api.Channel) string {
	if ch.CheckStatus == nil {
		return "unchecked"
	}
	if *ch.CheckStatus {
		return "ok"
	}
	if ch.CheckError != "" {
		return "failed: " + ch.CheckError
	}
	return "failed"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func taskStatusColor(status string) string {
	switch status {
	case "success":
		return ansiGreen
	case "failure":
		return ansiRed
	case "running":
		return ansiYellow
	default:
		return ""
	}
}
