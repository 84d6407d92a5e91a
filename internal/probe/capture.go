package probe

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"aerial/internal/config"
	"aerial/internal/logging"
)

// timeoutMessage is stored verbatim so callers can recognize the case.
const timeoutMessage = "probe timed out"

// segfaultHint replaces raw diagnostics when ffmpeg dies with SIGSEGV,
// which in container deployments usually means mismatched codec libraries.
const segfaultHint = "ffmpeg crashed (SIGSEGV); install the distribution ffmpeg package instead of a bundled build"

// Result is the transient outcome of one capture attempt.
type Result struct {
	Success bool
	// Error holds a truncated human-readable diagnostic on failure.
	Error string
	// Image holds a data URI with the captured frame on success.
	Image string
}

// Prober runs FFmpeg frame captures against stream URLs.
type Prober struct {
	cfg        config.FFmpeg
	errorLimit int
	tempDir    string
	logger     *slog.Logger

	resolveOnce sync.Once
	binary      string
}

// New constructs a Prober from application configuration.
func New(cfg *config.Config, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Prober{
		cfg:        cfg.FFmpeg,
		errorLimit: cfg.Check.ErrorLimit,
		tempDir:    os.TempDir(),
		logger:     logging.NewComponentLogger(logger, "probe"),
	}
}

// Capture connects to the stream, extracts one scaled video frame, and
// classifies the outcome. The whole invocation is bounded by the configured
// capture timeout on top of FFmpeg's own input probe limit. The temporary
// output file is removed on every path.
func (p *Prober) Capture(ctx context.Context, url string) Result {
	binary := p.resolveBinary()
	outPath := filepath.Join(p.tempDir, fmt.Sprintf("capture_%s.jpg", uuid.NewString()))
	defer func() {
		// Best effort; a leftover temp file is not worth failing a probe.
		_ = os.Remove(outPath)
	}()

	timeout := time.Duration(p.cfg.CaptureTimeoutSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-t", strconv.Itoa(p.cfg.ProbeSeconds),
		"-user_agent", p.cfg.UserAgent,
		"-i", url,
		"-an", "-sn",
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", p.cfg.ScaleWidth),
		"-f", "image2",
		"-c:v", "mjpeg",
		outPath,
	}

	cmd := commandContext(runCtx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		p.logger.Debug("capture timed out", logging.String("url", url))
		return p.failure(timeoutMessage)
	}
	if ctx.Err() != nil {
		return p.failure("check canceled")
	}

	if runErr == nil {
		if image, ok := p.readCapture(outPath); ok {
			return Result{Success: true, Image: image}
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "ffmpeg produced no image"
		}
		return p.failure(msg)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		if crashed(exitErr) {
			return p.failure(segfaultHint)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = runErr.Error()
		}
		p.logger.Debug("capture failed",
			logging.String("url", url),
			logging.Int("exit_code", exitErr.ExitCode()),
			logging.String("error", msg))
		return p.failure(msg)
	}

	// Tool missing, permission denied, or any other launch fault.
	return p.failure(runErr.Error())
}

func (p *Prober) readCapture(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), true
}

func (p *Prober) failure(message string) Result {
	return Result{Success: false, Error: truncate(message, p.errorLimit)}
}

func crashed(exitErr *exec.ExitError) bool {
	if exitErr.ExitCode() == 139 {
		return true
	}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
		return status.Signaled() && status.Signal() == syscall.SIGSEGV
	}
	return false
}

// truncate cuts message to at most limit bytes without splitting a rune;
// ffmpeg diagnostics may carry multibyte text from stream metadata.
func truncate(message string, limit int) string {
	if limit <= 0 || len(message) <= limit {
		return message
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut]
}
