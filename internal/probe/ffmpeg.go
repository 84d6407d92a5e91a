package probe

import (
	"context"
	"os/exec"
	"time"

	"aerial/internal/logging"
)

// lookPath and commandContext are swappable for tests.
var (
	lookPath       = exec.LookPath
	commandContext = exec.CommandContext
)

// resolveBinary picks the FFmpeg binary used for all captures. Preference
// order: a verified ffmpeg from PATH, then the configured fallback binary,
// then the bare command name so a later invocation fails with a clear
// "executable not found" instead of a silent no-op.
func (p *Prober) resolveBinary() string {
	p.resolveOnce.Do(func() {
		verifyTimeout := time.Duration(p.cfg.VerifyTimeoutSeconds) * time.Second

		if path, err := lookPath("ffmpeg"); err == nil {
			verifyErr := verifyBinary(path, verifyTimeout)
			if verifyErr == nil {
				p.binary = path
				return
			}
			p.logger.Debug("system ffmpeg failed verification",
				logging.String("path", path), logging.Error(verifyErr))
		}

		if p.cfg.Binary != "" {
			verifyErr := verifyBinary(p.cfg.Binary, verifyTimeout)
			if verifyErr == nil {
				p.binary = p.cfg.Binary
				return
			}
			p.logger.Debug("fallback ffmpeg failed verification",
				logging.String("path", p.cfg.Binary), logging.Error(verifyErr))
		}

		p.logger.Warn("no verified ffmpeg found, deferring to bare command name")
		p.binary = "ffmpeg"
	})
	return p.binary
}

// Binary reports the resolved FFmpeg binary, triggering resolution if needed.
func (p *Prober) Binary() string {
	return p.resolveBinary()
}

func verifyBinary(path string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return commandContext(ctx, path, "-version").Run()
}
