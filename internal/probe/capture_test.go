package probe

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"aerial/internal/config"
	"aerial/internal/logging"
	"aerial/internal/testsupport"
)

func newTestProber(t *testing.T, binary string, ffmpegCfg config.FFmpeg) *Prober {
	t.Helper()

	p := &Prober{
		cfg:        ffmpegCfg,
		errorLimit: 100,
		tempDir:    t.TempDir(),
		logger:     logging.NewNop(),
	}
	p.resolveOnce.Do(func() { p.binary = binary })
	return p
}

func defaultFFmpegConfig() config.FFmpeg {
	return config.FFmpeg{
		UserAgent:             "AptvPlayer/1.4.1",
		ProbeSeconds:          5,
		CaptureTimeoutSeconds: 15,
		VerifyTimeoutSeconds:  2,
		ScaleWidth:            320,
	}
}

func TestCaptureSuccessProducesDataURI(t *testing.T) {
	dir := t.TempDir()
	// Writes fake frame bytes to the output path (the last argument).
	stub := testsupport.WriteScript(t, filepath.Join(dir, "ffmpeg"),
		"#!/bin/sh\nfor a in \"$@\"; do out=$a; done\nprintf 'JPEGDATA' > \"$out\"\nexit 0\n")

	p := newTestProber(t, stub, defaultFFmpegConfig())
	res := p.Capture(context.Background(), "http://example.com/stream")

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Error != "" {
		t.Fatalf("success must carry no error, got %q", res.Error)
	}
	if !strings.HasPrefix(res.Image, "data:image/jpeg;base64,") {
		t.Fatalf("expected data URI, got %q", res.Image)
	}
}

func TestCaptureZeroExitWithoutOutputFails(t *testing.T) {
	dir := t.TempDir()
	stub := testsupport.WriteScript(t, filepath.Join(dir, "ffmpeg"),
		"#!/bin/sh\nexit 0\n")

	p := newTestProber(t, stub, defaultFFmpegConfig())
	res := p.Capture(context.Background(), "http://example.com/stream")

	if res.Success {
		t.Fatal("expected failure for missing output file")
	}
	if res.Error != "ffmpeg produced no image" {
		t.Fatalf("unexpected error: %q", res.Error)
	}
}

func TestCaptureNonzeroExitReportsStderr(t *testing.T) {
	dir := t.TempDir()
	stub := testsupport.WriteScript(t, filepath.Join(dir, "ffmpeg"),
		"#!/bin/sh\necho 'Connection refused' >&2\nexit 1\n")

	p := newTestProber(t, stub, defaultFFmpegConfig())
	res := p.Capture(context.Background(), "http://example.com/stream")

	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "Connection refused" {
		t.Fatalf("unexpected error: %q", res.Error)
	}
}

func TestCaptureTruncatesLongDiagnostics(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("x", 500)
	stub := testsupport.WriteScript(t, filepath.Join(dir, "ffmpeg"),
		"#!/bin/sh\necho '"+long+"' >&2\nexit 1\n")

	p := newTestProber(t, stub, defaultFFmpegConfig())
	res := p.Capture(context.Background(), "http://example.com/stream")

	if res.Success {
		t.Fatal("expected failure")
	}
	if len(res.Error) != 100 {
		t.Fatalf("expected error truncated to 100 bytes, got %d", len(res.Error))
	}
}

func TestCaptureSegfaultGetsHint(t *testing.T) {
	dir := t.TempDir()
	stub := testsupport.WriteScript(t, filepath.Join(dir, "ffmpeg"),
		"#!/bin/sh\nexit 139\n")

	p := newTestProber(t, stub, defaultFFmpegConfig())
	res := p.Capture(context.Background(), "http://example.com/stream")

	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "SIGSEGV") {
		t.Fatalf("expected segfault hint, got %q", res.Error)
	}
}

func TestCaptureOuterTimeout(t *testing.T) {
	dir := t.TempDir()
	stub := testsupport.WriteScript(t, filepath.Join(dir, "ffmpeg"),
		"#!/bin/sh\nsleep 30\n")

	cfg := defaultFFmpegConfig()
	cfg.CaptureTimeoutSeconds = 1
	p := newTestProber(t, stub, cfg)

	start := time.Now()
	res := p.Capture(context.Background(), "http://example.com/stream")
	elapsed := time.Since(start)

	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != timeoutMessage {
		t.Fatalf("expected timeout classification, got %q", res.Error)
	}
	if elapsed > 10*time.Second {
		t.Fatalf("capture did not honor the outer timeout, took %s", elapsed)
	}
}

func TestCaptureCanceledContext(t *testing.T) {
	dir := t.TempDir()
	stub := testsupport.WriteScript(t, filepath.Join(dir, "ffmpeg"),
		"#!/bin/sh\nsleep 30\n")

	p := newTestProber(t, stub, defaultFFmpegConfig())
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	res := p.Capture(ctx, "http://example.com/stream")
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "check canceled" {
		t.Fatalf("unexpected error: %q", res.Error)
	}
}

func TestCaptureMissingBinary(t *testing.T) {
	p := newTestProber(t, filepath.Join(t.TempDir(), "no-such-ffmpeg"), defaultFFmpegConfig())
	res := p.Capture(context.Background(), "http://example.com/stream")

	if res.Success {
		t.Fatal("expected failure for missing binary")
	}
	if res.Error == "" {
		t.Fatal("expected an error message")
	}
}

func TestTruncateStopsAtRuneBoundary(t *testing.T) {
	multibyte := strings.Repeat("é", 60)
	got := truncate(multibyte, 101)
	if len(got) != 100 {
		t.Fatalf("expected cut at the previous rune boundary, got %d bytes", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated message is not valid UTF-8: %q", got)
	}

	if got := truncate("short", 100); got != "short" {
		t.Fatalf("short message must pass through, got %q", got)
	}
	if got := truncate(strings.Repeat("x", 150), 100); len(got) != 100 {
		t.Fatalf("ascii message must cut at the limit, got %d bytes", len(got))
	}
}
