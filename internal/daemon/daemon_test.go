package daemon_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"aerial/internal/api"
	"aerial/internal/config"
	"aerial/internal/daemon"
	"aerial/internal/testsupport"
)

const feedBody = `#EXTM3U
#EXTINF:-1 group-title="News",CCTV-1
http://stream.example/cctv1
#EXTINF:-1 group-title="News",CCTV-2
http://stream.example/cctv2
`

// captureStub emulates ffmpeg: -version succeeds, a capture run writes
// bytes to its output path (the final argument).
const captureStub = `#!/bin/sh
if [ "$1" = "-version" ]; then
    exit 0
fi
for last; do :; done
printf 'notarealjpeg' > "$last"
exit 0
`

func newTestDaemon(t *testing.T) (*daemon.Daemon, *api.Client, *config.Config) {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithConcurrency(2))
	binDir := filepath.Join(testsupport.BaseDir(cfg), "bin")
	cfg.FFmpeg.Binary = testsupport.WriteScript(t, filepath.Join(binDir, "ffmpeg"), captureStub)
	t.Setenv("PATH", binDir)

	st := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, st, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)

	return d, api.NewClient(d.Addr()), cfg
}

func waitForTask(t *testing.T, client *api.Client, taskID string) api.Task {
	t.Helper()

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		task, err := client.GetTask(context.Background(), taskID)
		if err != nil {
			t.Fatalf("get task %s: %v", taskID, err)
		}
		if task.Status == "success" || task.Status == "failure" {
			return *task
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("task %s did not finish", taskID)
	return api.Task{}
}

func TestDaemonSingleInstance(t *testing.T) {
	d, _, cfg := newTestDaemon(t)
	_ = d

	st := testsupport.MustOpenStore(t, cfg)
	second, err := daemon.New(cfg, st, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	startErr := second.Start(context.Background())
	if startErr == nil {
		second.Stop()
		t.Fatal("expected second instance to be rejected")
	}
}

func TestDaemonSubscriptionAndCheckFlow(t *testing.T) {
	_, client, _ := newTestDaemon(t)
	ctx := context.Background()

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedBody))
	}))
	defer feed.Close()

	created, err := client.CreateSubscription(ctx, api.SubscriptionRequest{
		Name: "demo",
		URL:  feed.URL,
	})
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if created.TaskID == "" {
		t.Fatal("expected an initial sync task")
	}
	if task := waitForTask(t, client, created.TaskID); task.Status != "success" {
		t.Fatalf("initial sync failed: %+v", task)
	}

	channels, err := client.SubscriptionChannels(ctx, created.Subscription.ID)
	if err != nil {
		t.Fatalf("list channels: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(channels))
	}

	ids := []int64{channels[0].ID, channels[1].ID}
	started, err := client.StartCheck(ctx, ids)
	if err != nil {
		t.Fatalf("start check: %v", err)
	}
	if task := waitForTask(t, client, started.TaskID); task.Status != "success" || task.Progress != 100 {
		t.Fatalf("check task did not succeed: %+v", task)
	}

	checked, err := client.SubscriptionChannels(ctx, created.Subscription.ID)
	if err != nil {
		t.Fatalf("list channels: %v", err)
	}
	for _, ch := range checked {
		if ch.CheckStatus == nil || !*ch.CheckStatus {
			t.Fatalf("channel not marked healthy: %+v", ch)
		}
		if ch.CheckSource != "manual" {
			t.Fatalf("unexpected check source: %+v", ch)
		}
	}

	status, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Running || status.Subscriptions != 1 || status.Channels != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if len(status.Dependencies) == 0 || !status.Dependencies[0].Available {
		t.Fatalf("ffmpeg dependency should be available: %+v", status.Dependencies)
	}

	if err := client.SetChannelEnabled(ctx, channels[0].ID, false); err != nil {
		t.Fatalf("disable channel: %v", err)
	}
	tasksList, err := client.ListTasks(ctx, 10)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasksList) < 2 {
		t.Fatalf("expected sync and check tasks, got %d", len(tasksList))
	}

	if err := client.DeleteSubscription(ctx, created.Subscription.ID); err != nil {
		t.Fatalf("delete subscription: %v", err)
	}
	if _, err := client.SubscriptionChannels(ctx, created.Subscription.ID); err == nil {
		t.Fatal("expected not found after delete")
	}
}

func TestDaemonCheckRejectsEmptyRequest(t *testing.T) {
	_, client, _ := newTestDaemon(t)

	if _, err := client.StartCheck(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty channel id list")
	}
	if _, err := client.GetTask(context.Background(), "missing"); err == nil {
		t.Fatal("expected not found for unknown task")
	}
}
