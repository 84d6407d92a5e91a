package checker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"aerial/internal/checker"
	"aerial/internal/probe"
	"aerial/internal/store"
	"aerial/internal/testsupport"
)

type fakeProber struct {
	fn func(ctx context.Context, url string) probe.Result
}

func (f *fakeProber) Capture(ctx context.Context, url string) probe.Result {
	if f.fn == nil {
		return probe.Result{Success: true, Image: "data:image/jpeg;base64,Zg=="}
	}
	return f.fn(ctx, url)
}

type fakeWriter struct {
	mu      sync.Mutex
	updates []store.CheckUpdate
	source  string
	err     error
	calls   int
}

func (f *fakeWriter) ApplyCheckUpdates(_ context.Context, updates []store.CheckUpdate, source string, _ store.EnablePolicy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.updates = append([]store.CheckUpdate(nil), updates...)
	f.source = source
	return f.err
}

type recordedUpdate struct {
	status   *store.TaskStatus
	progress *int
	message  *string
}

type recordingReporter struct {
	mu      sync.Mutex
	updates []recordedUpdate
}

func (r *recordingReporter) Report(_ context.Context, _ string, upd store.TaskUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, recordedUpdate{upd.Status, upd.Progress, upd.Message})
}

func (r *recordingReporter) progressValues() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var values []int
	for _, upd := range r.updates {
		if upd.progress != nil {
			values = append(values, *upd.progress)
		}
	}
	return values
}

func makeChannels(n int) []*store.Channel {
	channels := make([]*store.Channel, n)
	for i := range channels {
		channels[i] = &store.Channel{
			ID:   int64(i + 1),
			Name: fmt.Sprintf("channel %d", i+1),
			URL:  fmt.Sprintf("http://stream.example/%d", i+1),
		}
	}
	return channels
}

func newRunner(t *testing.T, writer *fakeWriter, prober checker.StreamProber, concurrency int) *checker.Runner {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithConcurrency(concurrency))
	return checker.NewRunner(cfg, writer, prober, nil)
}

func TestRunBatchEmptyIsNoOp(t *testing.T) {
	writer := &fakeWriter{}
	reporter := &recordingReporter{}
	runner := newRunner(t, writer, &fakeProber{}, 2)

	if err := runner.RunBatch(context.Background(), nil, "task", store.SourceManual, reporter); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(reporter.updates) != 0 {
		t.Fatalf("empty batch must not report, got %d updates", len(reporter.updates))
	}
	if writer.calls != 0 {
		t.Fatal("empty batch must not touch storage")
	}
}

func TestRunBatchCollectsEveryChannelOnce(t *testing.T) {
	writer := &fakeWriter{}
	runner := newRunner(t, writer, &fakeProber{}, 3)
	channels := makeChannels(17)

	if err := runner.RunBatch(context.Background(), channels, "task", store.SourceManual, nil); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	if writer.calls != 1 {
		t.Fatalf("expected one writeback transaction, got %d", writer.calls)
	}
	if len(writer.updates) != len(channels) {
		t.Fatalf("expected %d updates, got %d", len(channels), len(writer.updates))
	}
	seen := map[int64]bool{}
	for _, upd := range writer.updates {
		if seen[upd.ChannelID] {
			t.Fatalf("channel %d written twice", upd.ChannelID)
		}
		seen[upd.ChannelID] = true
	}
	if writer.source != store.SourceManual {
		t.Fatalf("unexpected source: %q", writer.source)
	}
}

func TestRunBatchHonorsConcurrencyLimit(t *testing.T) {
	const limit = 4
	var inFlight, peak atomic.Int64
	prober := &fakeProber{fn: func(ctx context.Context, url string) probe.Result {
		current := inFlight.Add(1)
		for {
			old := peak.Load()
			if current <= old || peak.CompareAndSwap(old, current) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return probe.Result{Success: true}
	}}

	writer := &fakeWriter{}
	runner := newRunner(t, writer, prober, limit)

	if err := runner.RunBatch(context.Background(), makeChannels(40), "task", store.SourceAuto, nil); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if observed := peak.Load(); observed > limit {
		t.Fatalf("observed %d concurrent probes, limit is %d", observed, limit)
	}
}

func TestRunBatchThrottlesProgress(t *testing.T) {
	writer := &fakeWriter{}
	reporter := &recordingReporter{}
	runner := newRunner(t, writer, &fakeProber{}, 8)

	if err := runner.RunBatch(context.Background(), makeChannels(1000), "task", store.SourceManual, reporter); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	values := reporter.progressValues()
	if len(values) == 0 {
		t.Fatal("expected at least one progress report")
	}
	if values[0] != 0 {
		t.Fatalf("first report must be 0%%, got %v", values)
	}
	// The 2-point hysteresis bounds report volume regardless of batch size.
	if len(values) > 52 {
		t.Fatalf("expected at most ~50 reports, got %d", len(values))
	}
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			t.Fatalf("progress must strictly increase: %v", values)
		}
	}
}

func TestRunBatchProgressOrderedUnderContention(t *testing.T) {
	for round := 0; round < 50; round++ {
		writer := &fakeWriter{}
		reporter := &recordingReporter{}
		runner := newRunner(t, writer, &fakeProber{}, 16)

		if err := runner.RunBatch(context.Background(), makeChannels(500), "task", store.SourceManual, reporter); err != nil {
			t.Fatalf("round %d: RunBatch: %v", round, err)
		}

		values := reporter.progressValues()
		if len(values) == 0 || values[0] != 0 {
			t.Fatalf("round %d: batch must open at 0%%: %v", round, values)
		}
		for i := 1; i < len(values); i++ {
			if values[i] <= values[i-1] {
				t.Fatalf("round %d: progress regressed: %v", round, values)
			}
		}
	}
}

func TestRunBatchIsolatesProbeFailures(t *testing.T) {
	prober := &fakeProber{fn: func(ctx context.Context, url string) probe.Result {
		if url == "http://stream.example/2" {
			return probe.Result{Success: false, Error: "no image"}
		}
		return probe.Result{Success: true, Image: "data:image/jpeg;base64,Zg=="}
	}}
	writer := &fakeWriter{}
	runner := newRunner(t, writer, prober, 2)

	if err := runner.RunBatch(context.Background(), makeChannels(3), "task", store.SourceManual, nil); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	byID := map[int64]store.CheckUpdate{}
	for _, upd := range writer.updates {
		byID[upd.ChannelID] = upd
	}
	if byID[1].Success != true || byID[3].Success != true {
		t.Fatalf("healthy channels misreported: %+v", writer.updates)
	}
	if byID[2].Success || byID[2].Error != "no image" {
		t.Fatalf("failing channel misreported: %+v", byID[2])
	}
}

func TestRunBatchRecoversProbePanic(t *testing.T) {
	prober := &fakeProber{fn: func(ctx context.Context, url string) probe.Result {
		if url == "http://stream.example/1" {
			panic("codec exploded")
		}
		return probe.Result{Success: true}
	}}
	writer := &fakeWriter{}
	runner := newRunner(t, writer, prober, 2)

	if err := runner.RunBatch(context.Background(), makeChannels(2), "task", store.SourceManual, nil); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	byID := map[int64]store.CheckUpdate{}
	for _, upd := range writer.updates {
		byID[upd.ChannelID] = upd
	}
	if byID[1].Success {
		t.Fatal("panicking probe must yield a failure result")
	}
	if byID[1].Error == "" {
		t.Fatal("expected panic to be captured in the error text")
	}
	if !byID[2].Success {
		t.Fatal("sibling probe must be unaffected")
	}
}

func TestRunBatchPropagatesWritebackError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("database is locked")}
	runner := newRunner(t, writer, &fakeProber{}, 2)

	err := runner.RunBatch(context.Background(), makeChannels(2), "task", store.SourceManual, nil)
	if err == nil {
		t.Fatal("expected writeback error to propagate")
	}
	if !errors.Is(err, writer.err) {
		t.Fatalf("expected wrapped writeback error, got %v", err)
	}
}

func TestRunBatchCancellationStillAccountsForEveryChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var once sync.Once
	prober := &fakeProber{fn: func(ctx context.Context, url string) probe.Result {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return probe.Result{Success: false, Error: "check canceled"}
	}}
	writer := &fakeWriter{}
	runner := newRunner(t, writer, prober, 1)

	done := make(chan error, 1)
	go func() {
		done <- runner.RunBatch(ctx, makeChannels(5), "task", store.SourceManual, nil)
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunBatch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not finish after cancellation")
	}

	if len(writer.updates) != 5 {
		t.Fatalf("writeback must account for every channel, got %d", len(writer.updates))
	}
	for _, upd := range writer.updates {
		if upd.Success {
			t.Fatalf("canceled batch produced a success result: %+v", upd)
		}
	}
}

func TestRunBatchCancellationPersistsResults(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithConcurrency(1))
	st := testsupport.MustOpenStore(t, cfg)

	sub := testsupport.NewSubscription(t, st, "demo", "http://provider.example/list.m3u")
	channels := testsupport.SeedChannels(t, st, sub.ID,
		"http://stream.example/1",
		"http://stream.example/2",
		"http://stream.example/3")

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var once sync.Once
	prober := &fakeProber{fn: func(ctx context.Context, url string) probe.Result {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return probe.Result{Success: false, Error: "check canceled"}
	}}
	runner := checker.NewRunner(cfg, st, prober, nil)

	done := make(chan error, 1)
	go func() {
		done <- runner.RunBatch(ctx, channels, "task", store.SourceManual, nil)
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunBatch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not finish after cancellation")
	}

	stored, err := st.ChannelsBySubscription(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("list channels: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 channels, got %d", len(stored))
	}
	for _, ch := range stored {
		if ch.CheckStatus == nil {
			t.Fatalf("channel %s lost its result to cancellation", ch.Name)
		}
		if *ch.CheckStatus {
			t.Fatalf("canceled batch recorded a pass: %+v", ch)
		}
		if ch.CheckError == "" {
			t.Fatalf("channel %s has no failure diagnostic", ch.Name)
		}
	}
}
