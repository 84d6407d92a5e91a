package subscription

import (
	"testing"
	"time"

	"aerial/internal/store"
)

func boolPtr(v bool) *bool { return &v }

func TestMergeCarriesStateForMatchingURL(t *testing.T) {
	checked := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	old := []*store.Channel{
		{
			SubscriptionID: 7,
			Name:           "Old Name",
			URL:            "http://stream.example/a",
			Group:          "Old Group",
			Enabled:        false,
			CheckStatus:    boolPtr(true),
			CheckDate:      &checked,
			CheckImage:     "data:image/jpeg;base64,Zg==",
		},
	}
	fetched := []ParsedChannel{
		{Name: "X", URL: "http://stream.example/a", Group: "Fresh Group", Logo: "http://img.example/x.png"},
	}

	merged := MergeChannels(old, fetched, 7)
	if len(merged) != 1 {
		t.Fatalf("expected 1 row, got %d", len(merged))
	}
	row := merged[0]
	if row.Name != "X" || row.Group != "Fresh Group" || row.Logo != "http://img.example/x.png" {
		t.Fatalf("identity fields must come from the fetch: %+v", row)
	}
	if row.Enabled {
		t.Fatal("enabled flag must carry over from the old row")
	}
	if row.CheckStatus == nil || !*row.CheckStatus {
		t.Fatalf("check status lost: %+v", row)
	}
	if row.CheckDate == nil || !row.CheckDate.Equal(checked) {
		t.Fatalf("check date lost: %+v", row)
	}
	if row.CheckImage != "data:image/jpeg;base64,Zg==" {
		t.Fatalf("check image lost: %+v", row)
	}
	if row.SubscriptionID != 7 {
		t.Fatalf("wrong subscription id: %+v", row)
	}
}

func TestMergeDefaultsForNewURL(t *testing.T) {
	merged := MergeChannels(nil, []ParsedChannel{{Name: "Y", URL: "http://stream.example/b"}}, 1)
	if len(merged) != 1 {
		t.Fatalf("expected 1 row, got %d", len(merged))
	}
	row := merged[0]
	if !row.Enabled {
		t.Fatal("new URLs default to enabled")
	}
	if row.CheckStatus != nil || row.CheckDate != nil || row.CheckImage != "" {
		t.Fatalf("new URLs must have no check state: %+v", row)
	}
}

func TestMergeChangedURLLosesHistory(t *testing.T) {
	old := []*store.Channel{
		{URL: "http://stream.example/old", Enabled: false, CheckStatus: boolPtr(false)},
	}
	merged := MergeChannels(old, []ParsedChannel{{Name: "Moved", URL: "http://stream.example/new"}}, 1)
	if len(merged) != 1 {
		t.Fatalf("expected 1 row, got %d", len(merged))
	}
	if !merged[0].Enabled || merged[0].CheckStatus != nil {
		t.Fatalf("changed URL must start fresh: %+v", merged[0])
	}
}

func TestMergeDropsVanishedURLs(t *testing.T) {
	old := []*store.Channel{
		{URL: "http://stream.example/gone", Enabled: true},
	}
	if merged := MergeChannels(old, nil, 1); len(merged) != 0 {
		t.Fatalf("vanished URLs must not survive the merge: %+v", merged)
	}
}
