package testsupport

import (
	"context"
	"testing"

	"aerial/internal/config"
	"aerial/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewSubscription creates a subscription row for tests.
func NewSubscription(t testing.TB, st *store.Store, name, url string) *store.Subscription {
	t.Helper()

	sub, err := st.CreateSubscription(context.Background(), &store.Subscription{
		Name:    name,
		URL:     url,
		Enabled: true,
	})
	if err != nil {
		t.Fatalf("store.CreateSubscription: %v", err)
	}
	return sub
}

// SeedChannels replaces a subscription's channels with simple named rows and
// returns the stored set.
func SeedChannels(t testing.TB, st *store.Store, subID int64, urls ...string) []*store.Channel {
	t.Helper()

	channels := make([]*store.Channel, 0, len(urls))
	for i, url := range urls {
		channels = append(channels, &store.Channel{
			SubscriptionID: subID,
			Name:           "channel-" + string(rune('a'+i)),
			URL:            url,
			Enabled:        true,
		})
	}
	if err := st.ReplaceChannels(context.Background(), subID, channels, "Success"); err != nil {
		t.Fatalf("store.ReplaceChannels: %v", err)
	}
	stored, err := st.ChannelsBySubscription(context.Background(), subID)
	if err != nil {
		t.Fatalf("store.ChannelsBySubscription: %v", err)
	}
	return stored
}
