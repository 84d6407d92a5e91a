package subscription

import (
	"time"

	"aerial/internal/store"
)

type priorState struct {
	enabled     bool
	checkStatus *bool
	checkDate   *time.Time
	checkImage  string
}

// MergeChannels turns freshly parsed entries into channel rows, carrying
// forward the enabled flag and check state of any old row with the same
// URL. Identity fields (name, group, logo, tvg-id) always come from the
// fetch. URLs never seen before default to enabled with no check state; a
// channel whose URL changed loses its history.
func MergeChannels(old []*store.Channel, fetched []ParsedChannel, subID int64) []*store.Channel {
	states := make(map[string]priorState, len(old))
	for _, ch := range old {
		states[ch.URL] = priorState{
			enabled:     ch.Enabled,
			checkStatus: ch.CheckStatus,
			checkDate:   ch.CheckDate,
			checkImage:  ch.CheckImage,
		}
	}

	merged := make([]*store.Channel, 0, len(fetched))
	for _, item := range fetched {
		row := &store.Channel{
			SubscriptionID: subID,
			Name:           item.Name,
			URL:            item.URL,
			TvgID:          item.TvgID,
			Logo:           item.Logo,
			Group:          item.Group,
			Enabled:        true,
		}
		if state, ok := states[item.URL]; ok {
			row.Enabled = state.enabled
			row.CheckStatus = state.checkStatus
			row.CheckDate = state.checkDate
			row.CheckImage = state.checkImage
		}
		merged = append(merged, row)
	}
	return merged
}
