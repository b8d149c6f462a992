package runstate

import (
	"encoding/json"
	"log"
	"time"

	"github.com/pureclarity/feedsync/internal/entities"
)

// gettingStartedWindow is how long the getting-started banner stays up after
// the first feed completes.
const gettingStartedWindow = 24 * time.Hour

// BannerStatus drives the dashboard banner: the one-time welcome banner flips
// to a 24-hour getting-started banner once any feed completes.
type BannerStatus struct {
	WelcomeShown         bool       `json:"welcome_shown"`
	GettingStartedExpiry *time.Time `json:"getting_started_expiry,omitempty"`
}

// GetBannerStatus returns the banner state for a store.
func (t *Tracker) GetBannerStatus(storeID int) BannerStatus {
	record := t.states.GetByNameAndStore(entities.StateBannerStatus, storeID)
	if record.Value == "" {
		return BannerStatus{}
	}
	var status BannerStatus
	if err := json.Unmarshal([]byte(record.Value), &status); err != nil {
		log.Printf("Run state: invalid banner status for store %d: %v", storeID, err)
		return BannerStatus{}
	}
	return status
}

// MarkFeedsCompleted transitions the banner after a run finishes: the first
// completion retires the welcome banner and opens the getting-started window.
// Later completions are no-ops.
func (t *Tracker) MarkFeedsCompleted(storeID int, now time.Time) {
	status := t.GetBannerStatus(storeID)
	if status.WelcomeShown {
		return
	}
	expiry := now.Add(gettingStartedWindow)
	status.WelcomeShown = true
	status.GettingStartedExpiry = &expiry

	payload, err := json.Marshal(status)
	if err != nil {
		log.Printf("Run state: failed to encode banner status for store %d: %v", storeID, err)
		return
	}
	t.save(entities.StateBannerStatus, storeID, string(payload))
}

// ShowGettingStarted reports whether the getting-started banner is still
// within its window.
func (s BannerStatus) ShowGettingStarted(now time.Time) bool {
	return s.WelcomeShown && s.GettingStartedExpiry != nil && now.Before(*s.GettingStartedExpiry)
}
