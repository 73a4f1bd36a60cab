package domain

import "time"

// PreferenceProfile is the structured form of a user's free-text news
// preferences. It is replaced wholesale on every preference update.
type PreferenceProfile struct {
	Topics     []string  `json:"topics"`
	Categories []string  `json:"categories"`
	Timeframe  string    `json:"timeframe"`
	RawInput   string    `json:"raw_input"`
	ParsedAt   time.Time `json:"parsed_at,omitempty"`
}

// IsZero reports whether the user has never set preferences.
func (p PreferenceProfile) IsZero() bool {
	return len(p.Topics) == 0 && len(p.Categories) == 0 && p.RawInput == ""
}
