package domain

import (
	"math"
	"time"
)

type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// Appeal is a fundraising campaign. The cart keeps copies of it and never
// writes back.
type Appeal struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	ImageURL    string     `json:"image_url"`
	Goal        float64    `json:"goal"`
	Raised      float64    `json:"raised"`
	Urgency     Urgency    `json:"urgency"`
	Featured    bool       `json:"featured"`
	Location    string     `json:"location"`
	CreatedAt   time.Time  `json:"created_at"`
	EndAt       *time.Time `json:"end_at,omitempty"`
}

// Progress returns the funded percentage.
func (a Appeal) Progress() float64 {
	if a.Goal <= 0 {
		return 0
	}
	return a.Raised / a.Goal * 100
}

// DaysLeft returns nil for open-ended appeals. Zero or negative means the
// campaign has ended.
func (a Appeal) DaysLeft(now time.Time) *int {
	if a.EndAt == nil {
		return nil
	}
	days := int(math.Ceil(a.EndAt.Sub(now).Hours() / 24))
	return &days
}
