package model

import "time"

type Event struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	MaxScore  int       `json:"maxScore"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventRegistration carries one team's result in one event. Rank is nil
// until a result has been recorded.
type EventRegistration struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId"`
	TeamID       string    `json:"teamId"`
	Score        int       `json:"score"`
	Rank         *int      `json:"rank"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// RegistrationView is a registration joined with its team, for the admin results table.
type RegistrationView struct {
	EventRegistration
	TeamName string `json:"teamName"`
	TeamSlug string `json:"teamSlug"`
	LeaderID string `json:"leaderId"`
}
