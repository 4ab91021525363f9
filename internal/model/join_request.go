package model

import "time"

// RequestStatus moves pending → accepted or pending → rejected, never back.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

type JoinRequest struct {
	ID        string        `json:"id"`
	TeamID    string        `json:"teamId"`
	UserID    string        `json:"userId"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// PendingRequestView is what a leader sees for each pending request.
type PendingRequestView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"userName"`
	Email     string    `json:"userEmail"`
	AvatarURL string    `json:"userImage"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRequestView is a join request as seen by the user who sent it.
type UserRequestView struct {
	ID        string        `json:"id"`
	TeamID    string        `json:"teamId"`
	TeamName  string        `json:"teamName"`
	TeamSlug  string        `json:"teamSlug"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}
