package model

import "time"

// TeamDetails is the caller's own team as returned by GET /teams/user/me.
// PendingRequests is only populated for the leader.
type TeamDetails struct {
	Team
	Members         []MemberView         `json:"members"`
	PendingRequests []PendingRequestView `json:"pendingRequests"`
	IsLeader        bool                 `json:"isLeader"`
	MinTeamSize     int                  `json:"minTeamSize"`
	MaxTeamSize     int                  `json:"maxTeamSize"`
}

// PublicTeam is the unauthenticated view of a team.
type PublicTeam struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	LeaderID  string    `json:"leaderId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TeamViewer is how a signed-in visitor relates to a team page.
type TeamViewer struct {
	IsMember          bool `json:"isMember"`
	HasPendingRequest bool `json:"hasPendingRequest"`
}

// TeamProfile adds derived stats to the caller's team.
type TeamProfile struct {
	Team
	Members      []MemberView `json:"members"`
	UserRole     MemberRole   `json:"userRole"`
	EventsJoined int          `json:"eventsJoined"`
	Rank         int          `json:"rank"`
}

// AdminTeam is a team with its full member list for the admin dashboard.
type AdminTeam struct {
	Team
	Members []MemberView `json:"members"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	TeamID   string `json:"id"`
	TeamName string `json:"teamName"`
	Slug     string `json:"slug"`
	Points   int    `json:"points"`
	Members  int    `json:"members"`
}
