package model

import "time"

// Team size policy.
//
// MaxTeamSize is enforced on every join. MinTeamSize is only checked when a
// team registers for an event.
const (
	MinTeamSize = 2
	MaxTeamSize = 4
)

// Team is a festival team. Score is a running total of every event result
// delta applied to the team, not a recomputed sum.
type Team struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	LeaderID  string    `json:"leaderId"`
	CreatedAt time.Time `json:"createdAt"`
}

// MemberRole is the role a user holds inside a team.
type MemberRole string

const (
	MemberRoleLeader MemberRole = "leader"
	MemberRoleMember MemberRole = "member"
)

// TeamMember links a user to a team. A user has at most one row system-wide.
type TeamMember struct {
	TeamID   string     `json:"teamId"`
	UserID   string     `json:"userId"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joinedAt"`
}

// MemberView is a team member joined with the user's public profile.
type MemberView struct {
	UserID    string     `json:"userId"`
	Name      string     `json:"userName"`
	Email     string     `json:"userEmail"`
	AvatarURL string     `json:"userImage"`
	Phone     string     `json:"phoneNo,omitempty"`
	Role      MemberRole `json:"role"`
	JoinedAt  time.Time  `json:"joinedAt"`
}
