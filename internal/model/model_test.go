package model

import "testing"

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, true},
		{RoleModerator, true},
		{RoleUser, true},
		{Role("superuser"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.Valid(); got != tt.want {
				t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestUserOnboarded(t *testing.T) {
	u := &User{RollNo: "21CS001", Branch: "CSE"}
	if u.Onboarded() {
		t.Error("Onboarded() = true without a phone number")
	}
	u.Phone = "9999999999"
	if !u.Onboarded() {
		t.Error("Onboarded() = false with every profile field set")
	}
}

func TestUserDisplayName(t *testing.T) {
	u := &User{Login: "octocat"}
	if got := u.DisplayName(); got != "octocat" {
		t.Errorf("DisplayName() = %q, want login fallback", got)
	}
	u.Name = "Mona"
	if got := u.DisplayName(); got != "Mona" {
		t.Errorf("DisplayName() = %q, want %q", got, "Mona")
	}
}
