package user

import "strings"

type Role string

const (
	RoleUser           Role = "USER"
	RoleAdmin          Role = "ADMIN"
	RoleDepartmentHead Role = "DEPARTMENT_HEAD"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleDepartmentHead:
		return true
	}
	return false
}

// ParseRole normalizes a caller supplied role. Unknown values become USER.
func ParseRole(s string) Role {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return RoleUser
	}
	return r
}

type User struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Email  string  `json:"email" yaml:"email"`
	Role   Role    `json:"role" yaml:"role"`
	Avatar *string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

// CanManageIssues reports whether the user may change issue status or delete issues.
func (u *User) CanManageIssues() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleDepartmentHead)
}

// SeesAllIssues reports whether visibility is unfiltered for the user.
func (u *User) SeesAllIssues() bool {
	return u.CanManageIssues()
}

func (u *User) CanViewAnalytics() bool {
	return u != nil && u.Role == RoleAdmin
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.Avatar != nil {
		a := *u.Avatar
		cp.Avatar = &a
	}
	return &cp
}

// AuthState is the session held by the store. IsAuthenticated is true
// exactly when User is set.
type AuthState struct {
	User            *User   `json:"user"`
	IsAuthenticated bool    `json:"isAuthenticated"`
	Token           *string `json:"token"`
}

func LoggedOut() AuthState {
	return AuthState{}
}

func SignedIn(u User, token string) AuthState {
	return AuthState{User: &u, IsAuthenticated: true, Token: &token}
}

// Normalize re-establishes the IsAuthenticated invariant on decoded state.
func (a AuthState) Normalize() AuthState {
	if a.User == nil {
		return LoggedOut()
	}
	a.IsAuthenticated = true
	return a
}

func (a AuthState) Clone() AuthState {
	cp := AuthState{User: a.User.Clone(), IsAuthenticated: a.IsAuthenticated}
	if a.Token != nil {
		t := *a.Token
		cp.Token = &t
	}
	return cp
}
