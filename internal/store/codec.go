package store

import (
	"encoding/json"
	"fmt"

	"github.com/frahmantamala/issue-tracker/internal/issue"
	"github.com/frahmantamala/issue-tracker/internal/user"
)

func encode(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return string(b), nil
}

func decodeAuth(raw string) (user.AuthState, error) {
	var a user.AuthState
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return user.AuthState{}, err
	}
	if a.User != nil && !a.User.Role.Valid() {
		return user.AuthState{}, fmt.Errorf("unknown role %q", a.User.Role)
	}
	return a.Normalize(), nil
}

func decodeIssues(raw string) ([]issue.Issue, error) {
	var issues []issue.Issue
	if err := json.Unmarshal([]byte(raw), &issues); err != nil {
		return nil, err
	}
	if issues == nil {
		// a literal null
		return nil, fmt.Errorf("issue slot holds null")
	}
	for i := range issues {
		if issues[i].Comments == nil {
			issues[i].Comments = []issue.Comment{}
		}
	}
	return issues, nil
}
