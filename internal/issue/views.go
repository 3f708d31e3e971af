package issue

import "github.com/frahmantamala/issue-tracker/internal/user"

// Visible returns the issues u may see, in collection order. A USER sees the
// issues they submitted; ADMIN and DEPARTMENT_HEAD see everything; no user
// sees nothing.
func Visible(issues []Issue, u *user.User) []Issue {
	out := make([]Issue, 0, len(issues))
	if u == nil {
		return out
	}
	for _, i := range issues {
		if CanView(i, u) {
			out = append(out, i.Clone())
		}
	}
	return out
}

func CanView(i Issue, u *user.User) bool {
	if u == nil {
		return false
	}
	return u.SeesAllIssues() || i.SubmittedBy == u.ID
}

// Stats is a fold over an issue set. It is recomputed on every read.
type Stats struct {
	Total              int              `json:"total"`
	Open               int              `json:"open"`
	InProgress         int              `json:"inProgress"`
	Resolved           int              `json:"resolved"`
	Closed             int              `json:"closed"`
	Critical           int              `json:"critical"`
	ByStatus           map[Status]int   `json:"byStatus"`
	ByPriority         map[Priority]int `json:"byPriority"`
	ByDepartment       map[string]int   `json:"byDepartment"`
	DistinctSubmitters int              `json:"distinctSubmitters"`
}

func Summarize(issues []Issue) Stats {
	st := Stats{
		Total:        len(issues),
		ByStatus:     make(map[Status]int, len(Statuses)),
		ByPriority:   make(map[Priority]int, len(Priorities)),
		ByDepartment: make(map[string]int),
	}
	for _, s := range Statuses {
		st.ByStatus[s] = 0
	}
	for _, p := range Priorities {
		st.ByPriority[p] = 0
	}

	submitters := make(map[string]struct{})
	for _, i := range issues {
		st.ByStatus[i.Status]++
		st.ByPriority[i.Priority]++
		st.ByDepartment[i.Department]++
		submitters[i.SubmittedBy] = struct{}{}
	}

	st.Open = st.ByStatus[StatusOpen]
	st.InProgress = st.ByStatus[StatusInProgress]
	st.Resolved = st.ByStatus[StatusResolved]
	st.Closed = st.ByStatus[StatusClosed]
	st.Critical = st.ByPriority[PriorityCritical]
	st.DistinctSubmitters = len(submitters)
	return st
}
