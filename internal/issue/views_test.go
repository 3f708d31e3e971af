package issue_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/issue-tracker/internal/issue"
	"github.com/frahmantamala/issue-tracker/internal/user"
)

func sample(id, submitter string, status issue.Status, priority issue.Priority, department string) issue.Issue {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return issue.Issue{
		ID:          id,
		Title:       "title " + id,
		Description: "description " + id,
		Status:      status,
		Priority:    priority,
		Department:  department,
		SubmittedBy: submitter,
		CreatedAt:   at,
		UpdatedAt:   at,
		Comments:    []issue.Comment{},
	}
}

var _ = Describe("Visibility", func() {
	issues := []issue.Issue{
		sample("a", "2", issue.StatusOpen, issue.PriorityLow, "IT"),
		sample("b", "9", issue.StatusOpen, issue.PriorityHigh, "HR"),
		sample("c", "2", issue.StatusClosed, issue.PriorityCritical, "IT"),
	}

	It("shows a USER only the issues they submitted, in order", func() {
		u := &user.User{ID: "2", Role: user.RoleUser}

		visible := issue.Visible(issues, u)

		Expect(visible).To(HaveLen(2))
		Expect(visible[0].ID).To(Equal("a"))
		Expect(visible[1].ID).To(Equal("c"))
	})

	DescribeTable("shows managers everything",
		func(role user.Role) {
			u := &user.User{ID: "1", Role: role}
			Expect(issue.Visible(issues, u)).To(Equal(issues))
		},
		Entry("admin", user.RoleAdmin),
		Entry("department head", user.RoleDepartmentHead),
	)

	It("shows nothing without a user", func() {
		visible := issue.Visible(issues, nil)

		Expect(visible).NotTo(BeNil())
		Expect(visible).To(BeEmpty())
		Expect(issue.CanView(issues[0], nil)).To(BeFalse())
	})

	It("returns copies that do not alias the input", func() {
		u := &user.User{ID: "2", Role: user.RoleUser}

		visible := issue.Visible(issues, u)
		visible[0].Title = "changed"
		visible[0].Comments = append(visible[0].Comments, issue.Comment{ID: "x"})

		Expect(issues[0].Title).To(Equal("title a"))
		Expect(issues[0].Comments).To(BeEmpty())
	})
})

var _ = Describe("Summarize", func() {
	It("counts statuses, priorities, departments and submitters", func() {
		// Given
		issues := []issue.Issue{
			sample("a", "2", issue.StatusOpen, issue.PriorityLow, "IT"),
			sample("b", "9", issue.StatusOpen, issue.PriorityCritical, "HR"),
			sample("c", "2", issue.StatusInProgress, issue.PriorityCritical, "IT"),
			sample("d", "4", issue.StatusResolved, issue.PriorityMedium, "Legal"),
		}

		// When
		st := issue.Summarize(issues)

		// Then
		Expect(st.Total).To(Equal(4))
		Expect(st.Open).To(Equal(2))
		Expect(st.InProgress).To(Equal(1))
		Expect(st.Resolved).To(Equal(1))
		Expect(st.Closed).To(Equal(0))
		Expect(st.Critical).To(Equal(2))
		Expect(st.ByDepartment).To(Equal(map[string]int{"IT": 2, "HR": 1, "Legal": 1}))
		Expect(st.ByPriority).To(HaveKeyWithValue(issue.PriorityHigh, 0))
		Expect(st.ByStatus).To(HaveKeyWithValue(issue.StatusClosed, 0))
		Expect(st.DistinctSubmitters).To(Equal(3))
	})

	It("pre-seeds every enum key for an empty set", func() {
		st := issue.Summarize(nil)

		Expect(st.Total).To(BeZero())
		Expect(st.ByStatus).To(HaveLen(len(issue.Statuses)))
		Expect(st.ByPriority).To(HaveLen(len(issue.Priorities)))
		Expect(st.ByDepartment).To(BeEmpty())
	})
})
