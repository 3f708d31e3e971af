package issue_test

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/issue"
)

var _ = Describe("Draft", func() {
	It("fills the form defaults and trims input", func() {
		d := issue.Draft{Title: "  Printer jam ", Description: " Tray 2 ", Priority: "high"}.Normalize()

		Expect(d.Title).To(Equal("Printer jam"))
		Expect(d.Description).To(Equal("Tray 2"))
		Expect(d.Priority).To(Equal(issue.PriorityHigh))
		Expect(d.Department).To(Equal(issue.DefaultDepartment))

		Expect(issue.Draft{Title: "t", Description: "d"}.Normalize().Priority).To(Equal(issue.PriorityLow))
	})

	It("accepts a complete draft", func() {
		d := issue.Draft{Title: "t", Description: "d", Priority: issue.PriorityMedium, Department: "IT"}
		Expect(d.Validate()).To(Succeed())
	})

	It("reports each invalid field", func() {
		// Given
		bad := "not a url"
		d := issue.Draft{
			Title:         "",
			Description:   strings.Repeat("x", 5001),
			Priority:      "URGENT",
			Department:    "IT",
			AttachmentURL: &bad,
		}

		// When
		err := d.Validate()

		// Then
		Expect(errors.Is(err, internal.ErrInvalidDraft)).To(BeTrue())
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		details, ok := appErr.Details.(internal.ValidationErrors)
		Expect(ok).To(BeTrue())

		fields := []string{}
		for _, fe := range details.Errors {
			fields = append(fields, fe.Field)
		}
		Expect(fields).To(ConsistOf("title", "description", "priority", "attachmentUrl"))
	})
})

var _ = Describe("Status and comment validation", func() {
	It("rejects unknown statuses", func() {
		Expect(issue.ValidateStatus(issue.StatusResolved)).To(Succeed())
		Expect(errors.Is(issue.ValidateStatus("DONE"), internal.ErrInvalidStatus)).To(BeTrue())
	})

	DescribeTable("comment text",
		func(text string, ok bool) {
			err := issue.ValidateCommentText(text)
			if ok {
				Expect(err).NotTo(HaveOccurred())
				return
			}
			Expect(errors.Is(err, internal.ErrEmptyComment)).To(BeTrue())
		},
		Entry("plain text", "looking into it", true),
		Entry("empty", "", false),
		Entry("whitespace only", " \t\n ", false),
		Entry("too long", strings.Repeat("y", 2001), false),
	)
})
