package classifier_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/issue-tracker/internal/classifier"
	"github.com/frahmantamala/issue-tracker/internal/issue"
)

var _ = Describe("ParseResult", func() {
	const valid = `{"priority":"HIGH","department":"IT","summary":"Access point drops clients.","suggestedAction":"Check AP-304 logs."}`

	It("decodes a valid payload", func() {
		r, err := classifier.ParseResult(valid)

		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(classifier.Result{
			Priority:        issue.PriorityHigh,
			Department:      "IT",
			Summary:         "Access point drops clients.",
			SuggestedAction: "Check AP-304 logs.",
		}))
	})

	DescribeTable("strips markdown fences",
		func(raw string) {
			r, err := classifier.ParseResult(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Priority).To(Equal(issue.PriorityHigh))
		},
		Entry("json fence", "```json\n"+valid+"\n```"),
		Entry("bare fence", "```\n"+valid+"\n```"),
		Entry("surrounding whitespace", "\n\n  "+valid+"  \n"),
	)

	DescribeTable("rejects unusable output",
		func(raw string) {
			_, err := classifier.ParseResult(raw)
			Expect(err).To(HaveOccurred())
		},
		Entry("empty", ""),
		Entry("prose", "The priority is high."),
		Entry("priority outside the enum", `{"priority":"URGENT","department":"IT","summary":"s","suggestedAction":"a"}`),
		Entry("lowercase priority", `{"priority":"high","department":"IT","summary":"s","suggestedAction":"a"}`),
		Entry("missing field", `{"priority":"LOW","department":"IT","summary":"s"}`),
		Entry("blank department", `{"priority":"LOW","department":"","summary":"s","suggestedAction":"a"}`),
		Entry("array", `[]`),
	)
})

var _ = Describe("Result helpers", func() {
	It("formats the stored analysis", func() {
		r := classifier.Result{Summary: "Broken AP.", SuggestedAction: "Reboot it."}
		Expect(classifier.FormatAnalysis(r)).To(Equal("AI Summary: Broken AP.\nSuggested Action: Reboot it."))
	})

	It("applies a result to a draft", func() {
		d := classifier.Apply(issue.Draft{Title: "t", Description: "d"}, classifier.Result{
			Priority: issue.PriorityCritical, Department: "Legal", Summary: "s", SuggestedAction: "a",
		})

		Expect(d.Priority).To(Equal(issue.PriorityCritical))
		Expect(d.Department).To(Equal("Legal"))
		Expect(*d.AIAnalysis).To(Equal("AI Summary: s\nSuggested Action: a"))
	})

	It("uses the fixed fallback", func() {
		Expect(classifier.Fallback()).To(Equal(classifier.Result{
			Priority:        issue.PriorityMedium,
			Department:      "General",
			Summary:         "Analysis failed, please review manually.",
			SuggestedAction: "Review manually.",
		}))
	})

	It("puts title and description into the prompt", func() {
		p := classifier.Prompt("Printer jam", "Tray 2 is stuck")
		Expect(p).To(ContainSubstring("Title: Printer jam"))
		Expect(p).To(ContainSubstring("Description: Tray 2 is stuck"))
		Expect(p).To(ContainSubstring("IT, HR, Facilities, Finance, Legal"))
	})
})
