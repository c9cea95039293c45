package handler

import (
	"fmt"
	"io"

	"studentdb/internal/analytics"
)

type Summarizer interface {
	Summary() analytics.Summary
}

type ReportHandler struct {
	summarizer Summarizer
	out        io.Writer
	theme      Theme
}

func NewReportHandler(summarizer Summarizer, out io.Writer, theme Theme) *ReportHandler {
	return &ReportHandler{summarizer: summarizer, out: out, theme: theme}
}

// Generate prints the academic analytics for the current collection.
func (h *ReportHandler) Generate() error {
	sum := h.summarizer.Summary()
	if sum.Empty() {
		fmt.Fprintln(h.out)
		fmt.Fprintln(h.out, "No students in the database.")
		return nil
	}
	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, h.theme.Title.Render("=== Academic Analytics ==="))
	WriteSummary(h.out, h.theme, sum)
	return nil
}

// WriteSummary renders a non-empty summary.
func WriteSummary(w io.Writer, theme Theme, sum analytics.Summary) {
	fmt.Fprintf(w, "Total number of students: %d\n", sum.Count)
	fmt.Fprintf(w, "Average GPA: %.2f\n", sum.AvgGPA)
	fmt.Fprintf(w, "Highest GPA: %.2f (%s, %s)\n", sum.MaxGPA, sum.Top.Name, sum.Top.RollNumber)
	fmt.Fprintf(w, "Lowest GPA: %.2f (%s, %s)\n", sum.MinGPA, sum.Bottom.Name, sum.Bottom.RollNumber)

	fmt.Fprintln(w)
	fmt.Fprintln(w, theme.Header.Render("Performance Distribution:"))
	for _, b := range analytics.Bands {
		n := sum.BandCount(b)
		fmt.Fprintf(w, "%s (%s): %d students (%.1f%%)\n", b, b.Range(), n, sum.Percent(n))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, theme.Header.Render("Enrollment by Course:"))
	for _, c := range sum.ByCourse {
		fmt.Fprintf(w, "%s: %d students\n", c.Course, c.Count)
	}
}
