package guide

import (
	"strings"

	"github.com/poiesic/studyguide/core"
)

const (
	// Footer is appended to every assembled guide.
	Footer = "\n\nGenerated by Johnny - Study Assistant"

	sectionSeparator  = "\n\n"
	fallbackSeparator = " "
)

// Assemble joins the present artifacts in chunk order.
// Sections are separated by a blank line when every chunk succeeded; if any
// chunk is absent the remaining artifacts are joined with single spaces.
func Assemble(results core.Results) string {
	sep := sectionSeparator
	if results.HasAbsent() {
		sep = fallbackSeparator
	}
	return strings.Join(results.Artifacts(), sep)
}

// Document is an assembled study guide ready for download.
type Document struct {
	Subject string
	Body    string
	Total   int
	Failed  int
}

// NewDocument assembles results into a guide for subject.
func NewDocument(subject string, results core.Results) Document {
	return Document{
		Subject: subject,
		Body:    Assemble(results) + Footer,
		Total:   len(results),
		Failed:  results.AbsentCount(),
	}
}

// FileName is the download name for the guide, e.g. "Biology_Guide.txt".
func (d Document) FileName() string {
	return d.Subject + "_Guide.txt"
}

// Partial reports whether some chunks are missing from the guide.
func (d Document) Partial() bool {
	return d.Failed > 0
}
