package assessment

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message renders the confirmation shown after a bulk pass, for example
// "12 marked, 3 skipped". Failures are appended only when present.
func (r BulkResult) Message(tag language.Tag) string {
	p := message.NewPrinter(tag)
	msg := p.Sprintf("%d marked, %d skipped", r.Updated, r.Skipped)
	if n := len(r.Failed); n > 0 {
		msg += p.Sprintf(", %d failed", n)
	}
	return msg
}

// SuccessCount is the number of students whose request was handled without
// error, whether updated or skipped.
func (r BulkResult) SuccessCount() int {
	return r.Updated + r.Skipped
}
