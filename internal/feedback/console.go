// Package feedback implements the fire-and-forget outcome sink invoked
// on every submission result. On a handheld this would be haptics and
// audio; the reference sink writes to the operator's terminal with a
// bell for positive and a double bell for negative outcomes.
package feedback

import (
	"fmt"
	"io"

	"example.com/fieldops/internal/models"
)

// Console writes scan outcomes to w
type Console struct {
	w io.Writer
}

// NewConsole creates a console feedback sink
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// ScanSucceeded reports a confirmed submission
func (c *Console) ScanSucceeded(item *models.ScannedItem) {
	if item == nil {
		fmt.Fprintf(c.w, "\aOK\n")
		return
	}
	fmt.Fprintf(c.w, "\aOK  %s  %s\n", item.ManagementNumber, item.Status)
}

// ScanRejected reports a scan the server declined
func (c *Console) ScanRejected(message string) {
	fmt.Fprintf(c.w, "\a\aREJECTED  %s\n", message)
}

// ScanFailed reports a transport or server failure
func (c *Console) ScanFailed(title, message string) {
	fmt.Fprintf(c.w, "\a\a%s  %s\n", title, message)
}
