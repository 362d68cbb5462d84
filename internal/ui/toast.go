package ui

import (
	"fmt"

	"marketplace/storefront/internal/domain"
)

// Success prints a green confirmation line
func (p *Printer) Success(message string) {
	successColor.Fprintf(p.out, "✔ %s\n", message)
}

// Error prints a red failure line with one bullet per detail
func (p *Printer) Error(message string, details ...string) {
	errorColor.Fprintf(p.out, "✖ %s\n", message)
	for _, d := range details {
		fmt.Fprintf(p.out, "  - %s\n", d)
	}
}

// Result toasts a mutation outcome
func (p *Printer) Result(r domain.Result) {
	if r.Success {
		p.Success(r.Message)
		return
	}
	p.Error(r.Message, r.Errors...)
}
