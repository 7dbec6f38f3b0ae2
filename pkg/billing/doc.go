// Package billing contains the invoice processing core: the Engine that
// walks outstanding invoices and classifies charge outcomes, the Reporter
// that tallies a pass, and the Scheduler that fires a pass on a monthly
// calendar boundary.
package billing
