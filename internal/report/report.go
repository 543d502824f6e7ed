// Package report renders a completed Report as text or JSON, per
// spec.md §6.
package report

import (
	"io"

	"github.com/mosaicfoundry/dupefind/internal/model"
)

// Formatter renders a Report to w.
type Formatter interface {
	Format(w io.Writer, r model.Report) error
}
