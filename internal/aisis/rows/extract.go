package rows

import (
	"fmt"

	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
)

// Extract runs fn on b and converts a panic into an extraction_failed skip,
// so that one malformed row never aborts the rest of the parse.
func Extract[T any](c *diag.Collector, b Bucket, fn func(Bucket) ([]T, bool)) (out []T, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			c.Skip(b.Line, b.Text(), diag.ReasonExtractionFailed, fmt.Sprintf("panic during extraction: %v", p))
			out, ok = nil, false
		}
	}()
	return fn(b)
}

// SampleColumns feeds the bucket cells into the collector's column samples.
func SampleColumns(c *diag.Collector, b Bucket) {
	for i, cell := range b.Cells {
		c.Sample(i, cell)
	}
}
