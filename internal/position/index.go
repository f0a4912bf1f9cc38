package position

import (
	"fmt"
	"sort"
)

// Position is a resolved source location.
//
// Line is 1-based. Column is the 0-based byte offset from the start of the line,
// which is the unit tree-sitter reports in Point.Column. Offset is the absolute
// byte offset into the source buffer.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

// OneBasedColumn returns the column in editor convention.
func (p Position) OneBasedColumn() int {
	return p.Column + 1
}

// Before reports whether p sorts before other in source order.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

// String formats the position as line:column.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ResolutionError reports an offset or line/column that does not exist in the
// indexed text. It usually means the syntax tree was produced from a different
// buffer than the one being indexed.
type ResolutionError struct {
	Offset int
	Line   int
	Column int
	Size   int
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("position (line %d, col %d) out of range for %d-byte source", e.Line, e.Column, e.Size)
	}
	return fmt.Sprintf("offset %d out of range for %d-byte source", e.Offset, e.Size)
}

// Index maps byte offsets to line/column pairs and back for one source buffer.
// It is built once and is safe for concurrent reads.
type Index struct {
	size       int
	lineStarts []int
}

// New builds an Index over text in a single pass.
// A line ends at '\n'; a preceding '\r' stays part of the line, matching how
// tree-sitter counts rows.
func New(text []byte) *Index {
	starts := make([]int, 1, len(text)/32+1)
	for i, b := range text {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Index{size: len(text), lineStarts: starts}
}

// Size returns the length of the indexed text in bytes.
func (x *Index) Size() int {
	return x.size
}

// LineCount returns the number of lines, counting a trailing empty line.
func (x *Index) LineCount() int {
	return len(x.lineStarts)
}

// LineStart returns the byte offset of the first byte of a 1-based line.
func (x *Index) LineStart(line int) (int, error) {
	if line < 1 || line > len(x.lineStarts) {
		return 0, &ResolutionError{Line: line, Size: x.size}
	}
	return x.lineStarts[line-1], nil
}

// LineEnd returns the offset just past the last byte of a line, excluding the
// terminating '\n'.
func (x *Index) LineEnd(line int) (int, error) {
	if line < 1 || line > len(x.lineStarts) {
		return 0, &ResolutionError{Line: line, Size: x.size}
	}
	if line == len(x.lineStarts) {
		return x.size, nil
	}
	return x.lineStarts[line] - 1, nil
}

// Resolve converts a byte offset into a Position. The offset equal to the text
// length (end of file) is valid.
func (x *Index) Resolve(offset int) (Position, error) {
	if offset < 0 || offset > x.size {
		return Position{}, &ResolutionError{Offset: offset, Size: x.size}
	}
	// Greatest line start <= offset.
	i := sort.Search(len(x.lineStarts), func(i int) bool {
		return x.lineStarts[i] > offset
	}) - 1
	return Position{
		Line:   i + 1,
		Column: offset - x.lineStarts[i],
		Offset: offset,
	}, nil
}

// ResolveInverse converts a 1-based line and 0-based column back into a byte offset.
func (x *Index) ResolveInverse(line, column int) (int, error) {
	start, err := x.LineStart(line)
	if err != nil {
		return 0, err
	}
	end, _ := x.LineEnd(line)
	if column < 0 || start+column > end {
		return 0, &ResolutionError{Line: line, Column: column, Size: x.size}
	}
	return start + column, nil
}
