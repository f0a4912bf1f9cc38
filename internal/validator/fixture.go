package validator

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/mvp-joe/cortex-positions/internal/position"
	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// ErrMalformedAnnotation is returned for a comment that looks like a position
// annotation but cannot be read as one.
var ErrMalformedAnnotation = errors.New("malformed position annotation")

// annotation matches "<name> at position (line L, col C)" with an optional
// "(destructor)" marker.
var annotation = regexp.MustCompile(`(\S+) at position \(line (\d+), col (\d+)\)(\s*\(destructor\))?`)

// LoadFixture reads a fixture file and returns the symbols its comments expect.
func LoadFixture(path string) ([]symbols.Symbol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	expected, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return expected, nil
}

// ParseFixture extracts position annotations from "//" and "#" comments.
// Several annotations may share one comment. Expected symbols carry no kind
// (except destructors) and a nil scope path, so Compare treats both as
// wildcards.
func ParseFixture(source []byte) ([]symbols.Symbol, error) {
	var expected []symbols.Symbol

	scanner := bufio.NewScanner(bytes.NewReader(source))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		comment, ok := commentText(scanner.Text())
		if !ok || !strings.Contains(comment, "at position (") {
			continue
		}

		found := annotation.FindAllStringSubmatch(comment, -1)
		if len(found) == 0 {
			return nil, fmt.Errorf("%w on line %d: %q", ErrMalformedAnnotation, lineNo, strings.TrimSpace(comment))
		}
		for _, m := range found {
			line, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, fmt.Errorf("%w on line %d: %v", ErrMalformedAnnotation, lineNo, err)
			}
			col, err := strconv.Atoi(m[3])
			if err != nil {
				return nil, fmt.Errorf("%w on line %d: %v", ErrMalformedAnnotation, lineNo, err)
			}

			sym := symbols.Symbol{
				Name:     m[1],
				Position: position.Position{Line: line, Column: col},
			}
			if m[4] != "" {
				sym.Kind = symbols.KindDestructor
			}
			expected = append(expected, sym)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan fixture: %w", err)
	}
	return expected, nil
}

// commentText returns the text after the first comment marker on a line.
// "//" wins over "#" so preprocessor lines only count through their trailing
// comment.
func commentText(line string) (string, bool) {
	if i := strings.Index(line, "//"); i >= 0 {
		return line[i+2:], true
	}
	if i := strings.Index(line, "#"); i >= 0 {
		return line[i+1:], true
	}
	return "", false
}
