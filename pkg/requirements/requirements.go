// Package requirements parses fully pinned pip requirements files.
//
// Only exact pins (name==version) are supported: the report compares a
// pinned release against the package's latest release, which is meaningless
// for ranges. Anything that is not a pin, a comment, or a blank line is a
// parse error.
package requirements

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/matzehuels/repute/pkg/fetch"
	"github.com/matzehuels/repute/pkg/sources"
)

const pinOperator = "=="

// ParseLine parses one requirements line into an item. Blank lines and
// comments yield ok=false with no error.
func ParseLine(line string) (item fetch.Item, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return fetch.Item{}, false, nil
	}

	name, version, found := strings.Cut(line, pinOperator)
	if !found || name == "" || version == "" {
		return fetch.Item{}, false, fmt.Errorf("unable to parse %q as a pinned package (expected name==version)", line)
	}

	return fetch.Item{
		Name:    sources.NormalizePkgName(name),
		Version: strings.TrimSpace(version),
	}, true, nil
}

// Parse reads a requirements file into an ordered item list, skipping
// comments and blank lines. The first unparseable line fails the whole file
// with its line number.
func Parse(path string) ([]fetch.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []fetch.Item
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		item, ok, err := ParseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		if ok {
			items = append(items, item)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
