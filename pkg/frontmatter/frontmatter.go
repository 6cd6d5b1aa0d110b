// Package frontmatter splits markdown payloads into a front-matter block
// and a body, and converts the block to and from an ordered key/value
// mapping.
//
// The block is delimited by '---' fence lines:
//
//	---
//	title: My Project
//	author: J. Doe
//	created: 2025-01-01T00:00:00Z
//	myapp:
//	  theme: dark
//	  count: 42
//	---
//	body text
//
// The key/value text inside the fences is full YAML, delegated to
// gopkg.in/yaml.v3. This package owns only the fence handling, the
// ordered [Mapping] view of the block, and deterministic rendering
// (insertion-ordered top-level keys, sorted keys inside nested maps,
// two-space indentation).
//
// Splitting trims only the blank lines immediately after the closing
// fence; interior blank lines of the body are preserved verbatim. A
// payload without both fences is a hard [ErrNoFrontMatter] failure,
// never a "no metadata" fallback.
package frontmatter

import (
	"bytes"
)

var delimiterBytes = []byte("---")

// Split locates the front-matter fences in src and returns the enclosed
// block and the remaining body. The body starts immediately after the
// closing fence line, trimmed of leading blank lines. A missing opening
// or closing fence fails with ErrNoFrontMatter.
func Split(src []byte) (block, body []byte, err error) {
	first, rest, ok := cutLine(src)
	if !ok || !bytes.Equal(first, delimiterBytes) {
		return nil, nil, ErrNoFrontMatter
	}

	blockStart := len(src) - len(rest)

	for len(rest) > 0 {
		line, next, _ := cutLine(rest)
		if bytes.Equal(line, delimiterBytes) {
			blockEnd := len(src) - len(rest)

			return src[blockStart:blockEnd], trimLeadingBlankLines(next), nil
		}

		rest = next
	}

	return nil, nil, ErrNoFrontMatter
}

// Parse splits src and parses the enclosed block into an ordered mapping.
func Parse(src []byte) (*Mapping, []byte, error) {
	block, body, err := Split(src)
	if err != nil {
		return nil, nil, err
	}

	m, err := ParseBlock(block)
	if err != nil {
		return nil, nil, err
	}

	return m, body, nil
}

// cutLine returns the first line of data without its terminator and the
// remainder after it. The boolean is false when data is empty.
func cutLine(data []byte) (line, rest []byte, ok bool) {
	if len(data) == 0 {
		return nil, nil, false
	}

	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		return trimCR(data), nil, true
	}

	return trimCR(data[:idx]), data[idx+1:], true
}

func trimCR(line []byte) []byte {
	if len(line) > 0 && line[len(line)-1] == '\r' {
		return line[:len(line)-1]
	}

	return line
}

func trimLeadingBlankLines(tail []byte) []byte {
	for len(tail) > 0 {
		if tail[0] == '\n' {
			tail = tail[1:]

			continue
		}

		if tail[0] == '\r' && len(tail) >= 2 && tail[1] == '\n' {
			tail = tail[2:]

			continue
		}

		break
	}

	return tail
}
