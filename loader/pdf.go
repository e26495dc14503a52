// Package loader turns an uploaded PDF into plain text. pdfcpu decodes the
// page content streams; the text-showing operators (Tj, TJ, ', ") are then
// scanned out of the decoded streams.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ExtractText extracts the text content of the PDF at path, page by page in
// document order.
func ExtractText(path string) (string, error) {
	conf := api.LoadConfiguration()

	tmpDir, err := os.MkdirTemp("", "docqa-extract-")
	if err != nil {
		return "", fmt.Errorf("create extraction dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := api.ExtractContentFile(path, tmpDir, nil, conf); err != nil {
		return "", fmt.Errorf("extract pdf content: %w", err)
	}

	pages, err := pageFilesInOrder(tmpDir)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, page := range pages {
		data, err := os.ReadFile(page)
		if err != nil {
			return "", fmt.Errorf("read page content: %w", err)
		}
		text.WriteString(extractShownText(string(data)))
		text.WriteString("\n")
	}
	return text.String(), nil
}

var pageNumRe = regexp.MustCompile(`(\d+)\D*$`)

// pageFilesInOrder lists the per-page content files pdfcpu wrote, sorted by
// the page number embedded in the file name.
func pageFilesInOrder(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read extraction dir: %w", err)
	}

	type page struct {
		num  int
		path string
	}
	pages := make([]page, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pageNumRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		pages = append(pages, page{num: n, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })

	paths := make([]string, len(pages))
	for i, p := range pages {
		paths[i] = p.path
	}
	return paths, nil
}

// extractShownText walks a decoded content stream and collects the literal
// and hex strings consumed by the text-showing operators.
func extractShownText(content string) string {
	var out strings.Builder

	flush := func(s string) {
		if s == "" {
			return
		}
		out.WriteString(s)
		out.WriteString(" ")
	}

	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '(':
			s, next := readLiteralString(content, i)
			if op := operatorAfter(content, next); op == "Tj" || op == "'" || op == "\"" {
				flush(s)
			}
			i = next - 1
		case '<':
			if i+1 < len(content) && content[i+1] == '<' {
				// Dictionary start, not a string.
				i++
				continue
			}
			s, next := readHexString(content, i)
			if op := operatorAfter(content, next); op == "Tj" || op == "'" || op == "\"" {
				flush(s)
			}
			i = next - 1
		case '[':
			strs, next := readArrayStrings(content, i)
			if op := operatorAfter(content, next); op == "TJ" {
				flush(strings.Join(strs, ""))
			}
			i = next - 1
		}
	}
	return out.String()
}

// readLiteralString decodes the PDF literal string starting at the '(' at
// position i. It returns the decoded text and the position just past the
// closing ')'.
func readLiteralString(s string, i int) (string, int) {
	var b strings.Builder
	depth := 0
	j := i
	for ; j < len(s); j++ {
		c := s[j]
		switch {
		case c == '\\' && j+1 < len(s):
			j++
			switch e := s[j]; e {
			case 'n':
				b.WriteByte('\n')
			case 'r', 't', 'b', 'f':
				b.WriteByte(' ')
			case '(', ')', '\\':
				b.WriteByte(e)
			default:
				if e >= '0' && e <= '7' {
					oct := string(e)
					for len(oct) < 3 && j+1 < len(s) && s[j+1] >= '0' && s[j+1] <= '7' {
						j++
						oct += string(s[j])
					}
					if n, err := strconv.ParseUint(oct, 8, 16); err == nil && n < 256 {
						b.WriteByte(byte(n))
					}
				}
			}
		case c == '(':
			depth++
			if depth > 1 {
				b.WriteByte(c)
			}
		case c == ')':
			depth--
			if depth == 0 {
				return b.String(), j + 1
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), j
}

// readHexString decodes the PDF hex string starting at the '<' at position
// i. Whitespace between digits is allowed; an odd final digit is treated as
// if followed by '0'. Bytes encode text only for simple single-byte fonts;
// CID-keyed glyph ids come out as garbage, which the chunker tolerates.
// Returns the decoded text and the position just past the closing '>'.
func readHexString(s string, i int) (string, int) {
	var b strings.Builder
	var hi byte
	haveHi := false
	j := i + 1
	for ; j < len(s); j++ {
		c := s[j]
		if c == '>' {
			if haveHi {
				b.WriteByte(hexVal(hi) << 4)
			}
			return b.String(), j + 1
		}
		if !isHexDigit(c) {
			continue
		}
		if haveHi {
			b.WriteByte(hexVal(hi)<<4 | hexVal(c))
			haveHi = false
		} else {
			hi = c
			haveHi = true
		}
	}
	return b.String(), j
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func hexVal(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	default:
		return c - '0'
	}
}

// readArrayStrings collects all strings inside the array starting at the '['
// at position i, ignoring the interleaved positioning numbers.
func readArrayStrings(s string, i int) ([]string, int) {
	var strs []string
	j := i + 1
	for ; j < len(s); j++ {
		switch s[j] {
		case '(':
			str, next := readLiteralString(s, j)
			strs = append(strs, str)
			j = next - 1
		case '<':
			str, next := readHexString(s, j)
			strs = append(strs, str)
			j = next - 1
		case ']':
			return strs, j + 1
		}
	}
	return strs, j
}

// operatorAfter returns the operator token following position i, skipping
// whitespace.
func operatorAfter(s string, i int) string {
	for i < len(s) && (s[i] == ' ' || s[i] == '\n' || s[i] == '\r' || s[i] == '\t') {
		i++
	}
	start := i
	for i < len(s) && !isDelim(s[i]) {
		i++
	}
	return s[start:i]
}

func isDelim(c byte) bool {
	switch c {
	case ' ', '\n', '\r', '\t', '(', ')', '[', ']', '<', '>', '/', '%':
		return true
	}
	return false
}
