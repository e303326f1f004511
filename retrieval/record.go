package retrieval

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ErrInvalidMetadata marks a metadata literal that is not a mapping.
var ErrInvalidMetadata = errors.New("metadata is not a mapping literal")

// Record is a raw corpus entry as loaded from a Source.
type Record struct {
	Content  string `json:"content" db:"content"`
	Metadata string `json:"metadata" db:"metadata"`
}

// Document is a parsed corpus entry held by the Index.
type Document struct {
	Content  string
	Metadata map[string]any
}

// BuildError reports a corpus record that could not be parsed. Build logs
// and skips these.
type BuildError struct {
	Record int
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("corpus record %d: %v", e.Record, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// ParseMetadata parses a literal mapping such as
// {'Level': '1', 'Final answer': 'Paris', 'Tools': None}.
// Strings may use single or double quotes with backslash escapes; None, True
// and False map to nil, true and false.
func ParseMetadata(literal string) (map[string]any, error) {
	normalized, err := normalizeLiteral(literal)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(strings.TrimSpace(normalized), "{") {
		return nil, ErrInvalidMetadata
	}

	var out map[string]any
	if err := yaml.Unmarshal([]byte(normalized), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if out == nil {
		return nil, ErrInvalidMetadata
	}
	return out, nil
}

// normalizeLiteral rewrites every quoted string as a double-quoted string
// with Go escapes and maps the keyword constants and tuple brackets onto
// their flow-sequence equivalents, leaving a valid YAML flow document.
func normalizeLiteral(s string) (string, error) {
	var out strings.Builder
	out.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\'' || c == '"':
			value, n, err := readQuoted(s[i:])
			if err != nil {
				return "", err
			}
			out.WriteString(strconv.Quote(value))
			i += n
		case c == '(':
			out.WriteByte('[')
			i++
		case c == ')':
			out.WriteByte(']')
			i++
		case isIdentStart(c) && (i == 0 || !isIdentPart(s[i-1])):
			j := i
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			switch word := s[i:j]; word {
			case "None":
				out.WriteString("null")
			case "True":
				out.WriteString("true")
			case "False":
				out.WriteString("false")
			default:
				return "", fmt.Errorf("%w: unexpected name %q", ErrInvalidMetadata, word)
			}
			i = j
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String(), nil
}

// readQuoted decodes the quoted string at the start of s and returns the
// value and the number of bytes consumed.
func readQuoted(s string) (string, int, error) {
	quote := s[0]
	var b strings.Builder

	for i := 1; i < len(s); {
		c := s[i]
		switch {
		case c == quote:
			return b.String(), i + 1, nil
		case c == '\\' && i+1 < len(s):
			r, n, err := decodeEscape(s[i+1:])
			if err != nil {
				return "", 0, err
			}
			b.WriteString(r)
			i += 1 + n
		default:
			r, size := utf8.DecodeRuneInString(s[i:])
			b.WriteRune(r)
			i += size
		}
	}
	return "", 0, fmt.Errorf("%w: unterminated string", ErrInvalidMetadata)
}

func decodeEscape(s string) (string, int, error) {
	switch s[0] {
	case 'n':
		return "\n", 1, nil
	case 't':
		return "\t", 1, nil
	case 'r':
		return "\r", 1, nil
	case '\\', '\'', '"':
		return string(s[0]), 1, nil
	case 'x':
		return decodeHex(s, 2)
	case 'u':
		return decodeHex(s, 4)
	case 'U':
		return decodeHex(s, 8)
	case '\n':
		return "", 1, nil
	default:
		return "\\" + string(s[0]), 1, nil
	}
}

func decodeHex(s string, digits int) (string, int, error) {
	if len(s) < digits+1 {
		return "", 0, fmt.Errorf("%w: truncated escape", ErrInvalidMetadata)
	}
	code, err := strconv.ParseUint(s[1:digits+1], 16, 32)
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad escape: %v", ErrInvalidMetadata, err)
	}
	return string(rune(code)), digits + 1, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
