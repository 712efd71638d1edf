package extract

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

// kerningSpace is the TJ displacement, in thousandths of an em, beyond which
// a gap is rendered as a word break.
const kerningSpace = -200

type tokenKind int

const (
	tokOperator tokenKind = iota
	tokNumber
	tokString
	tokArray
	tokArrayEnd
	tokOther
)

type token struct {
	kind  tokenKind
	text  string
	num   float64
	str   []byte
	items []token
}

// lexer tokenizes a PDF content stream. It understands only what text
// extraction needs; dictionaries and names are passed through as tokOther.
type lexer struct {
	data []byte
	pos  int
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		if isSpace(c) {
			lx.pos++
			continue
		}
		if c == '%' {
			for lx.pos < len(lx.data) && lx.data[lx.pos] != '\n' && lx.data[lx.pos] != '\r' {
				lx.pos++
			}
			continue
		}
		return
	}
}

func (lx *lexer) next() (token, bool) {
	lx.skipSpace()
	if lx.pos >= len(lx.data) {
		return token{}, false
	}

	c := lx.data[lx.pos]
	switch {
	case c == '(':
		lx.pos++
		return token{kind: tokString, str: lx.literal()}, true
	case c == '<':
		if lx.pos+1 < len(lx.data) && lx.data[lx.pos+1] == '<' {
			lx.pos += 2
			return token{kind: tokOther, text: "<<"}, true
		}
		lx.pos++
		return token{kind: tokString, str: lx.hex()}, true
	case c == '>':
		lx.pos++
		if lx.pos < len(lx.data) && lx.data[lx.pos] == '>' {
			lx.pos++
		}
		return token{kind: tokOther, text: ">>"}, true
	case c == '[':
		lx.pos++
		return token{kind: tokArray, items: lx.array()}, true
	case c == ']':
		lx.pos++
		return token{kind: tokArrayEnd}, true
	case c == '/':
		lx.pos++
		return token{kind: tokOther, text: "/" + lx.regular()}, true
	case c == '{' || c == '}' || c == ')':
		lx.pos++
		return token{kind: tokOther, text: string(c)}, true
	}

	word := lx.regular()
	if word == "" {
		// Unknown byte; skip it so the lexer always advances.
		lx.pos++
		return token{kind: tokOther}, true
	}
	if n, err := strconv.ParseFloat(word, 64); err == nil {
		return token{kind: tokNumber, num: n, text: word}, true
	}
	return token{kind: tokOperator, text: word}, true
}

func (lx *lexer) regular() string {
	start := lx.pos
	for lx.pos < len(lx.data) && !isSpace(lx.data[lx.pos]) && !isDelimiter(lx.data[lx.pos]) {
		lx.pos++
	}
	return string(lx.data[start:lx.pos])
}

func (lx *lexer) array() []token {
	var items []token
	for {
		t, ok := lx.next()
		if !ok || t.kind == tokArrayEnd {
			return items
		}
		items = append(items, t)
	}
}

// literal reads a parenthesised string, resolving escapes and nesting.
func (lx *lexer) literal() []byte {
	var out []byte
	depth := 1
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		lx.pos++
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out
			}
			out = append(out, c)
		case '\\':
			out = lx.escape(out)
		default:
			out = append(out, c)
		}
	}
	return out
}

func (lx *lexer) escape(out []byte) []byte {
	if lx.pos >= len(lx.data) {
		return out
	}
	c := lx.data[lx.pos]
	lx.pos++
	switch c {
	case 'n':
		return append(out, '\n')
	case 'r':
		return append(out, '\r')
	case 't':
		return append(out, '\t')
	case 'b':
		return append(out, '\b')
	case 'f':
		return append(out, '\f')
	case '\r':
		// Line continuation.
		if lx.pos < len(lx.data) && lx.data[lx.pos] == '\n' {
			lx.pos++
		}
		return out
	case '\n':
		return out
	}
	if c >= '0' && c <= '7' {
		val := int(c - '0')
		for i := 0; i < 2 && lx.pos < len(lx.data); i++ {
			d := lx.data[lx.pos]
			if d < '0' || d > '7' {
				break
			}
			val = val*8 + int(d-'0')
			lx.pos++
		}
		return append(out, byte(val))
	}
	return append(out, c)
}

func (lx *lexer) hex() []byte {
	var digits []byte
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		lx.pos++
		if c == '>' {
			break
		}
		if _, ok := hexValue(c); ok {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		hi, _ := hexValue(digits[i])
		lo, _ := hexValue(digits[i+1])
		out = append(out, hi<<4|lo)
	}
	return out
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// skipInlineImage advances past binary inline image data following ID.
func (lx *lexer) skipInlineImage() {
	for lx.pos+2 < len(lx.data) {
		if isSpace(lx.data[lx.pos]) && lx.data[lx.pos+1] == 'E' && lx.data[lx.pos+2] == 'I' &&
			(lx.pos+3 == len(lx.data) || isSpace(lx.data[lx.pos+3])) {
			lx.pos += 3
			return
		}
		lx.pos++
	}
	lx.pos = len(lx.data)
}

// ContentText extracts the text shown by a page content stream.
// Line-positioning operators start new lines so the first line of a page
// can serve as its title.
func ContentText(data []byte) string {
	var (
		sb       strings.Builder
		operands []token
		lx       = lexer{data: data}
	)

	newline := func() {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
	}
	space := func() {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
	}
	lastString := func() []byte {
		for i := len(operands) - 1; i >= 0; i-- {
			if operands[i].kind == tokString {
				return operands[i].str
			}
		}
		return nil
	}
	lastNumber := func(fromEnd int) float64 {
		i := len(operands) - 1 - fromEnd
		if i >= 0 && operands[i].kind == tokNumber {
			return operands[i].num
		}
		return 0
	}

	for {
		t, ok := lx.next()
		if !ok {
			break
		}
		if t.kind != tokOperator {
			operands = append(operands, t)
			continue
		}

		switch t.text {
		case "Tj":
			sb.WriteString(decodeText(lastString()))
		case "TJ":
			for _, op := range operands {
				if op.kind != tokArray {
					continue
				}
				for _, item := range op.items {
					switch item.kind {
					case tokString:
						sb.WriteString(decodeText(item.str))
					case tokNumber:
						if item.num < kerningSpace {
							sb.WriteByte(' ')
						}
					}
				}
			}
		case "'", `"`:
			newline()
			sb.WriteString(decodeText(lastString()))
		case "Td", "TD":
			if lastNumber(0) != 0 {
				newline()
			} else {
				space()
			}
		case "T*", "ET":
			newline()
		case "Tm":
			space()
		case "ID":
			lx.skipInlineImage()
		}
		operands = operands[:0]
	}

	return cleanLines(sb.String())
}

// decodeText converts PDF string bytes to UTF-8. UTF-16BE strings carry a
// byte order mark; other non-UTF-8 strings are read as Windows-1252, the
// closest common superset of PDFDocEncoding.
func decodeText(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		dec := xunicode.UTF16(xunicode.BigEndian, xunicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(b); err == nil {
			return string(out)
		}
	}
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return string(out)
}

// cleanLines collapses whitespace within each line, drops non-printable
// runes and removes empty lines.
func cleanLines(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		var sb strings.Builder
		prevSpace := false
		for _, r := range line {
			switch {
			case unicode.IsSpace(r):
				if !prevSpace && sb.Len() > 0 {
					sb.WriteByte(' ')
					prevSpace = true
				}
			case unicode.IsPrint(r):
				sb.WriteRune(r)
				prevSpace = false
			}
		}
		if l := strings.TrimSpace(sb.String()); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
