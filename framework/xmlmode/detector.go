// Package xmlmode classifies a configuration document as DTD- or
// schema-validated by peeking at its leading lines.
//
// The detector never parses the document. It strips comment spans, skips
// blank lines and stops at the first DOCTYPE token (DTD) or the first
// element tag (XSD). A stream that ends before either is seen is XSD.
package xmlmode

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Mode is the validation dialect of a document.
type Mode int

const (
	None Mode = iota // validation disabled
	Auto             // undecided; the caller picks
	DTD              // a DOCTYPE declaration was found
	XSD              // no DOCTYPE before the root element
)

func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case Auto:
		return "auto"
	case DTD:
		return "dtd"
	case XSD:
		return "xsd"
	}
	return "unknown"
}

const (
	doctypeToken = "DOCTYPE"
	startComment = "<!--"
	endComment   = "-->"
)

// Detector scans one stream. A Detector carries comment state and must not
// be shared between concurrent scans; Detect resets it on entry.
type Detector struct {
	// Encoding decodes the raw bytes before scanning. Nil means UTF-8.
	Encoding encoding.Encoding

	inComment bool
}

// Detect reads r until the mode is known and closes r before returning.
//
// Malformed character data yields Auto with a nil error so that the caller
// decides. Any other read error is returned.
func (d *Detector) Detect(r io.ReadCloser) (mode Mode, err error) {
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	d.inComment = false

	var src io.Reader = r
	if d.Encoding != nil {
		src = transform.NewReader(src, d.Encoding.NewDecoder())
	}
	reader := bufio.NewReader(transform.NewReader(src, encoding.UTF8Validator))

	for {
		line, rerr := reader.ReadString('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			if errors.Is(rerr, encoding.ErrInvalidUTF8) {
				return Auto, nil
			}
			return Auto, rerr
		}
		if line != "" {
			if m, done := d.scanLine(line); done {
				return m, nil
			}
		}
		if rerr != nil {
			return XSD, nil
		}
	}
}

// scanLine reports the mode once a line settles it.
func (d *Detector) scanLine(line string) (Mode, bool) {
	content := d.consumeCommentTokens(line)
	if strings.TrimSpace(content) == "" {
		return XSD, false
	}
	if strings.Contains(content, doctypeToken) {
		return DTD, true
	}
	if hasOpeningTag(content) {
		return XSD, true
	}
	return XSD, false
}

// consumeCommentTokens returns the parts of line that lie outside comment
// spans, updating inComment as spans open and close. Text after a closed
// comment on the same line is scanned again for further spans, so the
// result never contains commented text. A stray "-->" outside a comment is
// ordinary text.
func (d *Detector) consumeCommentTokens(line string) string {
	start := strings.Index(line, startComment)
	if !d.inComment && start == -1 {
		return line
	}
	if d.inComment && !strings.Contains(line, endComment) {
		return ""
	}

	var result string
	curr := line
	if !d.inComment && start >= 0 {
		result = line[:start]
		curr = line[start:]
	}
	if rest, ok := d.consume(curr); ok {
		result += d.consumeCommentTokens(rest)
	}
	return result
}

// consume moves past the next comment token that changes state and returns
// the remainder.
func (d *Detector) consume(line string) (string, bool) {
	token, entering := startComment, true
	if d.inComment {
		token, entering = endComment, false
	}
	i := strings.Index(line, token)
	if i == -1 {
		return "", false
	}
	d.inComment = entering
	return line[i+len(token):], true
}

// hasOpeningTag reports a '<' immediately followed by a letter.
func hasOpeningTag(content string) bool {
	i := strings.IndexByte(content, '<')
	if i == -1 || i+1 >= len(content) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(content[i+1:])
	return unicode.IsLetter(r)
}

// Detect is a convenience for a one-off UTF-8 scan.
func Detect(r io.ReadCloser) (Mode, error) {
	var d Detector
	return d.Detect(r)
}
