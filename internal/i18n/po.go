package i18n

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformedPO is returned when a .po file cannot be parsed.
var ErrMalformedPO = errors.New("malformed po file")

// POFile is a parsed gettext catalog. Entries with an empty msgstr are
// dropped so lookups fall back to the msgid.
type POFile struct {
	Header   map[string]string
	Messages map[string]string
}

// ParsePO reads msgid/msgstr pairs. Continuation lines made of a single
// quoted string extend the preceding msgid or msgstr. The entry with an
// empty msgid is the header.
func ParsePO(r io.Reader) (*POFile, error) {
	po := &POFile{Header: map[string]string{}, Messages: map[string]string{}}

	var (
		id, str strings.Builder
		target  *strings.Builder
		haveID  bool
		haveStr bool
		lineNo  int
		scanner = bufio.NewScanner(r)
	)

	flush := func() {
		if haveID && haveStr {
			po.add(id.String(), str.String())
		}
		id.Reset()
		str.Reset()
		haveID, haveStr, target = false, false, nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "msgid "):
			flush()
			s, err := unquote(line[len("msgid "):])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedPO, lineNo, err)
			}
			id.WriteString(s)
			haveID, target = true, &id
		case strings.HasPrefix(line, "msgstr "):
			if !haveID {
				return nil, fmt.Errorf("%w: line %d: msgstr without msgid", ErrMalformedPO, lineNo)
			}
			s, err := unquote(line[len("msgstr "):])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedPO, lineNo, err)
			}
			str.WriteString(s)
			haveStr, target = true, &str
		case strings.HasPrefix(line, `"`):
			if target == nil {
				return nil, fmt.Errorf("%w: line %d: continuation outside an entry", ErrMalformedPO, lineNo)
			}
			s, err := unquote(line)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedPO, lineNo, err)
			}
			target.WriteString(s)
		default:
			// msgctxt, msgid_plural and friends are not used.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return po, nil
}

func (po *POFile) add(id, str string) {
	if id == "" {
		po.parseHeader(str)
		return
	}
	if strings.TrimSpace(str) == "" {
		return
	}
	po.Messages[id] = str
}

func (po *POFile) parseHeader(s string) {
	for _, line := range strings.Split(s, "\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		po.Header[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
}

// Language returns the Language header, if any.
func (po *POFile) Language() string {
	return po.Header["Language"]
}

func unquote(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("expected quoted string, got %q", s)
	}
	return strconv.Unquote(s)
}
