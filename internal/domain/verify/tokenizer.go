// Package verify extracts the top-1 classification from sample output.
//
// A classification line has the grammar
//
//	line    := ws* [prefix ws*] integer sp+ decimal ws*
//	prefix  := "[" ws* level ws* "]"
//	level   := "INFO" | "WARNING" | "ERROR" | "DEBUG"
//	integer := digit+
//	decimal := digit+ "." digit+
//
// where sp is a space or tab and ws additionally includes "\r".
package verify

import (
	"errors"
	"strings"
)

var (
	ErrNoClassification = errors.New("line is not a classification")
	errBadPrefix        = errors.New("unterminated or unknown log prefix")
	errMissingClass     = errors.New("missing class index")
	errMissingSeparator = errors.New("missing separator after class index")
	errBadScore         = errors.New("malformed confidence score")
	errTrailing         = errors.New("unexpected trailing text")
)

var knownLevels = map[string]struct{}{
	"INFO":    {},
	"WARNING": {},
	"ERROR":   {},
	"DEBUG":   {},
}

// Classification is a single parsed "<class> <score>" line.
type Classification struct {
	Class string
	Score string
}

// ParseLine tokenizes one line of sample output. The returned error wraps
// ErrNoClassification and names the first grammar rule that did not hold.
func ParseLine(line string) (Classification, error) {
	s := scanner{src: line}
	s.skipSpace()

	if s.peek() == '[' {
		if !s.prefix() {
			return Classification{}, wrap(errBadPrefix)
		}
		s.skipSpace()
	}

	class := s.digits()
	if class == "" {
		return Classification{}, wrap(errMissingClass)
	}

	if !s.separator() {
		return Classification{}, wrap(errMissingSeparator)
	}

	whole := s.digits()
	if whole == "" || s.peek() != '.' {
		return Classification{}, wrap(errBadScore)
	}
	s.pos++
	frac := s.digits()
	if frac == "" {
		return Classification{}, wrap(errBadScore)
	}

	s.skipSpace()
	if !s.done() {
		return Classification{}, wrap(errTrailing)
	}

	return Classification{Class: class, Score: whole + "." + frac}, nil
}

func wrap(err error) error {
	return errors.Join(ErrNoClassification, err)
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte {
	if s.done() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) skipSpace() {
	for !s.done() && isSpace(s.src[s.pos]) {
		s.pos++
	}
}

func (s *scanner) separator() bool {
	start := s.pos
	for !s.done() && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
	return s.pos > start
}

func (s *scanner) digits() string {
	start := s.pos
	for !s.done() && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
		s.pos++
	}
	return s.src[start:s.pos]
}

func (s *scanner) prefix() bool {
	end := strings.IndexByte(s.src[s.pos:], ']')
	if end < 0 {
		return false
	}
	level := strings.TrimSpace(s.src[s.pos+1 : s.pos+end])
	if _, ok := knownLevels[level]; !ok {
		return false
	}
	s.pos += end + 1
	return true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}
