package command

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Case selects how a command is re-cased before it is sent.
type Case uint8

const (
	CaseUpper Case = iota // MLUP
	CaseLower             // mlup
	CaseFirst             // Mlup
	CaseLast              // mluP
	caseCount
)

// Next returns the case that follows c, wrapping after CaseLast.
func (c Case) Next() Case {
	return (c + 1) % caseCount
}

func (c Case) String() string {
	switch c % caseCount {
	case CaseUpper:
		return "upper"
	case CaseLower:
		return "lower"
	case CaseFirst:
		return "first"
	default:
		return "last"
	}
}

// IsNumeric reports whether cmd, ignoring a leading LongPrefix, is one of the
// digit commands 1 to 12.
func IsNumeric(cmd string) bool {
	n, err := strconv.Atoi(strings.TrimPrefix(cmd, LongPrefix))
	return err == nil && n >= 1 && n <= 12
}

// Randomize re-cases cmd according to c. Digit commands are returned
// untouched and the long prefix is never altered. Single-letter commands only
// alternate between upper and lower case.
func Randomize(cmd string, c Case) string {
	if IsNumeric(cmd) {
		return cmd
	}
	prefix, body := "", cmd
	if strings.HasPrefix(cmd, LongPrefix) {
		prefix, body = LongPrefix, cmd[len(LongPrefix):]
	}
	if body == "" {
		return cmd
	}

	c %= caseCount
	if utf8.RuneCountInString(body) == 1 {
		c %= 2
	}

	switch c {
	case CaseUpper:
		body = strings.ToUpper(body)
	case CaseLower:
		body = strings.ToLower(body)
	case CaseFirst:
		_, n := utf8.DecodeRuneInString(body)
		body = strings.ToUpper(body[:n]) + strings.ToLower(body[n:])
	case CaseLast:
		_, n := utf8.DecodeLastRuneInString(body)
		cut := len(body) - n
		body = strings.ToLower(body[:cut]) + strings.ToUpper(body[cut:])
	}
	return prefix + body
}
