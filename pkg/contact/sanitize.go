package contact

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Field length limits, in characters.
const (
	MaxName    = 120
	MaxEmail   = 254
	MaxMessage = 5000
	MaxCompany = 120
	MaxSource  = 500

	MinName    = 2
	MinMessage = 10
)

// spaceClass is the whitespace set browsers use for \s: Go's \s is ASCII
// only and misses \v, no-break spaces, the Unicode space separators and BOM.
const spaceClass = `\s\v\x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

var (
	whitespaceRun = regexp.MustCompile(`[` + spaceClass + `]+`)
	emailPattern  = regexp.MustCompile(`^[^` + spaceClass + `@]+@[^` + spaceClass + `@]+\.[^` + spaceClass + `@]+$`)
)

// Sanitize collapses whitespace runs, trims, and truncates to max characters.
func Sanitize(value string, max int) string {
	// Every run is a single ASCII space after the replace, so trimming
	// spaces matches the collapse set exactly.
	s := strings.Trim(whitespaceRun.ReplaceAllString(value, " "), " ")
	if r := []rune(s); len(r) > max {
		s = string(r[:max])
	}
	return s
}

// ValidEmail reports whether value looks like an address.
func ValidEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// Submission is a sanitized contact form post.
type Submission struct {
	Name    string
	Email   string
	Message string
	Company string // honeypot, humans leave it empty
	Source  string
}

// NewSubmission sanitizes the raw JSON fields of a post.
func NewSubmission(raw map[string]any) Submission {
	return Submission{
		Name:    Sanitize(stringField(raw["name"]), MaxName),
		Email:   strings.ToLower(Sanitize(stringField(raw["email"]), MaxEmail)),
		Message: Sanitize(stringField(raw["message"]), MaxMessage),
		Company: Sanitize(stringField(raw["company"]), MaxCompany),
		Source:  Sanitize(stringField(raw["source"]), MaxSource),
	}
}

// IsSpam reports whether the honeypot field was filled.
func (s Submission) IsSpam() bool { return s.Company != "" }

// Validate returns the first user-facing validation problem, or "".
func (s Submission) Validate() string {
	switch {
	case textLen(s.Name) < MinName:
		return "Name is required"
	case !ValidEmail(s.Email):
		return "A valid email is required"
	case textLen(s.Message) < MinMessage:
		return "Message is too short"
	}
	return ""
}

// textLen counts UTF-16 code units, the length a browser form reports.
func textLen(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// stringField coerces a decoded JSON value the way a form field reads:
// falsy values are empty.
func stringField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
		return "true"
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
