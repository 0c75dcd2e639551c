// Package keywords validates, escapes and groups the user-configured task
// keywords that drive task-line detection.
package keywords

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/starford/todoseq/internal/apperr"
)

// MaxLength is the longest keyword accepted, in characters.
const MaxLength = 50

// maxRepetition is the smallest explicit repetition bound that is rejected.
const maxRepetition = 10

// InvalidKeywordError reports a keyword rejected by Validate.
type InvalidKeywordError struct {
	Keyword string
	Reason  string
}

func (e *InvalidKeywordError) Error() string {
	return fmt.Sprintf("invalid keyword %q: %s", e.Keyword, e.Reason)
}

// Is lets errors.Is match apperr.ErrInvalidKeyword.
func (e *InvalidKeywordError) Is(target error) bool {
	return target == apperr.ErrInvalidKeyword
}

type unsafePattern struct {
	re     *regexp.Regexp
	reason string
}

var (
	unsafePatterns = []unsafePattern{
		{regexp.MustCompile(`\*.*\*`), "nested * quantifiers"},
		{regexp.MustCompile(`\+.*\+`), "nested + quantifiers"},
		{regexp.MustCompile(`\?.*\?`), "nested ? quantifiers"},
		{regexp.MustCompile(`[*+?]{3,}`), "repeated quantifiers"},
		{regexp.MustCompile(`\\[1-9]|\\k<`), "backreference"},
		{regexp.MustCompile(`\(\?<?[=!]`), "lookaround"},
	}

	repetitionRe = regexp.MustCompile(`\{\s*(\d*)\s*(?:,\s*(\d*)\s*)?\}`)
)

// Validate checks every keyword and returns an *InvalidKeywordError for the
// first one that is empty, too long, or carries regex syntax known to cause
// pathological matching.
func Validate(keywords []string) error {
	for _, k := range keywords {
		if err := validateOne(k); err != nil {
			return err
		}
	}
	return nil
}

func validateOne(k string) error {
	if strings.TrimSpace(k) == "" {
		return &InvalidKeywordError{Keyword: k, Reason: "empty"}
	}
	if utf8.RuneCountInString(k) > MaxLength {
		return &InvalidKeywordError{Keyword: k, Reason: fmt.Sprintf("longer than %d characters", MaxLength)}
	}
	for _, p := range unsafePatterns {
		if p.re.MatchString(k) {
			return &InvalidKeywordError{Keyword: k, Reason: p.reason}
		}
	}
	for _, m := range repetitionRe.FindAllStringSubmatch(k, -1) {
		for _, bound := range m[1:] {
			if bound == "" {
				continue
			}
			n, err := strconv.Atoi(bound)
			if err != nil || n >= maxRepetition {
				return &InvalidKeywordError{Keyword: k, Reason: "repetition bound " + bound}
			}
		}
	}
	return nil
}

// Escape backslash-escapes regex metacharacters in k.
func Escape(k string) string {
	return regexp.QuoteMeta(k)
}

// Alternation escapes keywords and joins them into a regex alternation.
// Order is preserved; the regex engine prefers earlier alternatives.
func Alternation(keywords []string) string {
	parts := make([]string, len(keywords))
	for i, k := range keywords {
		parts[i] = Escape(k)
	}
	return strings.Join(parts, "|")
}
