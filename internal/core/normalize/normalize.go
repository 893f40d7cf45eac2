// Package normalize canonicalizes email addresses so that index build and
// lookup agree on a key
// Pipeline order
// 1 Trim leading and trailing whitespace
// 2 Unicode lower casing (language neutral)
package normalize

import (
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// casers are not safe for concurrent use, so each call borrows one
var lowerPool = sync.Pool{
	New: func() any {
		c := cases.Lower(language.Und)
		return &c
	},
}

// Email returns the lookup key for s
// Pure, total and idempotent: Email(Email(s)) == Email(s)
func Email(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if isLowerASCII(s) {
		return s
	}

	c := lowerPool.Get().(*cases.Caser)
	out := c.String(s)
	lowerPool.Put(c)

	return strings.TrimSpace(out)
}

// isLowerASCII is the fast path for already-normalized keys
func isLowerASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= utf8.RuneSelf || ('A' <= b && b <= 'Z') {
			return false
		}
	}
	return true
}

// Equal reports whether a and b name the same mailbox after normalization
func Equal(a, b string) bool { return Email(a) == Email(b) }
