package chapters

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

var numberedName = regexp.MustCompile(`^Chapter \d+$`)

// IsDefaultNumbered reports whether every chapter carries an auto-generated
// "Chapter N" name and there are at least two chapters.
func IsDefaultNumbered(chapters []Chapter) bool {
	return len(chapters) >= 2 && lo.EveryBy(chapters, func(c Chapter) bool {
		return numberedName.MatchString(c.Name)
	})
}

// FindIntro returns the slice position of the chapter most likely to be the
// intro. Default-numbered lists use the second chapter; otherwise the first
// chapter whose name contains "intro" (any case) wins.
func FindIntro(chapters []Chapter) (int, bool) {
	if IsDefaultNumbered(chapters) {
		return 1, true
	}
	_, pos, ok := lo.FindIndexOf(chapters, func(c Chapter) bool {
		return strings.Contains(strings.ToLower(c.Name), "intro")
	})
	return pos, ok
}

// ByNumber returns the chapter with the 1-based number n, if present.
func ByNumber(chapters []Chapter, n int) (Chapter, bool) {
	if n < 1 || n > len(chapters) {
		return Chapter{}, false
	}
	return chapters[n-1], true
}
