package resolve

import (
	"regexp"

	"github.com/google/uuid"
)

var notionPageURL = regexp.MustCompile(`^https://www\.notion\.so/.+-([a-fA-F0-9]{32})$`)

// PageIDFromURL extracts the page id from a notion.so page URL and returns it
// in dashed form. ok is false for any other URL.
func PageIDFromURL(url string) (id string, ok bool) {
	m := notionPageURL.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	u, err := uuid.Parse(m[1])
	if err != nil {
		return "", false
	}
	return u.String(), true
}
