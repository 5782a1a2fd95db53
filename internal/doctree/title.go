package doctree

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Segment is one element of a number path: an integer index or a string
// label such as "P2".
type Segment struct {
	n     int
	label string
}

func Index(n int) Segment       { return Segment{n: n} }
func Label(s string) Segment    { return Segment{label: s} }
func (s Segment) IsLabel() bool { return s.label != "" }
func (s Segment) Int() int      { return s.n }

func (s Segment) String() string {
	if s.label != "" {
		return s.label
	}
	return strconv.Itoa(s.n)
}

func (s Segment) MarshalJSON() ([]byte, error) {
	if s.label != "" {
		return json.Marshal(s.label)
	}
	return json.Marshal(s.n)
}

func (s *Segment) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
		*s = Label(label)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("number path segment: %w", err)
	}
	*s = Index(n)
	return nil
}

// FormalID is the hierarchical identifier of a node.
type FormalID struct {
	Prefix     string    `json:"prefix"`
	NumberPath []Segment `json:"numberPath"`
}

func (f FormalID) String() string {
	parts := make([]string, 0, len(f.NumberPath)+1)
	parts = append(parts, f.Prefix)
	for _, seg := range f.NumberPath {
		parts = append(parts, seg.String())
	}
	return strings.Join(parts, ".")
}

// Title pairs a formal id with the display title.
type Title struct {
	FormalID FormalID `json:"formalId"`
	Title    string   `json:"title"`
}

// TitleText renders "<prefix>.<path> - <title>".
func TitleText(t Title) string {
	return t.FormalID.String() + " - " + t.Title
}

var slugSeparators = regexp.MustCompile(`[-. _/]+`)

// TitleSlug collapses runs of separator punctuation in the title text into
// a single underscore.
func TitleSlug(t Title) string {
	return slugSeparators.ReplaceAllString(TitleText(t), "_")
}

// URL returns the canonical "/<title-slug>/<slug-key>" path for a node.
func URL(t Title, slugSuffix string) string {
	return "/" + TitleSlug(t) + "/" + slugSuffix
}

// DisplayTitle derives the human title of a record from its type.
func DisplayTitle(t DocType, docNo, name string) string {
	switch t {
	case TypeScope:
		return last(strings.Split(name, " - "))
	case TypeArticle:
		return name
	case TypeAnnotation, TypeScenario:
		if first := strings.Split(docNo, " - ")[0]; first != "" {
			return first
		}
		return docNo
	case TypeActiveData, TypeOriginalContextData,
		TypeSection, TypeCore, TypeActiveDataController, TypeTypeSpecification, TypeCategory:
		return last(strings.Split(docNo, " - "))
	case TypeScenarioVariation:
		parts := strings.Split(docNo, " - ")
		if parts[0] == "" || last(parts) == "" {
			return docNo
		}
		return parts[0] + " - " + last(parts)
	default:
		return docNo
	}
}

func last(s []string) string {
	return s[len(s)-1]
}
