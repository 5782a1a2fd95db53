package doctree

import (
	"encoding/json"
	"fmt"
)

// Record is a flat, typed unit of content with relations to other records by id.
type Record struct {
	ID           string         `json:"id"`
	Type         DocType        `json:"type"`
	DocNo        string         `json:"docNo"`
	Name         string         `json:"name"`
	Content      []ContentBlock `json:"content"`
	Children     []string       `json:"children"`
	Parents      []string       `json:"parents,omitempty"`
	Number       *float64       `json:"number,omitempty"`
	Files        []FileRef      `json:"files"`
	MasterStatus []string       `json:"masterStatus,omitempty"`
	GlobalTags   []string       `json:"globalTags,omitempty"`
	HubURLs      []string       `json:"hubUrls,omitempty"`

	IsAgentArtifact bool `json:"isAgentArtifact,omitempty"`
	IsSkyPrimitive  bool `json:"isSkyPrimitive,omitempty"`
}

// FileRef points at an attached file or external media.
type FileRef struct {
	URL string `json:"url"`
}

// RecordSet is an id-indexed record collection that remembers input order.
type RecordSet struct {
	records []*Record
	byID    map[string]*Record
	pos     map[string]int
}

// NewRecordSet indexes records by id. When an id repeats, the first record wins.
func NewRecordSet(records []Record) *RecordSet {
	s := &RecordSet{
		records: make([]*Record, 0, len(records)),
		byID:    make(map[string]*Record, len(records)),
		pos:     make(map[string]int, len(records)),
	}
	for i := range records {
		r := &records[i]
		if _, ok := s.byID[r.ID]; ok {
			continue
		}
		s.pos[r.ID] = len(s.records)
		s.byID[r.ID] = r
		s.records = append(s.records, r)
	}
	return s
}

// Get returns the record with the given id, or nil.
func (s *RecordSet) Get(id string) *Record {
	return s.byID[id]
}

// Records returns all records in input order.
func (s *RecordSet) Records() []*Record {
	return s.records
}

// Position returns the input position of id, or -1 if unknown.
func (s *RecordSet) Position(id string) int {
	if p, ok := s.pos[id]; ok {
		return p
	}
	return -1
}

// Len returns the number of distinct records.
func (s *RecordSet) Len() int {
	return len(s.records)
}

// ContentBlock is one block of record content. The text is either plain
// (Text) or a list of rich text items (Rich).
type ContentBlock struct {
	Heading string
	Text    string
	Rich    []RichText
}

type contentBlockJSON struct {
	Heading string          `json:"heading,omitempty"`
	Text    json.RawMessage `json:"text,omitempty"`
}

func (b ContentBlock) MarshalJSON() ([]byte, error) {
	out := contentBlockJSON{Heading: b.Heading}
	var err error
	if b.Rich != nil {
		out.Text, err = json.Marshal(b.Rich)
	} else if b.Text != "" {
		out.Text, err = json.Marshal(b.Text)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var in contentBlockJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*b = ContentBlock{Heading: in.Heading}
	if len(in.Text) == 0 || string(in.Text) == "null" {
		return nil
	}
	switch in.Text[0] {
	case '"':
		return json.Unmarshal(in.Text, &b.Text)
	case '[':
		return json.Unmarshal(in.Text, &b.Rich)
	default:
		return fmt.Errorf("content block text: unexpected %s", in.Text)
	}
}

// RichTextType is the leaf kind of a rich text item.
type RichTextType string

const (
	RichTextText     RichTextType = "text"
	RichTextEquation RichTextType = "equation"
	RichTextMention  RichTextType = "mention"
)

// RichText is one already-normalized rich text item.
type RichText struct {
	Type          RichTextType `json:"type"`
	PlainText     string       `json:"plainText"`
	LinkURL       string       `json:"linkUrl,omitempty"`
	MentionPageID string       `json:"mentionPageId,omitempty"`
	Annotations   Annotations  `json:"annotations"`
}

// Annotations are the formatting flags carried by a rich text item.
type Annotations struct {
	Bold          bool `json:"bold,omitempty"`
	Italic        bool `json:"italic,omitempty"`
	Strikethrough bool `json:"strikethrough,omitempty"`
	Underline     bool `json:"underline,omitempty"`
	Code          bool `json:"code,omitempty"`
}
