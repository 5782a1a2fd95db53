package doctree

// SlugLookup maps a record id to its short slug suffix. Entries are never
// overwritten once set.
type SlugLookup map[string]string

// Key returns the full slug key for id: "id|suffix" when the lookup has an
// entry, otherwise the bare id (roots are keyed by id).
func (l SlugLookup) Key(id string) string {
	if s, ok := l[id]; ok {
		return id + "|" + s
	}
	return id
}

// RawNode is a built tree node whose content has not been resolved yet.
type RawNode struct {
	ID                     string         `json:"id"`
	Type                   DocType        `json:"type"`
	Title                  Title          `json:"title"`
	Content                []ContentBlock `json:"content"`
	SlugSuffix             string         `json:"slugSuffix"`
	ParentSlugSuffix       *string        `json:"parentSlugSuffix"`
	AncestorSlugSuffixes   []string       `json:"ancestorSlugSuffixes"`
	DescendantSlugSuffixes []string       `json:"descendantSlugSuffixes"`
	SubDocuments           []*RawNode     `json:"subDocuments"`
	Files                  []FileRef      `json:"files"`
	HubURLs                []string       `json:"hubUrls,omitempty"`
	GlobalTags             []string       `json:"globalTags,omitempty"`
	MasterStatus           []string       `json:"masterStatus,omitempty"`
}

// Node is a tree node with resolved content.
type Node struct {
	ID                     string        `json:"id"`
	Type                   DocType       `json:"type"`
	Title                  Title         `json:"title"`
	Content                []ContentItem `json:"content"`
	SlugSuffix             string        `json:"slugSuffix"`
	ParentSlugSuffix       *string       `json:"parentSlugSuffix"`
	AncestorSlugSuffixes   []string      `json:"ancestorSlugSuffixes"`
	DescendantSlugSuffixes []string      `json:"descendantSlugSuffixes"`
	SubDocuments           []*Node       `json:"subDocuments"`
	Files                  []FileRef     `json:"files"`
	HubURLs                []string      `json:"hubUrls,omitempty"`
	GlobalTags             []string      `json:"globalTags,omitempty"`
	MasterStatus           []string      `json:"masterStatus,omitempty"`
}

// URL returns the canonical URL of the node.
func (n *Node) URL() string {
	return URL(n.Title, n.SlugSuffix)
}

// ContentItem is one resolved content block.
type ContentItem struct {
	Heading string   `json:"heading,omitempty"`
	Text    []Inline `json:"text"`
}

// InlineType tags the variant held by an Inline.
type InlineType string

const (
	InlineParagraph InlineType = "paragraph"
	InlineLink      InlineType = "link"
	InlineMention   InlineType = "mention"
	InlineEquation  InlineType = "equation"
	InlineCode      InlineType = "code"
	InlineTable     InlineType = "table"
)

// Inline is one resolved text item. Href is set for links and mentions;
// External is only meaningful for links.
type Inline struct {
	Type     InlineType `json:"type"`
	Text     string     `json:"text"`
	Href     string     `json:"href,omitempty"`
	External bool       `json:"external,omitempty"`
}
