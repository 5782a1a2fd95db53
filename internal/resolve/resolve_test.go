package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/atlasgen/internal/doctree"
	"github.com/dgallion1/atlasgen/internal/treebuild"
)

const pageID = "01234567-89ab-cdef-0123-456789abcdef"

func num(f float64) *float64 { return &f }

func rich(items ...doctree.RichText) doctree.ContentBlock {
	return doctree.ContentBlock{Rich: items}
}

func fixture(t *testing.T, r2Content ...doctree.ContentBlock) *treebuild.Result {
	t.Helper()
	res, err := treebuild.Build(doctree.NewRecordSet([]doctree.Record{
		{ID: "R1", Type: doctree.TypeScope, DocNo: "A.1", Name: "Alpha", Children: []string{"S1", pageID}},
		{ID: "R2", Type: doctree.TypeScope, DocNo: "A.2", Name: "Beta", Content: r2Content},
		{ID: "S1", Type: doctree.TypeSection, DocNo: "Sec 1", Parents: []string{"R1"}, Number: num(1)},
		{ID: pageID, Type: doctree.TypeArticle, DocNo: "A.1.2", Name: "Linked", Number: num(2)},
	}))
	require.NoError(t, err)
	return res
}

func resolveR2(t *testing.T, blocks ...doctree.ContentBlock) []doctree.ContentItem {
	t.Helper()
	built := fixture(t, blocks...)
	res := Resolve(built.Roots, built.ByKey, built.Lookup)
	require.Len(t, res.Roots, 2)
	return res.Roots[1].Content
}

func TestResolve_MentionOfKnownRecord(t *testing.T) {
	content := resolveR2(t, rich(doctree.RichText{
		Type: doctree.RichTextMention, PlainText: "see", MentionPageID: "S1",
	}))
	require.Len(t, content, 1)
	assert.Equal(t, []doctree.Inline{{
		Type: doctree.InlineMention,
		Text: "A.0.1 - Sec 1",
		Href: "/A_0_1_Sec_1/S1|R1",
	}}, content[0].Text)
}

func TestResolve_ForwardReference(t *testing.T) {
	built, err := treebuild.Build(doctree.NewRecordSet([]doctree.Record{
		{ID: "R1", Type: doctree.TypeScope, DocNo: "A.1", Name: "Alpha", Content: []doctree.ContentBlock{
			rich(doctree.RichText{Type: doctree.RichTextMention, PlainText: "later", MentionPageID: "S2"}),
		}},
		{ID: "R2", Type: doctree.TypeScope, DocNo: "A.2", Name: "Beta", Children: []string{"S2"}},
		{ID: "S2", Type: doctree.TypeSection, DocNo: "Sec 2", Parents: []string{"R2"}, Number: num(1)},
	}))
	require.NoError(t, err)

	res := Resolve(built.Roots, built.ByKey, built.Lookup)
	require.Len(t, res.Roots, 2)
	content := res.Roots[0].Content
	require.Len(t, content, 1)
	assert.Equal(t, []doctree.Inline{{
		Type: doctree.InlineMention,
		Text: "A.1.1 - Sec 2",
		Href: "/A_1_1_Sec_2/S2|R2",
	}}, content[0].Text)
}

func TestResolve_MentionOfRoot(t *testing.T) {
	content := resolveR2(t, rich(doctree.RichText{
		Type: doctree.RichTextMention, PlainText: "root", MentionPageID: "R1",
	}))
	require.Len(t, content, 1)
	assert.Equal(t, "A.0 - Alpha", content[0].Text[0].Text)
	assert.Equal(t, "/A_0_Alpha/R1", content[0].Text[0].Href)
}

func TestResolve_UnknownMentionPassesThrough(t *testing.T) {
	content := resolveR2(t, rich(doctree.RichText{
		Type: doctree.RichTextMention, PlainText: "elsewhere", MentionPageID: "nope", LinkURL: "https://example.com/x",
	}))
	require.Len(t, content, 1)
	assert.Equal(t, doctree.Inline{
		Type: doctree.InlineMention,
		Text: "elsewhere",
		Href: "https://example.com/x",
	}, content[0].Text[0])
}

func TestResolve_Links(t *testing.T) {
	content := resolveR2(t, rich(
		doctree.RichText{Type: doctree.RichTextText, PlainText: "internal", LinkURL: "https://www.notion.so/Linked-0123456789abcdef0123456789abcdef"},
		doctree.RichText{Type: doctree.RichTextText, PlainText: "missing", LinkURL: "https://www.notion.so/Gone-ffffffffffffffffffffffffffffffff"},
		doctree.RichText{Type: doctree.RichTextText, PlainText: "docs", LinkURL: "https://example.com"},
	))
	require.Len(t, content, 1)
	assert.Equal(t, []doctree.Inline{
		{Type: doctree.InlineLink, Text: "A.0.2 - Linked", Href: "/A_0_2_Linked/" + pageID + "|R1"},
		{Type: doctree.InlineLink, Text: "missing", Href: "https://www.notion.so/Gone-ffffffffffffffffffffffffffffffff", External: true},
		{Type: doctree.InlineLink, Text: "docs", Href: "https://example.com", External: true},
	}, content[0].Text)
}

func TestResolve_LeafItems(t *testing.T) {
	content := resolveR2(t,
		doctree.ContentBlock{Heading: "plain", Text: "hello"},
		doctree.ContentBlock{Heading: "empty plain"},
		rich(
			doctree.RichText{Type: doctree.RichTextEquation, PlainText: "e=mc^2"},
			doctree.RichText{Type: doctree.RichTextText, PlainText: "x := 1", Annotations: doctree.Annotations{Code: true}},
			doctree.RichText{Type: doctree.RichTextText, PlainText: "| a |\n|----|"},
			doctree.RichText{Type: doctree.RichTextText, PlainText: "words"},
			doctree.RichText{Type: doctree.RichTextText, PlainText: ""},
		),
		rich(doctree.RichText{Type: doctree.RichTextText}),
	)

	require.Len(t, content, 2)
	assert.Equal(t, "plain", content[0].Heading)
	assert.Equal(t, []doctree.Inline{{Type: doctree.InlineParagraph, Text: "hello"}}, content[0].Text)
	assert.Equal(t, []doctree.Inline{
		{Type: doctree.InlineEquation, Text: "e=mc^2"},
		{Type: doctree.InlineCode, Text: "x := 1"},
		{Type: doctree.InlineTable, Text: "| a |\n|----|"},
		{Type: doctree.InlineParagraph, Text: "words"},
	}, content[1].Text)
}

func TestResolve_KeepsShapeAndIndex(t *testing.T) {
	built := fixture(t)
	res := Resolve(built.Roots, built.ByKey, built.Lookup)

	assert.Len(t, res.ByKey, len(built.ByKey))
	r1 := res.Roots[0]
	require.Len(t, r1.SubDocuments, 2)
	assert.Same(t, r1.SubDocuments[0], res.ByKey["S1|R1"])
	assert.Equal(t, built.Roots[0].DescendantSlugSuffixes, r1.DescendantSlugSuffixes)
	assert.Equal(t, "/A_0_1_Sec_1/S1|R1", r1.SubDocuments[0].URL())
}

func TestResolve_RoundTrip(t *testing.T) {
	built := fixture(t, rich(doctree.RichText{
		Type: doctree.RichTextMention, PlainText: "see", MentionPageID: "S1",
	}))
	first := Resolve(built.Roots, built.ByKey, built.Lookup)
	second := Resolve(built.Roots, built.ByKey, built.Lookup)
	assert.Equal(t, first.Roots, second.Roots)
}

func TestPageIDFromURL(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://www.notion.so/Page-0123456789abcdef0123456789abcdef", pageID, true},
		{"https://www.notion.so/a-b-c-0123456789ABCDEF0123456789ABCDEF", pageID, true},
		{"https://www.notion.so/0123456789abcdef0123456789abcdef", "", false},
		{"http://www.notion.so/Page-0123456789abcdef0123456789abcdef", "", false},
		{"https://www.notion.so/Page-0123456789abcdef0123456789abcde", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := PageIDFromURL(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
