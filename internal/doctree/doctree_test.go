package doctree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		name  string
		typ   DocType
		docNo string
		title string
		want  string
	}{
		{"scope uses last name part", TypeScope, "A.1", "A.1 - The Support Scope", "The Support Scope"},
		{"scope without separator", TypeScope, "A.1", "Support", "Support"},
		{"article uses name", TypeArticle, "A.1.1", "Article One", "Article One"},
		{"section uses last docNo part", TypeSection, "A.1.1.1 - Sec 1", "ignored", "Sec 1"},
		{"category uses last docNo part", TypeCategory, "A.1.2 - Cat", "", "Cat"},
		{"active data uses last docNo part", TypeActiveData, "A.1.1.0.6.1 - Data", "", "Data"},
		{"annotation uses first docNo part", TypeAnnotation, "A.1.1.0.3.1 - Note", "", "A.1.1.0.3.1"},
		{"scenario uses first docNo part", TypeScenario, "A.1.1.0.4.1 - Scn", "", "A.1.1.0.4.1"},
		{"scenario variation joins first and last", TypeScenarioVariation, "A.1 - mid - Var", "", "A.1 - Var"},
		{"scenario variation without docNo", TypeScenarioVariation, "", "", ""},
		{"scenario variation with empty last part", TypeScenarioVariation, "A.1 - ", "", "A.1 - "},
		{"scenario without first part keeps docNo", TypeScenario, " - Scn", "", " - Scn"},
		{"tenet uses docNo", TypeTenet, "A.1.1.0.2.1 - T", "", "A.1.1.0.2.1 - T"},
		{"unknown uses docNo", DocType("other"), "X.1", "", "X.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayTitle(tt.typ, tt.docNo, tt.title))
		})
	}
}

func TestTitleTextAndURL(t *testing.T) {
	title := Title{
		FormalID: FormalID{Prefix: "A", NumberPath: []Segment{Index(0), Index(1)}},
		Title:    "Sec 1",
	}
	assert.Equal(t, "A.0.1 - Sec 1", TitleText(title))
	assert.Equal(t, "A_0_1_Sec_1", TitleSlug(title))
	assert.Equal(t, "/A_0_1_Sec_1/S1|R1", URL(title, "S1|R1"))
}

func TestTitleSlug_CollapsesSeparatorRuns(t *testing.T) {
	title := Title{
		FormalID: FormalID{Prefix: "A", NumberPath: []Segment{Index(1), Label("P2")}},
		Title:    "Foo / Bar__baz",
	}
	assert.Equal(t, "A_1_P2_Foo_Bar_baz", TitleSlug(title))
}

func TestFormalID_EmptyPath(t *testing.T) {
	f := FormalID{Prefix: "A.AG1", NumberPath: []Segment{}}
	assert.Equal(t, "A.AG1", f.String())
}

func TestSegment_JSON(t *testing.T) {
	path := []Segment{Index(0), Index(3), Label("P2")}
	data, err := json.Marshal(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[0,3,"P2"]`, string(data))

	var got []Segment
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, path, got)
	assert.True(t, got[2].IsLabel())
	assert.Equal(t, 3, got[1].Int())
}

func TestContentBlock_UnmarshalJSON(t *testing.T) {
	var blocks []ContentBlock
	input := `[
		{"heading":"Intro","text":"plain words"},
		{"text":[{"type":"mention","plainText":"see","mentionPageId":"S1","annotations":{}}]},
		{"heading":"Empty"}
	]`
	require.NoError(t, json.Unmarshal([]byte(input), &blocks))
	require.Len(t, blocks, 3)

	assert.Equal(t, "Intro", blocks[0].Heading)
	assert.Equal(t, "plain words", blocks[0].Text)
	assert.Nil(t, blocks[0].Rich)

	require.Len(t, blocks[1].Rich, 1)
	assert.Equal(t, RichTextMention, blocks[1].Rich[0].Type)
	assert.Equal(t, "S1", blocks[1].Rich[0].MentionPageID)

	assert.Empty(t, blocks[2].Text)
	assert.Nil(t, blocks[2].Rich)
}

func TestContentBlock_RejectsObjectText(t *testing.T) {
	var b ContentBlock
	err := json.Unmarshal([]byte(`{"text":{"a":1}}`), &b)
	assert.Error(t, err)
}

func TestRecordSet_FirstWins(t *testing.T) {
	set := NewRecordSet([]Record{
		{ID: "a", Name: "first"},
		{ID: "b"},
		{ID: "a", Name: "second"},
	})
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, "first", set.Get("a").Name)
	assert.Equal(t, 0, set.Position("a"))
	assert.Equal(t, 1, set.Position("b"))
	assert.Equal(t, -1, set.Position("missing"))
	assert.Nil(t, set.Get("missing"))
}

func TestDocType_Family(t *testing.T) {
	assert.Equal(t, FamilyRoot, TypeScope.Family())
	assert.Equal(t, FamilySection, TypeCategory.Family())
	assert.Equal(t, FamilySupport, TypeTenet.Family())
	assert.Equal(t, FamilyDefault, TypeScenarioVariation.Family())
	assert.Equal(t, FamilyDefault, DocType("mystery").Family())
	assert.False(t, DocType("mystery").Known())
	assert.True(t, TypeActiveData.Known())
}

func TestSlugLookup_Key(t *testing.T) {
	l := SlugLookup{"S1": "R1"}
	assert.Equal(t, "S1|R1", l.Key("S1"))
	assert.Equal(t, "R1", l.Key("R1"))
}
