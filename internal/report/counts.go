package report

import (
	"bytes"
	"strconv"

	"github.com/dgallion1/atlasgen/internal/doctree"
	"github.com/olekukonko/tablewriter"
)

var typeLabels = map[doctree.DocType]string{
	doctree.TypeScope:                "Scopes",
	doctree.TypeArticle:              "Articles",
	doctree.TypeCore:                 "Core",
	doctree.TypeActiveDataController: "Active Data Controllers",
	doctree.TypeSection:              "Sections",
	doctree.TypeTypeSpecification:    "Type Specifications",
	doctree.TypeCategory:             "Categories",
	doctree.TypeAnnotation:           "Annotations",
	doctree.TypeNeededResearch:       "Needed Research",
	doctree.TypeOriginalContextData:  "Original Context",
	doctree.TypeScenario:             "Scenarios",
	doctree.TypeScenarioVariation:    "Scenario Variations",
	doctree.TypeTenet:                "Tenets",
	doctree.TypeActiveData:           "Active Data",
}

// Counts holds the number of generated nodes per doc type.
type Counts struct {
	ByType  map[doctree.DocType]int `json:"byType"`
	Unknown int                     `json:"unknown"`
	Total   int                     `json:"total"`
}

// CountNodes counts every node reachable from roots.
func CountNodes(roots []*doctree.Node) Counts {
	c := Counts{ByType: make(map[doctree.DocType]int, len(doctree.KnownTypes))}
	Walk(roots, func(n *doctree.Node, _ int) {
		c.Total++
		if n.Type.Known() {
			c.ByType[n.Type]++
		} else {
			c.Unknown++
		}
	})
	return c
}

// Text renders the counts as a table, one row per known type plus unknown.
func (c Counts) Text() string {
	var buf bytes.Buffer
	tbl := tablewriter.NewWriter(&buf)
	tbl.SetHeader([]string{"Generated view nodes", "Count"})
	tbl.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, t := range doctree.KnownTypes {
		tbl.Append([]string{typeLabels[t], strconv.Itoa(c.ByType[t])})
	}
	tbl.Append([]string{"Unknown", strconv.Itoa(c.Unknown)})
	tbl.SetFooter([]string{"Total", strconv.Itoa(c.Total)})
	tbl.Render()
	return buf.String()
}
