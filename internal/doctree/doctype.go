package doctree

// DocType is the closed set of record types.
type DocType string

const (
	TypeScope                DocType = "scope"
	TypeArticle              DocType = "article"
	TypeSection              DocType = "section"
	TypeCore                 DocType = "core"
	TypeActiveDataController DocType = "activeDataController"
	TypeTypeSpecification    DocType = "typeSpecification"
	TypeCategory             DocType = "category"
	TypeAnnotation           DocType = "annotation"
	TypeNeededResearch       DocType = "neededResearch"
	TypeOriginalContextData  DocType = "originalContextData"
	TypeScenario             DocType = "scenario"
	TypeScenarioVariation    DocType = "scenarioVariation"
	TypeTenet                DocType = "tenet"
	TypeActiveData           DocType = "activeData"
)

// Family groups doc types by their numbering behaviour.
type Family int

const (
	FamilyDefault Family = iota
	FamilyRoot
	FamilySection
	FamilySupport
)

func (f Family) String() string {
	switch f {
	case FamilyRoot:
		return "root"
	case FamilySection:
		return "section"
	case FamilySupport:
		return "support"
	default:
		return "default"
	}
}

// KnownTypes lists every known doc type in report order.
var KnownTypes = []DocType{
	TypeScope,
	TypeArticle,
	TypeCore,
	TypeActiveDataController,
	TypeSection,
	TypeTypeSpecification,
	TypeCategory,
	TypeAnnotation,
	TypeNeededResearch,
	TypeOriginalContextData,
	TypeScenario,
	TypeScenarioVariation,
	TypeTenet,
	TypeActiveData,
}

// Family returns the behavioural group of t. Unknown types are default.
func (t DocType) Family() Family {
	switch t {
	case TypeScope:
		return FamilyRoot
	case TypeSection, TypeCore, TypeActiveDataController, TypeTypeSpecification, TypeCategory:
		return FamilySection
	case TypeNeededResearch, TypeOriginalContextData, TypeTenet, TypeAnnotation, TypeActiveData:
		return FamilySupport
	default:
		return FamilyDefault
	}
}

func (t DocType) IsRoot() bool     { return t.Family() == FamilyRoot }
func (t DocType) IsSection() bool  { return t.Family() == FamilySection }
func (t DocType) IsSupport() bool  { return t.Family() == FamilySupport }
func (t DocType) IsCategory() bool { return t == TypeCategory }

// Known reports whether t is one of KnownTypes.
func (t DocType) Known() bool {
	for _, k := range KnownTypes {
		if k == t {
			return true
		}
	}
	return false
}
