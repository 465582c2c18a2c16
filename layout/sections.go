package layout

import (
	"strings"

	"github.com/medevidence/rctx/paper"
)

// sectionTypeMapping maps normalized heading text to canonical section
// types for RCT papers (IMRaD structure plus the back-matter headings
// that carry extraction-relevant content).
var sectionTypeMapping = map[string]paper.SectionType{
	// Abstract
	"abstract": paper.SectionAbstract,
	"summary":  paper.SectionAbstract,

	// Introduction
	"introduction": paper.SectionIntroduction,
	"background":   paper.SectionIntroduction,
	"rationale":    paper.SectionIntroduction,

	// Methods
	"methods":                paper.SectionMethods,
	"methodology":            paper.SectionMethods,
	"materials and methods":  paper.SectionMethods,
	"patients and methods":   paper.SectionMethods,
	"study design":           paper.SectionMethods,
	"study population":       paper.SectionMethods,
	"participants":           paper.SectionMethods,
	"randomization":          paper.SectionMethods,
	"randomisation":          paper.SectionMethods,
	"blinding":               paper.SectionMethods,
	"masking":                paper.SectionMethods,
	"interventions":          paper.SectionMethods,
	"intervention":           paper.SectionMethods,
	"outcomes":               paper.SectionMethods,
	"outcome measures":       paper.SectionMethods,
	"statistical analysis":   paper.SectionMethods,
	"statistical methods":    paper.SectionMethods,
	"sample size":            paper.SectionMethods,
	"ethics":                 paper.SectionMethods,
	"ethical considerations": paper.SectionMethods,

	// Results
	"results":                  paper.SectionResults,
	"findings":                 paper.SectionResults,
	"patient characteristics":  paper.SectionResults,
	"baseline characteristics": paper.SectionResults,
	"primary outcome":          paper.SectionResults,
	"secondary outcomes":       paper.SectionResults,
	"adverse events":           paper.SectionResults,
	"safety":                   paper.SectionResults,

	// Discussion
	"discussion":                paper.SectionDiscussion,
	"interpretation":            paper.SectionDiscussion,
	"limitations":               paper.SectionDiscussion,
	"strengths and limitations": paper.SectionDiscussion,

	// Conclusion
	"conclusion":  paper.SectionConclusion,
	"conclusions": paper.SectionConclusion,

	// Back matter
	"acknowledgments":       paper.SectionAcknowledgments,
	"acknowledgements":      paper.SectionAcknowledgments,
	"funding":               paper.SectionFunding,
	"conflicts of interest": paper.SectionConflicts,
	"competing interests":   paper.SectionConflicts,
	"disclosures":           paper.SectionConflicts,
	"references":            paper.SectionReferences,
	"supplementary":         paper.SectionSupplementary,
	"appendix":              paper.SectionSupplementary,
}

// headingFragments is the substring-match order for headings without an
// exact mapping. Order matters: more specific fragments come before their
// prefixes ("outcome measures" before "outcomes") so a compound heading
// resolves to the intended type deterministically.
var headingFragments = []string{
	"materials and methods", "patients and methods", "statistical analysis",
	"statistical methods", "study design", "study population", "sample size",
	"ethical considerations", "outcome measures", "randomization",
	"randomisation", "blinding", "masking", "interventions", "intervention",
	"outcomes", "methodology", "methods", "ethics", "participants",
	"baseline characteristics", "patient characteristics", "primary outcome",
	"secondary outcomes", "adverse events", "findings", "results", "safety",
	"strengths and limitations", "limitations", "interpretation", "discussion",
	"conclusions", "conclusion", "introduction", "background", "rationale",
	"abstract", "summary", "acknowledgments", "acknowledgements", "funding",
	"conflicts of interest", "competing interests", "disclosures",
	"references", "supplementary", "appendix",
}

// normalizeHeading lowercases a heading and strips trailing punctuation
// so "Methods:" and "methods" map identically.
func normalizeHeading(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	return strings.TrimRight(s, ".:)")
}

// SectionTypeFor maps a raw heading to its canonical type: exact match
// first, then substring match (so "2.1 Statistical Analysis" resolves to
// methods), else other.
func SectionTypeFor(title string) paper.SectionType {
	normalized := normalizeHeading(title)
	if t, ok := sectionTypeMapping[normalized]; ok {
		return t
	}
	for _, key := range headingFragments {
		if strings.Contains(normalized, key) {
			return sectionTypeMapping[key]
		}
	}
	return paper.SectionOther
}
