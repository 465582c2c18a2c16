package retrieval

import "github.com/medevidence/rctx/paper"

// Probe is one retrieval query. When Sections is non-empty the results
// are preferentially drawn from units of those section types.
type Probe struct {
	Query    string
	Sections []paper.SectionType
}

// LayoutProbes returns the section-aware probe set used when the document
// was parsed with layout analysis. Each probe targets the sections where
// trial reports conventionally place that information.
func LayoutProbes() []Probe {
	return []Probe{
		{Query: "title authors journal publication",
			Sections: []paper.SectionType{paper.SectionAbstract, paper.SectionHeader}},
		{Query: "randomization method allocation sequence generation",
			Sections: []paper.SectionType{paper.SectionMethods}},
		{Query: "blinding masking double-blind open-label",
			Sections: []paper.SectionType{paper.SectionMethods}},
		{Query: "sample size power calculation statistical analysis",
			Sections: []paper.SectionType{paper.SectionMethods}},
		{Query: "intervention treatment drug dose regimen",
			Sections: []paper.SectionType{paper.SectionMethods}},
		{Query: "comparator placebo control group standard of care",
			Sections: []paper.SectionType{paper.SectionMethods}},
		{Query: "primary outcome endpoint measure",
			Sections: []paper.SectionType{paper.SectionMethods, paper.SectionResults}},
		{Query: "participants enrolled randomized baseline characteristics",
			Sections: []paper.SectionType{paper.SectionResults}},
		{Query: "demographics age sex gender",
			Sections: []paper.SectionType{paper.SectionResults}},
		{Query: "funding sponsor grant financial support",
			Sections: []paper.SectionType{paper.SectionFunding, paper.SectionAcknowledgments, paper.SectionMethods}},
		{Query: "trial registration clinical trial number NCT ISRCTN",
			Sections: []paper.SectionType{paper.SectionMethods, paper.SectionAbstract}},
		{Query: "intention to treat per protocol analysis",
			Sections: []paper.SectionType{paper.SectionMethods, paper.SectionResults}},
	}
}

// GenericProbes returns the probe set for page-fallback documents, where
// units carry no section types to filter on.
func GenericProbes() []Probe {
	return []Probe{
		{Query: "study title, journal, publication year, authors"},
		{Query: "randomization method, allocation concealment, blinding"},
		{Query: "sample size, power calculation, statistical analysis"},
		{Query: "intervention, treatment, drug, comparator, placebo"},
		{Query: "primary outcome, results, effect size"},
		{Query: "funding, trial registration, clinical trial number"},
		{Query: "inclusion exclusion criteria, participants, demographics"},
		{Query: "methods, study design, endpoints"},
	}
}
