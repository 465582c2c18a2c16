// Package rob integrates Risk of Bias 2.0 assessment (Sterne et al. BMJ
// 2019;366:l4898) into the extraction pipeline. The assessment itself
// runs in an external service; this package defines the result model and
// the client, and flattens domain judgments into extraction fields.
package rob

import "context"

// Domain keys in framework order.
const (
	DomainRandomization = "randomization"
	DomainDeviations    = "deviations"
	DomainMissingData   = "missing_data"
	DomainMeasurement   = "measurement"
	DomainSelection     = "selection"
	DomainOverall       = "overall"
)

// DomainOrder lists the six RoB 2.0 domains in assessment order.
var DomainOrder = []string{
	DomainRandomization,
	DomainDeviations,
	DomainMissingData,
	DomainMeasurement,
	DomainSelection,
	DomainOverall,
}

// DomainDescriptions glosses each domain key.
var DomainDescriptions = map[string]string{
	DomainRandomization: "Bias arising from the randomization process",
	DomainDeviations:    "Bias due to deviations from intended interventions",
	DomainMissingData:   "Bias due to missing outcome data",
	DomainMeasurement:   "Bias in measurement of the outcome",
	DomainSelection:     "Bias in selection of the reported result",
	DomainOverall:       "Overall risk of bias judgment",
}

// QuestionResult is one signalling question's answer with the model's
// reasoning and supporting evidence.
type QuestionResult struct {
	Index     float64 `json:"index"`
	Question  string  `json:"question"`
	Response  string  `json:"response"`
	Reasoning string  `json:"reasoning,omitempty"`
	Evidence  string  `json:"evidence,omitempty"`
}

// DomainResult is one domain's judgment and its signalling questions.
type DomainResult struct {
	Name      string           `json:"name"`
	Judgment  string           `json:"judgment,omitempty"`
	Questions []QuestionResult `json:"questions,omitempty"`
}

// Assessment is a completed RoB 2.0 assessment of one manuscript.
type Assessment struct {
	Manuscript string                  `json:"manuscript"`
	Model      string                  `json:"model,omitempty"`
	Domains    map[string]DomainResult `json:"domains"`
	Overall    string                  `json:"overall,omitempty"`
}

// Summary flattens domain judgments into rob_<domain> keys, the shape
// merged into extraction results. Domains without a judgment are omitted.
func (a *Assessment) Summary() map[string]string {
	summary := make(map[string]string)
	for key, domain := range a.Domains {
		if domain.Judgment != "" {
			summary["rob_"+key] = domain.Judgment
		}
	}
	return summary
}

// Assessor runs a RoB 2.0 assessment on a manuscript. A nil Assessor in
// the pipeline disables the feature.
type Assessor interface {
	Assess(ctx context.Context, manuscriptPath string) (*Assessment, error)
}
