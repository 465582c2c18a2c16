// Package schema defines the extraction field registry for randomized
// controlled trial reports: every field the extractor asks the model for,
// with its type, elicitation method, and classification options. The
// registry order is the order fields appear in the prompt.
package schema

// FieldType is the JSON type the model is asked to produce for a field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeEnum    FieldType = "enum"
)

// Method describes how a field's value is elicited: extracted verbatim,
// classified against fixed options, or generated (derived or judged).
type Method string

const (
	MethodExtract  Method = "extract"
	MethodClassify Method = "classify"
	MethodGenerate Method = "generate"
)

// Field is one extraction target.
type Field struct {
	Name        string
	Type        FieldType
	Method      Method
	Description string

	// Enum lists the allowed values for classification fields, in
	// presentation order. EnumDescriptions optionally glosses them.
	Enum             []string
	EnumDescriptions map[string]string
}

// DemographicsGroup holds per-arm demographics as returned by the model.
type DemographicsGroup struct {
	GroupName        string   `json:"group_name"`
	MeanAge          *float64 `json:"mean_age,omitempty"`
	SDAge            *float64 `json:"sd_age,omitempty"`
	MedianAge        *float64 `json:"median_age,omitempty"`
	IQRAge           string   `json:"iqr_age,omitempty"`
	FemaleProportion *float64 `json:"female_proportion,omitempty"`
	NParticipants    *int     `json:"n_participants,omitempty"`
}

// Fields returns the full registry in prompt order.
func Fields() []Field {
	return registry
}

// Names returns the field names in registry order.
func Names() []string {
	names := make([]string, len(registry))
	for i, f := range registry {
		names[i] = f.Name
	}
	return names
}

var registry = []Field{
	// Publication metadata
	{Name: "title", Type: TypeString, Method: MethodExtract,
		Description: "The exact title of the research paper as it appears in the publication"},
	{Name: "journalName", Type: TypeString, Method: MethodExtract,
		Description: "Name of the journal where the paper was published"},
	{Name: "yearOfPublication", Type: TypeInteger, Method: MethodExtract,
		Description: "Year the paper was published"},
	{Name: "funding", Type: TypeBoolean, Method: MethodGenerate,
		Description: "Whether the study received funding (true/false)"},
	{Name: "fundingType", Type: TypeEnum, Method: MethodClassify,
		Description: "Type of funding received",
		Enum:        []string{"Industry", "Public", "Mixed", "University", "Unclear"},
		EnumDescriptions: map[string]string{
			"Industry":   "Pharmaceutical or medical device company funding",
			"Public":     "Government or public research grants",
			"Mixed":      "Combination of industry and public funding",
			"University": "University or academic institution internal funding",
			"Unclear":    "Funding source not clearly stated or ambiguous",
		}},

	// Trial registration
	{Name: "trialRegistration", Type: TypeBoolean, Method: MethodGenerate,
		Description: "Whether the trial was registered in a registry (true/false)"},
	{Name: "registrationPlatform", Type: TypeString, Method: MethodExtract,
		Description: "Platform where trial was registered (e.g., ClinicalTrials.gov, EU-CTR, ISRCTN, PACTR, ANZCTR)"},
	{Name: "registrationNumber", Type: TypeString, Method: MethodExtract,
		Description: "Trial registration number or identifier (e.g., NCT12345678)"},

	// Geographic information
	{Name: "arabCountries", Type: TypeString, Method: MethodExtract,
		Description: "List of Arab countries involved in the study (comma-separated if multiple)"},
	{Name: "typeOfStudy", Type: TypeEnum, Method: MethodClassify,
		Description: "Single-center or multi-center study design",
		Enum:        []string{"singlecenter", "multicenter"},
		EnumDescriptions: map[string]string{
			"singlecenter": "The study was conducted in one site. If no mention of multiple sites, assume single center.",
			"multicenter":  "More than one center or site participated in data collection",
		}},
	{Name: "geographicalLocation", Type: TypeEnum, Method: MethodClassify,
		Description: "Geographical scope of the study",
		Enum:        []string{"Arab", "regional", "international"},
		EnumDescriptions: map[string]string{
			"Arab":          "Study conducted only in Arab countries",
			"regional":      "Arab countries and neighboring regions",
			"international": "International multi-country study",
		}},
	{Name: "correspondingAuthorCountry", Type: TypeString, Method: MethodExtract,
		Description: "Country of the corresponding author's affiliation"},

	// Author information
	{Name: "totalAuthors", Type: TypeInteger, Method: MethodGenerate,
		Description: "Total number of authors listed on the paper"},
	{Name: "recruitingSites", Type: TypeInteger, Method: MethodExtract,
		Description: "Number of recruiting sites involved in the study"},

	// Study design
	{Name: "pilotRCT", Type: TypeEnum, Method: MethodClassify,
		Description: "Whether a pilot RCT was conducted prior to this study",
		Enum:        []string{"done", "notdone"},
		EnumDescriptions: map[string]string{
			"done":    "A pilot study was performed before the present study",
			"notdone": "No pilot preceded the present study or not mentioned",
		}},
	{Name: "therapeuticArea", Type: TypeEnum, Method: MethodClassify,
		Description: "Primary disease or therapeutic area addressed in the study",
		Enum: []string{"Cancer", "Diabetes", "Orthopedic", "Physiology", "Psychiatry",
			"Cardiology", "Neurology", "Urology", "OBGYN", "Gastrointestinal",
			"Dermatology", "Ophthalmology", "Autoimmune", "Other"}},
	{Name: "targetGroup", Type: TypeEnum, Method: MethodClassify,
		Description: "Target patient population",
		Enum:        []string{"Pediatric", "Adult", "Pregnant", "Unspecified"}},

	// Participant information
	{Name: "totalParticipants", Type: TypeInteger, Method: MethodExtract,
		Description: "Total number of participants enrolled in the study"},
	{Name: "methodSampleSource", Type: TypeString, Method: MethodExtract,
		Description: "Sample source or participant recruitment method (e.g., hospital, outpatient clinic)"},

	// Randomization methods
	{Name: "methodRandomization", Type: TypeBoolean, Method: MethodExtract,
		Description: "Whether randomization was performed (true/false)"},
	{Name: "methodRandomizationRatio", Type: TypeString, Method: MethodExtract,
		Description: "Ratio of randomization (e.g., 1:1, 2:1, 1:1:1)"},
	{Name: "methodRandomizationUnit", Type: TypeEnum, Method: MethodClassify,
		Description: "Unit of randomization",
		Enum:        []string{"individual", "site", "cluster", "Other"},
		EnumDescriptions: map[string]string{
			"individual": "Randomization at patient/participant level",
			"site":       "Randomization at study site level",
			"cluster":    "Cluster randomization",
			"Other":      "Other randomization unit",
		}},
	{Name: "methodStratification", Type: TypeEnum, Method: MethodClassify,
		Description: "Whether stratified randomization was used",
		Enum:        []string{"Yes", "No", "Unspecified"}},
	{Name: "methodBlocking", Type: TypeEnum, Method: MethodClassify,
		Description: "Whether block randomization was used",
		Enum:        []string{"Blocking", "NoBlocking", "Unspecified"}},
	{Name: "methodConcealment", Type: TypeEnum, Method: MethodClassify,
		Description: "Whether allocation concealment was used",
		Enum:        []string{"Concealed", "NotConcealed", "Unspecified"}},
	{Name: "methodBlinding", Type: TypeString, Method: MethodExtract,
		Description: "Blinding method used (e.g., double-blind, single-blind, open-label)"},

	// Intervention details
	{Name: "methodDomain", Type: TypeEnum, Method: MethodClassify,
		Description: "Intervention domain category",
		Enum: []string{"HealthcareIntervention", "PublicHealth", "HealthSystemsAndPolicy",
			"NutritionAndDiet", "LifestyleAndBehavioral", "HealthEducationAndAwareness",
			"TraditionalAndComplementaryMedicine", "Other"}},
	{Name: "typeOfIntervention", Type: TypeString, Method: MethodExtract,
		Description: "Type of intervention: Pharmacological, Non-pharmacological, or both"},
	{Name: "interventionName", Type: TypeString, Method: MethodExtract,
		Description: "Name of the primary intervention or treatment"},
	{Name: "pharmacologicalInterventions", Type: TypeString, Method: MethodExtract,
		Description: "Specific drugs or medications used (if pharmacological)"},
	{Name: "nonPharmacologicalInterventions", Type: TypeString, Method: MethodExtract,
		Description: "Specific non-pharmacological interventions used"},

	// Comparator details
	{Name: "typeOfComparator", Type: TypeString, Method: MethodExtract,
		Description: "Type of comparator: Placebo, Standard of care, Active comparator, or Other"},
	{Name: "placebo", Type: TypeBoolean, Method: MethodExtract,
		Description: "Whether placebo was used as comparator"},
	{Name: "standardOfCare", Type: TypeBoolean, Method: MethodExtract,
		Description: "Whether standard of care was used as comparator"},
	{Name: "activeComparator", Type: TypeString, Method: MethodExtract,
		Description: "Active comparator used (if applicable)"},

	// Outcome measures
	{Name: "primaryOutcome", Type: TypeString, Method: MethodExtract,
		Description: "Primary outcome measure of the study"},
	{Name: "statisticalTypeOfPrimaryOutcome", Type: TypeEnum, Method: MethodClassify,
		Description: "Statistical type of primary outcome",
		Enum:        []string{"BinaryOrDichotomous", "Continuous", "Categorical", "Ordinal", "Other"}},
	{Name: "outcomeType", Type: TypeEnum, Method: MethodClassify,
		Description: "Outcome structure type",
		Enum:        []string{"SingleOutcome", "CompositeOutcome"}},

	// Statistical analysis
	{Name: "powerCalculation", Type: TypeBoolean, Method: MethodExtract,
		Description: "Whether power calculation was performed"},
	{Name: "assumptions", Type: TypeBoolean, Method: MethodExtract,
		Description: "Whether assumptions for power calculation were stated a priori"},
	{Name: "justification", Type: TypeBoolean, Method: MethodExtract,
		Description: "Whether justification for sample size was provided"},
	{Name: "statisticalPower", Type: TypeString, Method: MethodExtract,
		Description: "Statistical power indicated (e.g., 80%, 90%)"},
	{Name: "interimAnalyses", Type: TypeBoolean, Method: MethodExtract,
		Description: "Whether interim analyses were performed"},
	{Name: "adaptiveSampleSize", Type: TypeBoolean, Method: MethodExtract,
		Description: "Whether adaptive sample size design was used"},

	// Analysis methods
	{Name: "ittPrimaryMethod", Type: TypeBoolean, Method: MethodExtract,
		Description: "Whether intention-to-treat (ITT) analysis was the primary method"},
	{Name: "ppPrimaryMethod", Type: TypeBoolean, Method: MethodExtract,
		Description: "Whether per-protocol (PP) analysis was the primary method"},
	{Name: "bothIttPpSignificant", Type: TypeEnum, Method: MethodClassify,
		Description: "Whether both ITT and PP analyses were statistically significant",
		Enum:        []string{"Yes", "No", "NotApplicable"}},

	// Results presentation
	{Name: "primaryModeOfPresentation", Type: TypeEnum, Method: MethodClassify,
		Description: "Primary mode of presenting results",
		Enum:        []string{"RelativeEffect", "AbsoluteEffect", "Other"}},
	{Name: "primaryOutcomeMetric", Type: TypeString, Method: MethodExtract,
		Description: "Metric used: Relative risk, Odds ratio, Hazard ratio, Risk difference, Mean difference, or Other"},
	{Name: "adjustedEstimate", Type: TypeBoolean, Method: MethodGenerate,
		Description: "Whether primary outcome was an adjusted estimate of effect"},
	{Name: "reportedPValue", Type: TypeBoolean, Method: MethodGenerate,
		Description: "Whether p-value was reported for primary outcome"},

	// Patient flow
	{Name: "totalRandomized", Type: TypeInteger, Method: MethodExtract,
		Description: "Total number of patients who were randomized"},
	{Name: "totalCompletedFollowup", Type: TypeInteger, Method: MethodExtract,
		Description: "Number of patients who completed follow-up"},
	{Name: "lossFollowUp", Type: TypeNumber, Method: MethodGenerate,
		Description: "Loss to follow-up percentage (calculated or extracted)"},
	{Name: "handlingMissingness", Type: TypeEnum, Method: MethodClassify,
		Description: "Method for handling missing data",
		Enum:        []string{"MechanismNotDiscussed", "completeCaseAnalysis", "Other"}},

	// Early stopping
	{Name: "earlyStoppingEfficacy", Type: TypeBoolean, Method: MethodGenerate,
		Description: "Whether there was early stopping for efficacy"},
	{Name: "earlyStoppingFutility", Type: TypeBoolean, Method: MethodGenerate,
		Description: "Whether there was early stopping for futility"},

	// Control group metrics
	{Name: "controlGroupEventRate", Type: TypeString, Method: MethodExtract,
		Description: "Event rate in the control group (as percentage or fraction)"},
}
