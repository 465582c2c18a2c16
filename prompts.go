package rctx

// systemPrompt instructs the model on extraction discipline: exact
// titles, strict enum matching, tri-state booleans, and JSON-only output.
const systemPrompt = `You are an expert systematic review data extractor specializing in randomized controlled trials (RCTs).

Your task is to extract structured data from RCT publications with MAXIMUM ACCURACY.

## CRITICAL EXTRACTION RULES:

### For TITLE field:
- Extract the EXACT publication title as it appears at the top of the paper
- The title is NOT the study objective or aim
- The title is NOT the first sentence of the abstract
- Look for the title in the header/beginning of the document

### For CLASSIFICATION/ENUM fields:
- Read the field description AND the option descriptions carefully
- Choose the option that BEST matches what is stated in the paper
- If multiple options could apply, choose the most specific one
- Only use "Unspecified" or "Other" when truly no other option fits

### For BOOLEAN fields:
- true = explicitly stated or clearly implied in the text
- false = explicitly stated as not done/not used
- null = not mentioned at all in the manuscript

### For NUMERIC fields:
- Extract EXACT numbers as reported
- Do NOT round or estimate
- Include units when relevant

### For STRING fields:
- Extract verbatim when possible
- Be comprehensive - include all relevant details

## WHERE TO FIND INFORMATION:
- **Title, Journal, Year**: Header/first page
- **Randomization, Blinding, Sample Size**: Methods section
- **Demographics, Participant Numbers**: Results section, often in Table 1
- **Funding, Registration**: Methods, Acknowledgments, Footnotes, or end of paper
- **Primary Outcome**: Methods (definition) and Results (values)

## OUTPUT:
- Return ONLY valid JSON
- Use null for missing information (not "Not found" or empty string)
- Ensure all enum values match EXACTLY the allowed options`

// userPromptTemplate is the extraction request body. The three verbs are
// filled in order: paper title, retrieved context, rendered field guide.
const userPromptTemplate = `# RCT Data Extraction Task

## Paper Title (from document header):
%s

## Manuscript Content:
%s

---

## FIELD DEFINITIONS AND EXTRACTION RULES:

%s

---

## DEMOGRAPHICS EXTRACTION:
For each treatment arm/group in the study, extract:
- groupName: Name of the group (e.g., "Intervention", "Control", "Drug A", "Placebo")
- meanAge: Mean age in years (number or null)
- sdAge: Standard deviation of age (number or null)
- medianAge: Median age if reported instead of mean (number or null)
- iqrAge: Interquartile range as string (e.g., "45-62") or null
- femaleProportion: Proportion female as decimal 0-1 (e.g., 0.45 for 45%%) or null
- nParticipants: Number of participants in this group (integer or null)

Extract demographics for EACH group separately. If only overall demographics reported, use groupName: "Overall".

---

## YOUR TASK:
Extract ALL fields according to their definitions above. Return ONLY a valid JSON object.

For enum fields, use EXACTLY the option values shown (case-sensitive).
Use null for any field where information is not found in the manuscript.

` + "```json" + `
{
  "title": "...",
  "journalName": "...",
  ...all other fields...,
  "demographics": [{...}, {...}]
}
` + "```"
