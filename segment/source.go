package segment

import "strings"

// CausesSeparator joins multiple causes in document metadata.
const CausesSeparator = "、"

// termFields are the metadata keys contributing lexical terms, in order.
var termFields = []string{"topCause", "court", "docType", "trialRound", "name", "caseNumber"}

// Paragraph is one tagged paragraph of a parsed judgment.
type Paragraph struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

// CaseSource holds the structured fields of a parsed legal case.
type CaseSource struct {
	Title      string      `json:"title"`
	Paras      []Paragraph `json:"paras"`
	Causes     []string    `json:"causes"`
	Court      string      `json:"court"`
	DocType    string      `json:"docType"`
	TopCause   string      `json:"topCause"`
	TrialRound string      `json:"trialRound"`
	CaseNumber string      `json:"caseNumber"`
	Name       string      `json:"name"`
}

// Metadata flattens the scalar fields into document metadata, skipping empty ones.
func (s *CaseSource) Metadata() map[string]string {
	md := make(map[string]string)
	for k, v := range map[string]string{
		"title":      s.Title,
		"court":      s.Court,
		"docType":    s.DocType,
		"topCause":   s.TopCause,
		"trialRound": s.TrialRound,
		"caseNumber": s.CaseNumber,
		"name":       s.Name,
	} {
		if v != "" {
			md[k] = v
		}
	}
	if causes := nonBlank(append([]string(nil), s.Causes...)); len(causes) > 0 {
		md["causes"] = strings.Join(causes, CausesSeparator)
	}
	return md
}

// Terms returns the lexical terms of a stored case document: the clauses of
// its text followed by its causes and scalar metadata fields. Terms are
// derived from the document alone so an index can be rebuilt from storage.
func Terms(text string, metadata map[string]string) []string {
	terms := nonBlank(strings.FieldsFunc(text, isClauseBreak))
	if causes, ok := metadata["causes"]; ok {
		terms = append(terms, nonBlank(strings.Split(causes, CausesSeparator))...)
	}
	for _, key := range termFields {
		if v := strings.TrimSpace(metadata[key]); v != "" {
			terms = append(terms, v)
		}
	}
	return terms
}
