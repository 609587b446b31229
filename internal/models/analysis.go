package models

// Section is one loosely structured part of an analysis. Keys come from the
// model output, so the shape is open.
type Section map[string]any

// Validation is the outcome of checking a rating text for required elements.
type Validation struct {
	Valid   bool     `json:"isValid"`
	Missing []string `json:"missingElements,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// AnalysisResult is the structured disability-rating analysis of a document.
// A zero-information result is still structurally valid: every list field is
// present and empty.
type AnalysisResult struct {
	ExtractedInfo   Section     `json:"extractedInfo"`
	OccupationInfo  Section     `json:"occupationInfo"`
	RatingInfo      Section     `json:"ratingInfo"`
	FormattedRating Section     `json:"formattedRating"`
	Validation      *Validation `json:"validation,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// NewAnalysisResult returns the default structure with every known field present.
func NewAnalysisResult() AnalysisResult {
	return AnalysisResult{
		ExtractedInfo: Section{
			"name":           "",
			"date_of_birth":  "",
			"occupation":     "",
			"date_of_injury": "",
			"claim_number":   "",
			"body_parts":     []any{},
		},
		OccupationInfo: Section{
			"group_number": "",
			"body_parts":   []any{},
		},
		RatingInfo: Section{
			"impairments":       []any{},
			"combined_rating":   "",
			"combination_steps": []any{},
		},
		FormattedRating: Section{
			"name":            "",
			"claim_number":    "",
			"ratings":         []any{},
			"combined_rating": "",
		},
	}
}

// DegradedAnalysis returns the minimal valid result carrying errMsg.
func DegradedAnalysis(errMsg string) AnalysisResult {
	return AnalysisResult{
		ExtractedInfo:   Section{"body_parts": []any{}},
		OccupationInfo:  Section{"body_parts": []any{}},
		RatingInfo:      Section{"impairments": []any{}, "combination_steps": []any{}},
		FormattedRating: Section{"ratings": []any{}},
		Error:           errMsg,
	}
}
