package model

import (
	"encoding/json"
	"time"
)

// Question represents one interview question and its metadata.
// Nullable columns are pointers so absent fields round-trip as JSON null.
type Question struct {
	ID             int64     `json:"id"`
	Title          *string   `json:"title"`
	DescriptionURL *string   `json:"descriptionUrl"`
	Description    *string   `json:"description"`
	IsAsked        *bool     `json:"isAsked"`
	CodingRound    *bool     `json:"codingRound"`
	WhereAsked     *string   `json:"whereAsked"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// CreateQuestionRequest is the payload for creating a question.
// No field is mandatory; missing values are stored as NULL.
type CreateQuestionRequest struct {
	Title          *string `json:"title"`
	DescriptionURL *string `json:"descriptionUrl"`
	// LegacyDescriptionURL accepts the older "descriptionURL" spelling.
	LegacyDescriptionURL *string `json:"descriptionURL"`
	Description          *string `json:"description"`
	IsAsked              *bool   `json:"isAsked"`
	CodingRound          *bool   `json:"codingRound"`
	WhereAsked           *string `json:"whereAsked"`
}

// ToQuestion maps the request onto a new Question.
func (r CreateQuestionRequest) ToQuestion() *Question {
	url := r.DescriptionURL
	if url == nil {
		url = r.LegacyDescriptionURL
	}
	return &Question{
		Title:          r.Title,
		DescriptionURL: url,
		Description:    r.Description,
		IsAsked:        r.IsAsked,
		CodingRound:    r.CodingRound,
		WhereAsked:     r.WhereAsked,
	}
}

// UpdateQuestionRequest is the payload for PUT/PATCH. Only whereAsked is mutable.
type UpdateQuestionRequest struct {
	WhereAsked *string `json:"whereAsked" binding:"required"`
}

// Enrichment holds supplementary fields returned by the enrichment service
// for a single description URL.
type Enrichment map[string]any

// ListedQuestion is a Question as returned by the list endpoint, with any
// supplementary fields flattened into the same JSON object.
type ListedQuestion struct {
	Question
	Extra    Enrichment
	Enriched bool
}

// legacyURLKey is the enrichment service's spelling of descriptionUrl.
const legacyURLKey = "descriptionURL"

// MarshalJSON flattens Extra into the question object. Base columns always
// win over supplementary fields of the same name, and the enrichment's own
// descriptionURL key is dropped in favour of descriptionUrl.
func (q ListedQuestion) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(q.Question)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(q.Extra)+10)
	for k, v := range q.Extra {
		if k == legacyURLKey {
			continue
		}
		out[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		out[k] = v
	}
	out["enriched"] = q.Enriched
	return json.Marshal(out)
}

// EnrichmentStatus describes how a list response was enriched.
type EnrichmentStatus string

const (
	EnrichmentDisabled    EnrichmentStatus = "disabled"
	EnrichmentOK          EnrichmentStatus = "ok"
	EnrichmentPartial     EnrichmentStatus = "partial"
	EnrichmentUnavailable EnrichmentStatus = "unavailable"
)

// QuestionList is the result of listing questions.
type QuestionList struct {
	Questions []ListedQuestion
	Status    EnrichmentStatus
	// Missing counts records that have a description URL but no enrichment match.
	Missing int
}
