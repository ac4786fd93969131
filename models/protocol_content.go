package models

import "encoding/json"

// AnesthesiaOther and EuthanasiaOther mark a free-text choice that needs an explanation.
const (
	AnesthesiaOther = "other"
	EuthanasiaOther = "other"
)

// ContactBlock is a person the committee can reach about the protocol.
type ContactBlock struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

// Classification places the project in the institution's research taxonomy.
type Classification struct {
	Category      string `json:"category"`
	ResearchType  string `json:"research_type"`
	FundingSource string `json:"funding_source"`
}

// Facility identifies where the animals are housed.
type Facility struct {
	Name     string `json:"name"`
	Building string `json:"building"`
	Room     string `json:"room"`
}

// Procedures captures the conditional procedure questionnaire.
type Procedures struct {
	UnderAnesthesia    bool   `json:"under_anesthesia"`
	AnesthesiaType     string `json:"anesthesia_type,omitempty"`
	AnesthesiaOther    string `json:"anesthesia_other,omitempty"`
	EuthanasiaPlanned  bool   `json:"euthanasia_planned"`
	EuthanasiaMethod   string `json:"euthanasia_method,omitempty"`
	EuthanasiaOther    string `json:"euthanasia_other,omitempty"`
	Surgery            bool   `json:"surgery"`
	SurgeryDescription string `json:"surgery_description,omitempty"`
}

// ProtocolContent is the document a submitter edits while the protocol is editable.
// Dates use the YYYY-MM-DD layout.
type ProtocolContent struct {
	Title                 string         `json:"title"`
	StartDate             string         `json:"start_date"`
	EndDate               string         `json:"end_date"`
	Classification        Classification `json:"classification"`
	PrincipalInvestigator ContactBlock   `json:"principal_investigator"`
	Sponsor               ContactBlock   `json:"sponsor"`
	Facility              Facility       `json:"facility"`
	Species               string         `json:"species"`
	AnimalCount           int            `json:"animal_count"`
	Procedures            Procedures     `json:"procedures"`
	Personnel             []ContactBlock `json:"personnel,omitempty"`
	Summary               string         `json:"summary,omitempty"`
}

// Clone returns a copy that shares no memory with c.
func (c ProtocolContent) Clone() (ProtocolContent, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return ProtocolContent{}, err
	}
	var out ProtocolContent
	if err := json.Unmarshal(raw, &out); err != nil {
		return ProtocolContent{}, err
	}
	return out, nil
}
