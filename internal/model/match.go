package model

// Urgency levels accepted by the matching proxy.
const (
	UrgencyRoutine = "routine"
	UrgencySoon    = "soon"
	UrgencyUrgent  = "urgent"
)

// Input limits enforced before any upstream call is made.
const (
	MaxChiefConcernLen = 1000
	MaxLocationLen     = 200
)

// MatchQuery is the structured patient query forwarded to the model gateway.
type MatchQuery struct {
	ChiefConcern         string `json:"chief_concern" binding:"required,notblank,max=1000"`
	Location             string `json:"location" binding:"required,notblank,max=200"`
	Urgency              string `json:"urgency" binding:"required,oneof=routine soon urgent"`
	Specialty            string `json:"specialty,omitempty"`
	InsuranceProvider    string `json:"insurance_provider,omitempty"`
	PreferredGender      string `json:"preferred_gender,omitempty"`
	LanguagePreference   string `json:"language_preference,omitempty"`
	VirtualVisit         *bool  `json:"virtual_visit,omitempty"`
	AcceptingNewPatients *bool  `json:"accepting_new_patients,omitempty"`
}

// Physician is one candidate in the gateway's fixed response shape.
type Physician struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Specialty      string   `json:"specialty"`
	Rating         float64  `json:"rating"`
	Distance       string   `json:"distance"`
	Availability   string   `json:"availability"`
	MatchScore     float64  `json:"match_score"`
	Bio            string   `json:"bio"`
	Education      string   `json:"education"`
	Certifications []string `json:"certifications"`
	Experience     string   `json:"experience"`
}

// MatchResponse is what the proxy returns. On upstream failure Physicians is
// an empty, non-nil list so callers render a "no matches" state.
type MatchResponse struct {
	Physicians []Physician `json:"physicians"`
	Error      string      `json:"error,omitempty"`
}
