// internal/workflow/status.go
package workflow

// Status describes one state of the licence request lifecycle. Codes are
// persisted and referenced by external systems; they must never be reassigned.
type Status struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Status codes
const (
	CodeInitial     = 1
	CodeEnAttente   = 2
	CodeValideeClub = 3
	CodeImprimee    = 4
	CodeRejetee     = 5
)

var (
	StatusInitial = Status{
		Code:        CodeInitial,
		Name:        "INITIAL",
		Label:       "Initiale",
		Description: "Demande créée, en cours de constitution par le club",
		Severity:    "info",
	}
	StatusEnAttente = Status{
		Code:        CodeEnAttente,
		Name:        "EN_ATTENTE",
		Label:       "En attente",
		Description: "Demande soumise, en attente de traitement par la ligue",
		Severity:    "warning",
	}
	StatusValideeClub = Status{
		Code:        CodeValideeClub,
		Name:        "VALIDEE_CLUB",
		Label:       "Validée club",
		Description: "Demande validée, licence prête pour impression",
		Severity:    "success",
	}
	StatusImprimee = Status{
		Code:        CodeImprimee,
		Name:        "IMPRIMEE",
		Label:       "Imprimée",
		Description: "Licence imprimée et remise au club",
		Severity:    "primary",
	}
	StatusRejetee = Status{
		Code:        CodeRejetee,
		Name:        "REJETEE",
		Label:       "Rejetée",
		Description: "Demande rejetée, corrections requises avant nouvelle soumission",
		Severity:    "danger",
	}
)

var statusRegistry = map[int]Status{
	CodeInitial:     StatusInitial,
	CodeEnAttente:   StatusEnAttente,
	CodeValideeClub: StatusValideeClub,
	CodeImprimee:    StatusImprimee,
	CodeRejetee:     StatusRejetee,
}

// StatusByCode looks a status up by its persisted code. The second return
// value reports whether the code is known; callers must treat an unknown code
// differently from a forbidden transition.
func StatusByCode(code int) (Status, bool) {
	s, ok := statusRegistry[code]
	return s, ok
}

// AllStatuses returns every registered status, ordered by code.
func AllStatuses() []Status {
	return []Status{StatusInitial, StatusEnAttente, StatusValideeClub, StatusImprimee, StatusRejetee}
}

// LabelForCode resolves a code to its label, falling back to "N/A" for codes
// that are no longer registered. Used when rendering historical audit rows.
func LabelForCode(code int) string {
	if s, ok := statusRegistry[code]; ok {
		return s.Label
	}
	return "N/A"
}

// IsTerminal reports whether no outgoing transition is registered for the
// status. Self-transitions remain legal on terminal statuses.
func (s Status) IsTerminal() bool {
	return len(allowedTransitions[s.Code]) == 0
}

func (s Status) IsValidated() bool {
	return s.Code == CodeValideeClub || s.Code == CodeImprimee
}

func (s Status) IsRejected() bool {
	return s.Code == CodeRejetee
}
