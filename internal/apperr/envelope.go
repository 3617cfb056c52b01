package apperr

import "github.com/google/uuid"

// Envelope is the outward error representation. Only criticality, id and
// detail are required; nested entries carry recovery suggestions and
// per-field validation errors.
type Envelope struct {
	Criticality Criticality `json:"criticality"`
	ID          string      `json:"id"`
	Detail      string      `json:"detail"`
	OtherErrors []Envelope  `json:"otherErrors,omitempty"`
}

// Envelope renders the error for the wire. Internal errors keep the fixed
// generic detail; the cause text is never leaked.
func (e *Error) Envelope() Envelope {
	env := Envelope{
		Criticality: e.Criticality,
		ID:          e.TraceID,
		Detail:      e.Detail,
	}
	if e.Suggestion != "" {
		env.OtherErrors = append(env.OtherErrors, Envelope{
			Criticality: NonCritical,
			ID:          uuid.NewString(),
			Detail:      "Recovery suggestion: " + e.Suggestion,
		})
	}
	for _, d := range e.SubDetails {
		env.OtherErrors = append(env.OtherErrors, Envelope{
			Criticality: Critical,
			ID:          uuid.NewString(),
			Detail:      d,
		})
	}
	return env
}
