package agent

import (
	"encoding/json"

	"github.com/clinicalsetu/clinicalsetu/internal/domain/consultation"
)

const (
	// Architecture labels the agentic response so clients can tell it apart
	// from the sequential pipeline.
	Architecture = "Bedrock Agent with Tool Use (Agentic)"

	// Version identifies the agentic response schema.
	Version = "2.0.0-agent"

	// Disclaimer is the agent-path variant of the response disclaimer.
	Disclaimer = "AI-Generated - Requires Clinician Validation. This output does not constitute medical advice."

	// Placeholder texts for slots the agent never filled.
	ReferralNotIndicatedMessage = "No referral indicated"
	ReferralPendingMessage      = "Referral generation pending"
	NoTrialMatchesSummary       = "No trial matches found"
	NoTrialMatchesDisclaimer    = "INFORMATIONAL ONLY"

	// StepStatusInvoked marks a tool dispatch observed in the trace. The
	// trace carries no completion timing, so duration stays zero.
	StepStatusInvoked = "invoked"
)

// Metadata summarizes one agent run.
type Metadata struct {
	TotalProcessingTimeMS int64  `json:"total_processing_time_ms"`
	ModelUsed             string `json:"model_used"`
	AgentID               string `json:"agent_id"`
	AgentAliasID          string `json:"agent_alias_id"`
	SessionID             string `json:"session_id"`
	ConsultationID        string `json:"consultation_id"`
	PatientID             string `json:"patient_id"`
	Architecture          string `json:"architecture"`
	ToolsCalled           int    `json:"tools_called"`
	Disclaimer            string `json:"disclaimer"`
	Version               string `json:"version"`
}

// Envelope is the agentic response. The four artifact slots reuse the
// pipeline types; slots the agent never produced hold nil (soap, summary)
// or the fixed placeholders (referral, trials).
type Envelope struct {
	SOAPNote        *consultation.SOAPNote         `json:"soap_note"`
	PatientSummary  *consultation.PatientSummary   `json:"patient_summary"`
	ReferralLetter  *consultation.ReferralLetter   `json:"referral_letter"`
	TrialMatches    *consultation.TrialMatchResult `json:"trial_matches"`
	AgentSummary    string                         `json:"agent_summary"`
	ProcessingSteps []consultation.ProcessingStep  `json:"processing_steps"`
	Metadata        Metadata                       `json:"metadata"`
}

// MarshalJSON emits an empty object for a nil soap note or patient summary.
// These two slots have no placeholder type, and clients expect "{}" rather
// than null when the agent skipped the tool.
func (e Envelope) MarshalJSON() ([]byte, error) {
	type envelope Envelope
	aux := struct {
		SOAPNote       interface{} `json:"soap_note"`
		PatientSummary interface{} `json:"patient_summary"`
		envelope
	}{envelope: envelope(e)}

	aux.SOAPNote = struct{}{}
	if e.SOAPNote != nil {
		aux.SOAPNote = e.SOAPNote
	}
	aux.PatientSummary = struct{}{}
	if e.PatientSummary != nil {
		aux.PatientSummary = e.PatientSummary
	}

	return json.Marshal(aux)
}
