package agent

import (
	"encoding/json"
	"strings"

	"github.com/clinicalsetu/clinicalsetu/internal/domain/consultation"
)

// Collector folds the agent's event stream back into the envelope shape.
// The agent controls tool order, so tool outputs arrive unlabeled; each one
// is classified by decoding it against the four artifact types and testing
// which type's marker fields survived the decode.
//
// Classification runs in fixed priority order: SOAP note (both subjective
// and objective sections present), patient summary (greeting or visit
// summary non-empty), referral letter (letter body present), trial result
// (trial_matches key present). An output matching none of these, or one
// that is not JSON at all, is dropped; a repeat match overwrites its slot.
type Collector struct {
	modelID string

	text     strings.Builder
	steps    []consultation.ProcessingStep
	soap     *consultation.SOAPNote
	summary  *consultation.PatientSummary
	referral *consultation.ReferralLetter
	trials   *consultation.TrialMatchResult
}

func NewCollector(modelID string) *Collector {
	return &Collector{modelID: modelID}
}

// Observe consumes one stream event. It is the observe callback handed to
// the Invoker and must be called from a single goroutine.
func (c *Collector) Observe(ev Event) {
	switch {
	case len(ev.Chunk) > 0:
		c.text.Write(ev.Chunk)
	case ev.ToolInvoked != "":
		c.steps = append(c.steps, consultation.ProcessingStep{
			Step:       "Agent called: " + ev.ToolInvoked,
			DurationMS: 0,
			Model:      c.modelID,
			Status:     StepStatusInvoked,
		})
	case ev.ToolOutput != "":
		c.classify(ev.ToolOutput)
	}
}

func (c *Collector) classify(output string) {
	var soap consultation.SOAPNote
	if err := json.Unmarshal([]byte(output), &soap); err != nil {
		return
	}
	if soap.Subjective != nil && soap.Objective != nil {
		c.soap = &soap
		return
	}

	var summary consultation.PatientSummary
	if json.Unmarshal([]byte(output), &summary) == nil &&
		(summary.Greeting != "" || summary.VisitSummary != "") {
		c.summary = &summary
		return
	}

	var referral consultation.ReferralLetter
	if json.Unmarshal([]byte(output), &referral) == nil && referral.Letter != nil {
		c.referral = &referral
		return
	}

	var trials consultation.TrialMatchResult
	if json.Unmarshal([]byte(output), &trials) == nil && trials.TrialMatches != nil {
		c.trials = &trials
	}
}

// Result assembles the envelope from whatever the stream delivered.
// referralRequested only picks the placeholder wording: a requested referral
// the agent never produced reads as pending, an unrequested one as not
// indicated. Metadata is left for the caller.
func (c *Collector) Result(referralRequested bool) *Envelope {
	referral := c.referral
	if referral == nil {
		msg := ReferralNotIndicatedMessage
		if referralRequested {
			msg = ReferralPendingMessage
		}
		referral = &consultation.ReferralLetter{Message: msg, ConfidenceScore: 0}
	}

	trials := c.trials
	if trials == nil {
		trials = &consultation.TrialMatchResult{
			TrialMatches: []consultation.TrialMatch{},
			Summary:      NoTrialMatchesSummary,
			Disclaimer:   NoTrialMatchesDisclaimer,
		}
	}

	return &Envelope{
		SOAPNote:        c.soap,
		PatientSummary:  c.summary,
		ReferralLetter:  referral,
		TrialMatches:    trials,
		AgentSummary:    c.text.String(),
		ProcessingSteps: c.steps,
	}
}

// ToolsCalled reports how many tool dispatches the trace recorded.
func (c *Collector) ToolsCalled() int { return len(c.steps) }
