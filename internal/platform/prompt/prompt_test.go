package prompt

import (
	"strings"
	"testing"
	"time"
)

func TestRender(t *testing.T) {
	out := Render("Hello {name}, you are {age}.", map[string]string{
		"name": "Asha",
		"age":  "30",
	})
	if out != "Hello Asha, you are 30." {
		t.Errorf("unexpected render: %q", out)
	}
}

func TestRender_UnknownPlaceholderLeftVerbatim(t *testing.T) {
	out := Render("Hello {name}, from {hospital}.", map[string]string{
		"name": "Asha",
	})
	if !strings.Contains(out, "{hospital}") {
		t.Errorf("unknown placeholder should remain verbatim, got %q", out)
	}
}

func TestRender_NoPlaceholders(t *testing.T) {
	if out := Render("static text", map[string]string{"a": "b"}); out != "static text" {
		t.Errorf("unexpected render: %q", out)
	}
}

func TestSOAPNote(t *testing.T) {
	p := SOAPNote(SOAPParams{
		ConsultationText: "Patient reports headache for 3 days.",
		PatientName:      "Asha Rao",
		PatientAge:       30,
		PatientGender:    "F",
	})
	if !strings.Contains(p, "Patient reports headache for 3 days.") {
		t.Error("consultation text missing from prompt")
	}
	if !strings.Contains(p, `"name": "Asha Rao"`) {
		t.Error("patient context missing from prompt")
	}
	if !strings.Contains(p, `"id": "N/A"`) {
		t.Error("absent patient id should default to N/A")
	}
	if strings.Contains(p, "{consultation_text}") {
		t.Error("placeholder left unsubstituted")
	}
}

func TestPatientSummary(t *testing.T) {
	p := PatientSummary(SummaryParams{
		SOAPNoteJSON: `{"assessment":{}}`,
		PatientName:  "Asha Rao",
		DoctorName:   "Dr. Mehta",
	})
	if !strings.Contains(p, "Dr. Mehta") || !strings.Contains(p, `{"assessment":{}}`) {
		t.Errorf("summary prompt missing inputs:\n%s", p)
	}
	// The greeting placeholder in the template is the patient name too.
	if !strings.Contains(p, "Dear Asha Rao,") {
		t.Error("greeting not rendered with patient name")
	}
}

func TestReferralLetter(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := ReferralLetter(ReferralParams{
		SOAPNoteJSON:    `{}`,
		ReferralReason:  "persistent migraines",
		ReferringDoctor: "Dr. Mehta, Neurology",
		SpecialistType:  "",
		Date:            date,
	})
	if !strings.Contains(p, "2025-06-01") {
		t.Error("date not rendered")
	}
	if !strings.Contains(p, "The Specialist") {
		t.Error("specialist type should default to Specialist")
	}
}

func TestTrialMatching(t *testing.T) {
	p := TrialMatching(TrialMatchParams{
		SOAPNoteJSON:  `{}`,
		PatientAge:    30,
		PatientGender: "F",
		TrialsJSON:    `[{"trial_id":"NCT001"}]`,
	})
	if !strings.Contains(p, "NCT001") {
		t.Error("trial data missing from prompt")
	}
	if strings.Contains(p, "ADDITIONAL CONTEXT FROM KNOWLEDGE BASE") {
		t.Error("no KB context should be appended when empty")
	}
}

func TestTrialMatching_WithRetrievedContext(t *testing.T) {
	p := TrialMatching(TrialMatchParams{
		SOAPNoteJSON:     `{}`,
		PatientAge:       30,
		PatientGender:    "F",
		RetrievedContext: "Two phase III migraine trials are recruiting.",
	})
	if !strings.Contains(p, "ADDITIONAL CONTEXT FROM KNOWLEDGE BASE") {
		t.Error("KB context header missing")
	}
	if !strings.Contains(p, "Two phase III migraine trials are recruiting.") {
		t.Error("KB context missing")
	}
	if !strings.Contains(p, "No trial data available.") {
		t.Error("empty trial data should render fallback text")
	}
}
