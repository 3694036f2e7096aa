// Package prompt renders the clinical generation prompts. Templates are
// embedded at build time; substitution is plain string replacement so a typo'd
// placeholder surfaces verbatim in the prompt instead of failing the request.
package prompt

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

//go:embed templates/*.txt
var templates embed.FS

// Render substitutes {name} placeholders in tmpl with the given values.
// Placeholders with no matching value are left verbatim.
func Render(tmpl string, values map[string]string) string {
	for name, value := range values {
		tmpl = strings.ReplaceAll(tmpl, "{"+name+"}", value)
	}
	return tmpl
}

func load(name string) string {
	b, err := templates.ReadFile("templates/" + name + ".txt")
	if err != nil {
		// Templates are embedded; a missing one is a build defect.
		panic(fmt.Sprintf("prompt template %s: %v", name, err))
	}
	return string(b)
}

// SOAPParams are the inputs to the SOAP note prompt.
type SOAPParams struct {
	ConsultationText string
	PatientName      string
	PatientAge       int
	PatientGender    string
	PatientID        string
}

// SOAPNote builds the stage-1 prompt that structures a consultation
// narrative into a SOAP note.
func SOAPNote(p SOAPParams) string {
	patientID := p.PatientID
	if patientID == "" {
		patientID = "N/A"
	}
	ctx, _ := json.MarshalIndent(map[string]interface{}{
		"name":   p.PatientName,
		"age":    p.PatientAge,
		"gender": p.PatientGender,
		"id":     patientID,
	}, "", "  ")
	return Render(load("soap_note"), map[string]string{
		"consultation_text": p.ConsultationText,
		"patient_context":   string(ctx),
	})
}

// SummaryParams are the inputs to the patient summary prompt.
type SummaryParams struct {
	SOAPNoteJSON string
	PatientName  string
	DoctorName   string
}

// PatientSummary builds the stage-2 prompt that converts a SOAP note into a
// patient-friendly summary.
func PatientSummary(p SummaryParams) string {
	return Render(load("patient_summary"), map[string]string{
		"soap_note":    p.SOAPNoteJSON,
		"patient_name": p.PatientName,
		"doctor_name":  p.DoctorName,
	})
}

// ReferralParams are the inputs to the referral letter prompt.
type ReferralParams struct {
	SOAPNoteJSON    string
	ReferralReason  string
	ReferringDoctor string
	SpecialistType  string
	Date            time.Time
}

// ReferralLetter builds the stage-3 prompt that drafts a specialist
// referral letter.
func ReferralLetter(p ReferralParams) string {
	specialist := p.SpecialistType
	if specialist == "" {
		specialist = "Specialist"
	}
	return Render(load("referral_letter"), map[string]string{
		"soap_note":        p.SOAPNoteJSON,
		"referral_reason":  p.ReferralReason,
		"referring_doctor": p.ReferringDoctor,
		"specialist_type":  specialist,
		"current_date":     p.Date.Format("2006-01-02"),
	})
}

// TrialMatchParams are the inputs to the trial matching prompt.
type TrialMatchParams struct {
	SOAPNoteJSON     string
	PatientAge       int
	PatientGender    string
	TrialsJSON       string
	RetrievedContext string
}

// AgentParams are the inputs to the agent instruction prompt.
type AgentParams struct {
	ConsultationText string
	PatientName      string
	PatientAge       int
	PatientGender    string
	PatientID        string
	DoctorName       string
	DoctorSpeciality string
	DoctorHospital   string
	ReferralReason   string
	SpecialistType   string
}

// AgentInstruction builds the orchestration prompt handed to the remote
// agent. The agent decides tool order itself; the numbered steps are the
// suggested plan, with step 3 rewritten when no referral was requested.
func AgentInstruction(p AgentParams) string {
	patientID := p.PatientID
	if patientID == "" {
		patientID = "N/A"
	}
	speciality := p.DoctorSpeciality
	if speciality == "" {
		speciality = "General Medicine"
	}

	referralInstruction := "No referral is needed for this consultation. Skip the generate_referral tool."
	stepThree := "Skip referral (not needed)"
	if p.ReferralReason != "" {
		referralInstruction = fmt.Sprintf(
			"A referral is needed to %s. Reason: %s. Please generate a referral letter using the generate_referral tool.",
			p.SpecialistType, p.ReferralReason)
		stepThree = "Call generate_referral with the SOAP note, referral reason, doctor info, and specialist type"
	}

	return Render(load("agent_instruction"), map[string]string{
		"consultation_text":    p.ConsultationText,
		"patient_name":         p.PatientName,
		"patient_age":          fmt.Sprintf("%d", p.PatientAge),
		"patient_gender":       p.PatientGender,
		"patient_id":           patientID,
		"doctor_line":          fmt.Sprintf("%s, %s, %s", p.DoctorName, speciality, p.DoctorHospital),
		"referral_instruction": referralInstruction,
		"step_three":           stepThree,
	})
}

// TrialMatching builds the stage-4 prompt that matches the patient profile
// against the trial catalog. RetrievedContext, when non-empty, is appended as
// additional knowledge-base context.
func TrialMatching(p TrialMatchParams) string {
	trials := p.TrialsJSON
	if trials == "" {
		trials = "No trial data available."
	}
	rendered := Render(load("trial_matching"), map[string]string{
		"soap_note":       p.SOAPNoteJSON,
		"patient_age":     fmt.Sprintf("%d", p.PatientAge),
		"patient_gender":  p.PatientGender,
		"clinical_trials": trials,
	})
	if p.RetrievedContext != "" {
		rendered += "\n\nADDITIONAL CONTEXT FROM KNOWLEDGE BASE:\n" + p.RetrievedContext
	}
	return rendered
}
