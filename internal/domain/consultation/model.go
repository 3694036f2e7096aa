package consultation

import (
	"time"

	"github.com/google/uuid"
)

// Disclaimer texts attached to every response, success or error.
const (
	Disclaimer      = "AI-Generated - Requires Clinician Validation. This output is for informational purposes only and does not constitute medical advice, diagnosis, or treatment recommendations."
	ShortDisclaimer = "AI-Generated - Requires Clinician Validation"

	// ReferralNotNeededMessage is the fixed placeholder emitted when no
	// referral reason was supplied.
	ReferralNotNeededMessage = "No referral indicated for this consultation"

	// Version identifies the sequential pipeline response schema.
	Version = "1.0.0"
)

// Patient identifies the consultation subject.
type Patient struct {
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	PatientID string `json:"patient_id,omitempty"`
}

// Doctor identifies the consulting physician.
type Doctor struct {
	Name       string `json:"name"`
	Speciality string `json:"speciality,omitempty"`
	Hospital   string `json:"hospital,omitempty"`
}

// Request is one consultation submission. It is immutable once received and
// lives for a single pipeline invocation.
type Request struct {
	ConsultationText string   `json:"consultation_text"`
	Patient          *Patient `json:"patient"`
	Doctor           *Doctor  `json:"doctor"`
	ReferralReason   string   `json:"referral_reason,omitempty"`
	SpecialistType   string   `json:"specialist_type,omitempty"`
	ID               string   `json:"id,omitempty"`
}

// Validate reports the first missing required field, mirroring the error
// taxonomy: absence of consultation_text, patient, or doctor is a client
// error naming the field.
func (r *Request) Validate() error {
	if r.ConsultationText == "" {
		return &MissingFieldError{Field: "consultation_text"}
	}
	if r.Patient == nil {
		return &MissingFieldError{Field: "patient"}
	}
	if r.Doctor == nil {
		return &MissingFieldError{Field: "doctor"}
	}
	return nil
}

// MissingFieldError marks a request that omitted a required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Missing required field: " + e.Field
}

// ReferringDoctor renders the doctor as it appears in referral letters.
func (r *Request) ReferringDoctor() string {
	speciality := r.Doctor.Speciality
	if speciality == "" {
		speciality = "General Medicine"
	}
	return r.Doctor.Name + ", " + speciality
}

// -- SOAP note --

// ReviewOfSystems lists pertinent positives and negatives.
type ReviewOfSystems struct {
	RelevantPositives []string `json:"relevant_positives"`
	RelevantNegatives []string `json:"relevant_negatives"`
}

// Subjective is the patient-reported section of the SOAP note.
type Subjective struct {
	ChiefComplaint          string          `json:"chief_complaint"`
	HistoryOfPresentIllness string          `json:"history_of_present_illness"`
	ReviewOfSystems         ReviewOfSystems `json:"review_of_systems"`
	PastMedicalHistory      []string        `json:"past_medical_history"`
	Medications             []string        `json:"medications"`
	Allergies               []string        `json:"allergies"`
}

// PhysicalExam records the examination findings.
type PhysicalExam struct {
	General         string   `json:"general"`
	SystemsExamined []string `json:"systems_examined"`
}

// Objective is the clinician-observed section of the SOAP note. Vitals stay
// loosely typed; models report them with varying keys and units.
type Objective struct {
	Vitals         map[string]interface{} `json:"vitals"`
	PhysicalExam   PhysicalExam           `json:"physical_exam"`
	Investigations []string               `json:"investigations"`
}

// Assessment carries the diagnostic impression. PrimaryDiagnosis also seeds
// the knowledge-base retrieval query for trial matching.
type Assessment struct {
	PrimaryDiagnosis   string   `json:"primary_diagnosis"`
	SecondaryDiagnoses []string `json:"secondary_diagnoses"`
	ClinicalReasoning  string   `json:"clinical_reasoning"`
}

// Plan is the treatment section of the SOAP note.
type Plan struct {
	MedicationsPrescribed []string `json:"medications_prescribed"`
	InvestigationsOrdered []string `json:"investigations_ordered"`
	ProceduresPlanned     []string `json:"procedures_planned"`
	Referrals             []string `json:"referrals"`
	FollowUp              string   `json:"follow_up"`
	PatientEducation      []string `json:"patient_education"`
}

// ConfidenceScores holds the model's per-section confidence (0-100).
type ConfidenceScores struct {
	Subjective int `json:"subjective"`
	Objective  int `json:"objective"`
	Assessment int `json:"assessment"`
	Plan       int `json:"plan"`
}

// SOAPNote is the stage-1 artifact and the prerequisite input to every later
// stage. Subjective and Objective are pointers so their presence can be
// tested when classifying agent tool outputs.
type SOAPNote struct {
	Subjective       *Subjective      `json:"subjective"`
	Objective        *Objective       `json:"objective"`
	Assessment       Assessment       `json:"assessment"`
	Plan             Plan             `json:"plan"`
	ConfidenceScores ConfidenceScores `json:"confidence_scores"`
	Flags            []string         `json:"flags"`
}

// -- Patient summary --

// SummaryMedication explains one prescribed medication in lay terms.
type SummaryMedication struct {
	Name           string `json:"name"`
	WhatItsFor     string `json:"what_its_for"`
	HowToTake      string `json:"how_to_take"`
	ImportantNotes string `json:"important_notes"`
}

// OrderedTest explains one ordered investigation in lay terms.
type OrderedTest struct {
	TestName  string `json:"test_name"`
	WhyNeeded string `json:"why_needed"`
}

// TreatmentPlan is the lay rendering of the SOAP plan.
type TreatmentPlan struct {
	Medications     []SummaryMedication `json:"medications"`
	LifestyleAdvice []string            `json:"lifestyle_advice"`
	TestsOrdered    []OrderedTest       `json:"tests_ordered"`
}

// FollowUp describes the next appointment.
type FollowUp struct {
	NextAppointment string   `json:"next_appointment"`
	WhatToBring     []string `json:"what_to_bring"`
}

// PatientSummary is the stage-2 artifact.
type PatientSummary struct {
	Greeting           string        `json:"greeting"`
	VisitSummary       string        `json:"visit_summary"`
	WhatTheDoctorFound string        `json:"what_the_doctor_found"`
	YourDiagnosis      string        `json:"your_diagnosis"`
	YourTreatmentPlan  TreatmentPlan `json:"your_treatment_plan"`
	FollowUp           FollowUp      `json:"follow_up"`
	WarningSigns       []string      `json:"warning_signs"`
	QuestionsToAsk     []string      `json:"questions_to_ask"`
	Disclaimer         string        `json:"disclaimer"`
}

// -- Referral letter --

// ReferralPatientSummary introduces the patient to the specialist.
type ReferralPatientSummary struct {
	Demographics        string `json:"demographics"`
	PresentingComplaint string `json:"presenting_complaint"`
}

// RelevantHistory carries the history pertinent to the referral.
type RelevantHistory struct {
	CurrentCondition    string   `json:"current_condition"`
	RelevantPastHistory []string `json:"relevant_past_history"`
	CurrentMedications  []string `json:"current_medications"`
	Allergies           string   `json:"allergies"`
}

// ReferralInvestigations splits investigations by completion state.
type ReferralInvestigations struct {
	Completed              []string `json:"completed"`
	Pending                []string `json:"pending"`
	RecommendedBeforeVisit []string `json:"recommended_before_visit"`
}

// Urgency grades the referral.
type Urgency struct {
	Level     string `json:"level"`
	Reasoning string `json:"reasoning"`
}

// ReferralLetterBody is the letter itself.
type ReferralLetterBody struct {
	Date                        string                 `json:"date"`
	To                          string                 `json:"to"`
	From                        string                 `json:"from"`
	PatientSummary              ReferralPatientSummary `json:"patient_summary"`
	ReasonForReferral           string                 `json:"reason_for_referral"`
	RelevantHistory             RelevantHistory        `json:"relevant_history"`
	Investigations              ReferralInvestigations `json:"investigations"`
	ClinicalQuestions           []string               `json:"clinical_questions"`
	Urgency                     Urgency                `json:"urgency"`
	PatientPreparationChecklist []string               `json:"patient_preparation_checklist"`
}

// ReferralLetter is the stage-3 artifact. When no referral was requested,
// Letter is nil and Message/ConfidenceScore carry the fixed placeholder.
type ReferralLetter struct {
	Letter          *ReferralLetterBody `json:"referral_letter"`
	Message         string              `json:"message,omitempty"`
	ConfidenceScore int                 `json:"confidence_score"`
	Flags           []string            `json:"flags,omitempty"`
}

// ReferralNotNeeded is the placeholder emitted when the referral stage is
// skipped. It never involves a model call.
func ReferralNotNeeded() *ReferralLetter {
	return &ReferralLetter{
		Letter:          nil,
		Message:         ReferralNotNeededMessage,
		ConfidenceScore: 0,
	}
}

// -- Trial matching --

// ExtractedProfile is the patient profile the model derived for matching.
type ExtractedProfile struct {
	Age                int      `json:"age"`
	Gender             string   `json:"gender"`
	PrimaryDiagnosis   string   `json:"primary_diagnosis"`
	Comorbidities      []string `json:"comorbidities"`
	CurrentMedications []string `json:"current_medications"`
}

// CriterionMatch records one eligibility criterion comparison.
type CriterionMatch struct {
	Criterion     string `json:"criterion"`
	PatientValue  string `json:"patient_value"`
	RequiredValue string `json:"required_value"`
	Match         bool   `json:"match"`
}

// TrialMatch is one candidate trial with its eligibility signal.
type TrialMatch struct {
	TrialID            string           `json:"trial_id"`
	TrialTitle         string           `json:"trial_title"`
	TrialPhase         string           `json:"trial_phase"`
	Sponsor            string           `json:"sponsor"`
	EnrollmentStatus   string           `json:"enrollment_status"`
	MatchedCriteria    []CriterionMatch `json:"matched_criteria"`
	UnmatchedCriteria  []CriterionMatch `json:"unmatched_criteria"`
	MissingInformation []string         `json:"missing_information"`
	ConfidenceScore    int              `json:"confidence_score"`
	Locations          []string         `json:"locations"`
	ContactInfo        string           `json:"contact_info"`
}

// TrialMatchResult is the stage-4 artifact. TrialMatches is non-nil whenever
// the artifact was produced, which is what slot classification keys on.
type TrialMatchResult struct {
	PatientProfile *ExtractedProfile `json:"patient_profile_extracted,omitempty"`
	TrialMatches   []TrialMatch      `json:"trial_matches"`
	Summary        string            `json:"summary"`
	Disclaimer     string            `json:"disclaimer"`
}

// -- Envelope --

// Step labels, in execution order.
const (
	StepSOAP     = "SOAP Note Generation"
	StepSummary  = "Patient Summary Generation"
	StepReferral = "Referral Letter Generation"
	StepTrials   = "Clinical Trial Matching"

	StepStatusCompleted = "completed"
	StepStatusSkipped   = "skipped"
)

// ProcessingStep records one stage execution. Ordering in the envelope is
// significant: it is the execution order.
type ProcessingStep struct {
	Step       string `json:"step"`
	DurationMS int64  `json:"duration_ms"`
	Model      string `json:"model"`
	Status     string `json:"status"`
}

// Metadata summarizes a pipeline run.
type Metadata struct {
	TotalProcessingTimeMS int64  `json:"total_processing_time_ms"`
	ModelUsed             string `json:"model_used"`
	ConsultationID        string `json:"consultation_id"`
	PatientID             string `json:"patient_id"`
	Disclaimer            string `json:"disclaimer"`
	Version               string `json:"version"`
}

// Envelope is the complete successful response. It is assembled once, after
// the final stage; a mid-pipeline failure discards everything.
type Envelope struct {
	SOAPNote        *SOAPNote         `json:"soap_note"`
	PatientSummary  *PatientSummary   `json:"patient_summary"`
	ReferralLetter  *ReferralLetter   `json:"referral_letter"`
	TrialMatches    *TrialMatchResult `json:"trial_matches"`
	ProcessingSteps []ProcessingStep  `json:"processing_steps"`
	Metadata        Metadata          `json:"metadata"`
}

// ErrorEnvelope is the fixed error response shape. The disclaimer repeats so
// failures read in the same register as successes.
type ErrorEnvelope struct {
	Error      string `json:"error"`
	Disclaimer string `json:"disclaimer"`
}

// Record is the persisted audit row for a completed envelope.
type Record struct {
	ID                    uuid.UUID `json:"id"`
	ConsultationID        string    `json:"consultation_id"`
	PatientID             string    `json:"patient_id"`
	ModelUsed             string    `json:"model_used"`
	TotalProcessingTimeMS int64     `json:"total_processing_time_ms"`
	Envelope              []byte    `json:"envelope"`
	CreatedAt             time.Time `json:"created_at"`
}
