package consultation

import (
	"encoding/json"
	"testing"
)

func TestRequest_Validate(t *testing.T) {
	ok := &Request{ConsultationText: "x", Patient: &Patient{}, Doctor: &Doctor{}}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	missing := &Request{Patient: &Patient{}, Doctor: &Doctor{}}
	err := missing.Validate()
	if err == nil || err.Error() != "Missing required field: consultation_text" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRequest_ReferringDoctor(t *testing.T) {
	r := &Request{Doctor: &Doctor{Name: "Dr. Mehta", Speciality: "Cardiology"}}
	if got := r.ReferringDoctor(); got != "Dr. Mehta, Cardiology" {
		t.Errorf("got %q", got)
	}

	r.Doctor.Speciality = ""
	if got := r.ReferringDoctor(); got != "Dr. Mehta, General Medicine" {
		t.Errorf("speciality should default, got %q", got)
	}
}

func TestReferralNotNeeded(t *testing.T) {
	ref := ReferralNotNeeded()
	if ref.Letter != nil || ref.ConfidenceScore != 0 || ref.Message != ReferralNotNeededMessage {
		t.Errorf("unexpected placeholder: %+v", ref)
	}

	raw, err := json.Marshal(ref)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["referral_letter"] != nil {
		t.Error("placeholder letter must serialize as null")
	}
}

func TestSOAPNote_SectionPresenceSurvivesDecode(t *testing.T) {
	var note SOAPNote
	if err := json.Unmarshal([]byte(`{"assessment": {"primary_diagnosis": "x"}}`), &note); err != nil {
		t.Fatal(err)
	}
	if note.Subjective != nil || note.Objective != nil {
		t.Error("absent sections must decode to nil")
	}

	if err := json.Unmarshal([]byte(`{"subjective": {}, "objective": {}}`), &note); err != nil {
		t.Fatal(err)
	}
	if note.Subjective == nil || note.Objective == nil {
		t.Error("present sections must decode non-nil")
	}
}

func TestTrialMatchResult_MatchesKeyPresence(t *testing.T) {
	var res TrialMatchResult
	if err := json.Unmarshal([]byte(`{"summary": "none"}`), &res); err != nil {
		t.Fatal(err)
	}
	if res.TrialMatches != nil {
		t.Error("absent trial_matches key must decode to nil")
	}

	if err := json.Unmarshal([]byte(`{"trial_matches": []}`), &res); err != nil {
		t.Fatal(err)
	}
	if res.TrialMatches == nil {
		t.Error("empty trial_matches key must decode non-nil")
	}
}
