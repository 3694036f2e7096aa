package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicalsetu/clinicalsetu/internal/domain/consultation"
	"github.com/clinicalsetu/clinicalsetu/internal/platform/prompt"
)

// Service runs consultations through the remote agent. Unlike the pipeline,
// the service does not sequence stages itself: it hands the agent one
// instruction prompt and reconstructs the envelope from the trace.
type Service struct {
	invoker      Invoker
	agentID      string
	agentAliasID string
	modelID      string
	logger       zerolog.Logger
}

func NewService(invoker Invoker, agentID, agentAliasID, modelID string, logger zerolog.Logger) *Service {
	return &Service{
		invoker:      invoker,
		agentID:      agentID,
		agentAliasID: agentAliasID,
		modelID:      modelID,
		logger:       logger,
	}
}

// Process drives one agent session for the request and reassembles the
// response envelope from the streamed trace.
func (s *Service) Process(ctx context.Context, req *consultation.Request) (*Envelope, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	sessionID := req.ID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	patientID := req.Patient.PatientID
	if patientID == "" {
		patientID = "N/A"
	}

	collector := NewCollector(s.modelID)
	err := s.invoker.InvokeAgent(ctx, InvokeInput{
		AgentID:      s.agentID,
		AgentAliasID: s.agentAliasID,
		SessionID:    sessionID,
		InputText: prompt.AgentInstruction(prompt.AgentParams{
			ConsultationText: req.ConsultationText,
			PatientName:      req.Patient.Name,
			PatientAge:       req.Patient.Age,
			PatientGender:    req.Patient.Gender,
			PatientID:        req.Patient.PatientID,
			DoctorName:       req.Doctor.Name,
			DoctorSpeciality: req.Doctor.Speciality,
			DoctorHospital:   req.Doctor.Hospital,
			ReferralReason:   req.ReferralReason,
			SpecialistType:   req.SpecialistType,
		}),
		SessionAttributes: map[string]string{
			"patient_id":      patientID,
			"consultation_id": sessionID,
			"doctor_name":     req.Doctor.Name,
		},
	}, collector.Observe)
	if err != nil {
		return nil, fmt.Errorf("agent invocation: %w", err)
	}

	env := collector.Result(req.ReferralReason != "")
	env.Metadata = Metadata{
		TotalProcessingTimeMS: time.Since(start).Milliseconds(),
		ModelUsed:             s.modelID,
		AgentID:               s.agentID,
		AgentAliasID:          s.agentAliasID,
		SessionID:             sessionID,
		ConsultationID:        sessionID,
		PatientID:             patientID,
		Architecture:          Architecture,
		ToolsCalled:           collector.ToolsCalled(),
		Disclaimer:            Disclaimer,
		Version:               Version,
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Int("tools_called", env.Metadata.ToolsCalled).
		Int64("duration_ms", env.Metadata.TotalProcessingTimeMS).
		Msg("agent run completed")
	return env, nil
}
