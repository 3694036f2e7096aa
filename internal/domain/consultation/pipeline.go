package consultation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicalsetu/clinicalsetu/internal/platform/bedrock"
	"github.com/clinicalsetu/clinicalsetu/internal/platform/modeljson"
	"github.com/clinicalsetu/clinicalsetu/internal/platform/prompt"
)

// trialContextLimit caps how much catalog JSON is spliced into the trial
// matching prompt.
const trialContextLimit = 8000

// ContextRetriever supplies knowledge-base context for trial matching.
// Implementations must never fail hard: unavailable context is reported via
// the boolean, and the pipeline continues on the non-augmented path.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string) (string, bool)
}

// TrialSource supplies the trial catalog spliced into the matching prompt.
type TrialSource interface {
	ContextJSON(ctx context.Context) (string, error)
}

// RecordStore persists completed envelopes for audit.
type RecordStore interface {
	Save(ctx context.Context, rec *Record) error
}

// Pipeline runs the four generation stages in fixed dependency order:
// SOAP -> PatientSummary -> Referral -> TrialMatch. The SOAP output feeds
// every later stage, so stages never run concurrently.
type Pipeline struct {
	invoker   bedrock.ModelInvoker
	retriever ContextRetriever
	trials    TrialSource
	records   RecordStore
	modelID   string
	logger    zerolog.Logger
}

// NewPipeline wires a pipeline. retriever, trials, and records may each be
// nil: retrieval is then disabled, the trial prompt gets no catalog, and no
// audit record is written.
func NewPipeline(invoker bedrock.ModelInvoker, retriever ContextRetriever, trials TrialSource, records RecordStore, modelID string, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		invoker:   invoker,
		retriever: retriever,
		trials:    trials,
		records:   records,
		modelID:   modelID,
		logger:    logger,
	}
}

// Process runs the full pipeline for one request. Any stage error aborts the
// run; no partial envelope is ever returned. The returned envelope always
// carries exactly four processing steps in stage order.
func (p *Pipeline) Process(ctx context.Context, req *Request) (*Envelope, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	steps := make([]ProcessingStep, 0, 4)

	soap, step, err := p.generateSOAP(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("soap note generation: %w", err)
	}
	steps = append(steps, step)

	soapJSON, err := json.MarshalIndent(soap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode soap note: %w", err)
	}

	summary, step, err := p.generateSummary(ctx, req, string(soapJSON))
	if err != nil {
		return nil, fmt.Errorf("patient summary generation: %w", err)
	}
	steps = append(steps, step)

	referral, step, err := p.generateReferral(ctx, req, string(soapJSON))
	if err != nil {
		return nil, fmt.Errorf("referral letter generation: %w", err)
	}
	steps = append(steps, step)

	matches, step, err := p.generateTrialMatches(ctx, req, soap, string(soapJSON))
	if err != nil {
		return nil, fmt.Errorf("clinical trial matching: %w", err)
	}
	steps = append(steps, step)

	env := &Envelope{
		SOAPNote:        soap,
		PatientSummary:  summary,
		ReferralLetter:  referral,
		TrialMatches:    matches,
		ProcessingSteps: steps,
		Metadata: Metadata{
			TotalProcessingTimeMS: time.Since(start).Milliseconds(),
			ModelUsed:             p.modelID,
			ConsultationID:        consultationID(req),
			PatientID:             patientID(req),
			Disclaimer:            Disclaimer,
			Version:               Version,
		},
	}

	p.persist(ctx, env)
	return env, nil
}

func (p *Pipeline) generateSOAP(ctx context.Context, req *Request) (*SOAPNote, ProcessingStep, error) {
	stepStart := time.Now()

	text, err := p.invoker.Invoke(ctx, bedrock.InvokeRequest{
		Prompt: prompt.SOAPNote(prompt.SOAPParams{
			ConsultationText: req.ConsultationText,
			PatientName:      req.Patient.Name,
			PatientAge:       req.Patient.Age,
			PatientGender:    req.Patient.Gender,
			PatientID:        req.Patient.PatientID,
		}),
		ModelID: p.modelID,
	})
	if err != nil {
		return nil, ProcessingStep{}, err
	}

	var soap SOAPNote
	if err := modeljson.Decode(text, &soap); err != nil {
		return nil, ProcessingStep{}, err
	}

	p.logger.Debug().Str("stage", StepSOAP).Msg("stage completed")
	return &soap, completedStep(StepSOAP, stepStart, p.modelID), nil
}

func (p *Pipeline) generateSummary(ctx context.Context, req *Request, soapJSON string) (*PatientSummary, ProcessingStep, error) {
	stepStart := time.Now()

	text, err := p.invoker.Invoke(ctx, bedrock.InvokeRequest{
		Prompt: prompt.PatientSummary(prompt.SummaryParams{
			SOAPNoteJSON: soapJSON,
			PatientName:  req.Patient.Name,
			DoctorName:   req.Doctor.Name,
		}),
		ModelID: p.modelID,
	})
	if err != nil {
		return nil, ProcessingStep{}, err
	}

	var summary PatientSummary
	if err := modeljson.Decode(text, &summary); err != nil {
		return nil, ProcessingStep{}, err
	}

	p.logger.Debug().Str("stage", StepSummary).Msg("stage completed")
	return &summary, completedStep(StepSummary, stepStart, p.modelID), nil
}

// generateReferral has a conditional skip: without a referral reason it emits
// the fixed placeholder, records zero duration, and never touches the model.
func (p *Pipeline) generateReferral(ctx context.Context, req *Request, soapJSON string) (*ReferralLetter, ProcessingStep, error) {
	if req.ReferralReason == "" {
		p.logger.Debug().Str("stage", StepReferral).Msg("stage skipped, no referral reason")
		return ReferralNotNeeded(), ProcessingStep{
			Step:       StepReferral,
			DurationMS: 0,
			Model:      p.modelID,
			Status:     StepStatusSkipped,
		}, nil
	}

	stepStart := time.Now()

	text, err := p.invoker.Invoke(ctx, bedrock.InvokeRequest{
		Prompt: prompt.ReferralLetter(prompt.ReferralParams{
			SOAPNoteJSON:    soapJSON,
			ReferralReason:  req.ReferralReason,
			ReferringDoctor: req.ReferringDoctor(),
			SpecialistType:  req.SpecialistType,
			Date:            time.Now(),
		}),
		ModelID: p.modelID,
	})
	if err != nil {
		return nil, ProcessingStep{}, err
	}

	var referral ReferralLetter
	if err := modeljson.Decode(text, &referral); err != nil {
		return nil, ProcessingStep{}, err
	}

	p.logger.Debug().Str("stage", StepReferral).Msg("stage completed")
	return &referral, completedStep(StepReferral, stepStart, p.modelID), nil
}

// generateTrialMatches optionally augments the prompt with knowledge-base
// context first. Augmentation failure is never fatal; the stage silently
// continues with the non-augmented prompt.
func (p *Pipeline) generateTrialMatches(ctx context.Context, req *Request, soap *SOAPNote, soapJSON string) (*TrialMatchResult, ProcessingStep, error) {
	stepStart := time.Now()

	trialsJSON := p.trialContext(ctx)

	retrieved := ""
	if p.retriever != nil {
		query := fmt.Sprintf("Find clinical trials relevant to this patient profile: %s", assessmentJSON(soap))
		if text, ok := p.retriever.Retrieve(ctx, query); ok {
			retrieved = text
		}
	}

	text, err := p.invoker.Invoke(ctx, bedrock.InvokeRequest{
		Prompt: prompt.TrialMatching(prompt.TrialMatchParams{
			SOAPNoteJSON:     soapJSON,
			PatientAge:       req.Patient.Age,
			PatientGender:    req.Patient.Gender,
			TrialsJSON:       trialsJSON,
			RetrievedContext: retrieved,
		}),
		ModelID: p.modelID,
	})
	if err != nil {
		return nil, ProcessingStep{}, err
	}

	var matches TrialMatchResult
	if err := modeljson.Decode(text, &matches); err != nil {
		return nil, ProcessingStep{}, err
	}

	p.logger.Debug().Str("stage", StepTrials).Msg("stage completed")
	return &matches, completedStep(StepTrials, stepStart, p.modelID), nil
}

// trialContext loads the catalog JSON, truncated to the prompt budget.
// A failing or absent source degrades to an empty catalog.
func (p *Pipeline) trialContext(ctx context.Context) string {
	if p.trials == nil {
		return ""
	}
	trialsJSON, err := p.trials.ContextJSON(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("trial catalog unavailable, matching without catalog context")
		return ""
	}
	if len(trialsJSON) > trialContextLimit {
		trialsJSON = trialsJSON[:trialContextLimit]
	}
	return trialsJSON
}

// persist writes the audit record. Persistence failures are logged, never
// surfaced: the envelope is already complete.
func (p *Pipeline) persist(ctx context.Context, env *Envelope) {
	if p.records == nil {
		return
	}
	raw, err := json.Marshal(env)
	if err != nil {
		p.logger.Error().Err(err).Msg("encode consultation record")
		return
	}
	rec := &Record{
		ConsultationID:        env.Metadata.ConsultationID,
		PatientID:             env.Metadata.PatientID,
		ModelUsed:             env.Metadata.ModelUsed,
		TotalProcessingTimeMS: env.Metadata.TotalProcessingTimeMS,
		Envelope:              raw,
	}
	if err := p.records.Save(ctx, rec); err != nil {
		p.logger.Error().Err(err).Msg("save consultation record")
	}
}

func completedStep(name string, start time.Time, modelID string) ProcessingStep {
	return ProcessingStep{
		Step:       name,
		DurationMS: time.Since(start).Milliseconds(),
		Model:      modelID,
		Status:     StepStatusCompleted,
	}
}

func assessmentJSON(soap *SOAPNote) string {
	b, err := json.Marshal(soap.Assessment)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func consultationID(req *Request) string {
	if req.ID != "" {
		return req.ID
	}
	return fmt.Sprintf("CONSULT-%d", time.Now().Unix())
}

func patientID(req *Request) string {
	if req.Patient.PatientID != "" {
		return req.Patient.PatientID
	}
	return "N/A"
}
