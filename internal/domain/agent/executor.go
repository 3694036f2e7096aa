package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicalsetu/clinicalsetu/internal/domain/consultation"
	"github.com/clinicalsetu/clinicalsetu/internal/platform/bedrock"
	"github.com/clinicalsetu/clinicalsetu/internal/platform/modeljson"
	"github.com/clinicalsetu/clinicalsetu/internal/platform/prompt"
)

// Action-group wire contract, as the agent platform sends and expects it.

// ToolParameter is one named argument in a tool dispatch.
type ToolParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ToolEvent is the dispatch payload the agent platform POSTs when it
// decides to call one of the clinical tools.
type ToolEvent struct {
	ActionGroup             string            `json:"actionGroup"`
	Function                string            `json:"function"`
	Parameters              []ToolParameter   `json:"parameters"`
	SessionAttributes       map[string]string `json:"sessionAttributes"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes"`
}

// Param returns the named parameter value, empty when absent.
func (e *ToolEvent) Param(name string) string {
	for _, p := range e.Parameters {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// TextBody wraps the serialized tool result.
type TextBody struct {
	Body string `json:"body"`
}

// ResponseBody is the platform's fixed single-variant body union.
type ResponseBody struct {
	Text TextBody `json:"TEXT"`
}

// FunctionResponse carries the tool result. ResponseState is set to FAILURE
// only when the tool itself failed; an unknown function still answers in
// the success shape, with the error inside the body.
type FunctionResponse struct {
	ResponseState string       `json:"responseState,omitempty"`
	ResponseBody  ResponseBody `json:"responseBody"`
}

// ToolResult pairs the response with the dispatch it answers.
type ToolResult struct {
	ActionGroup      string           `json:"actionGroup"`
	Function         string           `json:"function"`
	FunctionResponse FunctionResponse `json:"functionResponse"`
}

// ToolResponse is the full reply envelope. Session attributes echo back
// unchanged so the platform keeps session state across tool calls.
type ToolResponse struct {
	MessageVersion          string            `json:"messageVersion"`
	Response                ToolResult        `json:"response"`
	SessionAttributes       map[string]string `json:"sessionAttributes"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes"`
}

const (
	messageVersion       = "1.0"
	responseStateFailure = "FAILURE"

	// executorTrialContextLimit caps catalog JSON in the search prompt.
	executorTrialContextLimit = 8000
)

// Executor implements the four clinical tools the agent orchestrates. Each
// tool is one model round-trip; the executor holds no session state of its
// own.
type Executor struct {
	invoker   bedrock.ModelInvoker
	retriever consultation.ContextRetriever
	trials    consultation.TrialSource
	modelID   string
	logger    zerolog.Logger
}

// NewExecutor wires the tool executor. retriever and trials may be nil.
func NewExecutor(invoker bedrock.ModelInvoker, retriever consultation.ContextRetriever, trials consultation.TrialSource, modelID string, logger zerolog.Logger) *Executor {
	return &Executor{
		invoker:   invoker,
		retriever: retriever,
		trials:    trials,
		modelID:   modelID,
		logger:    logger,
	}
}

// Execute routes one dispatch to its tool. It never returns an error: tool
// failures become FAILURE responses so the agent can reason about them.
func (x *Executor) Execute(ctx context.Context, ev *ToolEvent) *ToolResponse {
	x.logger.Info().Str("function", ev.Function).Msg("tool called")

	var (
		result interface{}
		err    error
	)
	switch ev.Function {
	case "generate_soap":
		result, err = x.generateSOAP(ctx, ev)
	case "generate_patient_summary":
		result, err = x.generateSummary(ctx, ev)
	case "generate_referral":
		result, err = x.generateReferral(ctx, ev)
	case "search_trials":
		result, err = x.searchTrials(ctx, ev)
	default:
		result = map[string]string{"error": "Unknown function: " + ev.Function}
	}

	if err != nil {
		x.logger.Error().Err(err).Str("function", ev.Function).Msg("tool failed")
		return x.respond(ev, responseStateFailure, map[string]string{"error": err.Error()})
	}
	return x.respond(ev, "", result)
}

func (x *Executor) respond(ev *ToolEvent, state string, result interface{}) *ToolResponse {
	body, err := json.Marshal(result)
	if err != nil {
		body = []byte(`{"error": "unencodable tool result"}`)
		state = responseStateFailure
	}
	return &ToolResponse{
		MessageVersion: messageVersion,
		Response: ToolResult{
			ActionGroup: ev.ActionGroup,
			Function:    ev.Function,
			FunctionResponse: FunctionResponse{
				ResponseState: state,
				ResponseBody:  ResponseBody{Text: TextBody{Body: string(body)}},
			},
		},
		SessionAttributes:       ev.SessionAttributes,
		PromptSessionAttributes: ev.PromptSessionAttributes,
	}
}

func (x *Executor) generateSOAP(ctx context.Context, ev *ToolEvent) (interface{}, error) {
	text, err := x.invoker.Invoke(ctx, bedrock.InvokeRequest{
		Prompt: prompt.SOAPNote(prompt.SOAPParams{
			ConsultationText: ev.Param("consultation_text"),
			PatientName:      ev.Param("patient_name"),
			PatientAge:       atoi(ev.Param("patient_age")),
			PatientGender:    ev.Param("patient_gender"),
		}),
		ModelID: x.modelID,
	})
	if err != nil {
		return nil, err
	}
	var soap consultation.SOAPNote
	if err := modeljson.Decode(text, &soap); err != nil {
		return nil, err
	}
	return &soap, nil
}

func (x *Executor) generateSummary(ctx context.Context, ev *ToolEvent) (interface{}, error) {
	text, err := x.invoker.Invoke(ctx, bedrock.InvokeRequest{
		Prompt: prompt.PatientSummary(prompt.SummaryParams{
			SOAPNoteJSON: ev.Param("soap_note_json"),
			PatientName:  ev.Param("patient_name"),
			DoctorName:   ev.Param("doctor_name"),
		}),
		ModelID: x.modelID,
	})
	if err != nil {
		return nil, err
	}
	var summary consultation.PatientSummary
	if err := modeljson.Decode(text, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (x *Executor) generateReferral(ctx context.Context, ev *ToolEvent) (interface{}, error) {
	text, err := x.invoker.Invoke(ctx, bedrock.InvokeRequest{
		Prompt: prompt.ReferralLetter(prompt.ReferralParams{
			SOAPNoteJSON:    ev.Param("soap_note_json"),
			ReferralReason:  ev.Param("referral_reason"),
			ReferringDoctor: ev.Param("referring_doctor"),
			SpecialistType:  ev.Param("specialist_type"),
			Date:            time.Now(),
		}),
		ModelID: x.modelID,
	})
	if err != nil {
		return nil, err
	}
	var referral consultation.ReferralLetter
	if err := modeljson.Decode(text, &referral); err != nil {
		return nil, err
	}
	return &referral, nil
}

// searchTrials matches the patient against the catalog. The agent hands
// over only the SOAP assessment; the diagnosis extracted from it seeds the
// knowledge-base query, and retrieval failure degrades to the plain prompt.
func (x *Executor) searchTrials(ctx context.Context, ev *ToolEvent) (interface{}, error) {
	assessmentJSON := ev.Param("soap_assessment")
	age := ev.Param("patient_age")
	gender := ev.Param("patient_gender")

	var assessment consultation.Assessment
	diagnosis := "unspecified"
	if err := json.Unmarshal([]byte(assessmentJSON), &assessment); err == nil && assessment.PrimaryDiagnosis != "" {
		diagnosis = assessment.PrimaryDiagnosis
	} else if err != nil {
		diagnosis = assessmentJSON
	}

	retrieved := ""
	if x.retriever != nil {
		query := fmt.Sprintf("Clinical trials for %s in %s patients aged %s in India", diagnosis, gender, age)
		if text, ok := x.retriever.Retrieve(ctx, query); ok {
			retrieved = text
		}
	}

	trialsJSON := ""
	if x.trials != nil {
		catalog, err := x.trials.ContextJSON(ctx)
		if err != nil {
			x.logger.Warn().Err(err).Msg("trial catalog unavailable, matching without catalog context")
		} else {
			if len(catalog) > executorTrialContextLimit {
				catalog = catalog[:executorTrialContextLimit]
			}
			trialsJSON = catalog
		}
	}

	text, err := x.invoker.Invoke(ctx, bedrock.InvokeRequest{
		Prompt: prompt.TrialMatching(prompt.TrialMatchParams{
			SOAPNoteJSON:     assessmentJSON,
			PatientAge:       atoi(age),
			PatientGender:    gender,
			TrialsJSON:       trialsJSON,
			RetrievedContext: retrieved,
		}),
		ModelID: x.modelID,
	})
	if err != nil {
		return nil, err
	}
	var matches consultation.TrialMatchResult
	if err := modeljson.Decode(text, &matches); err != nil {
		return nil, err
	}
	return &matches, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
