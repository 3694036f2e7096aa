// Package retrieval enriches prompts with text retrieved from a Bedrock
// Knowledge Base. Retrieval is strictly best-effort: any failure — missing
// configuration, timeout, malformed response — yields "unavailable" and never
// an error, so callers fall back to the non-augmented path.
package retrieval

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	bartypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/rs/zerolog"
)

type retrieveAndGenerateAPI interface {
	RetrieveAndGenerate(ctx context.Context, params *bedrockagentruntime.RetrieveAndGenerateInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveAndGenerateOutput, error)
}

// Augmenter issues retrieve-and-generate queries against a configured
// knowledge base. An Augmenter with an empty knowledge-base id is valid and
// always reports unavailable.
type Augmenter struct {
	api             retrieveAndGenerateAPI
	knowledgeBaseID string
	modelArn        string
	logger          zerolog.Logger
}

// NewAugmenter builds an Augmenter. knowledgeBaseID may be empty, which
// disables retrieval entirely.
func NewAugmenter(api *bedrockagentruntime.Client, knowledgeBaseID, region, modelID string, logger zerolog.Logger) *Augmenter {
	return &Augmenter{
		api:             api,
		knowledgeBaseID: knowledgeBaseID,
		modelArn:        fmt.Sprintf("arn:aws:bedrock:%s::foundation-model/%s", region, modelID),
		logger:          logger,
	}
}

// Retrieve runs the query against the knowledge base and returns the
// generated contextual text. The second return value reports whether context
// is available; when false the text is always empty.
func (a *Augmenter) Retrieve(ctx context.Context, query string) (string, bool) {
	if a == nil || a.knowledgeBaseID == "" || a.api == nil {
		return "", false
	}

	out, err := a.api.RetrieveAndGenerate(ctx, &bedrockagentruntime.RetrieveAndGenerateInput{
		Input: &bartypes.RetrieveAndGenerateInput{Text: aws.String(query)},
		RetrieveAndGenerateConfiguration: &bartypes.RetrieveAndGenerateConfiguration{
			Type: bartypes.RetrieveAndGenerateTypeKnowledgeBase,
			KnowledgeBaseConfiguration: &bartypes.KnowledgeBaseRetrieveAndGenerateConfiguration{
				KnowledgeBaseId: aws.String(a.knowledgeBaseID),
				ModelArn:        aws.String(a.modelArn),
			},
		},
	})
	if err != nil {
		a.logger.Warn().Err(err).Msg("knowledge base retrieval failed, continuing without context")
		return "", false
	}
	if out.Output == nil || out.Output.Text == nil || *out.Output.Text == "" {
		return "", false
	}
	return *out.Output.Text, true
}
