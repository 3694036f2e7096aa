// Package bedrock wraps the Amazon Bedrock runtime clients behind small
// interfaces so the generation pipeline and its tests never touch the AWS SDK
// directly.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const (
	// DefaultMaxTokens bounds the generated output length.
	DefaultMaxTokens = 4096
	// DefaultTemperature keeps generation near-deterministic for
	// clinical documentation.
	DefaultTemperature = 0.3

	anthropicVersion = "bedrock-2023-05-31"
)

// InvokeRequest describes a single synchronous text generation call.
type InvokeRequest struct {
	Prompt      string
	ModelID     string
	MaxTokens   int
	Temperature float64
}

// ModelInvoker sends a rendered prompt to a text-generation model and returns
// the raw reply. Every call is a fresh remote invocation; there is no retry
// and no caching, so errors propagate unchanged to the caller.
type ModelInvoker interface {
	Invoke(ctx context.Context, req InvokeRequest) (string, error)
}

type invokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// RuntimeClient is the Bedrock-backed ModelInvoker.
type RuntimeClient struct {
	api invokeModelAPI
}

// NewRuntimeClient wraps a bedrockruntime client.
func NewRuntimeClient(api *bedrockruntime.Client) *RuntimeClient {
	return &RuntimeClient{api: api}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Invoke calls InvokeModel with an anthropic-messages body and returns the
// first generated text block.
func (c *RuntimeClient) Invoke(ctx context.Context, req InvokeRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      temperature,
		Messages:         []anthropicMessage{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal invoke body: %w", err)
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(req.ModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("invoke model %s: %w", req.ModelID, err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("decode invoke response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("model %s returned no content blocks", req.ModelID)
	}
	return resp.Content[0].Text, nil
}
