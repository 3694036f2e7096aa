package agent

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
)

// RuntimeInvoker drives a remote Bedrock agent and walks its completion
// event stream, translating the SDK's union members into Events.
type RuntimeInvoker struct {
	client *bedrockagentruntime.Client
}

func NewRuntimeInvoker(client *bedrockagentruntime.Client) *RuntimeInvoker {
	return &RuntimeInvoker{client: client}
}

// InvokeAgent starts the session and drains the stream, invoking observe
// for every recognizable event in arrival order. Tracing is always enabled;
// without it there are no tool events to collect.
func (r *RuntimeInvoker) InvokeAgent(ctx context.Context, in InvokeInput, observe func(Event)) error {
	out, err := r.client.InvokeAgent(ctx, &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(in.AgentID),
		AgentAliasId: aws.String(in.AgentAliasID),
		SessionId:    aws.String(in.SessionID),
		InputText:    aws.String(in.InputText),
		EnableTrace:  aws.Bool(true),
		SessionState: &types.SessionState{
			SessionAttributes: in.SessionAttributes,
		},
	})
	if err != nil {
		return err
	}

	stream := out.GetStream()
	defer stream.Close()

	for raw := range stream.Events() {
		if ev, ok := liftEvent(raw); ok {
			observe(ev)
		}
	}
	return stream.Err()
}

// liftEvent unwraps one stream union member. Members that carry neither
// answer text nor action-group trace data are skipped.
func liftEvent(raw types.ResponseStream) (Event, bool) {
	switch v := raw.(type) {
	case *types.ResponseStreamMemberChunk:
		if len(v.Value.Bytes) > 0 {
			return Event{Chunk: v.Value.Bytes}, true
		}
	case *types.ResponseStreamMemberTrace:
		return liftTrace(v.Value.Trace)
	}
	return Event{}, false
}

func liftTrace(trace types.Trace) (Event, bool) {
	orch, ok := trace.(*types.TraceMemberOrchestrationTrace)
	if !ok {
		return Event{}, false
	}
	switch o := orch.Value.(type) {
	case *types.OrchestrationTraceMemberInvocationInput:
		if ag := o.Value.ActionGroupInvocationInput; ag != nil {
			name := aws.ToString(ag.Function)
			if name == "" {
				name = "unknown"
			}
			return Event{ToolInvoked: name}, true
		}
	case *types.OrchestrationTraceMemberObservation:
		if out := o.Value.ActionGroupInvocationOutput; out != nil && aws.ToString(out.Text) != "" {
			return Event{ToolOutput: aws.ToString(out.Text)}, true
		}
	}
	return Event{}, false
}
