package agent

import "context"

// Event is one observed item from the agent's completion stream, already
// lifted out of the SDK's union types. Exactly one of the fields is set:
// Chunk for answer text, ToolInvoked when the agent dispatches a tool, and
// ToolOutput when a tool's response comes back.
type Event struct {
	Chunk       []byte
	ToolInvoked string
	ToolOutput  string
}

// InvokeInput identifies the remote agent session to drive.
type InvokeInput struct {
	AgentID           string
	AgentAliasID      string
	SessionID         string
	InputText         string
	SessionAttributes map[string]string
}

// Invoker drives one agent invocation, calling observe for every stream
// event in arrival order. It returns once the stream is drained.
type Invoker interface {
	InvokeAgent(ctx context.Context, in InvokeInput, observe func(Event)) error
}
