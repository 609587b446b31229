// Package provider wraps each upstream language model behind one
// request/response operation.
package provider

import (
	"context"
	"fmt"
	"strings"
)

// Name selects an adapter in a chat request.
type Name string

const (
	OpenAI    Name = "openai"
	Anthropic Name = "anthropic"
	Gemini    Name = "gemini"
	O1        Name = "o1"
	Workflow  Name = "wordware"
)

// Adapter turns a (message, context) pair into plain text from one provider.
// Callers guarantee userContext is non-empty. Adapters never retry.
type Adapter interface {
	Generate(ctx context.Context, message, userContext string) (string, error)
}

// AdapterFunc lets a plain function serve as an Adapter.
type AdapterFunc func(ctx context.Context, message, userContext string) (string, error)

func (f AdapterFunc) Generate(ctx context.Context, message, userContext string) (string, error) {
	return f(ctx, message, userContext)
}

// Registry maps provider names to adapters.
type Registry map[Name]Adapter

// Lookup finds the adapter for a selector; matching ignores case.
func (r Registry) Lookup(name string) (Adapter, error) {
	adapter, ok := r[Name(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return adapter, nil
}

// Persona wraps an adapter with a fixed context, for endpoints that only
// take a message.
type Persona struct {
	adapter Adapter
	persona string
}

func NewPersona(adapter Adapter, persona string) *Persona {
	return &Persona{adapter: adapter, persona: persona}
}

func (p *Persona) Generate(ctx context.Context, message, _ string) (string, error) {
	return p.adapter.Generate(ctx, message, p.persona)
}
