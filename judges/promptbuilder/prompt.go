/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promptbuilder provides template prompts with named {{placeholder}}
// bindings. Templates are declared as literals near the code that owns them;
// binding returns a new prompt, and Build fails if any placeholder is left
// unbound, so a half-assembled prompt can never reach a model.
package promptbuilder

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"unicode"
)

// stringLiteral only accepts literal strings at call sites, keeping
// developer-authored template text apart from runtime data.
type stringLiteral string

// Prompt is a template with bindable placeholders. Prompts are immutable;
// every Bind* call returns a new Prompt.
type Prompt struct {
	template string
	bindings map[string]binding
}

type binding interface {
	value() (string, error)
}

type unbound struct{ name string }

func (u unbound) value() (string, error) {
	return "", fmt.Errorf("binding %q is unbound", u.name)
}

type textBinding struct{ val string }

func (t textBinding) value() (string, error) { return t.val, nil }

type jsonBinding struct{ data any }

func (j jsonBinding) value() (string, error) {
	out, err := json.MarshalIndent(j.data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON binding: %w", err)
	}
	return string(out), nil
}

// NewPrompt parses a template literal and registers its placeholders.
func NewPrompt(template stringLiteral) (*Prompt, error) {
	bindings := make(map[string]binding)
	if _, err := walk(string(template), func(name string) (string, error) {
		if _, ok := bindings[name]; !ok {
			bindings[name] = unbound{name: name}
		}
		return "{{" + name + "}}", nil
	}); err != nil {
		return nil, err
	}
	return &Prompt{template: string(template), bindings: bindings}, nil
}

// ParsePrompt parses a runtime template, such as an operator-supplied meta
// prompt loaded from a project.
func ParsePrompt(template string) (*Prompt, error) {
	return NewPrompt(stringLiteral(template))
}

// MustNewPrompt is NewPrompt for package-level template variables.
func MustNewPrompt(template stringLiteral) *Prompt {
	p, err := NewPrompt(template)
	if err != nil {
		panic(err)
	}
	return p
}

// Binds reports whether the template declares the named placeholder.
func (p *Prompt) Binds(name string) bool {
	_, ok := p.bindings[name]
	return ok
}

// BindText binds a runtime string value to a placeholder.
func (p *Prompt) BindText(name, value string) (*Prompt, error) {
	return p.bind(name, textBinding{val: value})
}

// BindJSON binds structured data to a placeholder by marshaling it as JSON.
func (p *Prompt) BindJSON(name string, data any) (*Prompt, error) {
	return p.bind(name, jsonBinding{data: data})
}

func (p *Prompt) bind(name string, b binding) (*Prompt, error) {
	existing, ok := p.bindings[name]
	if !ok {
		return nil, fmt.Errorf("no placeholder %q in template", name)
	}
	if _, isUnbound := existing.(unbound); !isUnbound {
		return nil, fmt.Errorf("placeholder %q is already bound", name)
	}
	next := &Prompt{template: p.template, bindings: maps.Clone(p.bindings)}
	next.bindings[name] = b
	return next, nil
}

// Build constructs the final prompt text, failing if any placeholder is
// still unbound.
func (p *Prompt) Build() (string, error) {
	return walk(p.template, func(name string) (string, error) {
		return p.bindings[name].value()
	})
}

// walk tokenizes the template, calling resolve for each {{name}} placeholder.
func walk(template string, resolve func(name string) (string, error)) (string, error) {
	var out strings.Builder
	for len(template) > 0 {
		start := strings.Index(template, "{{")
		if start == -1 {
			out.WriteString(template)
			break
		}
		out.WriteString(template[:start])

		end := strings.Index(template[start:], "}}")
		if end == -1 {
			return "", errors.New("unclosed placeholder: missing '}}'")
		}
		end += start + 2

		name := strings.TrimSpace(template[start+2 : end-2])
		if !validIdentifier(name) {
			return "", fmt.Errorf("invalid placeholder identifier %q", name)
		}

		replacement, err := resolve(name)
		if err != nil {
			return "", err
		}
		out.WriteString(replacement)

		template = template[end:]
	}
	return out.String(), nil
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
