// Package analysis turns backend payloads, or their absence, into one
// displayable response per selected agent.
package analysis

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Kind is the recognized shape of a backend payload.
type Kind int

const (
	// KindUnrecognized covers anything that matches no other rule.
	KindUnrecognized Kind = iota
	// KindStructured is a list of per-agent entries.
	KindStructured
	// KindMisconfigured carries a known service-misconfiguration marker.
	KindMisconfigured
)

func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindMisconfigured:
		return "misconfigured"
	default:
		return "unrecognized"
	}
}

// Entry is one per-agent item from a structured payload.
type Entry struct {
	Agent string
	Text  string
}

// Shape is the tagged result of classifying a payload. Entries is set only
// for KindStructured, Marker only for KindMisconfigured.
type Shape struct {
	Kind    Kind
	Entries []Entry
	Marker  string
}

// Field names accepted on structured entries, in lookup order.
var (
	listKeys  = []string{"agent_responses", "responses", "results"}
	agentKeys = []string{"agent_name", "agent", "agent_id", "name"}
	textKeys  = []string{"response", "text", "content", "message"}
)

// misconfigMarkers are matched case-insensitively.
var misconfigMarkers = []string{
	"resource not found",
	"resourcenotfound",
	"deploymentnotfound",
}

// Classify applies the shape rules in fixed precedence: structured list,
// then misconfiguration marker, then unrecognized.
func Classify(payload []byte) Shape {
	trimmed := bytes.TrimSpace(payload)

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil || dec.More() {
		if m := findMarker(string(trimmed)); m != "" {
			return Shape{Kind: KindMisconfigured, Marker: m}
		}
		return Shape{Kind: KindUnrecognized}
	}

	if entries := structuredEntries(doc); len(entries) > 0 {
		return Shape{Kind: KindStructured, Entries: entries}
	}
	if m := errorMarker(doc); m != "" {
		return Shape{Kind: KindMisconfigured, Marker: m}
	}
	return Shape{Kind: KindUnrecognized}
}

func structuredEntries(doc any) []Entry {
	var list []any
	switch v := doc.(type) {
	case []any:
		list = v
	case map[string]any:
		for _, k := range listKeys {
			if l, ok := v[k].([]any); ok {
				list = l
				break
			}
		}
	}

	var entries []Entry
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		agent := firstString(obj, agentKeys)
		text := firstString(obj, textKeys)
		if agent == "" || text == "" {
			continue
		}
		entries = append(entries, Entry{Agent: agent, Text: text})
	}
	return entries
}

// errorMarker inspects the error-ish fields of a decoded payload.
func errorMarker(doc any) string {
	obj, ok := doc.(map[string]any)
	if !ok {
		return ""
	}
	for _, k := range []string{"error", "detail", "message", "code"} {
		if m := markerIn(obj[k], 0); m != "" {
			return m
		}
	}
	return ""
}

func markerIn(v any, depth int) string {
	if depth > 3 {
		return ""
	}
	switch t := v.(type) {
	case string:
		return findMarker(t)
	case map[string]any:
		for _, k := range []string{"code", "message", "type", "innererror", "error"} {
			if m := markerIn(t[k], depth+1); m != "" {
				return m
			}
		}
	}
	return ""
}

func findMarker(s string) string {
	lower := strings.ToLower(s)
	for _, m := range misconfigMarkers {
		if strings.Contains(lower, m) {
			return m
		}
	}
	return ""
}

func firstString(obj map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}
