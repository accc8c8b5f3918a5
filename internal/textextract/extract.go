// Package textextract recovers JSON values from free text produced by an LLM.
//
// Replies wrap JSON in prose and code fences inconsistently, so extraction is an
// ordered strategy chain: every candidate block (each fenced block in source
// order, then the whole text) is tried against the strategies below and the
// first success wins.
package textextract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	reFence    = regexp.MustCompile("```[A-Za-z0-9_-]*[ \t]*\\r?\\n?([\\s\\S]*?)```")
	reArray    = regexp.MustCompile(`(?s)\[\s*{.*?}\s*\]`)
	reFragment = regexp.MustCompile(`\{[^{}]*\}`)
)

// ExtractionError reports that no structured content could be recovered.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "extraction failed: " + e.Reason
}

// IsExtractionError reports whether err (or anything it wraps) is an ExtractionError.
func IsExtractionError(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// Strategy names reported in Result.
const (
	StrategyWholeBlock      = "whole_block"
	StrategyArrayPattern    = "array_pattern"
	StrategyObjectFragments = "object_fragments"
)

// Result describes a successful extraction.
type Result struct {
	Value    any    // []any or map[string]any
	Strategy string // which strategy matched
	Block    int    // index of the candidate block; the whole text is the last index
	Fenced   bool   // true when the block came from a fenced code block
}

type strategy struct {
	name string
	run  func(block string) (any, bool)
}

var chain = []strategy{
	{StrategyWholeBlock, parseWholeBlock},
	{StrategyArrayPattern, parseArrayPattern},
	{StrategyObjectFragments, parseObjectFragments},
}

// Extract returns the first JSON array or object recoverable from text.
func Extract(text string) (any, error) {
	res, err := ExtractDetailed(text)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// ExtractDetailed is Extract plus the strategy and block that produced the value.
func ExtractDetailed(text string) (Result, error) {
	blocks := candidateBlocks(text)
	for i, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		for _, s := range chain {
			if v, ok := s.run(block); ok {
				return Result{Value: v, Strategy: s.name, Block: i, Fenced: i < len(blocks)-1}, nil
			}
		}
	}
	return Result{}, &ExtractionError{Reason: "no structured content found"}
}

// ExtractArray extracts a list of objects. An object carrying an "items" array is
// unwrapped; non-object array elements are dropped.
func ExtractArray(text string) ([]map[string]any, error) {
	v, err := Extract(text)
	if err != nil {
		return nil, err
	}
	if obj, ok := v.(map[string]any); ok {
		inner, has := obj["items"]
		if !has {
			return nil, &ExtractionError{Reason: "object without an items list"}
		}
		v = inner
	}
	list, ok := v.([]any)
	if !ok {
		return nil, &ExtractionError{Reason: fmt.Sprintf("expected a list, got %T", v)}
	}
	out := make([]map[string]any, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// candidateBlocks returns fenced block contents in source order followed by the full text.
func candidateBlocks(text string) []string {
	matches := reFence.FindAllStringSubmatch(text, -1)
	blocks := make([]string, 0, len(matches)+1)
	for _, m := range matches {
		blocks = append(blocks, m[1])
	}
	return append(blocks, text)
}

func parseWholeBlock(block string) (any, bool) {
	v, ok := parseValue(block)
	if !ok {
		return nil, false
	}
	switch v.(type) {
	case []any, map[string]any:
		return v, true
	}
	return nil, false
}

func parseArrayPattern(block string) (any, bool) {
	m := reArray.FindString(block)
	if m == "" {
		return nil, false
	}
	v, ok := parseValue(m)
	if !ok {
		return nil, false
	}
	if list, isList := v.([]any); isList {
		return list, true
	}
	return nil, false
}

func parseObjectFragments(block string) (any, bool) {
	var out []any
	for _, frag := range reFragment.FindAllString(block, -1) {
		v, ok := parseValue(frag)
		if !ok {
			continue
		}
		if obj, isObj := v.(map[string]any); isObj {
			out = append(out, obj)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// parseValue tries a strict JSON decode, then a lenient literal decode.
func parseValue(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v, true
	}
	normalized, ok := normalizeLiteral(s)
	if !ok {
		return nil, false
	}
	if err := json.Unmarshal([]byte(normalized), &v); err == nil {
		return v, true
	}
	return nil, false
}
