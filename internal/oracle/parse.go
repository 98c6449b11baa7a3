package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ResultKind tags the outcome of parsing a model answer.
type ResultKind int

const (
	ResultOK ResultKind = iota
	ResultParseError
	ResultSchemaError
)

func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultParseError:
		return "parse_error"
	case ResultSchemaError:
		return "schema_error"
	}
	return "unknown"
}

// Result is the outcome of Parse. Verdict is meaningful only when Kind is ResultOK.
type Result struct {
	Kind    ResultKind
	Verdict Verdict
	Err     error
}

func (r Result) OK() bool { return r.Kind == ResultOK }

var errNoObject = errors.New("no JSON object in response")

const verdictSchemaTemplate = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "same_location", "issue_resolved", "%[1]s", "resolution_confidence",
    "suspicious", "suspicion_reason", "analysis_summary"%[2]s
  ],
  "properties": {
    "same_location": {"type": "boolean"},
    "issue_resolved": {"type": "boolean"},
    "fake_detected": {"type": "boolean"},
    "suspicious": {"type": "boolean"},
    "%[1]s": {"type": "number", "minimum": 0, "maximum": 100},
    "resolution_confidence": {"type": "number", "minimum": 0, "maximum": 100},
    "suspicion_reason": {"type": ["string", "null"]},
    "analysis_summary": {"type": ["string", "null"]}
  }
}`

var (
	schemaOnce sync.Once
	schemas    map[Mode]*jsonschema.Schema
	schemaErr  error
)

func compileSchemas() {
	schemas = make(map[Mode]*jsonschema.Schema, 2)
	defs := map[Mode]string{
		ModeStandard: fmt.Sprintf(verdictSchemaTemplate, "visual_similarity_score", ""),
		ModeStrict:   fmt.Sprintf(verdictSchemaTemplate, "visual_consistency_score", `, "fake_detected"`),
	}
	for mode, def := range defs {
		url := "verdict-" + string(mode) + ".json"
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(url, strings.NewReader(def)); err != nil {
			schemaErr = fmt.Errorf("add %s schema: %w", mode, err)
			return
		}
		s, err := compiler.Compile(url)
		if err != nil {
			schemaErr = fmt.Errorf("compile %s schema: %w", mode, err)
			return
		}
		schemas[mode] = s
	}
}

func schemaFor(mode Mode) (*jsonschema.Schema, error) {
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return nil, schemaErr
	}
	if mode != ModeStrict {
		mode = ModeStandard
	}
	return schemas[mode], nil
}

// StripFences removes markdown code fences and trims surrounding whitespace.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// extractObject returns the text between the first '{' and the last '}'.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// Parse turns a raw model answer into a validated Verdict.
func Parse(mode Mode, raw string) Result {
	body, ok := extractObject(StripFences(raw))
	if !ok {
		return Result{Kind: ResultParseError, Err: errNoObject}
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return Result{Kind: ResultParseError, Err: fmt.Errorf("decode verdict: %w", err)}
	}

	schema, err := schemaFor(mode)
	if err != nil {
		return Result{Kind: ResultSchemaError, Err: err}
	}
	if err := schema.Validate(doc); err != nil {
		return Result{Kind: ResultSchemaError, Err: err}
	}

	var w wireVerdict
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return Result{Kind: ResultParseError, Err: fmt.Errorf("decode verdict: %w", err)}
	}
	v := Verdict{
		SameLocation:         w.SameLocation,
		IssueResolved:        w.IssueResolved,
		SimilarityScore:      score(w.VisualSimilarity),
		ResolutionConfidence: score(w.ResolutionConfidence),
		Suspicious:           w.Suspicious,
		SuspicionReason:      strings.TrimSpace(w.SuspicionReason),
		AnalysisSummary:      strings.TrimSpace(w.AnalysisSummary),
	}
	if mode == ModeStrict {
		v.SimilarityScore = score(w.VisualConsistency)
		v.FakeDetected = w.FakeDetected
	}
	return Result{Kind: ResultOK, Verdict: v}
}

// score rounds a 0-100 model score to the nearest integer.
func score(v float64) int {
	return int(math.Round(v))
}

// wireVerdict mirrors the model's JSON. Text fields may be null, which decodes
// to the empty string.
type wireVerdict struct {
	SameLocation         bool    `json:"same_location"`
	IssueResolved        bool    `json:"issue_resolved"`
	FakeDetected         bool    `json:"fake_detected"`
	VisualSimilarity     float64 `json:"visual_similarity_score"`
	VisualConsistency    float64 `json:"visual_consistency_score"`
	ResolutionConfidence float64 `json:"resolution_confidence"`
	Suspicious           bool    `json:"suspicious"`
	SuspicionReason      string  `json:"suspicion_reason"`
	AnalysisSummary      string  `json:"analysis_summary"`
}
