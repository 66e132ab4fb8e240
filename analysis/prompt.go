package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/stancewatch/core"
)

// PromptVersion tags every statement with the instruction template that
// produced it. Currently a single version exists.
const PromptVersion = "stance_v1"

const stanceResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "claim_summary": {
      "type": "string",
      "minLength": 3
    },
    "stance_label": {
      "type": "string",
      "enum": ["for", "imod", "uklar"]
    },
    "stance_score": {
      "type": "number",
      "minimum": -1,
      "maximum": 1
    },
    "confidence": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    },
    "evidence_quote": {
      "type": "string",
      "maxLength": 240
    }
  },
  "required": ["claim_summary", "stance_label", "stance_score", "confidence", "evidence_quote"],
  "additionalProperties": false
}`

const stancePromptV1 = `You analyze Danish political statements. Given a politician, a topic, a query, and ranked evidence snippets, extract the politician's stance on the topic and return it as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- claim_summary is one or two sentences restating what the politician claims about the topic.
- stance_label is "for" when the politician supports the topic position, "imod" when they oppose it, "uklar" when the evidence does not settle it.
- stance_score runs from -1 (strongly against) to 1 (strongly for); 0 means neutral or undetermined.
- confidence reflects how well the evidence supports the extraction, from 0 to 1.
- evidence_quote is a verbatim excerpt copied from one of the evidence snippets, at most 240 characters. Never invent a quote.
- Base the extraction only on the evidence provided in the context. Do not use outside knowledge.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

var promptTemplates = map[string]string{
	PromptVersion: fmt.Sprintf(stancePromptV1, stanceResponseSchema),
}

// promptContext is the canonical serialization order of the prompt context.
// A struct, not a map: field order must be stable so identical inputs yield
// byte-identical prompts.
type promptContext struct {
	Politician promptPolitician `json:"politician"`
	Topic      promptTopic      `json:"topic"`
	Query      string           `json:"query"`
	Evidence   []Evidence       `json:"evidence"`
}

type promptPolitician struct {
	Id   core.ID `json:"id"`
	Name string  `json:"name"`
}

type promptTopic struct {
	Id   core.ID `json:"id"`
	Name string  `json:"name"`
	Slug string  `json:"slug"`
}

// BuildPrompt assembles the generation prompt for a template version:
// the fixed instruction template followed by a deterministic two-space
// indented JSON rendering of the retrieval context.
func BuildPrompt(version string, politician *core.Politician, topic *core.Topic, query string, evidence []Evidence) (string, error) {
	template, ok := promptTemplates[version]
	if !ok {
		return "", fmt.Errorf("unknown prompt version %q", version)
	}

	if evidence == nil {
		evidence = []Evidence{}
	}

	contextJSON, err := json.MarshalIndent(promptContext{
		Politician: promptPolitician{Id: politician.Id, Name: politician.Name},
		Topic:      promptTopic{Id: topic.Id, Name: topic.Name, Slug: topic.Slug},
		Query:      query,
		Evidence:   evidence,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	return template + "\n\nKontekst:\n" + string(contextJSON), nil
}
