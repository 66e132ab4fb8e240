// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"unicode/utf8"
)

const (
	// MinClaimSummaryLen is the minimum length of a claim summary.
	MinClaimSummaryLen = 3

	// MaxEvidenceQuoteLen bounds the evidence quote a model may return.
	MaxEvidenceQuoteLen = 240
)

// ValidateStatementOutput validates a parsed model output against the closed
// output schema.
//
// Validation rules:
//   - ClaimSummary at least MinClaimSummaryLen characters
//   - StanceLabel one of the fixed label set
//   - StanceScore in [-1, 1]
//   - Confidence in [0, 1]
//   - EvidenceQuote at most MaxEvidenceQuoteLen characters
//
// Returns a *SchemaError listing every violation, or nil when the output is
// valid.
func ValidateStatementOutput(output *StatementOutput) error {
	if output == nil {
		return &SchemaError{Violations: []string{"output is nil"}}
	}

	var violations []string

	if utf8.RuneCountInString(output.ClaimSummary) < MinClaimSummaryLen {
		violations = append(violations, fmt.Sprintf("claim_summary shorter than %d characters", MinClaimSummaryLen))
	}
	if !IsValidStanceLabel(output.StanceLabel) {
		violations = append(violations, fmt.Sprintf("stance_label %q not in label set", output.StanceLabel))
	}
	if output.StanceScore < -1 || output.StanceScore > 1 {
		violations = append(violations, fmt.Sprintf("stance_score %v outside [-1, 1]", output.StanceScore))
	}
	if output.Confidence < 0 || output.Confidence > 1 {
		violations = append(violations, fmt.Sprintf("confidence %v outside [0, 1]", output.Confidence))
	}
	if utf8.RuneCountInString(output.EvidenceQuote) > MaxEvidenceQuoteLen {
		violations = append(violations, fmt.Sprintf("evidence_quote longer than %d characters", MaxEvidenceQuoteLen))
	}

	if len(violations) > 0 {
		return &SchemaError{Violations: violations}
	}
	return nil
}
