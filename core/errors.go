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
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy for the ingest and analyze pipelines. Every failure is
// surfaced to the immediate caller as a typed value; none are retried or
// swallowed inside the pipelines. Each failure is scoped to the single
// invocation that produced it.
var (
	// ErrPolicyViolation indicates the source domain disallows ingestion.
	ErrPolicyViolation = errors.New("domain policy disallows ingest")

	// ErrEmptyContent indicates normalization and chunking produced zero chunks.
	ErrEmptyContent = errors.New("content produced no chunks")

	// ErrUpstreamTimeout indicates an external call exceeded its time budget.
	ErrUpstreamTimeout = errors.New("upstream request timed out")

	// ErrTransport indicates a non-success response from an external service.
	ErrTransport = errors.New("upstream request failed")

	// ErrEmbeddingShape indicates an embedding response carried no vectors in
	// either of the accepted shapes.
	ErrEmbeddingShape = errors.New("embedding response missing vectors")

	// ErrEvidenceNotFound indicates no retrieved evidence item could be
	// attributed to the generated evidence quote.
	ErrEvidenceNotFound = errors.New("no evidence found")

	// ErrMissingEntity indicates a politician, topic, or source referenced by
	// id or URL does not exist at the point it is needed.
	ErrMissingEntity = errors.New("referenced entity not found")
)

// ParseError reports generative output that failed to parse as a well-formed
// structured value. The raw offending text is preserved for audit logging and
// operator diagnosis; it is never silently discarded.
type ParseError struct {
	// Raw is the verbatim model response that failed to parse.
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("model response is not valid JSON (%d bytes)", len(e.Raw))
}

// SchemaError reports generative output that parsed but failed the output
// schema. Violations lists every failed rule, not only the first.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "model output failed schema validation: " + strings.Join(e.Violations, "; ")
}
