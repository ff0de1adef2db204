// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package oracle

import (
	"fmt"
	"strings"
)

const analysisSystemPrompt = `You are a content analysis engine. ` +
	`Respond with a single JSON object of the shape ` +
	`{"summary": string, "tags": [string], "relationships": ` +
	`[{"source_domain": string, "target_domain": string, "principle": string, "confidence": number}]}. ` +
	`No prose outside the JSON object.`

const compressSystemPrompt = `You compress structured payloads. ` +
	`Preserve identifiers and ordering, drop redundancy and filler. ` +
	`Respond with the compressed payload only.`

func buildAnalysisPrompt(content string, kind AnalysisType) (string, error) {
	var b strings.Builder
	switch kind {
	case AnalysisContentIndex:
		b.WriteString("Tag this content. For each distinct concept, emit one tag naming it.\n")
		b.WriteString("Summarize the content in at most two sentences.\n")
	case AnalysisMethodologyExtract:
		b.WriteString("Extract the systematic procedure described in this content as ordered steps.\n")
		b.WriteString("Emit one tag per step instruction, in step order.\n")
		b.WriteString("Report any cross-domain transfer claims you find under relationships.\n")
	case AnalysisSummary:
		b.WriteString("Summarize this content in at most two sentences. Emit the main concepts as tags.\n")
	default:
		return "", fmt.Errorf("%w: analysis type %q", ErrUnsupported, kind)
	}
	b.WriteString("\nContent:\n")
	b.WriteString(content)
	return b.String(), nil
}

func buildCompressPrompt(payload []byte, budget uint) string {
	return fmt.Sprintf("Compress the following payload to at most %d bytes:\n\n%s",
		budget, payload)
}
