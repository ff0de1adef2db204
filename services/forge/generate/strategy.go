// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generate

import (
	"fmt"

	"github.com/praxislabs/praxis/services/forge/datatypes"
)

// assemblyStrategy shapes the uncompressed payload for one optimizer
// kind. The five kinds share one generation pipeline; only this step
// differs.
type assemblyStrategy interface {
	kind() datatypes.OptimizerKind
	assemble(ms []*datatypes.Methodology, ps []datatypes.UniversalPrinciple) (any, error)
}

// strategyFor resolves the closed kind set. Adding a kind means adding a
// strategy here; there is deliberately no registration mechanism.
func strategyFor(kind datatypes.OptimizerKind) (assemblyStrategy, error) {
	switch kind {
	case datatypes.KindCoordination:
		return coordinationStrategy{}, nil
	case datatypes.KindExecution:
		return executionStrategy{}, nil
	case datatypes.KindConfiguration:
		return configurationStrategy{}, nil
	case datatypes.KindPolicy:
		return policyStrategy{}, nil
	case datatypes.KindProcessing:
		return processingStrategy{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// principleRefs flattens principles into payload references.
func principleRefs(ps []datatypes.UniversalPrinciple) []map[string]any {
	out := make([]map[string]any, 0, len(ps))
	for _, p := range ps {
		out = append(out, map[string]any{
			"id":       string(p.ID),
			"origin":   string(p.OriginDomain),
			"strength": p.Strength,
		})
	}
	return out
}

// coordinationStrategy orders methodologies into a handoff sequence:
// which procedure runs when, and what each stage passes to the next.
type coordinationStrategy struct{}

func (coordinationStrategy) kind() datatypes.OptimizerKind { return datatypes.KindCoordination }

func (coordinationStrategy) assemble(ms []*datatypes.Methodology, ps []datatypes.UniversalPrinciple) (any, error) {
	sequence := make([]map[string]any, 0, len(ms))
	for i, m := range ms {
		sequence = append(sequence, map[string]any{
			"position":    i + 1,
			"methodology": m.ID,
			"name":        m.Name,
			"hands_off":   lastOutcome(m),
		})
	}
	return map[string]any{
		"sequence":   sequence,
		"principles": principleRefs(ps),
	}, nil
}

// executionStrategy embeds full procedures: the consumer runs the steps.
type executionStrategy struct{}

func (executionStrategy) kind() datatypes.OptimizerKind { return datatypes.KindExecution }

func (executionStrategy) assemble(ms []*datatypes.Methodology, ps []datatypes.UniversalPrinciple) (any, error) {
	procedures := make([]map[string]any, 0, len(ms))
	for _, m := range ms {
		procedures = append(procedures, map[string]any{
			"methodology": m.ID,
			"name":        m.Name,
			"steps":       m.Procedure,
			"quality":     m.QualityCriteria,
		})
	}
	return map[string]any{
		"procedures": procedures,
		"principles": principleRefs(ps),
	}, nil
}

// configurationStrategy turns quality criteria into tuning parameters.
type configurationStrategy struct{}

func (configurationStrategy) kind() datatypes.OptimizerKind { return datatypes.KindConfiguration }

func (configurationStrategy) assemble(ms []*datatypes.Methodology, ps []datatypes.UniversalPrinciple) (any, error) {
	parameters := make([]map[string]any, 0, len(ms))
	for _, m := range ms {
		parameters = append(parameters, map[string]any{
			"methodology": m.ID,
			"name":        m.Name,
			"criteria":    m.QualityCriteria,
			"domains":     m.DomainTags,
		})
	}
	return map[string]any{
		"parameters": parameters,
		"principles": principleRefs(ps),
	}, nil
}

// policyStrategy emits a priority-weight table: principle strengths become
// decision weights, quality criteria become constraints. This is the
// entire runtime semantics of a policy optimizer; there is nothing more
// to it than weighted configuration.
type policyStrategy struct{}

func (policyStrategy) kind() datatypes.OptimizerKind { return datatypes.KindPolicy }

func (policyStrategy) assemble(ms []*datatypes.Methodology, ps []datatypes.UniversalPrinciple) (any, error) {
	weights := make(map[string]float64, len(ps))
	for _, p := range ps {
		weights[string(p.ID)] = p.Strength
	}
	var constraints []string
	for _, m := range ms {
		constraints = append(constraints, m.QualityCriteria...)
	}
	return map[string]any{
		"priority_weights": weights,
		"constraints":      constraints,
		"methodologies":    methodologyIDs(ms),
	}, nil
}

// processingStrategy flattens procedures into pipeline stages for
// stream-style consumers.
type processingStrategy struct{}

func (processingStrategy) kind() datatypes.OptimizerKind { return datatypes.KindProcessing }

func (processingStrategy) assemble(ms []*datatypes.Methodology, ps []datatypes.UniversalPrinciple) (any, error) {
	var stages []map[string]any
	for _, m := range ms {
		for _, s := range m.Procedure {
			stages = append(stages, map[string]any{
				"methodology": m.ID,
				"stage":       s.Ordinal,
				"operation":   s.Instruction,
			})
		}
	}
	return map[string]any{
		"stages":     stages,
		"principles": principleRefs(ps),
	}, nil
}

func methodologyIDs(ms []*datatypes.Methodology) []string {
	ids := make([]string, len(ms))
	for i, m := range ms {
		ids[i] = m.ID
	}
	return ids
}

func lastOutcome(m *datatypes.Methodology) string {
	if len(m.Procedure) == 0 {
		return ""
	}
	return m.Procedure[len(m.Procedure)-1].ExpectedOutcome
}
