// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/praxislabs/praxis/pkg/validation"
	"github.com/praxislabs/praxis/services/forge/datatypes"
	"github.com/praxislabs/praxis/services/forge/discovery"
)

// SubmitCandidate handles POST /v1/candidates. Evaluation runs
// asynchronously; the submission returns as soon as the candidate is
// durable.
func SubmitCandidate(pipeline *discovery.Pipeline, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.SubmitCandidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
		tags := make([]datatypes.DomainTag, len(req.DomainTags))
		for i, t := range req.DomainTags {
			clean, err := validation.SanitizeDomainTag(t)
			if err != nil {
				respondBadRequest(c, err)
				return
			}
			tags[i] = datatypes.DomainTag(clean)
		}

		cand, err := pipeline.Submit(c.Request.Context(), req.RawSource, tags)
		if err != nil {
			respondError(c, err)
			return
		}

		// Evaluation is detached from the request lifetime; its failures
		// are the pipeline's to log and retry.
		go func(id string) {
			if _, err := pipeline.Evaluate(context.Background(), id); err != nil {
				logger.Warn("async candidate evaluation failed", "id", id, "error", err)
			}
		}(cand.ID)

		c.JSON(http.StatusAccepted, datatypes.SubmitCandidateResponse{CandidateID: cand.ID})
	}
}

// GetCandidate handles GET /v1/candidates/:id.
func GetCandidate(pipeline *discovery.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		cand, err := pipeline.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, candidateStatus(cand))
	}
}

// DecideCandidate handles POST /v1/candidates/:id/decision, the external
// approval gate.
func DecideCandidate(pipeline *discovery.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.CandidateDecisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}

		cand, err := pipeline.Decide(c.Request.Context(), c.Param("id"),
			req.Verdict == "approved", req.DecidedBy, req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, candidateStatus(cand))
	}
}

func candidateStatus(cand *datatypes.DiscoveryCandidate) datatypes.CandidateStatusResponse {
	return datatypes.CandidateStatusResponse{
		CandidateID:                 cand.ID,
		State:                       string(cand.State),
		UniquenessScore:             cand.UniquenessScore,
		IntegrationFeasibilityScore: cand.IntegrationFeasibilityScore,
		RejectReason:                cand.RejectReason,
		MethodologyID:               cand.MethodologyID,
	}
}
