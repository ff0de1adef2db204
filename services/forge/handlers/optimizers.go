// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/praxislabs/praxis/pkg/validation"
	"github.com/praxislabs/praxis/services/forge/datatypes"
	"github.com/praxislabs/praxis/services/forge/generate"
)

// GenerateOptimizer handles POST /v1/optimizers.
func GenerateOptimizer(gen *generate.Generator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.GenerateOptimizerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
		kind, err := datatypes.ParseKind(req.Kind)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		if err := validation.ValidateConsumer(req.TargetConsumer); err != nil {
			respondBadRequest(c, err)
			return
		}

		tags := make([]datatypes.DomainTag, len(req.RequirementTags))
		for i, t := range req.RequirementTags {
			clean, err := validation.SanitizeDomainTag(t)
			if err != nil {
				respondBadRequest(c, err)
				return
			}
			tags[i] = datatypes.DomainTag(clean)
		}

		start := time.Now()
		opt, err := gen.Generate(c.Request.Context(), datatypes.OptimizerRequest{
			Kind:            kind,
			TargetConsumer:  req.TargetConsumer,
			RequirementTags: tags,
			MaxPayloadSize:  req.MaxPayloadSize,
		})
		if err != nil {
			logger.Warn("optimizer generation failed",
				"kind", req.Kind, "consumer", req.TargetConsumer, "error", err)
			respondError(c, err)
			return
		}

		principles := make([]string, len(opt.EmbeddedPrinciples))
		for i, p := range opt.EmbeddedPrinciples {
			principles[i] = string(p)
		}
		c.JSON(http.StatusOK, datatypes.OptimizerResponse{
			OptimizerID:            opt.ID,
			Kind:                   string(opt.Kind),
			EmbeddedMethodologyIDs: opt.EmbeddedMethodologies,
			EmbeddedPrincipleIDs:   principles,
			Payload:                opt.CompressedPayload,
			Validation:             opt.Validation,
			CacheHit:               opt.CreatedAt.Before(start),
		})
	}
}
