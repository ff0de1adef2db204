// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/praxislabs/praxis/pkg/validation"
	"github.com/praxislabs/praxis/services/forge/blobstore"
	"github.com/praxislabs/praxis/services/forge/convert"
	"github.com/praxislabs/praxis/services/forge/datatypes"
)

// maxBlobSize caps uploads at 8 MiB. Larger corpora arrive through the
// discovery drop directory instead.
const maxBlobSize = 8 << 20

// UploadBlob handles POST /v1/storage/blobs. The raw request body is
// written to generic storage and the resulting ref returned.
func UploadBlob(blobs blobstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBlobSize+1))
		if err != nil {
			respondBadRequest(c, fmt.Errorf("read body: %w", err))
			return
		}
		if len(data) == 0 {
			respondBadRequest(c, fmt.Errorf("empty body"))
			return
		}
		if len(data) > maxBlobSize {
			respondBadRequest(c, fmt.Errorf("blob exceeds %d byte limit", maxBlobSize))
			return
		}
		ref, err := blobs.Write(c.Request.Context(), data)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ref": ref})
	}
}

// ConvertStorage handles POST /v1/storage/convert for both directions.
func ConvertStorage(conv *convert.Converter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ConvertRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}

		ctx := c.Request.Context()
		switch req.Direction {
		case "to_intelligent":
			if req.GenericRef == "" {
				respondBadRequest(c, fmt.Errorf("to_intelligent needs generic_ref"))
				return
			}
			if err := validation.ValidateRef(req.GenericRef); err != nil {
				respondBadRequest(c, err)
				return
			}
			unit, err := conv.ToIntelligent(ctx, req.GenericRef, req.Requirements)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, datatypes.ConvertResponse{
				Ref:               unit.SourceGenericRef,
				UnitID:            unit.ID,
				RelationshipIndex: unit.RelationshipIndex,
				SemanticSummary:   unit.SemanticSummary,
			})

		case "to_generic":
			if req.UnitID == "" {
				respondBadRequest(c, fmt.Errorf("to_generic needs unit_id"))
				return
			}
			unit, err := conv.GetUnit(ctx, req.UnitID)
			if err != nil {
				respondError(c, err)
				return
			}
			ref, err := conv.ToGeneric(ctx, unit)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, datatypes.ConvertResponse{Ref: ref, UnitID: unit.ID})

		default:
			respondBadRequest(c, fmt.Errorf("unknown direction %q", req.Direction))
		}
	}
}
