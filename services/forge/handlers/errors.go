// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the coordination interface's HTTP endpoints.
// Every handler is a constructor taking its dependencies and returning a
// gin.HandlerFunc.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/praxislabs/praxis/services/forge/blobstore"
	"github.com/praxislabs/praxis/services/forge/checkpoint"
	"github.com/praxislabs/praxis/services/forge/convert"
	"github.com/praxislabs/praxis/services/forge/datatypes"
	"github.com/praxislabs/praxis/services/forge/discovery"
	"github.com/praxislabs/praxis/services/forge/generate"
	"github.com/praxislabs/praxis/services/forge/oracle"
	"github.com/praxislabs/praxis/services/forge/store"
	"github.com/praxislabs/praxis/services/forge/tasks"
)

// respondError maps domain errors onto the HTTP error taxonomy:
// validation 422, conflict 409, not found 404, oracle 502 (after retry
// exhaustion), everything else 500.
func respondError(c *gin.Context, err error) {
	status, category := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, store.ErrInvalidMethodology),
		errors.Is(err, generate.ErrUnknownKind),
		errors.Is(err, generate.ErrInsufficientMethodology),
		errors.Is(err, generate.ErrUnvalidatedPrinciple),
		errors.Is(err, convert.ErrUnanalyzableContent),
		errors.Is(err, checkpoint.ErrBadTaskID):
		status, category = http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, store.ErrDuplicateVersion),
		errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, discovery.ErrAlreadyDecided),
		errors.Is(err, discovery.ErrNotEvaluated):
		status, category = http.StatusConflict, "conflict"
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, convert.ErrUnitNotFound),
		errors.Is(err, blobstore.ErrRefNotFound),
		errors.Is(err, discovery.ErrCandidateNotFound),
		errors.Is(err, tasks.ErrTaskNotFound):
		status, category = http.StatusNotFound, "not_found"
	case errors.Is(err, oracle.ErrTimeout),
		errors.Is(err, oracle.ErrUnsupported),
		errors.Is(err, discovery.ErrEvaluationTimeout):
		status, category = http.StatusBadGateway, "oracle"
	}
	c.JSON(status, datatypes.ErrorResponse{Category: category, Reason: err.Error()})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, datatypes.ErrorResponse{
		Category: "validation",
		Reason:   err.Error(),
	})
}
