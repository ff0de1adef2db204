// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/praxislabs/praxis/services/forge/datatypes"
	"github.com/praxislabs/praxis/services/forge/graph"
)

// QueryPrinciples handles GET /v1/principles. With source and target set
// it answers the transfer question "what carries over from source to
// target"; with neither it lists all derived principles.
func QueryPrinciples(eng *graph.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		source := c.Query("source")
		target := c.Query("target")
		ctx := c.Request.Context()

		var (
			ps  []datatypes.UniversalPrinciple
			err error
		)
		switch {
		case source != "" && target != "":
			ps, err = eng.QueryTransfer(ctx, datatypes.DomainTag(source), datatypes.DomainTag(target))
		case source == "" && target == "":
			ps, err = eng.ComputePrinciples(ctx)
		default:
			respondBadRequest(c, fmt.Errorf("source and target must be given together"))
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"principles": ps})
	}
}
