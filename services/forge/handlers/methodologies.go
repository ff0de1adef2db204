// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/praxislabs/praxis/services/forge/datatypes"
	"github.com/praxislabs/praxis/services/forge/store"
)

// GetMethodology handles GET /v1/methodologies/:id.
func GetMethodology(meths *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := meths.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

// ListMethodologies handles GET /v1/methodologies?domain=<tag>. Pagination
// uses the store iterator's resume token via the cursor query parameter.
func ListMethodologies(meths *store.Store) gin.HandlerFunc {
	const pageSize = 50
	return func(c *gin.Context) {
		domain := c.Query("domain")
		if domain == "" {
			respondBadRequest(c, fmt.Errorf("domain query parameter is required"))
			return
		}

		var it *store.Iterator
		if cursor := c.Query("cursor"); cursor != "" {
			token, err := base64.URLEncoding.DecodeString(cursor)
			if err != nil {
				respondBadRequest(c, fmt.Errorf("malformed cursor"))
				return
			}
			it = meths.ResumeListByDomain(datatypes.DomainTag(domain), token)
		} else {
			it = meths.ListByDomain(datatypes.DomainTag(domain))
		}

		ctx := c.Request.Context()
		page := make([]*datatypes.Methodology, 0, pageSize)
		for len(page) < pageSize {
			m, err := it.Next(ctx)
			if err != nil {
				respondError(c, err)
				return
			}
			if m == nil {
				break
			}
			page = append(page, m)
		}

		resp := gin.H{"methodologies": page}
		if len(page) == pageSize {
			resp["cursor"] = base64.URLEncoding.EncodeToString(it.ResumeToken())
		}
		c.JSON(http.StatusOK, resp)
	}
}

// DeprecateMethodology handles POST /v1/methodologies/:id/deprecate.
func DeprecateMethodology(meths *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := meths.Deprecate(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "status": string(datatypes.StatusDeprecated)})
	}
}
