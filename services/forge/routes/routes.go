// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes wires the forge's HTTP surface onto a gin router.
package routes

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/praxislabs/praxis/services/forge/ecosystem"
	"github.com/praxislabs/praxis/services/forge/handlers"
	"github.com/praxislabs/praxis/services/forge/middleware"
	"github.com/praxislabs/praxis/services/forge/observability"
)

// SetupRoutes mounts every forge endpoint on the router.
func SetupRoutes(router *gin.Engine, eco *ecosystem.Ecosystem) {
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(eco.Logger))
	router.Use(otelgin.Middleware(observability.ServiceName))

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/optimizers", handlers.GenerateOptimizer(eco.Generator, eco.Logger))
		v1.POST("/storage/blobs", handlers.UploadBlob(eco.Blobs))
		v1.POST("/storage/convert", handlers.ConvertStorage(eco.Converter))
		v1.GET("/principles", handlers.QueryPrinciples(eco.Graph))

		candidates := v1.Group("/candidates")
		{
			candidates.POST("", handlers.SubmitCandidate(eco.Pipeline, eco.Logger))
			candidates.GET("/:id", handlers.GetCandidate(eco.Pipeline))
			candidates.POST("/:id/decision", handlers.DecideCandidate(eco.Pipeline))
		}

		methodologies := v1.Group("/methodologies")
		{
			methodologies.GET("", handlers.ListMethodologies(eco.Store))
			methodologies.GET("/:id", handlers.GetMethodology(eco.Store))
			methodologies.POST("/:id/deprecate", handlers.DeprecateMethodology(eco.Store))
		}

		tasks := v1.Group("/tasks")
		{
			tasks.GET("/:id", handlers.GetTask(eco.Tasks))
			tasks.GET("/:id/ws", handlers.TaskWebSocket(eco.Tasks, eco.Logger))
		}
	}
}
