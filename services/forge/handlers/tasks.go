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
	"github.com/gorilla/websocket"

	"github.com/praxislabs/praxis/services/forge/datatypes"
	"github.com/praxislabs/praxis/services/forge/tasks"
)

// GetTask handles GET /v1/tasks/:id.
func GetTask(registry *tasks.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := registry.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, taskStatus(st))
	}
}

var taskUpgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

// TaskWebSocket handles GET /v1/tasks/:id/ws: a one-way stream of task
// status updates, closed after the terminal update or when the client
// disconnects.
func TaskWebSocket(registry *tasks.Registry, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID := c.Param("id")
		conn, err := taskUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("task websocket upgrade failed", "task", taskID, "error", err)
			return
		}
		defer conn.Close()

		updates, stop := registry.Subscribe(taskID)
		defer stop()

		// Reader goroutine: we never expect client messages, but reading
		// is how gorilla surfaces the close frame.
		clientGone := make(chan struct{})
		go func() {
			defer close(clientGone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case st := <-updates:
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(taskStatus(&st)); err != nil {
					logger.Debug("task websocket write failed", "task", taskID, "error", err)
					return
				}
				if st.Done {
					conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "task finished"))
					return
				}
			case <-clientGone:
				return
			case <-c.Request.Context().Done():
				return
			}
		}
	}
}

func taskStatus(st *tasks.Status) datatypes.TaskStatusResponse {
	return datatypes.TaskStatusResponse{
		TaskID:        st.TaskID,
		Stage:         st.Stage,
		Done:          st.Done,
		ArtifactIDs:   st.ArtifactIDs,
		FailureReason: st.FailureReason,
	}
}
