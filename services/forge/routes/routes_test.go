// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislabs/praxis/services/forge/config"
	"github.com/praxislabs/praxis/services/forge/datatypes"
	"github.com/praxislabs/praxis/services/forge/ecosystem"
)

func newTestServer(t *testing.T) (*gin.Engine, *ecosystem.Ecosystem) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Storage.InMemory = true
	cfg.Blob.Backend = "memory"
	cfg.Oracle.Backend = "stub"
	cfg.Discovery.DropDir = ""

	eco, err := ecosystem.Build(context.Background(), &cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eco.Close() })

	router := gin.New()
	SetupRoutes(router, eco)
	return router, eco
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedApproved(t *testing.T, eco *ecosystem.Ecosystem, name string, tags ...datatypes.DomainTag) string {
	t.Helper()
	m := &datatypes.Methodology{
		Name:       name,
		DomainTags: tags,
		Procedure: []datatypes.Step{
			{Ordinal: 1, Instruction: "establish a measurable baseline for " + name},
			{Ordinal: 2, Instruction: "apply " + name + " and re-measure"},
		},
		Status: datatypes.StatusApproved,
	}
	id, err := eco.Store.Put(context.Background(), m)
	require.NoError(t, err)
	return id
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "praxis_")
}

func TestGenerateOptimizerEndpoint(t *testing.T) {
	router, eco := newTestServer(t)
	ctx := context.Background()

	methID := seedApproved(t, eco, "incremental-refactoring", "code-quality")
	_, err := eco.Graph.AddEdge(ctx, "biology", "code-quality", "redundancy-improves-resilience", 0.8, 0.8)
	require.NoError(t, err)

	body := datatypes.GenerateOptimizerRequest{
		Kind:            "execution",
		TargetConsumer:  "consumer-A",
		RequirementTags: []string{"code-quality"},
		MaxPayloadSize:  4096,
	}
	w := doJSON(t, router, http.MethodPost, "/v1/optimizers", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp datatypes.OptimizerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{methID}, resp.EmbeddedMethodologyIDs)
	assert.Equal(t, []string{"redundancy-improves-resilience"}, resp.EmbeddedPrincipleIDs)
	assert.True(t, resp.Validation.OK)
	assert.False(t, resp.CacheHit)

	// Identical request is served from cache.
	w = doJSON(t, router, http.MethodPost, "/v1/optimizers", body)
	require.Equal(t, http.StatusOK, w.Code)
	var cached datatypes.OptimizerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cached))
	assert.Equal(t, resp.OptimizerID, cached.OptimizerID)
	assert.True(t, cached.CacheHit)
}

func TestGenerateOptimizerErrors(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/v1/optimizers", datatypes.GenerateOptimizerRequest{
		Kind:            "telepathy",
		TargetConsumer:  "consumer-A",
		RequirementTags: []string{"code-quality"},
		MaxPayloadSize:  4096,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/optimizers", datatypes.GenerateOptimizerRequest{
		Kind:            "execution",
		TargetConsumer:  "consumer-A",
		RequirementTags: []string{"no-such-domain"},
		MaxPayloadSize:  4096,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var er datatypes.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
	assert.Equal(t, "validation", er.Category)
}

func TestCandidateLifecycleEndpoints(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/v1/candidates", datatypes.SubmitCandidateRequest{
		RawSource:  "1. Map the value stream\n2. Remove the largest queue\n3. Re-measure lead time",
		DomainTags: []string{"process-improvement"},
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	var sub datatypes.SubmitCandidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	require.NotEmpty(t, sub.CandidateID)

	// Evaluation is asynchronous; poll until it lands.
	var status datatypes.CandidateStatusResponse
	require.Eventually(t, func() bool {
		w := doJSON(t, router, http.MethodGet, "/v1/candidates/"+sub.CandidateID, nil)
		if w.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
			return false
		}
		return status.State == string(datatypes.CandidateEvaluated)
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 1.0, status.UniquenessScore)

	w = doJSON(t, router, http.MethodPost, "/v1/candidates/"+sub.CandidateID+"/decision",
		datatypes.CandidateDecisionRequest{Verdict: "approved", DecidedBy: "review-board"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, string(datatypes.CandidateApproved), status.State)
	require.NotEmpty(t, status.MethodologyID)

	// The minted methodology is served by the store endpoint.
	w = doJSON(t, router, http.MethodGet, "/v1/methodologies/"+status.MethodologyID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Deciding again conflicts.
	w = doJSON(t, router, http.MethodPost, "/v1/candidates/"+sub.CandidateID+"/decision",
		datatypes.CandidateDecisionRequest{Verdict: "rejected", DecidedBy: "review-board"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCandidateNotFound(t *testing.T) {
	router, _ := newTestServer(t)
	w := doJSON(t, router, http.MethodGet, "/v1/candidates/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var er datatypes.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
	assert.Equal(t, "not_found", er.Category)
}

func TestMethodologyEndpoints(t *testing.T) {
	router, eco := newTestServer(t)

	id := seedApproved(t, eco, "baseline-verification", "code-quality")
	seedApproved(t, eco, "characterization-tests", "code-quality")

	w := doJSON(t, router, http.MethodGet, "/v1/methodologies?domain=code-quality", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Methodologies []datatypes.Methodology `json:"methodologies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Methodologies, 2)

	w = doJSON(t, router, http.MethodGet, "/v1/methodologies", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "domain parameter is required")

	w = doJSON(t, router, http.MethodPost, "/v1/methodologies/"+id+"/deprecate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/methodologies/"+id+"/deprecate", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "deprecated records cannot transition again")
}

func TestStorageConvertEndpoint(t *testing.T) {
	router, _ := newTestServer(t)

	upload := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/storage/blobs",
		bytes.NewReader([]byte("Redundancy in biological systems improves resilience. Parallel pathways keep organisms alive.")))
	req.Header.Set("Content-Type", "application/octet-stream")
	router.ServeHTTP(upload, req)
	require.Equal(t, http.StatusCreated, upload.Code)
	var uploaded struct {
		Ref string `json:"ref"`
	}
	require.NoError(t, json.Unmarshal(upload.Body.Bytes(), &uploaded))
	ref := uploaded.Ref
	require.NotEmpty(t, ref)

	w := doJSON(t, router, http.MethodPost, "/v1/storage/convert", datatypes.ConvertRequest{
		GenericRef: ref,
		Direction:  "to_intelligent",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp datatypes.ConvertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.UnitID)
	assert.NotEmpty(t, resp.RelationshipIndex)

	w = doJSON(t, router, http.MethodPost, "/v1/storage/convert", datatypes.ConvertRequest{
		UnitID:    resp.UnitID,
		Direction: "to_generic",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var back datatypes.ConvertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &back))
	assert.Equal(t, ref, back.Ref)
}

func TestPrinciplesEndpoint(t *testing.T) {
	router, eco := newTestServer(t)
	ctx := context.Background()

	_, err := eco.Graph.AddEdge(ctx, "biology", "code-quality", "redundancy-improves-resilience", 0.8, 0.8)
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodGet, "/v1/principles?source=biology&target=code-quality", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Principles []datatypes.UniversalPrinciple `json:"principles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Principles, 1)
	assert.Equal(t, datatypes.PrincipleID("redundancy-improves-resilience"), resp.Principles[0].ID)

	w = doJSON(t, router, http.MethodGet, "/v1/principles?source=biology", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTaskEndpointNotFound(t *testing.T) {
	router, _ := newTestServer(t)
	w := doJSON(t, router, http.MethodGet, "/v1/tasks/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
