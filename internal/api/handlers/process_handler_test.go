package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextcraft/docpipe/internal/core"
	"github.com/contextcraft/docpipe/internal/core/ingestion_engine"
)

type stubProcessor struct {
	gotReq ingestion_engine.ProcessRequest
	result *ingestion_engine.ProcessResult
	err    error
}

func (s *stubProcessor) Process(_ context.Context, req ingestion_engine.ProcessRequest) (*ingestion_engine.ProcessResult, error) {
	s.gotReq = req
	return s.result, s.err
}

func doProcess(t *testing.T, proc *stubProcessor, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewProcessHandler(proc)
	req := httptest.NewRequest(http.MethodPost, "/api/documents/process", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ProcessDocument(rec, req)
	return rec
}

func TestProcessDocumentSuccess(t *testing.T) {
	proc := &stubProcessor{result: &ingestion_engine.ProcessResult{
		Success:          true,
		DocumentID:       "d1",
		TotalChunks:      5,
		SuccessfulChunks: 5,
	}}

	rec := doProcess(t, proc, `{"documentId": "d1", "forceReprocess": true, "projectId": "p1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res ingestion_engine.ProcessResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 5, res.TotalChunks)

	// The decoded request reaches the pipeline unchanged.
	assert.Equal(t, "d1", proc.gotReq.DocumentID)
	assert.Equal(t, "p1", proc.gotReq.ProjectID)
	assert.True(t, proc.gotReq.ForceReprocess)
}

func TestProcessDocumentRejectsBadBody(t *testing.T) {
	rec := doProcess(t, &stubProcessor{}, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessDocumentRequiresDocumentID(t *testing.T) {
	rec := doProcess(t, &stubProcessor{}, `{"forceReprocess": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var res ingestion_engine.ProcessResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "documentId")
}

func TestProcessDocumentDoesNotLeakInternalDetail(t *testing.T) {
	rec := doProcess(t, &stubProcessor{err: errors.New("pq: connection reset on 10.0.0.5")}, `{"documentId": "d1"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var res ingestion_engine.ProcessResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "internal error", res.Error)
}

func TestProcessDocumentErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown document", core.ErrNotFound, http.StatusNotFound},
		{"empty content", core.ErrEmptyContent, http.StatusUnprocessableEntity},
		{"internal failure", errors.New("database down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doProcess(t, &stubProcessor{err: tc.err}, `{"documentId": "d1"}`)
			assert.Equal(t, tc.want, rec.Code)

			var res ingestion_engine.ProcessResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.False(t, res.Success)
			assert.NotEmpty(t, res.Error)
		})
	}
}
