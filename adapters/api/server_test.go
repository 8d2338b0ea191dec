package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goxtab/domain/core"
	"goxtab/domain/run"
	"goxtab/domain/tabs"
	"goxtab/internal/testkit"
	"goxtab/models"
)

// memoryRunRepository keeps run records in memory for handler tests
type memoryRunRepository struct {
	records map[core.RunID]*models.RunRecord
}

func newMemoryRepo() *memoryRunRepository {
	return &memoryRunRepository{records: map[core.RunID]*models.RunRecord{}}
}

func (m *memoryRunRepository) SaveRun(ctx context.Context, record *models.RunRecord) error {
	m.records[core.RunID(record.ID)] = record
	return nil
}

func (m *memoryRunRepository) GetRun(ctx context.Context, id core.RunID) (*models.RunRecord, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, core.ErrRunNotFound
	}
	return record, nil
}

func (m *memoryRunRepository) ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	out := make([]models.RunRecord, 0, len(m.records))
	for _, record := range m.records {
		out = append(out, *record)
	}
	return out, nil
}

func testRunRequest(t *testing.T) RunRequest {
	t.Helper()
	config := testkit.DefaultSurveyConfig()
	config.RespondentCount = 200
	gen := testkit.NewSurveyGenerator(config)
	data, weights := gen.Generate()
	return RunRequest{
		Questions: gen.Questions(),
		Records:   data.Records,
		Weights:   weights,
		Banner:    gen.BannerSpec(),
	}
}

func TestCreateRun(t *testing.T) {
	repo := newMemoryRepo()
	server := NewServer(repo, run.DefaultConfig())

	body, err := json.Marshal(testRunRequest(t))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result tabs.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, run.StatusPass, result.Summary.Status)
	assert.Len(t, result.Results, 7)
	assert.NotEmpty(t, result.Fingerprint)

	// The run is persisted and retrievable.
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+string(result.RunID), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateRun_RefusalBody(t *testing.T) {
	server := NewServer(nil, run.DefaultConfig())

	req := testRunRequest(t)
	req.Records = nil // empty dataset hits the hard gate

	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(body)))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var refusal RefusalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refusal))
	assert.Equal(t, "DATA_MISSING", refusal.Code)
	assert.NotEmpty(t, refusal.Problem)
	assert.NotEmpty(t, refusal.Remedy)
}

func TestCreateRun_BadJSON(t *testing.T) {
	server := NewServer(nil, run.DefaultConfig())

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRun_NotFound(t *testing.T) {
	server := NewServer(newMemoryRepo(), run.DefaultConfig())

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRuns_WithoutRepository(t *testing.T) {
	server := NewServer(nil, run.DefaultConfig())

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestRunReport(t *testing.T) {
	repo := newMemoryRepo()
	server := NewServer(repo, run.DefaultConfig())

	body, err := json.Marshal(testRunRequest(t))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var result tabs.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+string(result.RunID)+"/report", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Crosstab Run")
}

func TestHealthz(t *testing.T) {
	server := NewServer(nil, run.DefaultConfig())

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
