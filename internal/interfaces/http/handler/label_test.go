package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	printingapp "github.com/helenrm365/rm365-tools-testing-sub001/internal/application/printing"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/interfaces/http/dto"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/interfaces/http/middleware"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type MockLabelService struct {
	mock.Mock
}

func (m *MockLabelService) CreatePrintJob(ctx context.Context, req printingapp.CreateJobRequest) (*printingapp.CreateJobResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printingapp.CreateJobResponse), args.Error(1)
}

func (m *MockLabelService) GetJobItems(ctx context.Context, jobID int64) (*printingapp.JobItemsResponse, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printingapp.JobItemsResponse), args.Error(1)
}

func (m *MockLabelService) DeleteJob(ctx context.Context, jobID int64) error {
	return m.Called(ctx, jobID).Error(0)
}

func (m *MockLabelService) RenderPDF(ctx context.Context, jobID int64) (*printingapp.RenderedFile, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printingapp.RenderedFile), args.Error(1)
}

func (m *MockLabelService) RenderCSV(ctx context.Context, jobID int64) (*printingapp.RenderedFile, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printingapp.RenderedFile), args.Error(1)
}

func setupLabelRouter(svc *MockLabelService) *gin.Engine {
	engine := router.NewEngine(router.EngineConfig{})
	router.NewRouter(engine).Register(LabelRoutes(NewLabelHandler(svc))).Setup()
	return engine
}

func do(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestLabelHandler_CreateJob(t *testing.T) {
	svc := new(MockLabelService)
	want := printingapp.CreateJobRequest{
		CandidateSKUs: []string{"ABC", "XYZ-MD"},
		CreatedBy:     "warehouse",
		LineDate:      "2026-10-16",
	}
	svc.On("CreatePrintJob", mock.Anything, want).Return(&printingapp.CreateJobResponse{
		JobID:   41,
		Items:   2,
		Skipped: map[string]int{"inactive": 1},
	}, nil)

	w := do(setupLabelRouter(svc), http.MethodPost, "/api/v1/labels/jobs",
		`{"candidate_skus":["ABC","XYZ-MD"],"created_by":"warehouse","line_date":"2026-10-16"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 41, data["job_id"])
	assert.EqualValues(t, 2, data["items"])
	svc.AssertExpectations(t)
}

func TestLabelHandler_CreateJob_EmptyBodyUsesAllowList(t *testing.T) {
	svc := new(MockLabelService)
	svc.On("CreatePrintJob", mock.Anything, printingapp.CreateJobRequest{}).
		Return(&printingapp.CreateJobResponse{JobID: 1, Skipped: map[string]int{}}, nil)

	w := do(setupLabelRouter(svc), http.MethodPost, "/api/v1/labels/jobs", "")
	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestLabelHandler_CreateJob_ValidationError(t *testing.T) {
	svc := new(MockLabelService)

	w := do(setupLabelRouter(svc), http.MethodPost, "/api/v1/labels/jobs", `{"line_date":"yesterday"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "line_date", resp.Error.Details[0].Field)
	assert.NotEmpty(t, resp.Error.RequestID)
	svc.AssertNotCalled(t, "CreatePrintJob", mock.Anything, mock.Anything)
}

func TestLabelHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		retryAfter string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound, ""},
		{"invalid input", shared.NewDomainError("INVALID_INPUT", "item_ids must not be empty"), http.StatusBadRequest, dto.ErrCodeInvalidInput, ""},
		{"upstream", shared.NewUpstreamError("fetch catalog", errors.New("502")), http.StatusServiceUnavailable, dto.ErrCodeUpstreamUnavailable, "5"},
		{"wrapped upstream", errors.Join(errors.New("create job"), shared.NewUpstreamError("db", context.DeadlineExceeded)), http.StatusServiceUnavailable, dto.ErrCodeUpstreamUnavailable, "5"},
		{"schema drift", shared.ErrSchemaDrift, http.StatusInternalServerError, dto.ErrCodeSchemaDrift, ""},
		{"unknown", errors.New("page cap reached"), http.StatusInternalServerError, dto.ErrCodeInternal, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockLabelService)
			svc.On("CreatePrintJob", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := do(setupLabelRouter(svc), http.MethodPost, "/api/v1/labels/jobs", `{"candidate_skus":["ABC"]}`)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w).Error.Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))
		})
	}
}

func TestLabelHandler_GetJobItems(t *testing.T) {
	svc := new(MockLabelService)
	svc.On("GetJobItems", mock.Anything, int64(7)).Return(&printingapp.JobItemsResponse{
		Job: printingapp.JobResponse{ID: 7},
		Items: []printingapp.ItemResponse{
			{ID: 1, ItemID: "100", SKU: "ABC", ProductName: "Lamp", Price: "12.50"},
		},
	}, nil)
	engine := setupLabelRouter(svc)

	w := do(engine, http.MethodGet, "/api/v1/labels/jobs/7/items", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"price":"12.50"`)

	for _, bad := range []string{"abc", "0", "-3"} {
		w = do(engine, http.MethodGet, "/api/v1/labels/jobs/"+bad+"/items", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
	svc.AssertNumberOfCalls(t, "GetJobItems", 1)
}

func TestLabelHandler_DeleteJob(t *testing.T) {
	svc := new(MockLabelService)
	svc.On("DeleteJob", mock.Anything, int64(3)).Return(nil)
	svc.On("DeleteJob", mock.Anything, int64(4)).Return(shared.ErrNotFound)
	engine := setupLabelRouter(svc)

	assert.Equal(t, http.StatusNoContent, do(engine, http.MethodDelete, "/api/v1/labels/jobs/3", "").Code)
	assert.Equal(t, http.StatusNotFound, do(engine, http.MethodDelete, "/api/v1/labels/jobs/4", "").Code)
}

func TestLabelHandler_Downloads(t *testing.T) {
	svc := new(MockLabelService)
	svc.On("RenderPDF", mock.Anything, int64(9)).Return(&printingapp.RenderedFile{
		Filename: "labels_job_9.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3"),
	}, nil)
	svc.On("RenderCSV", mock.Anything, int64(9)).Return(&printingapp.RenderedFile{
		Filename: "labels_job_9.csv", ContentType: "text/csv", Data: []byte("sku\n"),
	}, nil)
	engine := setupLabelRouter(svc)

	w := do(engine, http.MethodGet, "/api/v1/labels/jobs/9/pdf", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="labels_job_9.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3", w.Body.String())

	w = do(engine, http.MethodGet, "/api/v1/labels/jobs/9/csv", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="labels_job_9.csv"`, w.Header().Get("Content-Disposition"))
}

func TestLabelHandler_MethodNotAllowed(t *testing.T) {
	w := do(setupLabelRouter(new(MockLabelService)), http.MethodPut, "/api/v1/labels/jobs/9", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
