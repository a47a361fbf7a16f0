package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediasov/internal/dataset"
	apperrors "mediasov/internal/errors"
	"mediasov/internal/reports"
	"mediasov/internal/services"
)

const testMaxUpload = 1 << 20

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRouter() chi.Router {
	logger := testLogger()
	errorHandler := apperrors.NewErrorHandler(logger)

	r := chi.NewRouter()
	r.Mount("/health", NewHealthHandler("test").Routes())
	r.Mount("/merge", NewMergeHandler(services.NewMergeService(logger), errorHandler, logger, testMaxUpload).Routes())
	r.Mount("/reports", NewReportHandler(services.NewReportService(logger), errorHandler, logger, testMaxUpload).Routes())
	return r
}

func workbookBytes(t *testing.T, table *dataset.Table) []byte {
	t.Helper()
	data, err := dataset.WriteWorkbook(table, "Sheet1")
	require.NoError(t, err)
	return data
}

func coverageBytes(t *testing.T) []byte {
	t.Helper()
	table := dataset.NewTable("Date", "Publication Name", "Publication Type", "Journalist", "Entity")
	table.AppendRow("2024-01-05", "P1", "Online", "J1", "Client-A")
	table.AppendRow("2024-02-01", "P2", "Print", "J2", "B")
	return workbookBytes(t, table)
}

// multipartBody builds a multipart form from named file fields plus plain
// form values.
func multipartBody(t *testing.T, files map[string][][]byte, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, contents := range files {
		for i, data := range contents {
			part, err := w.CreateFormFile(field, "Entity"+string(rune('A'+i))+" - upload.xlsx")
			require.NoError(t, err)
			_, err = part.Write(data)
			require.NoError(t, err)
		}
	}
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "test", body.Version)
}

func TestNamesEndpoint(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/reports/names", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body NamesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, reports.Names(), body.Names)
}

func TestMergeEndpoint(t *testing.T) {
	table := dataset.NewTable("Date", "Publication Name")
	table.AppendRow("2024-01-02", "P1")

	body, contentType := multipartBody(t, map[string][][]byte{
		"files": {workbookBytes(t, table), workbookBytes(t, table)},
	}, nil)

	router := testRouter()
	req := httptest.NewRequest(http.MethodPost, "/merge", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dataset.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "combined_data.xlsx")

	merged, err := dataset.ReadWorkbook(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Publication Name", "Entity"}, merged.Columns)
	assert.Equal(t, 2, merged.NumRows())
}

func TestMergeEndpointRequiresFiles(t *testing.T) {
	body, contentType := multipartBody(t, nil, map[string]string{"unused": "1"})

	router := testRouter()
	req := httptest.NewRequest(http.MethodPost, "/merge", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.ErrorCode)
}

func TestMergeEndpointBadWorkbook(t *testing.T) {
	body, contentType := multipartBody(t, map[string][][]byte{
		"files": {[]byte("not a workbook")},
	}, nil)

	router := testRouter()
	req := httptest.NewRequest(http.MethodPost, "/merge", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "UPLOAD_PARSE_FAILED", resp.Error.ErrorCode)
}

func TestMergeEndpointMalformedMultipart(t *testing.T) {
	router := testRouter()
	req := httptest.NewRequest(http.MethodPost, "/merge", bytes.NewBufferString("not a multipart body"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Error.ErrorCode)
}

func TestMergeEndpointOversizedUpload(t *testing.T) {
	logger := testLogger()
	errorHandler := apperrors.NewErrorHandler(logger)
	handler := NewMergeHandler(services.NewMergeService(logger), errorHandler, logger, 64)

	table := dataset.NewTable("Date")
	table.AppendRow("2024-01-02")
	body, contentType := multipartBody(t, map[string][][]byte{
		"files": {workbookBytes(t, table)},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PAYLOAD_TOO_LARGE", resp.Error.ErrorCode)
}

func TestPreviewEndpoint(t *testing.T) {
	body, contentType := multipartBody(t, map[string][][]byte{
		"file": {coverageBytes(t)},
	}, map[string]string{"name": reports.NameEntitySOV})

	router := testRouter()
	req := httptest.NewRequest(http.MethodPost, "/reports/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, reports.NameEntitySOV, resp.Name)
	require.NotNil(t, resp.Table)
	assert.Equal(t, []string{"Entity", "News Count", "%"}, resp.Table.Columns)
}

func TestPreviewEndpointUnknownName(t *testing.T) {
	body, contentType := multipartBody(t, map[string][][]byte{
		"file": {coverageBytes(t)},
	}, map[string]string{"name": "Bogus Table"})

	router := testRouter()
	req := httptest.NewRequest(http.MethodPost, "/reports/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.ErrorCode)
}

func TestPreviewEndpointMissingColumn(t *testing.T) {
	table := dataset.NewTable("Date", "Entity")
	table.AppendRow("2024-01-05", "A")

	body, contentType := multipartBody(t, map[string][][]byte{
		"file": {workbookBytes(t, table)},
	}, map[string]string{"name": reports.NamePublications})

	router := testRouter()
	req := httptest.NewRequest(http.MethodPost, "/reports/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MISSING_COLUMN", resp.Error.ErrorCode)
}

func TestExportEndpoint(t *testing.T) {
	body, contentType := multipartBody(t, map[string][][]byte{
		"file": {coverageBytes(t)},
	}, map[string]string{"entity_info": "Entity: Acme"})

	router := testRouter()
	req := httptest.NewRequest(http.MethodPost, "/reports/export", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dataset.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "All_Dataframes.xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())
}
