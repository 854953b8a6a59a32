package ingestion

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"salesinsight/internal/domain"
)

func multipartUpload(t *testing.T, fileName, contents string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newUploadHandler(t *testing.T, repo *stubRecordRepo, logRepo *stubLogRepo) *Handler {
	t.Helper()
	return NewHTTPHandler(NewService(repo, logRepo, zaptest.NewLogger(t)), logRepo)
}

func TestUploadEndpointReturnsReport(t *testing.T) {
	repo := newStubRecordRepo()
	handler := newUploadHandler(t, repo, &stubLogRepo{})

	rec := httptest.NewRecorder()
	handler.Upload(rec, multipartUpload(t, "sales.csv", validUpload))

	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.IngestionReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "sales.csv", report.FileName)
	assert.Equal(t, 3, report.TotalRows)
	assert.Equal(t, 3, report.Accepted)
	assert.NotNil(t, report.Rejected)
	assert.NotNil(t, report.Duplicates)
}

func TestUploadEndpointRejectsUnsupportedExtension(t *testing.T) {
	handler := newUploadHandler(t, newStubRecordRepo(), &stubLogRepo{})

	rec := httptest.NewRecorder()
	handler.Upload(rec, multipartUpload(t, "sales.txt", validUpload))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadEndpointSchemaErrorIsUnprocessable(t *testing.T) {
	data := "date,order_id\n2024-01-01,ORD-1\n"
	handler := newUploadHandler(t, newStubRecordRepo(), &stubLogRepo{})

	rec := httptest.NewRecorder()
	handler.Upload(rec, multipartUpload(t, "sales.csv", data))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUploadEndpointRequiresFile(t *testing.T) {
	handler := newUploadHandler(t, newStubRecordRepo(), &stubLogRepo{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	handler.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadEndpointMethodNotAllowed(t *testing.T) {
	handler := newUploadHandler(t, newStubRecordRepo(), &stubLogRepo{})

	rec := httptest.NewRecorder()
	handler.Upload(rec, httptest.NewRequest(http.MethodGet, "/api/upload", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLogsEndpoint(t *testing.T) {
	logRepo := &stubLogRepo{}
	row := 4
	logRepo.entries = append(logRepo.entries, domain.IngestionLogEntry{
		FileName:     "sales.csv",
		RowNumber:    &row,
		ErrorMessage: "quantity: \"x\" is not an integer",
	})
	handler := newUploadHandler(t, newStubRecordRepo(), logRepo)

	rec := httptest.NewRecorder()
	handler.Logs(rec, httptest.NewRequest(http.MethodGet, "/api/upload/logs?file=sales.csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []domain.IngestionLogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "sales.csv", entries[0].FileName)
}
