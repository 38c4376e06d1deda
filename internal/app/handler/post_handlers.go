package handler

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/app/service"
	"github.com/atinyakov/shortlink/internal/middleware"
	"github.com/atinyakov/shortlink/internal/models"
)

const (
	requestTimeout = 3 * time.Second
	batchTimeout   = 30 * time.Second
	maxUploadBytes = 10 << 20
)

// CSV upload columns.
const (
	colOriginalURL    = "originalurl"
	colRequestedCode  = "requestedcode"
	colExpirationDate = "expirationdate"
)

// shortenRequest accepts both {"url": ...} and the full CreateRequest.
type shortenRequest struct {
	models.Request
	models.CreateRequest
}

type PostHandler struct {
	service service.URLServiceIface
	logger  *zap.Logger
}

func NewPost(s service.URLServiceIface, l *zap.Logger) *PostHandler {
	return &PostHandler{
		service: s,
		logger:  l,
	}
}

// PlainBody shortens the URL sent as a text body and answers with the short
// URL as text.
func (h *PostHandler) PlainBody(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	body, err := io.ReadAll(http.MaxBytesReader(res, req.Body, maxBodyBytes))
	defer req.Body.Close()
	if err != nil {
		http.Error(res, "cannot read request body", http.StatusBadRequest)
		return
	}

	u, err := h.service.Create(ctx, models.CreateRequest{
		OriginalURL: strings.TrimSpace(string(body)),
	}, middleware.UserIDFromContext(req.Context()))
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("unable to create short url", zap.Error(err))
		}
		http.Error(res, err.Error(), status)
		return
	}

	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.WriteHeader(http.StatusCreated)
	if _, err := res.Write([]byte(u.ShortURL)); err != nil {
		h.logger.Debug("cannot write response", zap.Error(err))
	}
}

// Shorten creates a short URL from a JSON request.
func (h *PostHandler) Shorten(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	var request shortenRequest
	if err := decodeJSONBody(res, req, &request); err != nil {
		writeError(res, err, h.logger)
		return
	}

	create := request.CreateRequest
	if create.OriginalURL == "" {
		create.OriginalURL = request.URL
	}

	u, err := h.service.Create(ctx, create, middleware.UserIDFromContext(req.Context()))
	if err != nil {
		writeError(res, err, h.logger)
		return
	}

	writeJSON(res, http.StatusCreated, models.Response{
		Result:         u.ShortURL,
		Code:           u.Code,
		ExpirationDate: u.ExpirationDate,
	}, h.logger)
}

// Batch creates every row of a JSON array independently.
func (h *PostHandler) Batch(res http.ResponseWriter, req *http.Request) {
	var rows []models.BatchRequest
	if err := decodeJSONBody(res, req, &rows); err != nil {
		writeError(res, err, h.logger)
		return
	}

	h.createBatch(res, req, rows)
}

// Upload creates short URLs from a CSV file with the header
// OriginalUrl,RequestedCode,ExpirationDate. The file comes either as the
// "file" field of a multipart form or as a text/csv body.
func (h *PostHandler) Upload(res http.ResponseWriter, req *http.Request) {
	src, err := uploadSource(res, req)
	if err != nil {
		writeError(res, err, h.logger)
		return
	}
	defer src.Close()

	rows, err := parseCSV(src)
	if err != nil {
		writeError(res, err, h.logger)
		return
	}

	h.createBatch(res, req, rows)
}

func (h *PostHandler) createBatch(res http.ResponseWriter, req *http.Request, rows []models.BatchRequest) {
	ctx, cancel := context.WithTimeout(req.Context(), batchTimeout)
	defer cancel()

	results, err := h.service.CreateBatch(ctx, rows, middleware.UserIDFromContext(req.Context()))
	if err != nil {
		writeError(res, err, h.logger)
		return
	}

	h.logger.Info("batch processed", zap.Int("rows", len(rows)))
	writeJSON(res, http.StatusCreated, results, h.logger)
}

// Suggest returns advisory codes for a URL. Nothing is reserved.
func (h *PostHandler) Suggest(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	var request models.SuggestRequest
	if err := decodeJSONBody(res, req, &request); err != nil {
		writeError(res, err, h.logger)
		return
	}

	codes, err := h.service.SuggestCodes(ctx, request.Count, request.OriginalURL, request.Prefix)
	if err != nil {
		writeError(res, err, h.logger)
		return
	}

	writeJSON(res, http.StatusOK, models.SuggestResponse{SuggestedCodes: codes}, h.logger)
}

func uploadSource(res http.ResponseWriter, req *http.Request) (io.ReadCloser, error) {
	mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil {
		return nil, &malformedRequest{status: http.StatusUnsupportedMediaType, msg: "Content-Type header is missing or invalid"}
	}

	switch mediaType {
	case "text/csv":
		return http.MaxBytesReader(res, req.Body, maxUploadBytes), nil
	case "multipart/form-data":
		req.Body = http.MaxBytesReader(res, req.Body, maxUploadBytes)
		file, _, err := req.FormFile("file")
		if err != nil {
			return nil, &malformedRequest{status: http.StatusBadRequest, msg: "form field \"file\" is required"}
		}
		return file, nil
	default:
		return nil, &malformedRequest{status: http.StatusUnsupportedMediaType, msg: "Content-Type must be text/csv or multipart/form-data"}
	}
}

// parseCSV reads batch rows. Column names are matched case-insensitively and
// only OriginalUrl is mandatory.
func parseCSV(r io.Reader) ([]models.BatchRequest, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &malformedRequest{status: http.StatusBadRequest, msg: "csv file is empty"}
		}
		return nil, &malformedRequest{status: http.StatusBadRequest, msg: fmt.Sprintf("cannot read csv header: %v", err)}
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if _, ok := columns[colOriginalURL]; !ok {
		return nil, &malformedRequest{status: http.StatusBadRequest, msg: "csv header must contain OriginalUrl"}
	}

	field := func(record []string, col string) string {
		i, ok := columns[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []models.BatchRequest
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &malformedRequest{status: http.StatusBadRequest, msg: fmt.Sprintf("line %d: %v", line, err)}
		}

		row := models.BatchRequest{
			CorrelationID: fmt.Sprint(line),
			OriginalURL:   field(record, colOriginalURL),
			RequestedCode: field(record, colRequestedCode),
		}
		if raw := field(record, colExpirationDate); raw != "" {
			exp, err := parseDate(raw)
			if err != nil {
				return nil, &malformedRequest{status: http.StatusBadRequest, msg: fmt.Sprintf("line %d: invalid ExpirationDate %q", line, raw)}
			}
			row.ExpirationDate = &exp
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// parseDate accepts RFC 3339 timestamps and plain dates; a plain date means
// the end of that day in UTC.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(24*time.Hour - time.Second), nil
}
