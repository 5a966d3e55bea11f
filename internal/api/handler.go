// Package api exposes the extraction pipeline over HTTP.
package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/invoice-extractor/internal/common"
	"github.com/insightdelivered/invoice-extractor/internal/models"
	"github.com/insightdelivered/invoice-extractor/internal/pipeline"
	"github.com/insightdelivered/invoice-extractor/internal/writer"
)

const version = "1.0.0"

// ExtractResponse is the JSON reply from POST /api/extract.
type ExtractResponse struct {
	Success      bool                    `json:"success"`
	Error        string                  `json:"error,omitempty"`
	ErrorKind    string                  `json:"errorKind,omitempty"`
	Issuer       string                  `json:"issuer,omitempty"`
	DueDate      string                  `json:"dueDate,omitempty"`
	Total        string                  `json:"total,omitempty"`
	CardLastFour string                  `json:"cardLastFour,omitempty"`
	Score        int                     `json:"score"`
	Source       string                  `json:"source,omitempty"`
	OCRAttempted bool                    `json:"ocrAttempted"`
	Fallback     models.FallbackDecision `json:"fallback,omitempty"`
	Count        int                     `json:"count"`
	Transactions []models.Transaction    `json:"transactions"`
	CSV          string                  `json:"csv,omitempty"`
	Version      string                  `json:"version"`
}

// Server holds the HTTP handlers.
type Server struct {
	Pipeline *pipeline.Pipeline
	Log      *slog.Logger
}

// Register sets up the routes on the fiber app.
func (s *Server) Register(app *fiber.App) {
	app.Get("/api/health", s.handleHealth)
	app.Post("/api/extract", s.handleExtract)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": version,
	})
}

func (s *Server) handleExtract(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "input", "no file uploaded, use form field 'file'")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "input", "could not open uploaded file")
	}
	defer file.Close()

	doc, err := io.ReadAll(io.LimitReader(file, 32<<20))
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "input", "could not read uploaded file")
	}

	password := c.FormValue("password")

	var dueDateOverride time.Time
	if v := c.FormValue("dueDate"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "input", "dueDate must be YYYY-MM-DD")
		}
		dueDateOverride = d
	}

	res, err := s.Pipeline.Extract(c.Context(), doc, password, dueDateOverride)
	if err != nil {
		return writePipelineError(c, err)
	}

	parse := res.Parse
	resp := ExtractResponse{
		Success:      true,
		Issuer:       string(parse.Issuer),
		DueDate:      parse.DueDate.Format("2006-01-02"),
		Total:        parse.Total.StringFixed(2),
		CardLastFour: parse.CardLastFour,
		Score:        parse.Score,
		Source:       string(parse.Source),
		OCRAttempted: res.OCRAttempted,
		Fallback:     res.Fallback,
		Count:        len(parse.Transactions),
		Transactions: parse.Transactions,
		Version:      version,
	}
	if resp.Transactions == nil {
		resp.Transactions = []models.Transaction{}
	}

	if c.FormValue("csv") != "false" {
		var buf bytes.Buffer
		if err := (&writer.CSVWriter{}).Write(&buf, parse); err != nil {
			s.Log.Error("csv rendering failed", "error", err)
		} else {
			resp.CSV = buf.String()
		}
	}

	return c.JSON(resp)
}

// writePipelineError maps the pipeline's failure taxonomy onto HTTP status
// codes: input problems are the caller's to fix, quality rejections mean
// the document was understood but not trusted, configuration problems are
// the operator's.
func writePipelineError(c *fiber.Ctx, err error) error {
	switch {
	case common.IsInputError(err):
		return writeError(c, fiber.StatusUnprocessableEntity, "input", err.Error())
	case common.IsQualityError(err):
		return writeError(c, fiber.StatusUnprocessableEntity, "quality", err.Error())
	case common.IsConfigError(err):
		return writeError(c, fiber.StatusServiceUnavailable, "configuration", err.Error())
	case errors.Is(err, fiber.ErrRequestTimeout):
		return writeError(c, fiber.StatusRequestTimeout, "timeout", err.Error())
	default:
		return writeError(c, fiber.StatusInternalServerError, "internal", err.Error())
	}
}

func writeError(c *fiber.Ctx, status int, kind, msg string) error {
	return c.Status(status).JSON(ExtractResponse{
		Success:      false,
		Error:        msg,
		ErrorKind:    kind,
		Transactions: []models.Transaction{},
		Version:      version,
	})
}
