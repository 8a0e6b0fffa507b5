// Package api exposes the decoding engine over HTTP.
package api

import (
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/arcon/internal/decode"
	"github.com/samcharles93/arcon/internal/logger"
	"github.com/samcharles93/arcon/internal/model"
)

// Server serves generation requests against a single predictor.
type Server struct {
	predictor model.Predictor
	defaults  decode.Defaults
	log       logger.Logger
}

// NewServer builds a server around the given predictor.
func NewServer(p model.Predictor, defaults decode.Defaults, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		predictor: p,
		defaults:  defaults,
		log:       log,
	}
}

// Register installs the API routes.
func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/generations", s.handleGenerate)
	e.GET("/healthz", s.handleHealth)
}

func (s *Server) handleGenerate(c *echo.Context) error {
	if s.predictor == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "predictor not configured")
	}
	req, err := decodeJSON[GenerateRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	cond, err := conditioningRows(&req, s.predictor.Mode())
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	ov, err := req.overrides()
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	opts := decode.Resolve(ov, s.defaults)

	gen := &decode.Generator{Model: s.predictor, Log: s.log}
	res, err := gen.Generate(c.Request().Context(), cond, req.EmbeddingMasks, opts)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	resp := GenerateResponse{
		ID:          "gen_" + uuid.NewString(),
		Object:      "generation",
		Tokens:      res.Tokens,
		Confidences: res.Confidences,
		Usage: GenerateUsage{
			GeneratedTokens: res.Stats.TokensGenerated,
			DurationMS:      res.Stats.Duration.Milliseconds(),
			TPS:             res.Stats.TPS,
		},
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, b)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// conditioningRows shapes the request conditioning for the predictor's mode:
// one single-label row per batch entry for class-conditional predictors, the
// caller's token rows for text-conditional ones.
func conditioningRows(req *GenerateRequest, mode model.Mode) ([][]int, error) {
	switch mode {
	case model.ModeClassConditional:
		if len(req.ClassLabels) == 0 {
			return nil, errMissingConditioning("class_labels")
		}
		cond := make([][]int, len(req.ClassLabels))
		for b, label := range req.ClassLabels {
			cond[b] = []int{label}
		}
		return cond, nil
	case model.ModeTextConditional:
		if len(req.Conditioning) == 0 {
			return nil, errMissingConditioning("conditioning")
		}
		for b := 1; b < len(req.Conditioning); b++ {
			if len(req.Conditioning[b]) != len(req.Conditioning[0]) {
				return nil, errRaggedConditioning
			}
		}
		return req.Conditioning, nil
	default:
		return nil, decode.ErrUnknownMode
	}
}

type apiError string

func (e apiError) Error() string { return string(e) }

var errRaggedConditioning = apiError("conditioning rows must all have the same length")

func errMissingConditioning(field string) error {
	return apiError(field + " is required for this predictor")
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
		},
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
