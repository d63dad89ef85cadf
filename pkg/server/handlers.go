package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/sheetpack/pkg/buildinfo"
	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/export"
	"github.com/matzehuels/sheetpack/pkg/packing"
	"github.com/matzehuels/sheetpack/pkg/pipeline"
	"github.com/matzehuels/sheetpack/pkg/storage"
)

// PackRequest is the body of POST /v1/pack.
type PackRequest struct {
	Sprites    []SpriteSize `json:"sprites"`
	Image      string       `json:"image,omitempty"`
	MaxWidth   int          `json:"max_width,omitempty"`
	MaxHeight  int          `json:"max_height,omitempty"`
	Padding    *int         `json:"padding,omitempty"` // nil means pipeline.DefaultPadding
	PowerOfTwo bool         `json:"power_of_two,omitempty"`
	Square     bool         `json:"square,omitempty"`
}

// SpriteSize is one sprite to pack.
type SpriteSize struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ListResponse is the body of GET /v1/atlases.
type ListResponse struct {
	Atlases []*storage.Record `json:"atlases"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handlePack(w http.ResponseWriter, r *http.Request) {
	var req PackRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	items, err := req.Items()
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := req.Options()
	if err := opts.ValidateForPack(); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.runner.Pack(r.Context(), items, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec := &storage.Record{
		ID:          s.newID(),
		Atlas:       *export.NewAtlas(req.Image, res),
		Constraints: opts.Constraints(),
		Trials:      res.Trials,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Save(r.Context(), rec); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("packed",
		"id", rec.ID,
		"sprites", len(items),
		"size", strconv.Itoa(res.Width)+"x"+strconv.Itoa(res.Height),
		"trials", res.Trials)
	w.Header().Set("Location", "/v1/atlases/"+rec.ID)
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetAtlas(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListAtlases(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer, got %q", v))
			return
		}
		limit = min(n, MaxListLimit)
	}

	recs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if recs == nil {
		recs = []*storage.Record{}
	}
	s.writeJSON(w, http.StatusOK, ListResponse{Atlases: recs})
}

// Items validates the sprite list and converts it to packer items.
func (req *PackRequest) Items() ([]packing.Item, error) {
	if len(req.Sprites) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "at least one sprite is required")
	}
	if req.Image != "" {
		if err := errors.ValidatePath(req.Image); err != nil {
			return nil, err
		}
	}
	items := make([]packing.Item, len(req.Sprites))
	for i, sp := range req.Sprites {
		if err := errors.ValidateSpriteName(sp.Name); err != nil {
			return nil, err
		}
		items[i] = packing.Item{ID: sp.Name, Width: sp.Width, Height: sp.Height}
	}
	return items, nil
}

// Options returns the pack options, applying the default padding when
// none was given.
func (req *PackRequest) Options() pipeline.Options {
	padding := pipeline.DefaultPadding
	if req.Padding != nil {
		padding = *req.Padding
	}
	return pipeline.Options{
		MaxWidth:   req.MaxWidth,
		MaxHeight:  req.MaxHeight,
		Padding:    padding,
		PowerOfTwo: req.PowerOfTwo,
		Square:     req.Square,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
		msg = "internal error"
	}
	s.writeJSON(w, status, errorBody{Error: errorDetail{Code: errors.Classify(err), Message: msg}})
}

// StatusFor maps an error to an HTTP status code.
func StatusFor(err error) int {
	var maxBytes *http.MaxBytesError
	if stderrors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	code := errors.Classify(err)
	switch {
	case code.Invalid(), code == errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case code == errors.ErrCodeInsufficientSpace:
		return http.StatusUnprocessableEntity
	case code == errors.ErrCodeNotFound, code == errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case code == errors.ErrCodeConflict:
		return http.StatusConflict
	case code == errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
