// Package stubserver is a development stand-in for the translation backend.
// It serves registered images as completed translations and answers erase
// requests with a local inpaint.
package stubserver

import (
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/example/toonretouch/internal/api"
	"github.com/example/toonretouch/internal/snapshot"
)

// Server handles the stub routes.
type Server struct {
	store *Store
	log   *logrus.Entry
}

// NewServer returns a Server backed by store.
func NewServer(store *Store, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.WithField("component", "stubserver")
	}
	return &Server{store: store, log: log}
}

// Router builds the chi router serving /api/erase, /api/translate/{id} and
// /files/{id}.png.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/erase", s.handleErase)
		r.Get("/translate/{id}", s.handleTranslate)
	})
	r.Get("/files/{file}", s.handleFile)
	return r
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]api.ErrorDetail{"detail": {Code: code, Message: msg}})
}

func (s *Server) handleErase(w http.ResponseWriter, r *http.Request) {
	var req api.EraseRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.log.WithField("error", err).Error("Failed to decode request")
		s.fail(w, r, http.StatusBadRequest, "INVALID_REQUEST", "request body is not valid JSON")
		return
	}
	log := s.log.WithField("translate_id", req.TranslateID)
	if req.MaskImage == "" {
		s.fail(w, r, http.StatusBadRequest, "INVALID_REQUEST", "maskImage is required")
		return
	}
	stored, err := s.store.Image(req.TranslateID)
	if errors.Is(err, ErrNotFound) {
		s.fail(w, r, http.StatusNotFound, "NOT_FOUND", "translation not found")
		return
	}

	var source image.Image = stored
	if req.SourceImage != "" {
		src, err := snapshot.Parse(req.SourceImage).Decode()
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, "INVALID_SOURCE", "sourceImage is not a PNG")
			return
		}
		source = src
	}
	mask, err := snapshot.Parse(req.MaskImage).Decode()
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "INVALID_MASK", "maskImage is not a PNG")
		return
	}
	if mask.Bounds().Size() != source.Bounds().Size() {
		s.fail(w, r, http.StatusBadRequest, "INVALID_MASK",
			fmt.Sprintf("mask is %v, image is %v", mask.Bounds().Size(), source.Bounds().Size()))
		return
	}

	result := Inpaint(source, mask)
	out, err := snapshot.Encode(result)
	if err != nil {
		log.WithError(err).Error("Failed to encode result")
		s.fail(w, r, http.StatusInternalServerError, "INTERNAL", "failed to encode result")
		return
	}
	if err := s.store.Replace(req.TranslateID, result); err != nil {
		log.WithError(err).Warn("Failed to store result")
	}
	log.Info("erase served")
	render.JSON(w, r, api.EraseResponse{ResultImage: out.String()})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Image(id); err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"detail": "translation not found"})
		return
	}
	base := "http://" + r.Host
	if r.TLS != nil {
		base = "https://" + r.Host
	}
	result := base + "/files/" + id + ".png"
	original := base + "/files/" + id + ".png?original=1"
	created := s.store.createdAt(id)
	render.JSON(w, r, api.Translate{
		TranslateID:    id,
		Status:         api.StatusCompleted,
		UploadID:       id,
		SourceLanguage: "ko",
		TargetLanguage: "en",
		OriginalURL:    &original,
		ResultURL:      &result,
		CreatedAt:      created,
		CompletedAt:    &created,
	})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	id, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".png")
	if !ok {
		http.NotFound(w, r)
		return
	}
	get := s.store.Image
	if r.URL.Query().Get("original") != "" {
		get = s.store.Original
	}
	img, err := get(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	data, err := snapshot.EncodePNG(img)
	if err != nil {
		http.Error(w, "failed to encode image", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}
