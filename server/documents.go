package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/richedit/editor"
	"github.com/hazyhaar/richedit/format"
	"github.com/hazyhaar/richedit/sanitize"
)

func (s *Server) documentRoutes(r chi.Router) {
	store := s.opts.Store

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		docs, err := store.List(r.Context())
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
	})

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title string `json:"title"`
			HTML  string `json:"html"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		doc, err := store.Create(r.Context(), req.Title, sanitize.ForOutput(req.HTML))
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, doc)
	})

	r.Get("/{docID}", func(w http.ResponseWriter, r *http.Request) {
		doc, err := store.Get(r.Context(), chi.URLParam(r, "docID"))
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	})

	r.Patch("/{docID}", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title string `json:"title"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := store.Rename(r.Context(), chi.URLParam(r, "docID"), req.Title); err != nil {
			writeFailure(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Delete("/{docID}", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "docID")); err != nil {
			writeFailure(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/{docID}/revisions", func(w http.ResponseWriter, r *http.Request) {
		revs, err := store.Revisions(r.Context(), chi.URLParam(r, "docID"), queryInt(r, "limit", 50))
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"revisions": revs})
	})

	r.Get("/{docID}/export", func(w http.ResponseWriter, r *http.Request) {
		doc, err := store.Get(r.Context(), chi.URLParam(r, "docID"))
		if err != nil {
			writeFailure(w, err)
			return
		}
		s.writeExport(w, r, doc.HTML)
	})
}

var errBadAsset = errors.New("server: invalid asset url")

func (s *Server) assetRoutes(r chi.Router) {
	store := s.opts.Store

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		assets, err := store.Assets(r.Context())
		if err != nil {
			writeFailure(w, err)
			return
		}
		if assets == nil {
			assets = []editor.Asset{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"assets": assets})
	})

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var a editor.Asset
		if err := decodeJSON(r, &a); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if !format.ValidLinkURL(a.URL) || sanitize.LooksDangerous(a.URL) {
			writeError(w, http.StatusBadRequest, errBadAsset)
			return
		}
		a, err := store.AddAsset(r.Context(), a)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	})

	r.Delete("/{assetID}", func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteAsset(r.Context(), chi.URLParam(r, "assetID")); err != nil {
			writeFailure(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
