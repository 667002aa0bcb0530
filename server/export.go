package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hazyhaar/richedit/export"
	"github.com/hazyhaar/richedit/kit"
	"github.com/hazyhaar/richedit/sanitize"
)

var errUnknownFormat = errors.New("server: unknown format")

type exportResp struct {
	Format  string `json:"format"`
	Content string `json:"content"`
}

// exportEndpoint serves both the richedit_export tool and the HTTP export
// routes. An empty format is markdown.
func exportEndpoint(_ context.Context, req any) (any, error) {
	r := req.(*exportReq)
	switch r.Format {
	case "", "markdown", "md":
		md, err := export.Markdown(r.HTML)
		if err != nil {
			return nil, err
		}
		return exportResp{Format: "markdown", Content: md}, nil
	case "text", "txt":
		return exportResp{Format: "text", Content: export.PlainText(r.HTML)}, nil
	case "html":
		return exportResp{Format: "html", Content: sanitize.ForOutput(r.HTML)}, nil
	}
	return nil, fmt.Errorf("%w %q", errUnknownFormat, r.Format)
}

var exportTypes = map[string]string{
	"markdown": "text/markdown; charset=utf-8",
	"text":     "text/plain; charset=utf-8",
	"html":     "text/html; charset=utf-8",
}

// writeExport answers with doc in the format named by the query: html
// (default), markdown or text.
func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, doc string) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "html"
	}
	ctx := kit.WithTransport(r.Context(), "http")
	out, err := kit.Logging(s.log, "export")(exportEndpoint)(ctx, &exportReq{HTML: doc, Format: format})
	switch {
	case errors.Is(err, errUnknownFormat):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := out.(exportResp)
	w.Header().Set("Content-Type", exportTypes[resp.Format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(resp.Content))
}
