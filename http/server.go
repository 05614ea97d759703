// Package http serves law text skeletons over HTTP.
package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/catleg"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultTimeout bounds the time spent rendering a skeleton.
const DefaultTimeout = 60 * time.Second

// noIDMessage answers queries without a supported identifier.
const noIDMessage = "Aucun identifiant pris en charge n'a été trouvé dans votre saisie."

const usage = `catleg markdown viewer

GET /?query=<identifier or Legifrance URL>
GET /articles/{id}
GET /texts/{textID}/sections/{sectionID}
`

// Server renders skeletons of law texts as Markdown.
type Server struct {
	router    chi.Router
	skeletons catleg.SkeletonBuilder
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithTimeout sets the time allowed to render each skeleton.
// Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithLogger sets the logger reporting failed requests.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a Server rendering skeletons with skeletons.
func NewServer(skeletons catleg.SkeletonBuilder, opts ...Option) *Server {
	s := &Server{
		skeletons: skeletons,
		timeout:   DefaultTimeout,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleQuery)
	r.Get("/articles/{id}", s.handleArticle)
	r.Get("/texts/{textID}/sections/{sectionID}", s.handleSection)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// handleQuery finds an identifier in the query and renders the matching
// skeleton: an article with its breadcrumbs, a whole code, or a text as
// published in the official journal.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, usage)
		return
	}

	s.render(w, r, func(ctx context.Context) (string, error) {
		if id, ok := catleg.FindArticleID(strings.ToUpper(query)); ok {
			return s.skeletons.Article(ctx, id, true)
		}
		textID, kind, ok := catleg.FindTextID(query)
		if !ok {
			return "", catleg.ErrInvalidIdentifier.Errorf(noIDMessage)
		}
		if kind == catleg.JORFTEXT {
			return s.skeletons.PublishedText(ctx, textID)
		}
		return s.skeletons.Section(ctx, textID, "")
	})
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, func(ctx context.Context) (string, error) {
		id, err := catleg.ParseArticleID(chi.URLParam(r, "id"))
		if err != nil {
			return "", err
		}
		return s.skeletons.Article(ctx, id, r.URL.Query().Get("breadcrumbs") != "false")
	})
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, func(ctx context.Context) (string, error) {
		return s.skeletons.Section(ctx, chi.URLParam(r, "textID"), chi.URLParam(r, "sectionID"))
	})
}

// render runs fn under the server timeout and writes its Markdown output.
func (s *Server) render(w http.ResponseWriter, r *http.Request, fn func(context.Context) (string, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	md, err := fn(ctx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		err = catleg.ErrTimeout.Errorf("rendering timed out after %s", s.timeout)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = io.WriteString(w, md)
	if !strings.HasSuffix(md, "\n") {
		_, _ = io.WriteString(w, "\n")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := catleg.ErrorCode(err)
	status := errorStatus(code)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, catleg.ErrorMessage(err)+"\n")
}

// errorStatus maps application error codes to HTTP statuses.
func errorStatus(code string) int {
	switch code {
	case catleg.EINVALID, catleg.EUNSUPPORTED:
		return http.StatusBadRequest
	case catleg.ENOTFOUND:
		return http.StatusNotFound
	case catleg.ETIMEOUT:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
