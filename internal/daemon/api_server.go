package daemon

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"inkframe/internal/compositor"
	"inkframe/internal/config"
	"inkframe/internal/logging"
)

const (
	thumbnailWidth  = 400
	thumbnailHeight = 300
)

//go:embed remote.html
var remotePage string

var remoteTemplate = template.Must(template.New("remote").Parse(remotePage))

type remoteView struct {
	Thumbnail string
	Caption   string
	Paused    bool
	Casting   bool
	Query     string
}

type apiServer struct {
	bind      string
	token     string
	maxUpload int64
	logger    *slog.Logger
	daemon    *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, errors.New("remote requires config and daemon")
	}
	bind := strings.TrimSpace(cfg.Remote.Bind)
	if bind == "" {
		return nil, errors.New("remote.bind is empty")
	}

	srv := &apiServer{
		bind:      bind,
		token:     cfg.Remote.Token,
		maxUpload: cfg.MaxUploadBytes(),
		logger:    logger,
		daemon:    d,
	}
	srv.server = &http.Server{
		Handler:           srv.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("/next", s.command(s.daemon.Next))
	mux.HandleFunc("/previous", s.command(s.daemon.Previous))
	mux.HandleFunc("/toggle-pause", s.command(func() { s.daemon.TogglePause() }))
	mux.HandleFunc("/resume", s.command(s.daemon.Resume))
	mux.HandleFunc("POST /cast", s.handleCast)
	mux.HandleFunc("GET /preview.jpg", s.handlePreview)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	return withRequestID(authMiddleware(s.token, mux))
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("remote listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("remote server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("remote listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// command applies a control action and sends the browser back to the page.
func (s *apiServer) command(action func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		action()
		logging.WithContext(r.Context(), s.log()).Debug("remote command", logging.String("route", r.URL.Path))
		s.redirectHome(w, r)
	}
}

func (s *apiServer) handleHome(w http.ResponseWriter, r *http.Request) {
	snapshot := s.daemon.Playback().Snapshot()
	view := remoteView{
		Paused:  snapshot.Paused,
		Casting: snapshot.Casting(),
		Query:   tokenQuery(r),
	}
	if snapshot.CurrentPath != "" {
		view.Caption = compositor.DisplayName(snapshot.CurrentPath)
		if thumb, err := thumbnail(snapshot.CurrentPath); err == nil {
			view.Thumbnail = base64.StdEncoding.EncodeToString(thumb)
		} else {
			logging.WithContext(r.Context(), s.log()).Debug("thumbnail unavailable",
				logging.String(logging.FieldPath, snapshot.CurrentPath),
				logging.Error(err),
			)
		}
	}

	var buf bytes.Buffer
	if err := remoteTemplate.Execute(&buf, view); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *apiServer) handleCast(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Image too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "No image uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()
	if strings.TrimSpace(header.Filename) == "" {
		http.Error(w, "No image uploaded", http.StatusBadRequest)
		return
	}

	if err := s.daemon.Cast(r.Context(), file, header.Filename); err != nil {
		if errors.Is(err, ErrEmptyCast) {
			http.Error(w, "No image uploaded", http.StatusBadRequest)
			return
		}
		logging.WarnWithContext(logging.WithContext(r.Context(), s.log()), "cast upload failed", "cast_failed",
			logging.String("filename", header.Filename),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.cast_path is writable"),
			logging.String(logging.FieldImpact, "the uploaded image is not shown"),
		)
		http.Error(w, "Cast failed", http.StatusInternalServerError)
		return
	}
	s.redirectHome(w, r)
}

func (s *apiServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	current := s.daemon.Playback().CurrentPath()
	if current == "" {
		s.writeError(w, http.StatusNotFound, "nothing displayed yet")
		return
	}
	thumb, err := thumbnail(current)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "preview unavailable")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(thumb)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+tokenQuery(r), http.StatusSeeOther)
}

// tokenQuery carries a ?token= parameter through redirects and page links.
func tokenQuery(r *http.Request) string {
	token := r.URL.Query().Get("token")
	if token == "" {
		return ""
	}
	return "?" + url.Values{"token": {token}}.Encode()
}

// thumbnail renders a JPEG preview no larger than 400x300.
func thumbnail(path string) ([]byte, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > thumbnailWidth || img.Bounds().Dy() > thumbnailHeight {
		img = imaging.Fit(img, thumbnailWidth, thumbnailHeight, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "remote"))
	}
	return logging.NewNop()
}
