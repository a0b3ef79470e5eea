package backend

import (
	"chat-app/domain"
	"chat-app/domain/mimetypes"
	"chat-app/errors"
	"chat-app/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Objects is the object storage. Uploaded blobs are served over HTTP
// behind a per-object download token.
type Objects struct {
	log     *slog.Logger
	repo    repositories.IObjectRepository
	baseURL string
}

func NewObjects(log *slog.Logger, repo repositories.IObjectRepository, publicBaseURL string) *Objects {
	return &Objects{
		log:     log,
		repo:    repo,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Upload stores data at path. Objects are write-once: an occupied path is
// rejected with errors.ErrObjectExists so earlier download links stay valid.
func (o *Objects) Upload(_ context.Context, owner, path string, data []byte) (domain.ObjectHandle, error) {
	if path == "" {
		return domain.ObjectHandle{}, fmt.Errorf("upload: empty object path")
	}
	object := repositories.StoredObject{
		Path:          path,
		ContentType:   string(mimetypes.Detect(data)),
		Size:          len(data),
		DownloadToken: uuid.NewString(),
		Owner:         owner,
		CreatedAt:     time.Now().UTC(),
	}
	if err := o.repo.PutObject(object, data); err != nil {
		return domain.ObjectHandle{}, fmt.Errorf("upload %s: %w", path, err)
	}
	o.log.Info("Object uploaded", "path", path, "content_type", object.ContentType, "size", object.Size)
	return domain.ObjectHandle{Path: path}, nil
}

// ResolveURL returns the public download URL of an uploaded object.
func (o *Objects) ResolveURL(_ context.Context, handle domain.ObjectHandle) (string, error) {
	object, err := o.repo.GetObject(handle.Path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/objects/%s?token=%s",
		o.baseURL, url.PathEscape(object.Path), object.DownloadToken), nil
}

// Handler serves GET /objects/{path}?token=... and GET /healthz.
func (o *Objects) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/objects/{path}", o.download)
	return r
}

func (o *Objects) download(w http.ResponseWriter, r *http.Request) {
	path, err := url.PathUnescape(chi.URLParam(r, "path"))
	if err != nil {
		http.Error(w, "invalid object path", http.StatusBadRequest)
		return
	}

	object, err := o.repo.GetObject(path)
	if stderrors.Is(err, errors.ErrObjectNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		o.log.Error("Object lookup failed", "path", path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if r.URL.Query().Get("token") != object.DownloadToken {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	data, err := o.repo.GetObjectData(path)
	if err != nil {
		o.log.Error("Object read failed", "path", path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", object.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
