package todo

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/todos-api/internal/auth"
	"github.com/redmonkez12/todos-api/internal/httputil"
	"github.com/redmonkez12/todos-api/internal/images"
	"github.com/redmonkez12/todos-api/internal/logging"
	"github.com/redmonkez12/todos-api/internal/pagination"
	"github.com/redmonkez12/todos-api/internal/user"
)

// multipart overhead allowed on top of the image size limit
const formOverhead = 1 << 20

// Identifier resolves the caller of a request
type Identifier interface {
	Identify(r *http.Request, req auth.Requirement) (*user.User, error)
}

// Handler contains HTTP handlers for /todos and the image endpoint
type Handler struct {
	service       *Service
	identity      Identifier
	maxImageBytes int64
	showDetails   bool
}

func NewHandler(service *Service, identity Identifier, maxImageBytes int64, showDetails bool) *Handler {
	return &Handler{
		service:       service,
		identity:      identity,
		maxImageBytes: maxImageBytes,
		showDetails:   showDetails,
	}
}

// TodoForm holds the text fields of a todo form
type TodoForm struct {
	Title string `json:"title" validate:"required,min=4,max=140"`
	Text  string `json:"text" validate:"required,min=5,max=1000"`
}

// List handles GET /todos/?page=N
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := h.identify(w, r)
	if !ok {
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.RespondError(w, "page must be a positive integer", httputil.CodeValidationError, http.StatusBadRequest)
			return
		}
		page = n
	}

	result, err := h.service.List(r.Context(), u.ID, page, listURL(r))
	if err != nil {
		h.respondServiceError(w, r, err, "failed to list todos")
		return
	}

	httputil.RespondJSON(w, result, http.StatusOK)
}

// Create handles POST /todos/ with a multipart form
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := h.identify(w, r)
	if !ok {
		return
	}

	in, cleanup, err := h.parseForm(w, r)
	if err != nil {
		h.respondFormError(w, r, err)
		return
	}
	defer cleanup()

	created, err := h.service.Create(r.Context(), u.ID, in)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to create todo")
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("todo created", "user_id", u.ID, "todo_id", created.ID)
	httputil.RespondJSON(w, created, http.StatusCreated)
}

// Get handles GET /todos/{id}/
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := h.identify(w, r)
	if !ok {
		return
	}

	id, ok := todoID(w, r)
	if !ok {
		return
	}

	found, err := h.service.Get(r.Context(), u.ID, id)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get todo")
		return
	}

	httputil.RespondJSON(w, found, http.StatusOK)
}

// Update handles PUT /todos/{id}/ with a multipart form
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := h.identify(w, r)
	if !ok {
		return
	}

	id, ok := todoID(w, r)
	if !ok {
		return
	}

	in, cleanup, err := h.parseForm(w, r)
	if err != nil {
		h.respondFormError(w, r, err)
		return
	}
	defer cleanup()

	updated, err := h.service.Update(r.Context(), u.ID, id, in)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to update todo")
		return
	}

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Delete handles DELETE /todos/{id}/
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := h.identify(w, r)
	if !ok {
		return
	}

	id, ok := todoID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), u.ID, id); err != nil {
		h.respondServiceError(w, r, err, "failed to delete todo")
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("todo deleted", "user_id", u.ID, "todo_id", id)
	httputil.RespondNoContent(w)
}

// GetImage handles GET /main/media/images/{filename}/
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	u, ok := h.identify(w, r)
	if !ok {
		return
	}

	filename := chi.URLParam(r, "filename")
	rc, err := h.service.OpenImage(r.Context(), u.ID, filename)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to open image")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, filename, time.Time{}, rs)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		logging.GetLoggerFromContext(r.Context()).Warn("failed to stream image", "filename", filename, "error", err)
	}
}

func (h *Handler) identify(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	u, err := h.identity.Identify(r, auth.ConfirmedUser)
	if err != nil {
		auth.RespondIdentityError(w, r, err, h.showDetails)
		return nil, false
	}
	return u, true
}

// parseForm reads title, text and the optional image. The returned cleanup
// releases temporary files of the multipart form.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (Input, func(), error) {
	noop := func() {}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+formOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return Input{}, noop, err
		}
		if err := r.ParseForm(); err != nil {
			return Input{}, noop, err
		}
	}

	cleanup := noop
	if r.MultipartForm != nil {
		form := r.MultipartForm
		cleanup = func() { _ = form.RemoveAll() }
	}

	dto := TodoForm{
		Title: r.FormValue("title"),
		Text:  r.FormValue("text"),
	}
	if err := httputil.Validate(dto); err != nil {
		cleanup()
		return Input{}, noop, err
	}

	in := Input{Title: dto.Title, Text: dto.Text}
	if r.MultipartForm == nil {
		return in, cleanup, nil
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		cleanup()
		return Input{}, noop, err
	default:
		in.Image = uploadFromPart(file, header)
		prev := cleanup
		cleanup = func() {
			file.Close()
			prev()
		}
	}

	return in, cleanup, nil
}

func uploadFromPart(file multipart.File, header *multipart.FileHeader) *images.Upload {
	return &images.Upload{
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}

func (h *Handler) respondFormError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *httputil.ValidationError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &validationErr):
		httputil.RespondDecodeError(w, err)
	case errors.As(err, &maxBytesErr):
		httputil.RespondError(w, "Image is too large.", httputil.CodeImageTooLarge, http.StatusBadRequest)
	default:
		logging.GetLoggerFromContext(r.Context()).Warn("invalid todo form", "error", err.Error())
		httputil.RespondError(w, "invalid form body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondError(w, "Todo not found.", httputil.CodeTodoNotFound, http.StatusNotFound)
	case errors.Is(err, pagination.ErrPageNotFound):
		httputil.RespondError(w, "Page not found.", httputil.CodePageNotFound, http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		httputil.RespondError(w, err.Error(), httputil.CodeValidationError, http.StatusBadRequest)
	case errors.Is(err, images.ErrInvalidContentType):
		httputil.RespondError(w, "Invalid content type.", httputil.CodeInvalidContentType, http.StatusBadRequest)
	case errors.Is(err, images.ErrTooLarge):
		httputil.RespondError(w, "Image is too large.", httputil.CodeImageTooLarge, http.StatusBadRequest)
	case errors.Is(err, images.ErrInvalidImage):
		httputil.RespondError(w, "Invalid image.", httputil.CodeInvalidImage, http.StatusBadRequest)
	case errors.Is(err, images.ErrNotFound):
		httputil.RespondError(w, "Image not found.", httputil.CodeImageNotFound, http.StatusNotFound)
	default:
		logging.GetLoggerFromContext(r.Context()).Error(message, "error", err.Error())
		httputil.RespondInternalError(w, message, err, h.showDetails)
	}
}

func todoID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		httputil.RespondError(w, "Todo not found.", httputil.CodeTodoNotFound, http.StatusNotFound)
		return 0, false
	}
	return id, true
}

// listURL is the absolute URL of the listing the request was made to,
// without query.
func listURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.Path
}
