package books

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shelfline/shelfline/internal/platform/httpx"
	"github.com/shelfline/shelfline/internal/shared"
)

// Handler wires HTTP endpoints for the book catalog.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	validator     *validator.Validate
	maxImageBytes int64
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, maxImageBytes int64) *Handler {
	return &Handler{
		logger:        logger,
		service:       service,
		validator:     validator.New(),
		maxImageBytes: maxImageBytes,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
		return
	}

	req, err := h.decodeMultipart(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed",
			"missing required fields: title, author, publish year, and image")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed",
			"missing required fields: title, author, publish year, and image")
		return
	}

	book, err := h.service.Create(r.Context(), identity.UserID, *req)
	if err != nil {
		h.logger.Error("create book", slog.Int64("owner", identity.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{"book": book})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
		return
	}

	result, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
		return
	}
	id, err := bookID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}

	book, err := h.service.Get(r.Context(), identity.UserID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, book)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
		return
	}
	id, err := bookID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}

	var req UpdateBookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed",
			"missing required fields: title, author, or publish year")
		return
	}

	book, err := h.service.Update(r.Context(), identity.UserID, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Book updated successfully",
		"book":    book,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
		return
	}
	id, err := bookID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}

	book, err := h.service.Delete(r.Context(), identity.UserID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":     "Book deleted successfully",
		"deletedBook": book,
	})
}

// decodeMultipart reads the multipart create form. Any absent field fails
// the request; validation errors are reported uniformly by the caller.
func (h *Handler) decodeMultipart(r *http.Request) (*CreateBookRequest, error) {
	if err := r.ParseMultipartForm(h.maxImageBytes); err != nil {
		return nil, err
	}

	year, err := strconv.Atoi(r.FormValue("publishYear"))
	if err != nil {
		return nil, errors.New("publish year must be a number")
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, errors.New("image payload missing")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxImageBytes {
		return nil, errors.New("image too large")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &CreateBookRequest{
		Title:       r.FormValue("title"),
		Author:      r.FormValue("author"),
		PublishYear: year,
		Image:       data,
		ContentType: contentType,
	}, nil
}

func bookID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
