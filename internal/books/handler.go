package books

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bookward/bookward/internal/auth"
	"github.com/bookward/bookward/internal/platform/httpx"
	"github.com/bookward/bookward/internal/shared"
)

// Handler manages book endpoints. Reads are public; writes go through the
// authentication gate and the policy checks in the service.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      auth.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate auth.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		gate:      gate,
		validator: validator.New(),
	}
}

// MountRoutes registers book routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listBooks)
	r.Get("/{id}", h.getBook)
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Authenticate)
		r.Post("/", h.createBook)
		r.Put("/{id}", h.updateBook)
		r.Delete("/{id}", h.deleteBook)
	})
}

type createBookRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	AuthorID    string `json:"authorId" validate:"omitempty,uuid4"`
}

type updateBookRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Description *string `json:"description"`
}

type listBooksResponse struct {
	Books      []Book `json:"books"`
	TotalCount int64  `json:"totalCount"`
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	limit, offset := shared.ParseLimitOffset(r.URL.Query())
	result, total, err := h.service.ListBooks(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list books", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []Book{}
	}
	httpx.JSON(w, http.StatusOK, listBooksResponse{Books: result, TotalCount: total})
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}
	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		h.logError("get book", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, book)
}

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createBookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := CreateInput{Title: req.Title, Description: req.Description}
	if req.AuthorID != "" {
		authorID, err := uuid.Parse(req.AuthorID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid authorId")
			return
		}
		input.AuthorID = &authorID
	}

	book, err := h.service.CreateBook(r.Context(), identity, input)
	if err != nil {
		h.logError("create book", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, book)
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}
	var req updateBookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	book, err := h.service.UpdateBook(r.Context(), identity, id, UpdateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.logError("update book", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, book)
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteBook(r.Context(), identity, id); err != nil {
		h.logError("delete book", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "book deleted"})
}

func (h *Handler) bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid book id")
		return 0, false
	}
	return id, true
}

func (h *Handler) logError(op string, err error) {
	switch {
	case errors.Is(err, httpx.ErrNotFound),
		errors.Is(err, httpx.ErrForbidden),
		errors.Is(err, httpx.ErrValidation),
		errors.Is(err, httpx.ErrUnauthorized):
		// Expected domain outcomes.
	default:
		h.logger.Error(op, slog.Any("error", err))
	}
}
