package handler

import (
	"net/http"

	"bookreviews/library-service/internal/app/library/entity"
	"bookreviews/library-service/internal/app/library/service"

	"github.com/gin-gonic/gin"
)

type BookHandler struct {
	bookService service.BookServiceInterface
}

func NewBookHandler(bookService service.BookServiceInterface) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// ListBooks GET /api/books?genre=&author=&search=&page=&limit=&sortBy=&order=
func (h *BookHandler) ListBooks(c *gin.Context) {
	var query entity.BookListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, "Invalid query parameters", err)
		return
	}

	resp, err := h.bookService.ListBooks(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *BookHandler) GetBook(c *gin.Context) {
	book, err := h.bookService.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, book)
}

func (h *BookHandler) CreateBook(c *gin.Context) {
	var req entity.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "Invalid request body", err)
		return
	}

	book, err := h.bookService.CreateBook(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, book)
}

func (h *BookHandler) UpdateBook(c *gin.Context) {
	var req entity.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "Invalid request body", err)
		return
	}

	book, err := h.bookService.UpdateBook(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, book)
}

// DeleteBook удаляет книгу вместе с отзывами
func (h *BookHandler) DeleteBook(c *gin.Context) {
	deleted, err := h.bookService.DeleteBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.DeleteBookResponse{
		Message:        "Book and associated reviews deleted successfully",
		ReviewsDeleted: deleted,
	})
}

func (h *BookHandler) GetBookReviews(c *gin.Context) {
	reviews, err := h.bookService.GetBookReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reviews)
}
