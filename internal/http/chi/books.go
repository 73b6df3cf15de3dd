package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/marcelsud/bookshelf-api/book"
	"github.com/marcelsud/bookshelf-api/internal/user"
)

/*
* Web representation of a book, which is why it carries json tags.
* The owner is never accepted from the body, it comes from the token.
 */
type createBookRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Author      string   `json:"author" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Category    string   `json:"category" validate:"required"`
	User        *string  `json:"user" validate:"isdefault"`
}

type updateBookRequest struct {
	Title       *string  `json:"title" validate:"omitnil,min=1"`
	Description *string  `json:"description"`
	Author      *string  `json:"author" validate:"omitnil,min=1"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0"`
	Category    *string  `json:"category"`
	User        *string  `json:"user" validate:"isdefault"`
}

type bookResponse struct {
	ID          string    `json:"id"`
	User        string    `json:"user"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var errBadRequestBody = errors.New("invalid request body")

func newBookResponse(b book.Book) bookResponse {
	return bookResponse{
		ID:          b.ID,
		User:        b.User,
		Title:       b.Title,
		Description: b.Description,
		Author:      b.Author,
		Price:       b.Price,
		Category:    b.Category.String(),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	return validateRequest(v)
}

// pageFrom reads ?page=, anything missing or below 1 is the first page
func pageFrom(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func getBooks(bookService book.UseCase, perPage int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		all, err := bookService.List(r.Context(), book.Filter{
			Keyword: r.URL.Query().Get("keyword"),
			Page:    pageFrom(r),
			PerPage: perPage,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		result := make([]bookResponse, 0, len(all))
		for _, b := range all {
			result = append(result, newBookResponse(b))
		}
		writeJSON(w, http.StatusOK, result)
	})
}

func getBook(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := bookService.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newBookResponse(b))
	})
}

func postBooks(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createBookRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		u, _ := user.FromContext(r.Context())

		b, err := bookService.Create(r.Context(), book.CreateInput{
			User:        u.ID,
			Title:       req.Title,
			Description: req.Description,
			Author:      req.Author,
			Price:       *req.Price,
			Category:    book.NewCategory(req.Category),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, newBookResponse(b))
	})
}

func putBook(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req updateBookRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		p := book.Patch{
			Title:       req.Title,
			Description: req.Description,
			Author:      req.Author,
			Price:       req.Price,
		}
		if req.Category != nil {
			c := book.NewCategory(*req.Category)
			p.Category = &c
		}

		b, found, err := bookService.Update(r.Context(), chi.URLParam(r, "id"), p)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !found {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeJSON(w, http.StatusOK, newBookResponse(b))
	})
}

func deleteBook(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := bookService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}
