package handler

import (
	"errors"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"studykwork/internal/app"
	"studykwork/internal/storage"
	"studykwork/internal/transport/http/middleware"
	"studykwork/internal/transport/http/response"
)

const imagesField = "images"

// multipartOverhead covers the text fields and part headers of a create request.
const multipartOverhead = 1 << 20

type ListingHandler struct {
	listingService *app.ListingService
	maxFiles       int
	maxBodyBytes   int64
}

func NewListingHandler(listingService *app.ListingService, maxFiles int, maxFileBytes int64) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
		maxFiles:       maxFiles,
		maxBodyBytes:   int64(maxFiles)*maxFileBytes + multipartOverhead,
	}
}

func (h *ListingHandler) List(c *gin.Context) {
	list, err := h.listingService.List(c.Request.Context(), app.ListInput{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		MinPrice: priceBound(c.Query("minPrice")),
		MaxPrice: priceBound(c.Query("maxPrice")),
	})
	if err != nil {
		writeError(c, err, "list listings")
		return
	}
	response.OK(c, list)
}

func (h *ListingHandler) Get(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, app.ErrListingNotFound.Error())
		return
	}

	listing, err := h.listingService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "get listing")
		return
	}
	response.OK(c, listing)
}

// Create accepts multipart/form-data (or a plain urlencoded form without images).
func (h *ListingHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	if err := c.Request.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, app.ErrImageTooLarge.Error())
			return
		case errors.Is(err, http.ErrNotMultipart):
			if err := c.Request.ParseForm(); err != nil {
				response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
				return
			}
		default:
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
	}
	if form := c.Request.MultipartForm; form != nil {
		defer form.RemoveAll()
	}

	files := uploadedFiles(c.Request.MultipartForm)
	if len(files) > h.maxFiles {
		writeError(c, app.ErrTooManyImages, "create listing")
		return
	}

	uploads := make([]storage.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to open uploaded file")
			return
		}
		defer f.Close()
		uploads = append(uploads, storage.Upload{
			Filename: fh.Filename,
			Size:     fh.Size,
			Reader:   f,
		})
	}

	listing, err := h.listingService.Create(c.Request.Context(), app.CreateListingInput{
		OwnerID:     user.ID,
		Title:       c.Request.FormValue("title"),
		Category:    c.Request.FormValue("category"),
		Price:       c.Request.FormValue("price"),
		Description: c.Request.FormValue("description"),
		Phone:       c.Request.FormValue("phone"),
		WhatsApp:    c.Request.FormValue("whatsapp"),
		Telegram:    c.Request.FormValue("telegram"),
		Images:      uploads,
	})
	if err != nil {
		writeError(c, err, "create listing")
		return
	}
	response.Created(c, listing)
}

func (h *ListingHandler) ListMine(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	list, err := h.listingService.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err, "list my listings")
		return
	}
	response.OK(c, list)
}

func (h *ListingHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}
	id, ok := listingID(c)
	if !ok {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, app.ErrListingNotFound.Error())
		return
	}

	if err := h.listingService.Delete(c.Request.Context(), id, user.ID); err != nil {
		writeError(c, err, "delete listing")
		return
	}
	response.OK(c, gin.H{"ok": true})
}

func listingID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// priceBound parses an optional filter bound; blank or unparseable input means no bound.
func priceBound(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	bound := int(math.Max(math.Min(value, math.MaxInt32), math.MinInt32))
	return &bound
}

func uploadedFiles(form *multipart.Form) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	files := form.File[imagesField]
	if len(files) == 0 {
		files = form.File[imagesField+"[]"]
	}
	return files
}
