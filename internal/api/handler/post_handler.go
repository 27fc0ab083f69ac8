package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/inkwell/blog/internal/api/metrics"
	"github.com/inkwell/blog/internal/api/middleware"
	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
	"github.com/inkwell/blog/internal/core/query"
)

const imageField = "featuredImage"

// PostHandler serves the post, search and comment routes.
type PostHandler struct {
	service ports.PostService
}

func NewPostHandler(service ports.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// List handles GET /posts.
//
// @Summary      List published posts
// @Tags         posts
// @Produce      json
// @Param        page      query     int     false  "Page number, starting at 1"
// @Param        limit     query     int     false  "Page size (default 10, max 100)"
// @Param        category  query     string  false  "Category id, or all"
// @Param        search    query     string  false  "Case-insensitive text over title, content and excerpt"
// @Param        sort      query     string  false  "newest, oldest, mostViewed or titleAscending"
// @Success      200       {object}  listPostsResponse
// @Failure      400       {object}  validationErrorResponse
// @Router       /posts [get]
func (h *PostHandler) List(c echo.Context) error {
	params, err := parseListParams(c)
	if err != nil {
		return err
	}

	page, err := h.service.List(c.Request().Context(), params)
	if err != nil {
		return err
	}

	metrics.ListingResultSize.WithLabelValues("list").Observe(float64(len(page.Items)))
	return c.JSON(http.StatusOK, toListResponse(page))
}

// Search handles GET /posts/search.
//
// @Summary      Search published posts
// @Tags         posts
// @Produce      json
// @Param        q      query     string  true   "Search text"
// @Param        limit  query     int     false  "Maximum results (default 10, max 50)"
// @Success      200    {array}   postSummaryResponse
// @Failure      400    {object}  validationErrorResponse
// @Router       /posts/search [get]
func (h *PostHandler) Search(c echo.Context) error {
	limit, err := positiveInt(c, "limit", 0)
	if err != nil {
		return err
	}

	items, err := h.service.Search(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return err
	}

	metrics.ListingResultSize.WithLabelValues("search").Observe(float64(len(items)))
	return c.JSON(http.StatusOK, toSummaryResponses(items))
}

// Get handles GET /posts/:idOrSlug.
//
// @Summary      Get a post by id or slug
// @Tags         posts
// @Produce      json
// @Param        idOrSlug  path      string  true  "Post id or slug"
// @Success      200       {object}  postResponse
// @Failure      404       {object}  messageResponse
// @Router       /posts/{idOrSlug} [get]
func (h *PostHandler) Get(c echo.Context) error {
	in := ports.GetPostInput{
		IDOrSlug: c.Param("idOrSlug"),
		ClientIP: c.RealIP(),
	}
	if p := middleware.PrincipalFrom(c); p != nil {
		in.ViewerID = p.UserID
	}

	detail, err := h.service.Get(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponse(detail))
}

// Create handles POST /posts.
//
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        body           body      postRequest  true   "Post fields"
// @Param        featuredImage  formData  file         false  "Featured image (multipart only)"
// @Success      201            {object}  postResponse
// @Failure      400            {object}  validationErrorResponse
// @Failure      401            {object}  messageResponse
// @Failure      413            {object}  messageResponse
// @Router       /posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req postRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		return err
	}
	defer closeImage()

	detail, err := h.service.Create(c.Request().Context(), toCreateInput(req, p.UserID, image))
	if err != nil {
		return err
	}

	metrics.PostsWrittenTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, toPostResponse(detail))
}

// Update handles PUT /posts/:id.
//
// @Summary      Update a post
// @Tags         posts
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id             path      string       true   "Post id"
// @Param        body           body      postRequest  true   "Post fields"
// @Param        featuredImage  formData  file         false  "Replacement image (multipart only)"
// @Success      200            {object}  postResponse
// @Failure      400            {object}  validationErrorResponse
// @Failure      401            {object}  messageResponse
// @Failure      403            {object}  messageResponse
// @Failure      404            {object}  messageResponse
// @Router       /posts/{id} [put]
func (h *PostHandler) Update(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req postRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		return err
	}
	defer closeImage()

	detail, err := h.service.Update(c.Request().Context(), toUpdateInput(req, c.Param("id"), p.UserID, image))
	if err != nil {
		return err
	}

	metrics.PostsWrittenTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, toPostResponse(detail))
}

// Delete handles DELETE /posts/:id.
//
// @Summary      Delete a post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post id"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /posts/{id} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), c.Param("id"), p.UserID); err != nil {
		return err
	}

	metrics.PostsWrittenTotal.WithLabelValues("delete").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "post deleted"})
}

// AddComment handles POST /posts/:id/comments.
//
// @Summary      Comment on a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Post id"
// @Param        body  body      commentRequest  true  "Comment"
// @Success      201   {object}  commentResponse
// @Failure      400   {object}  validationErrorResponse
// @Failure      401   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /posts/{id}/comments [post]
func (h *PostHandler) AddComment(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req commentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	cv, err := h.service.AddComment(c.Request().Context(), c.Param("id"), p.UserID, req.Content)
	if err != nil {
		return err
	}

	metrics.CommentsCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, toCommentResponse(*cv))
}

// formImage returns the uploaded featured image of a multipart request, or
// nil when none was sent. The returned func closes the upload.
func formImage(c echo.Context) (*ports.ImageUpload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, noop, nil
	}
	fh, err := c.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, domain.NewValidationError(imageField, "invalid file upload")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return toImageUpload(fh, f), func() { _ = f.Close() }, nil
}

// parseListParams reads the listing query. Absent values take defaults;
// present but malformed ones are rejected.
func parseListParams(c echo.Context) (query.Params, error) {
	ve := &domain.ValidationError{}

	page, err := positiveInt(c, "page", query.DefaultPage)
	if err != nil {
		ve.Add("page", "page must be a positive integer")
	}
	size, err := positiveInt(c, "limit", query.DefaultPageSize)
	if err != nil {
		ve.Add("limit", "limit must be a positive integer")
	}

	category := strings.TrimSpace(c.QueryParam("category"))
	if category != "" && category != query.AllCategories && !domain.IsID(category) {
		ve.Add("category", "category must be a valid identifier or all")
	}

	sort, err := query.ParseSort(c.QueryParam("sort"))
	if err != nil {
		ve.Add("sort", "sort must be one of newest, oldest, mostViewed, titleAscending")
	}

	if err := ve.OrNil(); err != nil {
		return query.Params{}, err
	}
	return query.Params{
		Page:       page,
		PageSize:   size,
		CategoryID: category,
		Search:     c.QueryParam("search"),
		Sort:       sort,
	}, nil
}

// positiveInt parses an optional positive integer query parameter.
func positiveInt(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.NewValidationError(name, name+" must be a positive integer")
	}
	return n, nil
}
