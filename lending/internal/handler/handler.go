package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	"github.com/Astemirdum/library-lending/pkg/auth"
	"github.com/Astemirdum/library-lending/pkg/kafka"
	md "github.com/Astemirdum/library-lending/pkg/middleware"
	"github.com/Astemirdum/library-lending/pkg/validate"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Handler struct {
	lendingSvc LendingService
	log        *zap.Logger
	jwtKey     []byte
	authn      echo.MiddlewareFunc
	checkAcc   bool
	now        func() time.Time
}

type Option func(*Handler)

// WithJWTKey switches authentication from gateway headers to HS256 bearer tokens.
func WithJWTKey(key []byte) Option {
	return func(h *Handler) {
		h.jwtKey = key
	}
}

// WithAuthenticator takes precedence over both the JWT key and gateway headers.
func WithAuthenticator(mw echo.MiddlewareFunc) Option {
	return func(h *Handler) {
		h.authn = mw
	}
}

// WithAccountCheck rejects identities that contradict the role or library
// of a registered account with the same username.
func WithAccountCheck() Option {
	return func(h *Handler) {
		h.checkAcc = true
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

func New(lendingSvc LendingService, log *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		lendingSvc: lendingSvc,
		log:        log.Named("handler"),
		now:        time.Now,
	}
	for _, op := range opts {
		op(h)
	}
	return h
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	var authn echo.MiddlewareFunc = md.AuthContext
	switch {
	case h.authn != nil:
		authn = h.authn
	case len(h.jwtKey) > 0:
		authn = md.JwtAuthentication(h.jwtKey)
	}
	chain := func(role auth.Role) []echo.MiddlewareFunc {
		if h.checkAcc {
			return []echo.MiddlewareFunc{authn, h.accountCheck, md.RequireRole(role)}
		}
		return []echo.MiddlewareFunc{authn, md.RequireRole(role)}
	}
	borrower := chain(auth.RoleBorrower)
	librarian := chain(auth.RoleLibrarian)

	api.POST("/accounts", h.Register)
	api.GET("/accounts/:username/profile", h.GetProfile, borrower...)

	api.GET("/libraries", h.ListLibraries, borrower...)
	api.GET("/libraries/:libraryId", h.GetLibrary, borrower...)
	api.GET("/libraries/:libraryId/books", h.ListBooks, borrower...)

	api.GET("/books/:bookId", h.GetBook, borrower...)
	api.POST("/books/:bookId/borrow", h.Borrow, borrower...)
	api.POST("/books/:bookId/return", h.Return, borrower...)
	api.GET("/loans/active", h.ActiveLoans, borrower...)

	api.POST("/books", h.AddBook, librarian...)
	api.POST("/books/import", h.ImportBook, librarian...)
	api.PUT("/books/:bookId", h.EditBook, librarian...)
	api.DELETE("/books/:bookId", h.DeleteBook, librarian...)

	dashboard := api.Group("/dashboard", librarian...)
	dashboard.GET("", h.Dashboard)
	dashboard.GET("/top", h.TopBorrowed)
	dashboard.GET("/lent", h.CurrentlyLent)

	return e
}

func (h *Handler) accountCheck(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identity(c)
		if err != nil {
			return err
		}
		if err = h.lendingSvc.VerifyIdentity(c.Request().Context(), id); err != nil {
			return h.httpError(err)
		}
		return next(c)
	}
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) Register(c echo.Context) error {
	var acc model.Account
	if err := c.Bind(&acc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&acc); err != nil {
		return h.httpError(err)
	}
	created, err := h.lendingSvc.Register(c.Request().Context(), acc)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetProfile(c echo.Context) error {
	username := c.Param("username")
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "empty username")
	}
	profile, err := h.lendingSvc.GetProfile(c.Request().Context(), username)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) ListLibraries(c echo.Context) error {
	page, size, err := paging(c)
	if err != nil {
		return err
	}
	libs, err := h.lendingSvc.ListLibrary(c.Request().Context(), c.QueryParam("city"), page, size)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, libs)
}

func (h *Handler) GetLibrary(c echo.Context) error {
	libraryID, err := pathID(c, "libraryId")
	if err != nil {
		return err
	}
	lib, err := h.lendingSvc.GetLibrary(c.Request().Context(), libraryID)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, lib)
}

func (h *Handler) ListBooks(c echo.Context) error {
	libraryID, err := pathID(c, "libraryId")
	if err != nil {
		return err
	}
	page, size, err := paging(c)
	if err != nil {
		return err
	}
	var showAll bool
	if showAllParam := c.QueryParam("showAll"); showAllParam != "" {
		if showAll, err = strconv.ParseBool(showAllParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "showAll is invalid")
		}
	}
	books, err := h.lendingSvc.ListBooks(c.Request().Context(), libraryID, showAll, page, size)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) GetBook(c echo.Context) error {
	bookID, err := pathID(c, "bookId")
	if err != nil {
		return err
	}
	detail, err := h.lendingSvc.GetBook(c.Request().Context(), bookID)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) Borrow(c echo.Context) error {
	bookID, err := pathID(c, "bookId")
	if err != nil {
		return err
	}
	id, err := identity(c)
	if err != nil {
		return err
	}
	loan, err := h.lendingSvc.Borrow(c.Request().Context(), bookID, id.UserName, h.now())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, loan)
}

func (h *Handler) Return(c echo.Context) error {
	bookID, err := pathID(c, "bookId")
	if err != nil {
		return err
	}
	id, err := identity(c)
	if err != nil {
		return err
	}
	loan, err := h.lendingSvc.Return(c.Request().Context(), bookID, id.UserName, h.now())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, loan)
}

func (h *Handler) ActiveLoans(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	n, err := h.lendingSvc.ActiveLoansFor(c.Request().Context(), id.UserName)
	if err != nil {
		return h.httpError(err)
	}
	type resp struct {
		Borrower string `json:"borrower"`
		Active   int    `json:"active"`
	}
	return c.JSON(http.StatusOK, resp{Borrower: id.UserName, Active: n})
}

func (h *Handler) AddBook(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req model.BookRequest
	if err = c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(&req); err != nil {
		return h.httpError(err)
	}
	book, err := h.lendingSvc.AddBook(c.Request().Context(), id.LibraryID, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) ImportBook(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var imp kafka.CatalogImport
	if err = c.Bind(&imp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	imp.LibraryID = id.LibraryID
	book, err := h.lendingSvc.ImportBook(c.Request().Context(), imp)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) EditBook(c echo.Context) error {
	bookID, err := pathID(c, "bookId")
	if err != nil {
		return err
	}
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req model.BookRequest
	if err = c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(&req); err != nil {
		return h.httpError(err)
	}
	book, err := h.lendingSvc.EditBook(c.Request().Context(), id.LibraryID, bookID, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	bookID, err := pathID(c, "bookId")
	if err != nil {
		return err
	}
	id, err := identity(c)
	if err != nil {
		return err
	}
	if err = h.lendingSvc.DeleteBook(c.Request().Context(), id.LibraryID, bookID); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Dashboard(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	d, err := h.lendingSvc.Dashboard(c.Request().Context(), id.LibraryID)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) TopBorrowed(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var limit int
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if limit, err = strconv.Atoi(limitParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit is invalid")
		}
	}
	items, err := h.lendingSvc.TopBorrowed(c.Request().Context(), id.LibraryID, limit)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CurrentlyLent(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	items, err := h.lendingSvc.CurrentlyLent(c.Request().Context(), id.LibraryID)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

// httpError maps domain errors onto status codes. Unmapped errors are logged
// and answered with a bare 500.
func (h *Handler) httpError(err error) *echo.HTTPError {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr), errors.Is(err, errs.ErrInvalidArgument):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrUnavailable),
		errors.Is(err, errs.ErrNotBorrowed),
		errors.Is(err, errs.ErrHasLoanHistory),
		errors.Is(err, errs.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrLimitExceeded):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errs.ErrForbidden), errors.Is(err, auth.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	h.log.Error("request failed", zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func identity(c echo.Context) (auth.Identity, error) {
	id, err := auth.FromContext(c.Request().Context())
	if err != nil {
		return auth.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return id, nil
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" is invalid")
	}
	return id, nil
}

func paging(c echo.Context) (page, size int, err error) {
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if page, err = strconv.Atoi(pageParam); err != nil {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "page is invalid")
		}
	}
	if sizeParam := c.QueryParam("size"); sizeParam != "" {
		if size, err = strconv.Atoi(sizeParam); err != nil {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "size is invalid")
		}
	}
	return page, size, nil
}
