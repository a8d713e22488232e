package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/handler"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	"github.com/Astemirdum/library-lending/pkg/auth"
	"github.com/Astemirdum/library-lending/pkg/validate"
	"github.com/golang-jwt/jwt/v4"
	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	service_mocks "github.com/Astemirdum/library-lending/lending/internal/handler/mocks"
)

var fixedNow = time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)

func newRouter(t *testing.T, opts ...handler.Option) (*service_mocks.MockLendingService, *echo.Echo) {
	t.Helper()
	c := gomock.NewController(t)
	svc := service_mocks.NewMockLendingService(c)
	opts = append([]handler.Option{handler.WithClock(func() time.Time { return fixedNow })}, opts...)
	h := handler.New(svc, zap.NewExample().Named("test"), opts...)
	return svc, h.NewRouter()
}

type identity struct {
	name, role, library string
}

var (
	reader    = identity{name: "reader", role: "borrower"}
	librarian = identity{name: "keeper", role: "librarian", library: "1"}
)

func do(e *echo.Echo, method, target, body string, id *identity) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, http.NoBody)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if id != nil {
		r.Header.Set(auth.XUserNameHeader, id.name)
		r.Header.Set(auth.XUserRoleHeader, id.role)
		r.Header.Set(auth.XUserLibraryHeader, id.library)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	return w
}

func TestHandler_ListBooks(t *testing.T) {
	t.Parallel()
	type input struct {
		libraryID  string
		page, size int
		showAll    bool
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLendingService, req input)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLendingService, req input) {
				r.EXPECT().
					ListBooks(context.Background(), int64(1), req.showAll, req.page, req.size).
					Return(model.ListBooks{
						Paging: model.Paging{
							Page:          req.page,
							PageSize:      req.size,
							TotalElements: 1,
						},
						Items: []model.Book{
							{
								ID:        3,
								Title:     "Краткий курс C++ в 7 томах",
								Author:    "Бьерн Страуструп",
								LibraryID: 1,
								Available: true,
							},
						},
					}, nil)
			},
			input: input{libraryID: "1", page: 1, size: 10, showAll: true},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"page":1,"pageSize":10,"totalElements":1,"items":[{"id":3,"title":"Краткий курс C++ в 7 томах","author":"Бьерн Страуструп","isbn":"","info":"","imageSrc":"","libraryId":1,"available":true}]}`,
			},
		},
		{
			name:         "err. invalid library id",
			mockBehavior: func(r *service_mocks.MockLendingService, inp input) {},
			input:        input{libraryID: "abc"},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"libraryId is invalid"}`,
			},
		},
		{
			name: "err. library not found",
			mockBehavior: func(r *service_mocks.MockLendingService, inp input) {
				r.EXPECT().
					ListBooks(context.Background(), int64(404), inp.showAll, inp.page, inp.size).
					Return(model.ListBooks{}, errs.ErrNotFound)
			},
			input: input{libraryID: "404"},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"not found"}`,
			},
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockLendingService, inp input) {
				r.EXPECT().
					ListBooks(context.Background(), int64(1), inp.showAll, inp.page, inp.size).
					Return(model.ListBooks{}, errors.New("db internal"))
			},
			input: input{libraryID: "1"},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"Internal Server Error"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLendingService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.GET("/libraries/:libraryId/books", h.ListBooks)

			r := httptest.NewRequest(
				http.MethodGet, fmt.Sprintf("/libraries/%s/books?page=%d&size=%d&showAll=%v", tt.input.libraryID, tt.input.page, tt.input.size, tt.input.showAll), http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc, tt.input)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_Borrow(t *testing.T) {
	t.Parallel()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	var tests = []struct {
		name         string
		id           *identity
		mockBehavior func(r *service_mocks.MockLendingService)
		expectedCode int
		expectedBody string
	}{
		{
			name: "ok",
			id:   &reader,
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					Borrow(gomock.Any(), int64(1), "reader", fixedNow).
					Return(model.Loan{
						ID:               9,
						LoanUid:          "0c6c1f6e-6c1b-4f1d-9d8a-2a5d3f3b1e11",
						BookID:           1,
						BorrowedBy:       "reader",
						BorrowDate:       day(1),
						LatestReturnDate: day(16),
					}, nil)
			},
			expectedCode: http.StatusCreated,
			expectedBody: `{"loanUid":"0c6c1f6e-6c1b-4f1d-9d8a-2a5d3f3b1e11","bookId":1,"borrowedBy":"reader","borrowDate":"2024-01-01T00:00:00Z","latestReturnDate":"2024-01-16T00:00:00Z","returned":null}`,
		},
		{
			name: "err. unavailable",
			id:   &reader,
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					Borrow(gomock.Any(), int64(1), "reader", fixedNow).
					Return(model.Loan{}, errors.Wrap(errs.ErrUnavailable, "borrow book 1"))
			},
			expectedCode: http.StatusConflict,
			expectedBody: `{"message":"borrow book 1: book is not available"}`,
		},
		{
			name: "err. limit exceeded",
			id:   &reader,
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					Borrow(gomock.Any(), int64(1), "reader", fixedNow).
					Return(model.Loan{}, errs.ErrLimitExceeded)
			},
			expectedCode: http.StatusUnprocessableEntity,
			expectedBody: `{"message":"active loan limit reached"}`,
		},
		{
			name: "err. book not found",
			id:   &reader,
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					Borrow(gomock.Any(), int64(1), "reader", fixedNow).
					Return(model.Loan{}, errs.ErrNotFound)
			},
			expectedCode: http.StatusNotFound,
			expectedBody: `{"message":"not found"}`,
		},
		{
			name:         "err. no identity",
			mockBehavior: func(r *service_mocks.MockLendingService) {},
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"message":"user-name is empty"}`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, e := newRouter(t)
			tt.mockBehavior(svc)

			w := do(e, http.MethodPost, "/api/v1/books/1/borrow", "", tt.id)

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_Return(t *testing.T) {
	t.Parallel()
	svc, e := newRouter(t)

	svc.EXPECT().
		Return(gomock.Any(), int64(2), "reader", fixedNow).
		Return(model.Loan{}, errs.ErrNotBorrowed)

	w := do(e, http.MethodPost, "/api/v1/books/2/return", "", &reader)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, `{"message":"book is not borrowed by this user"}`, strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_Roles(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		name         string
		method       string
		target       string
		id           *identity
		mockBehavior func(r *service_mocks.MockLendingService)
		expectedCode int
	}{
		{
			name:         "borrower cannot open dashboard",
			method:       http.MethodGet,
			target:       "/api/v1/dashboard",
			id:           &reader,
			mockBehavior: func(r *service_mocks.MockLendingService) {},
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "librarian without library is denied",
			method:       http.MethodGet,
			target:       "/api/v1/dashboard/lent",
			id:           &identity{name: "keeper", role: "librarian"},
			mockBehavior: func(r *service_mocks.MockLendingService) {},
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "unknown role",
			method:       http.MethodGet,
			target:       "/api/v1/loans/active",
			id:           &identity{name: "x", role: "admin"},
			mockBehavior: func(r *service_mocks.MockLendingService) {},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:   "librarian acts as borrower",
			method: http.MethodGet,
			target: "/api/v1/loans/active",
			id:     &librarian,
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().ActiveLoansFor(gomock.Any(), "keeper").Return(1, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:   "librarian top borrowed",
			method: http.MethodGet,
			target: "/api/v1/dashboard/top?limit=3",
			id:     &librarian,
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().TopBorrowed(gomock.Any(), int64(1), 3).Return([]model.Frequency{}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "borrower cannot add books",
			method:       http.MethodPost,
			target:       "/api/v1/books",
			id:           &reader,
			mockBehavior: func(r *service_mocks.MockLendingService) {},
			expectedCode: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, e := newRouter(t)
			tt.mockBehavior(svc)

			w := do(e, tt.method, tt.target, "", tt.id)
			require.Equal(t, tt.expectedCode, w.Code, w.Body.String())
		})
	}
}

func TestHandler_DeleteBook(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		name         string
		err          error
		expectedCode int
	}{
		{name: "ok", expectedCode: http.StatusNoContent},
		{name: "err. other library", err: errs.ErrForbidden, expectedCode: http.StatusForbidden},
		{name: "err. loan history", err: errs.ErrHasLoanHistory, expectedCode: http.StatusConflict},
		{name: "err. not found", err: errs.ErrNotFound, expectedCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, e := newRouter(t)
			svc.EXPECT().DeleteBook(gomock.Any(), int64(1), int64(5)).Return(tt.err)

			w := do(e, http.MethodDelete, "/api/v1/books/5", "", &librarian)
			require.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestHandler_AddBook(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		svc, e := newRouter(t)
		req := model.BookRequest{Title: "Dune", Author: "Frank Herbert"}
		svc.EXPECT().AddBook(gomock.Any(), int64(1), req).
			Return(model.Book{ID: 10, Title: "Dune", Author: "Frank Herbert", LibraryID: 1, Available: true}, nil)

		w := do(e, http.MethodPost, "/api/v1/books", `{"title":"Dune","author":"Frank Herbert"}`, &librarian)
		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t,
			`{"id":10,"title":"Dune","author":"Frank Herbert","isbn":"","info":"","imageSrc":"","libraryId":1,"available":true}`,
			strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("err. title required", func(t *testing.T) {
		t.Parallel()
		_, e := newRouter(t)

		w := do(e, http.MethodPost, "/api/v1/books", `{"author":"Frank Herbert"}`, &librarian)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Register(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		svc, e := newRouter(t)
		acc := model.Account{Username: "reader", Email: "reader@example.com", Role: "borrower"}
		svc.EXPECT().Register(gomock.Any(), acc).Return(acc, nil)

		w := do(e, http.MethodPost, "/api/v1/accounts", `{"username":"reader","email":"reader@example.com","role":"borrower"}`, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, `{"username":"reader","email":"reader@example.com","role":"borrower"}`, strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("err. bad role", func(t *testing.T) {
		t.Parallel()
		_, e := newRouter(t)

		w := do(e, http.MethodPost, "/api/v1/accounts", `{"username":"reader","role":"admin"}`, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("err. duplicate", func(t *testing.T) {
		t.Parallel()
		svc, e := newRouter(t)
		svc.EXPECT().Register(gomock.Any(), gomock.Any()).Return(model.Account{}, errs.ErrAlreadyExists)

		w := do(e, http.MethodPost, "/api/v1/accounts", `{"username":"reader","role":"borrower"}`, nil)
		require.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHandler_JWT(t *testing.T) {
	t.Parallel()
	key := []byte("secret")
	svc, e := newRouter(t, handler.WithJWTKey(key))
	svc.EXPECT().ActiveLoansFor(gomock.Any(), "reader").Return(2, nil)

	claims := &auth.Claims{}
	claims.Profile.Username = "reader"
	claims.Profile.Role = string(auth.RoleBorrower)
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/loans/active", http.NoBody)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"borrower":"reader","active":2}`, strings.Trim(w.Body.String(), "\n"))

	w = do(e, http.MethodGet, "/api/v1/loans/active", "", &reader)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()
	_, e := newRouter(t)

	w := do(e, http.MethodGet, "/manage/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())
}

func TestHandler_CustomAuthenticator(t *testing.T) {
	t.Parallel()
	authn := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := auth.SetAuthContext(req.Context(), auth.Identity{UserName: "sso-user", Role: auth.RoleBorrower})
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
	svc, e := newRouter(t, handler.WithJWTKey([]byte("ignored")), handler.WithAuthenticator(authn))
	svc.EXPECT().ActiveLoansFor(gomock.Any(), "sso-user").Return(0, nil)

	w := do(e, http.MethodGet, "/api/v1/loans/active", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"borrower":"sso-user","active":0}`, strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_AccountCheck(t *testing.T) {
	t.Parallel()

	t.Run("registered identity passes", func(t *testing.T) {
		t.Parallel()
		svc, e := newRouter(t, handler.WithAccountCheck())
		gomock.InOrder(
			svc.EXPECT().VerifyIdentity(gomock.Any(), auth.Identity{UserName: "reader", Role: auth.RoleBorrower}).Return(nil),
			svc.EXPECT().ActiveLoansFor(gomock.Any(), "reader").Return(2, nil),
		)

		w := do(e, http.MethodGet, "/api/v1/loans/active", "", &reader)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("role contradicts the account", func(t *testing.T) {
		t.Parallel()
		svc, e := newRouter(t, handler.WithAccountCheck())
		svc.EXPECT().
			VerifyIdentity(gomock.Any(), auth.Identity{UserName: "keeper", Role: auth.RoleLibrarian, LibraryID: 1}).
			Return(errors.Wrap(errs.ErrForbidden, "keeper is registered as borrower"))

		w := do(e, http.MethodGet, "/api/v1/dashboard", "", &librarian)
		require.Equal(t, http.StatusForbidden, w.Code)
		require.Equal(t, `{"message":"keeper is registered as borrower: forbidden"}`, strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("lookup failure is not leaked", func(t *testing.T) {
		t.Parallel()
		svc, e := newRouter(t, handler.WithAccountCheck())
		svc.EXPECT().VerifyIdentity(gomock.Any(), gomock.Any()).Return(errors.New(`pq: relation "accounts" does not exist`))

		w := do(e, http.MethodGet, "/api/v1/loans/active", "", &reader)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Equal(t, `{"message":"Internal Server Error"}`, strings.Trim(w.Body.String(), "\n"))
	})
}
