package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-service/internal/apperror"
	"sales-service/internal/model"
	"sales-service/internal/service"
	"sales-service/internal/validation"
	"sales-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
)

type fakeSaleService struct {
	ListFn   func(ctx context.Context) ([]model.Sale, error)
	CreateFn func(ctx context.Context, in service.CreateSaleInput) (*model.Sale, error)
}

func (f *fakeSaleService) List(ctx context.Context) ([]model.Sale, error) { return f.ListFn(ctx) }
func (f *fakeSaleService) Create(ctx context.Context, in service.CreateSaleInput) (*model.Sale, error) {
	return f.CreateFn(ctx, in)
}

type fakeProductService struct {
	ListFn   func(ctx context.Context) ([]model.Product, error)
	GetFn    func(ctx context.Context, id uint) (*model.Product, error)
	CreateFn func(ctx context.Context, in service.CreateProductInput) (*model.Product, error)
	UpdateFn func(ctx context.Context, id uint, in service.UpdateProductInput) (*model.Product, error)
	DeleteFn func(ctx context.Context, id uint) error
}

func (f *fakeProductService) List(ctx context.Context) ([]model.Product, error) { return f.ListFn(ctx) }
func (f *fakeProductService) Get(ctx context.Context, id uint) (*model.Product, error) {
	return f.GetFn(ctx, id)
}
func (f *fakeProductService) Create(ctx context.Context, in service.CreateProductInput) (*model.Product, error) {
	return f.CreateFn(ctx, in)
}
func (f *fakeProductService) Update(ctx context.Context, id uint, in service.UpdateProductInput) (*model.Product, error) {
	return f.UpdateFn(ctx, id, in)
}
func (f *fakeProductService) Delete(ctx context.Context, id uint) error { return f.DeleteFn(ctx, id) }

type fakeClientService struct {
	ListFn          func(ctx context.Context) ([]model.Client, error)
	SalesFn         func(ctx context.Context, id uint) ([]model.Sale, error)
	SalesByPeriodFn func(ctx context.Context, id uint, year, month string) ([]model.Sale, error)
	DeleteFn        func(ctx context.Context, id uint) error
}

func (f *fakeClientService) List(ctx context.Context) ([]model.Client, error) { return f.ListFn(ctx) }
func (f *fakeClientService) Sales(ctx context.Context, id uint) ([]model.Sale, error) {
	return f.SalesFn(ctx, id)
}
func (f *fakeClientService) SalesByPeriod(ctx context.Context, id uint, year, month string) ([]model.Sale, error) {
	return f.SalesByPeriodFn(ctx, id, year, month)
}
func (f *fakeClientService) Create(ctx context.Context, in service.CreateClientInput) (*model.Client, error) {
	return &model.Client{ID: 1, Name: in.Name}, nil
}
func (f *fakeClientService) Update(ctx context.Context, id uint, in service.UpdateClientInput) (*model.Client, error) {
	return &model.Client{ID: id}, nil
}
func (f *fakeClientService) Delete(ctx context.Context, id uint) error { return f.DeleteFn(ctx, id) }

// fakeAuthService only implements Login; other methods are not routed in tests
type fakeAuthService struct {
	LoginFn func(ctx context.Context, in service.LoginInput) (*service.Token, error)
}

func (f *fakeAuthService) Signup(ctx context.Context, in service.SignupInput) (*service.Token, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAuthService) Login(ctx context.Context, in service.LoginInput) (*service.Token, error) {
	return f.LoginFn(ctx, in)
}
func (f *fakeAuthService) Me(ctx context.Context, userID uint) (*model.User, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAuthService) Logout(ctx context.Context, claims *jwtutil.UserClaims) error {
	return errors.New("not implemented")
}
func (f *fakeAuthService) Refresh(ctx context.Context, claims *jwtutil.UserClaims) (*service.Token, error) {
	return nil, errors.New("not implemented")
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	e.HTTPErrorHandler = ErrorHandler
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestCreateSale(t *testing.T) {
	e := newTestEcho()
	svc := &fakeSaleService{
		CreateFn: func(ctx context.Context, in service.CreateSaleInput) (*model.Sale, error) {
			if in.Quantity == 5 {
				return nil, apperror.BusinessRule("Not enough stock available")
			}
			return &model.Sale{ID: 1, ClientID: in.ClientID, ProductID: in.ProductID, Quantity: in.Quantity, UnitPrice: 50, TotalPrice: 150}, nil
		},
	}
	h := NewSaleHandler(svc)
	e.POST("/sales", h.Create)

	rec := do(e, http.MethodPost, "/sales", `{"client_id":1,"product_id":1,"quantity":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Status  string     `json:"status"`
		Message string     `json:"message"`
		Data    model.Sale `json:"data"`
	}
	decode(t, rec, &created)
	if created.Status != "success" || created.Message != "Sale executed successfully" || created.Data.TotalPrice != 150 {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/sales", `{"client_id":1,"product_id":1,"quantity":5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Not enough stock available"}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestCreateSaleValidation(t *testing.T) {
	e := newTestEcho()
	h := NewSaleHandler(&fakeSaleService{
		CreateFn: func(ctx context.Context, in service.CreateSaleInput) (*model.Sale, error) {
			t.Fatal("service must not be called with invalid input")
			return nil, nil
		},
	})
	e.POST("/sales", h.Create)

	rec := do(e, http.MethodPost, "/sales", `{"quantity":0}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body ErrorResponse
	decode(t, rec, &body)
	if body.Error != "Validation Error" {
		t.Fatalf("unexpected error: %q", body.Error)
	}
	for _, field := range []string{"client_id", "product_id", "quantity"} {
		if len(body.Messages[field]) == 0 {
			t.Errorf("expected message for %s, got %v", field, body.Messages)
		}
	}
}

func TestProductBodyErrors(t *testing.T) {
	e := newTestEcho()
	h := NewProductHandler(&fakeProductService{})
	e.POST("/products", h.CreateProduct)

	rec := do(e, http.MethodPost, "/products", `{"name":`)
	var body ErrorResponse
	decode(t, rec, &body)
	if rec.Code != http.StatusUnprocessableEntity || len(body.Messages["body"]) != 1 {
		t.Fatalf("expected 422 body error, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/products", `{"name":"Mouse","sku":"M","price":1,"quantity":"many"}`)
	body = ErrorResponse{}
	decode(t, rec, &body)
	if rec.Code != http.StatusUnprocessableEntity || len(body.Messages["quantity"]) != 1 {
		t.Fatalf("expected 422 quantity error, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestCreateProductAcceptsZeroQuantity(t *testing.T) {
	e := newTestEcho()
	var got service.CreateProductInput
	h := NewProductHandler(&fakeProductService{
		CreateFn: func(ctx context.Context, in service.CreateProductInput) (*model.Product, error) {
			got = in
			return &model.Product{ID: 1, Name: in.Name, Quantity: *in.Quantity}, nil
		},
	})
	e.POST("/products", h.CreateProduct)

	rec := do(e, http.MethodPost, "/products", `{"name":"Cable","sku":"C-1","price":0,"quantity":0}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.Quantity == nil || *got.Quantity != 0 || got.IsActive != nil {
		t.Fatalf("unexpected input: %+v", got)
	}
}

func TestGetProductNotFound(t *testing.T) {
	e := newTestEcho()
	h := NewProductHandler(&fakeProductService{
		GetFn: func(ctx context.Context, id uint) (*model.Product, error) {
			return nil, apperror.NotFound("Product not found.")
		},
	})
	e.GET("/products/:id", h.GetProduct)

	for _, path := range []string{"/products/abc", "/products/9"} {
		rec := do(e, http.MethodGet, path, "")
		var body ErrorResponse
		decode(t, rec, &body)
		if rec.Code != http.StatusNotFound || body.Error != "Product not found." {
			t.Fatalf("%s: expected 404, got %d %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestDeleteReturnsNoContent(t *testing.T) {
	e := newTestEcho()
	var deleted uint
	h := NewClientHandler(&fakeClientService{
		DeleteFn: func(ctx context.Context, id uint) error {
			deleted = id
			return nil
		},
	})
	e.DELETE("/clients/:id", h.Delete)

	rec := do(e, http.MethodDelete, "/clients/4", "")
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 || deleted != 4 {
		t.Fatalf("expected empty 204 for client 4, got %d %q (deleted %d)", rec.Code, rec.Body.String(), deleted)
	}
}

func TestClientSalesByPeriodParams(t *testing.T) {
	e := newTestEcho()
	h := NewClientHandler(&fakeClientService{
		SalesByPeriodFn: func(ctx context.Context, id uint, year, month string) ([]model.Sale, error) {
			if year != "2024" || month != "03" {
				return nil, apperror.BusinessRule("Invalid month or year provided.")
			}
			return []model.Sale{{ID: 1, ClientID: id}}, nil
		},
	})
	e.GET("/clients/:id/sales/:year/:month", h.SalesByPeriod)

	rec := do(e, http.MethodGet, "/clients/2/sales/2024/03", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = do(e, http.MethodGet, "/clients/2/sales/xx/03", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	e := newTestEcho()
	h := NewClientHandler(&fakeClientService{
		ListFn: func(ctx context.Context) ([]model.Client, error) {
			return nil, apperror.Internal("Failed to retrieve clients.", errors.New("pq: connection refused"))
		},
	})
	e.GET("/clients", h.List)

	rec := do(e, http.MethodGet, "/clients", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("cause leaked: %s", rec.Body.String())
	}
	var body ErrorResponse
	decode(t, rec, &body)
	if body.Error != "Server Error" || body.Message != "Failed to retrieve clients." {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestListClients(t *testing.T) {
	e := newTestEcho()
	h := NewClientHandler(&fakeClientService{
		ListFn: func(ctx context.Context) ([]model.Client, error) {
			return []model.Client{
				{ID: 1, Name: "Ana", Address: &model.Address{ID: 10, ClientID: 1, City: "Olinda"}},
				{ID: 2, Name: "Bia", Address: &model.Address{ID: 11, ClientID: 2, City: "Recife"}},
			}, nil
		},
	})
	e.GET("/clients", h.List)

	rec := do(e, http.MethodGet, "/clients", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Status  string         `json:"status"`
		Message string         `json:"message"`
		Data    []model.Client `json:"data"`
	}
	decode(t, rec, &body)
	if body.Status != "success" || body.Message != "Clients retrieved successfully." {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
	if len(body.Data) != 2 || body.Data[0].ID != 1 || body.Data[1].ID != 2 {
		t.Fatalf("unexpected order: %s", rec.Body.String())
	}
	if body.Data[0].Address == nil || body.Data[0].Address.City != "Olinda" {
		t.Fatalf("address missing from payload: %s", rec.Body.String())
	}
}

func TestListSales(t *testing.T) {
	e := newTestEcho()
	h := NewSaleHandler(&fakeSaleService{
		ListFn: func(ctx context.Context) ([]model.Sale, error) {
			return []model.Sale{{ID: 5, ClientID: 1, ProductID: 1, Quantity: 2}, {ID: 4, ClientID: 2, ProductID: 1, Quantity: 1}}, nil
		},
	})
	e.GET("/sales", h.List)

	rec := do(e, http.MethodGet, "/sales", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Status  string       `json:"status"`
		Message string       `json:"message"`
		Data    []model.Sale `json:"data"`
	}
	decode(t, rec, &body)
	if body.Status != "success" || body.Message != "Sales retrieved successfully." {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
	if len(body.Data) != 2 || body.Data[0].ID != 5 || body.Data[1].ID != 4 {
		t.Fatalf("expected newest sale first: %s", rec.Body.String())
	}
}

func TestLoginMalformedEmailIsUnauthorized(t *testing.T) {
	e := newTestEcho()
	called := 0
	h := NewAuthHandler(&fakeAuthService{
		LoginFn: func(ctx context.Context, in service.LoginInput) (*service.Token, error) {
			called++
			return nil, apperror.Unauthorized("Invalid email or password.")
		},
	})
	e.POST("/auth/login", h.Login)

	for _, body := range []string{`{"email":"not-an-email","password":"x"}`, `{}`} {
		rec := do(e, http.MethodPost, "/auth/login", body)
		var resp ErrorResponse
		decode(t, rec, &resp)
		if rec.Code != http.StatusUnauthorized || resp.Error != "Invalid email or password." {
			t.Fatalf("%s: expected 401, got %d %s", body, rec.Code, rec.Body.String())
		}
	}
	if called != 2 {
		t.Fatalf("expected the service to see both attempts, got %d", called)
	}
}

func TestUnknownRoute(t *testing.T) {
	e := newTestEcho()
	rec := do(e, http.MethodGet, "/nope", "")
	var body ErrorResponse
	decode(t, rec, &body)
	if rec.Code != http.StatusNotFound || body.Error != "Not Found" {
		t.Fatalf("expected 404 Not Found, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestMeRequiresAuthenticatedUser(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(nil)
	e.GET("/auth/me", h.Me)

	rec := do(e, http.MethodGet, "/auth/me", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	e := newTestEcho()
	e.GET("/health", NewHealthHandler(fakePinger{}).Health)
	if rec := do(e, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	e = newTestEcho()
	e.GET("/health", NewHealthHandler(fakePinger{err: errors.New("down")}).Health)
	if rec := do(e, http.MethodGet, "/health", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
