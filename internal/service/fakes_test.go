package service

import (
	"context"
	"time"

	"sales-service/internal/model"
	"sales-service/internal/repository"
)

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID uint
	// createErr, when set, is returned by Create instead of storing the user
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	u.ID = f.nextID
	f.users[u.Email] = u
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, ok := f.users[email]
	return ok, nil
}

type fakeTokenRepo struct {
	revoked map[string]time.Time
}

func (f *fakeTokenRepo) Revoke(ctx context.Context, t *model.RevokedToken) (bool, error) {
	if f.revoked == nil {
		f.revoked = map[string]time.Time{}
	}
	if _, ok := f.revoked[t.ID]; ok {
		return false, nil
	}
	f.revoked[t.ID] = t.ExpiresAt
	return true, nil
}

func (f *fakeTokenRepo) IsRevoked(ctx context.Context, id string) (bool, error) {
	_, ok := f.revoked[id]
	return ok, nil
}

func (f *fakeTokenRepo) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

// fakeClientRepo delegates to function fields; unset fields panic so tests
// notice unexpected calls
type fakeClientRepo struct {
	ListFn        func(ctx context.Context) ([]model.Client, error)
	FindByIDFn    func(ctx context.Context, id uint) (*model.Client, error)
	ExistsFn      func(ctx context.Context, id uint) (bool, error)
	CPFExistsFn   func(ctx context.Context, cpf string, exclude uint) (bool, error)
	EmailExistsFn func(ctx context.Context, email string, exclude uint) (bool, error)
	CreateFn      func(ctx context.Context, c *model.Client) error
	UpdateFn      func(ctx context.Context, id uint, apply repository.ClientFunc) (*model.Client, error)
	DeleteFn      func(ctx context.Context, id uint) error
	ListSalesFn   func(ctx context.Context, clientID uint, period *repository.Period) ([]model.Sale, error)
}

func (f *fakeClientRepo) List(ctx context.Context) ([]model.Client, error) { return f.ListFn(ctx) }
func (f *fakeClientRepo) FindByID(ctx context.Context, id uint) (*model.Client, error) {
	return f.FindByIDFn(ctx, id)
}
func (f *fakeClientRepo) Exists(ctx context.Context, id uint) (bool, error) { return f.ExistsFn(ctx, id) }
func (f *fakeClientRepo) CPFExists(ctx context.Context, cpf string, exclude uint) (bool, error) {
	return f.CPFExistsFn(ctx, cpf, exclude)
}
func (f *fakeClientRepo) EmailExists(ctx context.Context, email string, exclude uint) (bool, error) {
	return f.EmailExistsFn(ctx, email, exclude)
}
func (f *fakeClientRepo) Create(ctx context.Context, c *model.Client) error { return f.CreateFn(ctx, c) }
func (f *fakeClientRepo) Update(ctx context.Context, id uint, apply repository.ClientFunc) (*model.Client, error) {
	return f.UpdateFn(ctx, id, apply)
}
func (f *fakeClientRepo) Delete(ctx context.Context, id uint) error { return f.DeleteFn(ctx, id) }
func (f *fakeClientRepo) ListSales(ctx context.Context, clientID uint, period *repository.Period) ([]model.Sale, error) {
	return f.ListSalesFn(ctx, clientID, period)
}

// fakeProductRepo keeps products in memory
type fakeProductRepo struct {
	products map[uint]*model.Product
	nextID   uint
	// writes records the columns of every Update
	writes    []map[string]interface{}
	createErr error
}

func newFakeProductRepo(products ...model.Product) *fakeProductRepo {
	f := &fakeProductRepo{products: map[uint]*model.Product{}}
	for i := range products {
		p := products[i]
		f.products[p.ID] = &p
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
	}
	return f
}

func (f *fakeProductRepo) ListActive(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range f.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) Exists(ctx context.Context, id uint) (bool, error) {
	_, ok := f.products[id]
	return ok, nil
}

func (f *fakeProductRepo) SKUExists(ctx context.Context, sku string, exclude uint) (bool, error) {
	for _, p := range f.products {
		if p.SKU == sku && p.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProductRepo) Create(ctx context.Context, p *model.Product) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeProductRepo) Update(ctx context.Context, id uint, apply repository.ProductFunc) (*model.Product, error) {
	p, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cols, err := apply(p)
	if err != nil {
		return nil, err
	}
	f.writes = append(f.writes, cols)
	f.products[id] = p
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) Deactivate(ctx context.Context, id uint) error {
	p, ok := f.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.IsActive = false
	return nil
}

// fakeSaleRepo applies sales against a fakeProductRepo, keeping the product
// untouched when apply fails
type fakeSaleRepo struct {
	products *fakeProductRepo
	sales    []model.Sale
	// insertErr, when set, fails the insert after apply ran
	insertErr error
}

func (f *fakeSaleRepo) List(ctx context.Context) ([]model.Sale, error) { return f.sales, nil }

func (f *fakeSaleRepo) Record(ctx context.Context, productID uint, apply repository.SaleFunc) (*model.Sale, *model.Product, error) {
	product, err := f.products.FindByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	sale, err := apply(product)
	if err != nil {
		return nil, nil, err
	}
	if f.insertErr != nil {
		return nil, nil, f.insertErr
	}
	sale.ID = uint(len(f.sales) + 1)
	f.sales = append(f.sales, *sale)
	f.products.products[productID] = product
	return sale, product, nil
}
