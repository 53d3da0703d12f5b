package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Service wraps catalog business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all products.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// Get returns one product or shared.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// First returns the first product of the catalog.
func (s *Service) First(ctx context.Context) (Product, error) {
	return s.repo.First(ctx)
}

// Products resolves ids for the cart. Unknown ids are absent from the result.
func (s *Service) Products(ctx context.Context, ids []int64) (map[int64]Product, error) {
	return s.repo.GetMany(ctx, ids)
}

// Create stores a new product.
func (s *Service) Create(ctx context.Context, in ProductInput) (Product, error) {
	if err := checkInput(in); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, in)
}

// Update modifies an existing product.
func (s *Service) Update(ctx context.Context, id int64, in ProductInput) error {
	if err := checkInput(in); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, in)
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func checkInput(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" || len([]rune(in.Name)) > 100 {
		return fmt.Errorf("%w: name", ErrInvalidProduct)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price", ErrInvalidProduct)
	}
	if in.Stock < 0 {
		return fmt.Errorf("%w: stock", ErrInvalidProduct)
	}
	return nil
}

// ProductForm is the admin product form as submitted.
type ProductForm struct {
	Name          string `form:"name" validate:"required,max=100"`
	Description   string `form:"description"`
	Price         string `form:"price" validate:"required"`
	Stock         string `form:"stock" validate:"required"`
	ImageFilename string `form:"image_filename" validate:"omitempty,max=255,excludesall=/\\"`
}

// Input converts the form into ProductInput, reporting per-field parse errors.
func (f ProductForm) Input() (ProductInput, map[string]string) {
	errs := make(map[string]string)
	in := ProductInput{
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(f.Price), ",", "."))
	switch {
	case err != nil:
		errs["price"] = "Zadejte cenu jako číslo."
	case price.IsNegative():
		errs["price"] = "Cena nesmí být záporná."
	default:
		in.Price = price.Round(2)
	}
	stock, err := strconv.Atoi(strings.TrimSpace(f.Stock))
	switch {
	case err != nil:
		errs["stock"] = "Zadejte počet kusů jako celé číslo."
	case stock < 0:
		errs["stock"] = "Sklad nesmí být záporný."
	default:
		in.Stock = stock
	}
	if name := strings.TrimSpace(f.ImageFilename); name != "" {
		in.ImageFilename = &name
	}
	return in, errs
}

// FormFromProduct pre-fills the admin form.
func FormFromProduct(p Product) ProductForm {
	form := ProductForm{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       strconv.Itoa(p.Stock),
	}
	if p.ImageFilename != nil {
		form.ImageFilename = *p.ImageFilename
	}
	return form
}
