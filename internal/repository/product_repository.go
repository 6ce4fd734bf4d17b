package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/fulfillment/internal/db"
	"github.com/nikolayk812/fulfillment/internal/domain"
	"github.com/nikolayk812/fulfillment/internal/port"
	"golang.org/x/text/currency"
)

type productRepository struct {
	q *db.Queries
}

func NewProduct(pool *pgxpool.Pool) port.ProductRepository {
	return &productRepository{
		q: db.New(pool),
	}
}

func NewProductWithTx(tx pgx.Tx) port.ProductRepository {
	return &productRepository{
		q: db.New(tx),
	}
}

func (r *productRepository) GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	dbProduct, err := r.q.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("q.GetProduct: %w", domain.ErrProductNotFound)
		}
		return domain.Product{}, fmt.Errorf("q.GetProduct: %w", err)
	}

	product, err := mapDBProductToDomain(dbProduct)
	if err != nil {
		return domain.Product{}, fmt.Errorf("mapDBProductToDomain: %w", err)
	}

	return product, nil
}

func (r *productRepository) InsertProduct(ctx context.Context, product domain.Product) (uuid.UUID, error) {
	if product.SKU == "" {
		return uuid.Nil, errors.New("sku is empty")
	}
	if product.Stock < 0 {
		return uuid.Nil, fmt.Errorf("stock[%d] is negative", product.Stock)
	}
	if product.Stock > domain.MaxQuantity {
		return uuid.Nil, fmt.Errorf("stock[%d] exceeds %d", product.Stock, domain.MaxQuantity)
	}

	productID, err := r.q.InsertProduct(ctx, db.InsertProductParams{
		Sku:           product.SKU,
		Name:          product.Name,
		Description:   product.Description,
		PriceAmount:   product.Price.Amount,
		PriceCurrency: product.Price.Currency.String(),
		Stock:         int32(product.Stock),
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("q.InsertProduct: %w", err)
	}

	return productID, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return 0, err
	}

	stock, err := r.q.DecrementStock(ctx, db.DecrementStockParams{
		ID:       productID,
		Quantity: int32(quantity),
	})
	if err == nil {
		return int(stock), nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("q.DecrementStock: %w", err)
	}

	// no row updated: either the product is absent or its stock is too low
	available, err := r.q.GetProductStock(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("q.GetProductStock: %w", domain.ErrProductNotFound)
		}
		return 0, fmt.Errorf("q.GetProductStock: %w", err)
	}

	return 0, &domain.InsufficientStockError{
		ProductID: productID,
		Requested: quantity,
		Available: int(available),
	}
}

func (r *productRepository) IncrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return 0, err
	}

	stock, err := r.q.IncrementStock(ctx, db.IncrementStockParams{
		ID:       productID,
		Quantity: int32(quantity),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("q.IncrementStock: %w", domain.ErrProductNotFound)
		}
		return 0, fmt.Errorf("q.IncrementStock: %w", err)
	}

	return int(stock), nil
}

func mapDBProductToDomain(p db.Product) (domain.Product, error) {
	parsedCurrency, err := currency.ParseISO(p.PriceCurrency)
	if err != nil {
		return domain.Product{}, fmt.Errorf("currency[%s] is not valid: %w", p.PriceCurrency, err)
	}

	return domain.Product{
		ID:          p.ID,
		SKU:         p.Sku,
		Name:        p.Name,
		Description: p.Description,
		Price:       domain.Money{Amount: p.PriceAmount, Currency: parsedCurrency},
		Stock:       int(p.Stock),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}
