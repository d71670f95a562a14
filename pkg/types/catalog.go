package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Product 商品记录。检索侧所需的只有名称/描述全文检索与 ILIKE 兜底，
// 其余均为普通 CRUD 管道。
type Product struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	CategoryID  string `json:"category_id" db:"category_id"`
	PriceCents  int64  `json:"price_cents" db:"price_cents"`
	ImageURL    string `json:"image_url" db:"image_url"`
	InStock     bool   `json:"in_stock" db:"in_stock"`
	Active      bool   `json:"active" db:"active"`
	CreatedAt   int64  `json:"created_at" db:"created_at"`
	UpdatedAt   int64  `json:"updated_at" db:"updated_at"`
}

type ListProductOptions struct {
	CategoryID string
	ActiveOnly bool
	InStock    *bool
}

func (opts ListProductOptions) Apply(query *sq.SelectBuilder) {
	if opts.CategoryID != "" {
		*query = query.Where(sq.Eq{"category_id": opts.CategoryID})
	}
	if opts.ActiveOnly {
		*query = query.Where(sq.Eq{"active": true})
	}
	if opts.InStock != nil {
		*query = query.Where(sq.Eq{"in_stock": *opts.InStock})
	}
}

type Category struct {
	ID        string `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Rank      int    `json:"rank" db:"rank"`
	Active    bool   `json:"active" db:"active"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}

type Banner struct {
	ID        string `json:"id" db:"id"`
	Title     string `json:"title" db:"title"`
	ImageURL  string `json:"image_url" db:"image_url"`
	TargetURL string `json:"target_url" db:"target_url"`
	Active    bool   `json:"active" db:"active"`
	StartsAt  int64  `json:"starts_at" db:"starts_at"`
	EndsAt    int64  `json:"ends_at" db:"ends_at"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}

type OrderItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

type OrderItems []OrderItem

func (items OrderItems) Value() (driver.Value, error) {
	if items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(items)
}

func (items *OrderItems) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, items)
	case string:
		return json.Unmarshal([]byte(v), items)
	case nil:
		*items = OrderItems{}
		return nil
	default:
		return fmt.Errorf("unsupported jsonb scan source %T", value)
	}
}

const (
	ORDER_STATUS_PLACED     = "placed"
	ORDER_STATUS_PACKING    = "packing"
	ORDER_STATUS_DISPATCHED = "dispatched"
	ORDER_STATUS_DELIVERED  = "delivered"
	ORDER_STATUS_CANCELLED  = "cancelled"
)

type Order struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	Status     string     `json:"status" db:"status"`
	TotalCents int64      `json:"total_cents" db:"total_cents"`
	Items      OrderItems `json:"items" db:"items"`
	CreatedAt  int64      `json:"created_at" db:"created_at"`
	UpdatedAt  int64      `json:"updated_at" db:"updated_at"`
}
