package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProductStatusActive     = "active"
	ProductStatusInactive   = "inactive"
	ProductStatusOutOfStock = "out_of_stock"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type Rating struct {
	Average float64 `gorm:"default:0" json:"average"`
	Count   int64   `gorm:"default:0" json:"count"`
}

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"            json:"id"`
	LegacyID    *int64    `gorm:"uniqueIndex"                     json:"legacy_id,omitempty"`
	Title       string    `gorm:"not null"                        json:"title"`
	Description string    `gorm:"not null"                        json:"description"`
	Price       float64   `gorm:"not null;check:price >= 0"       json:"price"`
	Discount    float64   `gorm:"default:0"                       json:"discount"`
	CategoryID  uuid.UUID `gorm:"type:uuid;index;not null"        json:"category_id"`
	Category    *Category `gorm:"foreignKey:CategoryID"           json:"category,omitempty"`
	Images      []string  `gorm:"serializer:json"                 json:"images"`
	Stock       int64     `gorm:"not null;check:stock >= 0"       json:"stock"`
	Status      string    `gorm:"not null;default:active"         json:"status"`
	Featured    bool      `gorm:"default:false"                   json:"featured"`
	Rating      Rating    `gorm:"embedded;embeddedPrefix:rating_" json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FinalPrice is the unit price after the percentage discount.
func (p *Product) FinalPrice() float64 {
	return p.Price * (1 - p.Discount/100)
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps status in sync with stock on full-record saves:
// stock 0 forces out_of_stock, and a product that was out_of_stock
// comes back as active once stock is positive again.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	if p.Stock == 0 {
		p.Status = ProductStatusOutOfStock
	} else if p.Status == ProductStatusOutOfStock {
		p.Status = ProductStatusActive
	}
	return nil
}

type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex"          json:"slug"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Country string `json:"country"`
	ZipCode string `json:"zip_code"`
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"        json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"    json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"          json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID"        json:"product,omitempty"`
	Quantity  int64     `gorm:"not null;check:quantity > 0" json:"quantity"`
	// UnitPrice is frozen at order time and never recalculated.
	UnitPrice float64 `gorm:"not null" json:"unit_price"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type Order struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey"              json:"id"`
	UserID          uuid.UUID   `gorm:"type:uuid;index;not null"          json:"user_id"`
	User            *User       `gorm:"foreignKey:UserID"                 json:"user,omitempty"`
	Items           []OrderItem `gorm:"constraint:OnDelete:CASCADE"       json:"items"`
	ShippingAddress Address     `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	PaymentMethod   string      `gorm:"not null"                          json:"payment_method"`
	Subtotal        float64     `gorm:"not null"                          json:"subtotal"`
	Shipping        float64     `gorm:"not null"                          json:"shipping"`
	Tax             float64     `gorm:"not null"                          json:"tax"`
	Total           float64     `gorm:"not null"                          json:"total"`
	Status          OrderStatus `gorm:"not null;default:pending;index"    json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"              json:"id"`
	Name         string    `gorm:"not null"                          json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"              json:"email"`
	PasswordHash string    `gorm:"not null"                          json:"-"`
	Role         string    `gorm:"not null;default:customer"         json:"role"`
	IsActive     bool      `gorm:"default:true"                      json:"is_active"`
	Phone        string    `json:"phone"`
	Address      Address   `gorm:"embedded;embeddedPrefix:address_"  json:"address"`
	Avatar       string    `json:"avatar"`
	Favorites    []Product `gorm:"many2many:user_favorites"          json:"favorites,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
