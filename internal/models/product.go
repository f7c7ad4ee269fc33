// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	SellerID             uuid.UUID     `json:"seller_id" gorm:"type:uuid;not null;index"`
	ExternalID           *string       `json:"external_id,omitempty" gorm:"size:255"`
	IsActive             bool          `json:"is_active" gorm:"not null;default:false"`
	Status               ProductStatus `json:"status" gorm:"type:varchar(20);not null;default:'new';index"`
	Name                 string        `json:"name" gorm:"size:128;not null;index"`
	NameSlug             string        `json:"name_slug" gorm:"size:255;not null;uniqueIndex"`
	CountryOfManufacture string        `json:"country_of_manufacture" gorm:"size:255;not null"`
	VendorCode           string        `json:"vendor_code" gorm:"size:255;not null"`
	Barcode              int64         `json:"barcode" gorm:"type:bigint;not null"`
	Gender               *GenderType   `json:"gender,omitempty" gorm:"type:varchar(10)"`
	SubcategoryID        *uuid.UUID    `json:"subcategory_id" gorm:"type:uuid;constraint:OnDelete:SET NULL"`
	ColorID              *uuid.UUID    `json:"color_id,omitempty" gorm:"type:uuid;constraint:OnDelete:SET NULL"`
	SizeID               *uuid.UUID    `json:"size_id,omitempty" gorm:"type:uuid;constraint:OnDelete:SET NULL"`
	BrandID              *uuid.UUID    `json:"brand_id,omitempty" gorm:"type:uuid;constraint:OnDelete:SET NULL"`

	// Relationships. Price, Pack and Specification are exactly-one children;
	// Images, Documents and Messages are owned collections. All children are
	// removed together with the product row.
	Price         Price         `json:"price" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Pack          Pack          `json:"pack" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Specification Specification `json:"manually_filled_specification" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images        []Image       `json:"images" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Documents     []Document    `json:"documents" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Messages      []Message     `json:"messages,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Subcategory   *Subcategory  `json:"subcategory,omitempty" gorm:"foreignKey:SubcategoryID"`
	Color         *Color        `json:"color,omitempty" gorm:"foreignKey:ColorID"`
	Size          *Size         `json:"size,omitempty" gorm:"foreignKey:SizeID"`
	Brand         *Brand        `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
}

type Price struct {
	BaseModel
	ProductID            uuid.UUID        `json:"product_id" gorm:"type:uuid;not null;uniqueIndex"`
	PriceWithDiscount    decimal.Decimal  `json:"price_with_discount" gorm:"type:decimal(12,2);not null"`
	PriceWithoutDiscount *decimal.Decimal `json:"price_without_discount,omitempty" gorm:"type:decimal(12,2)"`
	VAT                  ValueAddedTax    `json:"vat" gorm:"type:varchar(10);not null"`
}

// Pack describes the packed product, millimetres and grams.
type Pack struct {
	BaseModel
	ProductID    uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex"`
	Length       int       `json:"length" gorm:"not null"`
	Width        int       `json:"width" gorm:"not null"`
	Height       int       `json:"height" gorm:"not null"`
	WeightPacked int       `json:"weight_packed" gorm:"not null"`
}

// Specification holds the characteristics a seller fills in by hand.
type Specification struct {
	BaseModel
	ProductID        uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex"`
	Type             string    `json:"type" gorm:"not null"`
	CustomProperties JSONB     `json:"custom_properties,omitempty" gorm:"type:jsonb"`
	Description      *string   `json:"description,omitempty" gorm:"type:text"`
	Weight           *int      `json:"weight,omitempty"`
	Length           *int      `json:"length,omitempty"`
	Width            *int      `json:"width,omitempty"`
	Height           *int      `json:"height,omitempty"`
}

// Image stores one uploaded picture as three resized renditions. OrderNum is
// the zero-based rank among the product's images; across a product the set of
// ranks is always {0..n-1}.
type Image struct {
	BaseModel
	ProductID  uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	PreviewURL string    `json:"preview_url" gorm:"not null"`
	SmallURL   string    `json:"small_url" gorm:"not null"`
	MiniURL    string    `json:"mini_url" gorm:"not null"`
	OrderNum   int       `json:"order_num" gorm:"not null;default:0"`
}

type Document struct {
	BaseModel
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Key       string    `json:"key" gorm:"not null"`
	Name      string    `json:"name" gorm:"not null"`
	Extension string    `json:"extension" gorm:"not null"`
}

// Message is a moderation note attached to a product. Written by the
// moderation pipeline, read-only here.
type Message struct {
	BaseModel
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
}
