// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type ProductStatus string

const (
	ProductStatusNew          ProductStatus = "new"
	ProductStatusOnModeration ProductStatus = "on_moderation"
	ProductStatusNeedsFix     ProductStatus = "needs_fix"
	ProductStatusReadyForSale ProductStatus = "ready_for_sale"
	ProductStatusOnSale       ProductStatus = "on_sale"
	ProductStatusNotForSale   ProductStatus = "not_for_sale"
	ProductStatusDeleted      ProductStatus = "deleted"
)

// SellerChangeableStatuses are the only targets a seller may request through
// the change-status endpoint. Moderation moves products through the rest.
var SellerChangeableStatuses = []ProductStatus{
	ProductStatusOnSale,
	ProductStatusNotForSale,
	ProductStatusOnModeration,
	ProductStatusDeleted,
}

func (s ProductStatus) SellerChangeable() bool {
	for _, status := range SellerChangeableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type ValueAddedTax string

const (
	VATNotTaxed ValueAddedTax = "not_taxed"
	VATZero     ValueAddedTax = "0%"
	VATTen      ValueAddedTax = "10%"
	VATTwenty   ValueAddedTax = "20%"
)

func (v ValueAddedTax) Valid() bool {
	switch v {
	case VATNotTaxed, VATZero, VATTen, VATTwenty:
		return true
	}
	return false
}

type GenderType string

const (
	GenderMale   GenderType = "male"
	GenderFemale GenderType = "female"
)

type SizeGroup string

const (
	SizeGroupChildren SizeGroup = "children"
	SizeGroupAdult    SizeGroup = "adult"
)
