// internal/models/catalog.go
package models

import "github.com/google/uuid"

// Reference tables. Maintained by back-office tooling, never written by the
// product flow; products hold weak references to them.

type Category struct {
	BaseModel
	Name          string        `json:"name" gorm:"size:255;not null;index"`
	NameSlug      string        `json:"name_slug" gorm:"size:255;not null;uniqueIndex"`
	Subcategories []Subcategory `json:"subcategories" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

type Subcategory struct {
	BaseModel
	Name       string     `json:"name" gorm:"size:255;not null;index"`
	NameSlug   string     `json:"name_slug" gorm:"size:255;not null;index:idx_subcategories_category_slug,unique"`
	CategoryID *uuid.UUID `json:"category_id" gorm:"type:uuid;index:idx_subcategories_category_slug,unique"`
	Category   *Category  `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

type Color struct {
	BaseModel
	Name     string `json:"name" gorm:"not null"`
	HTMLCode string `json:"html_code" gorm:"not null"`
}

type Size struct {
	BaseModel
	GroupName SizeGroup `json:"group_name" gorm:"type:varchar(20);not null"`
	Value     string    `json:"value" gorm:"not null"`
}

type Brand struct {
	BaseModel
	Name string `json:"name" gorm:"not null"`
}
