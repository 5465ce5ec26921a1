package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Product is a rated product together with the comments collected for it.
type Product struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"type:varchar(255);not null"`
	Company       string    `json:"company" gorm:"type:varchar(255);not null"`
	AverageRating float64   `json:"average_rating"`
	Comments      []Comment `json:"comments" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// Comment is a free-text comment attached to a product. Comments are written
// once, together with their product.
type Comment struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProductID uint   `json:"-" gorm:"not null;index"`
	Text      string `json:"text" gorm:"column:comment;type:text;not null"`
}

func (Comment) TableName() string {
	return "comments"
}

// Rating is an average rating as sent by clients. It decodes from a JSON
// number or from a numeric string ("4.5").
type Rating float64

func (r *Rating) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(s, ",", ".", 1)), 64)
		if err != nil || !finite(f) {
			return fmt.Errorf("average_rating %q is not a number", s)
		}
		*r = Rating(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("average_rating must be a number: %w", err)
	}
	if !finite(f) {
		return fmt.Errorf("average_rating must be a finite number")
	}
	*r = Rating(f)
	return nil
}

// Valid reports whether r is a finite number. NaN and infinities cannot be
// encoded back to JSON.
func (r Rating) Valid() bool {
	return finite(float64(r))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ProductUpdate carries the fields of a partial product update. A nil field
// is left untouched.
type ProductUpdate struct {
	Name          *string `json:"name"`
	Company       *string `json:"company"`
	AverageRating *Rating `json:"average_rating"`
}

// Empty reports whether no field was supplied.
func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Company == nil && u.AverageRating == nil
}

// Assignments returns the column assignments for the supplied fields only,
// keyed by column name.
func (u ProductUpdate) Assignments() map[string]interface{} {
	sets := make(map[string]interface{}, 3)
	if u.Name != nil {
		sets["name"] = *u.Name
	}
	if u.Company != nil {
		sets["company"] = *u.Company
	}
	if u.AverageRating != nil {
		sets["average_rating"] = float64(*u.AverageRating)
	}
	return sets
}

// Apply copies the supplied fields onto p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Company != nil {
		p.Company = *u.Company
	}
	if u.AverageRating != nil {
		p.AverageRating = float64(*u.AverageRating)
	}
}

// ProductEvent is published whenever a product is created, updated or deleted.
type ProductEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ProductID  uint      `json:"product_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Product event types.
const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)
