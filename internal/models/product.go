package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product representa un produto del catálogo
type Product struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name"`
	Description     string             `json:"description" bson:"description"`
	Slug            string             `json:"slug" bson:"slug"`
	ImagePath       string             `json:"image,omitempty" bson:"image,omitempty"`
	Price           float64            `json:"price" bson:"price"`
	Category        string             `json:"category" bson:"category"`
	Available       bool               `json:"available" bson:"available"`
	PreparationTime int                `json:"preparationTime" bson:"preparationTime"`
	Ingredients     string             `json:"ingredients,omitempty" bson:"ingredients,omitempty"`
	Allergens       string             `json:"allergens,omitempty" bson:"allergens,omitempty"`
	Calories        int                `json:"calories" bson:"calories"`
	Rating          float64            `json:"rating" bson:"rating"`
	ReviewCount     int                `json:"reviewCount" bson:"reviewCount"`
	StoreID         *string            `json:"storeId,omitempty" bson:"storeId,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ProductInput contiene los campos aceptados al crear un produto.
// Acepta tanto JSON como multipart/form-data.
type ProductInput struct {
	Name            string   `json:"name" form:"name" binding:"required"`
	Description     string   `json:"description" form:"description" binding:"required"`
	Price           float64  `json:"price" form:"price" binding:"required,gt=0,decimals=2"`
	Category        string   `json:"category" form:"category" binding:"required"`
	Available       *bool    `json:"available" form:"available"`
	PreparationTime *int     `json:"preparationTime" form:"preparationTime" binding:"omitempty,gte=0"`
	Ingredients     string   `json:"ingredients" form:"ingredients"`
	Allergens       string   `json:"allergens" form:"allergens"`
	Calories        *int     `json:"calories" form:"calories" binding:"omitempty,gte=0"`
	Rating          *float64 `json:"rating" form:"rating" binding:"omitempty,gte=0,lte=5,decimals=2"`
	ReviewCount     *int     `json:"reviewCount" form:"reviewCount" binding:"omitempty,gte=0"`
	StoreID         *string  `json:"storeId" form:"storeId"`
}

// ProductUpdate representa los campos actualizables de un produto.
// Un puntero nil significa "sin cambios".
type ProductUpdate struct {
	Name            *string  `json:"name,omitempty" form:"name" binding:"omitempty,min=1"`
	Description     *string  `json:"description,omitempty" form:"description" binding:"omitempty,min=1"`
	Price           *float64 `json:"price,omitempty" form:"price" binding:"omitempty,gt=0,decimals=2"`
	Category        *string  `json:"category,omitempty" form:"category" binding:"omitempty,min=1"`
	Available       *bool    `json:"available,omitempty" form:"available"`
	PreparationTime *int     `json:"preparationTime,omitempty" form:"preparationTime" binding:"omitempty,gte=0"`
	Ingredients     *string  `json:"ingredients,omitempty" form:"ingredients"`
	Allergens       *string  `json:"allergens,omitempty" form:"allergens"`
	Calories        *int     `json:"calories,omitempty" form:"calories" binding:"omitempty,gte=0"`
	Rating          *float64 `json:"rating,omitempty" form:"rating" binding:"omitempty,gte=0,lte=5,decimals=2"`
	ReviewCount     *int     `json:"reviewCount,omitempty" form:"reviewCount" binding:"omitempty,gte=0"`
	StoreID         *string  `json:"storeId,omitempty" form:"storeId"`

	// Calculados por el servicio, nunca vienen del cliente
	Slug      *string `json:"-" form:"-"`
	ImagePath *string `json:"-" form:"-"`
}

// IsEmpty indica si el patch no modifica ningún campo
func (u *ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil && u.Category == nil &&
		u.Available == nil && u.PreparationTime == nil && u.Ingredients == nil &&
		u.Allergens == nil && u.Calories == nil && u.Rating == nil &&
		u.ReviewCount == nil && u.StoreID == nil && u.Slug == nil && u.ImagePath == nil
}

// Apply copia los campos presentes del patch sobre p
func (u *ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Available != nil {
		p.Available = *u.Available
	}
	if u.PreparationTime != nil {
		p.PreparationTime = *u.PreparationTime
	}
	if u.Ingredients != nil {
		p.Ingredients = *u.Ingredients
	}
	if u.Allergens != nil {
		p.Allergens = *u.Allergens
	}
	if u.Calories != nil {
		p.Calories = *u.Calories
	}
	if u.Rating != nil {
		p.Rating = *u.Rating
	}
	if u.ReviewCount != nil {
		p.ReviewCount = *u.ReviewCount
	}
	if u.StoreID != nil {
		storeID := *u.StoreID
		p.StoreID = &storeID
	}
	if u.Slug != nil {
		p.Slug = *u.Slug
	}
	if u.ImagePath != nil {
		p.ImagePath = *u.ImagePath
	}
}
