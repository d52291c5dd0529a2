package models

import "time"

type MenuItem struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Price         float64   `json:"price"`
	ImageURL      *string   `json:"image_url,omitempty"`
	Description   *string   `json:"description,omitempty"`
	IsAvailable   bool      `json:"is_available"`
	StockQuantity *int      `json:"stock_quantity"` // nil means unlimited
	PrepTime      *int      `json:"prep_time,omitempty"`
	IsRecommended bool      `json:"is_recommended"`
	DisplayOrder  int       `json:"display_order"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Options []MenuOption `json:"options,omitempty"`
}

type MenuOption struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	OptionType   string    `json:"option_type"` // "single" or "multiple"
	IsRequired   bool      `json:"is_required"`
	MinSelection *int      `json:"min_selection,omitempty"`
	MaxSelection *int      `json:"max_selection,omitempty"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Choices []OptionChoice `json:"choices,omitempty"`
}

type OptionChoice struct {
	ID            int       `json:"id"`
	MenuOptionID  int       `json:"menu_option_id"`
	Name          string    `json:"name"`
	PriceModifier float64   `json:"price_modifier"`
	IsDefault     bool      `json:"is_default"`
	DisplayOrder  int       `json:"display_order"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CreateMenuItemRequest struct {
	Name          string  `json:"name" binding:"required"`
	Category      string  `json:"category" binding:"required"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	ImageURL      *string `json:"image_url"`
	Description   *string `json:"description"`
	IsAvailable   *bool   `json:"is_available"`
	StockQuantity *int    `json:"stock_quantity" binding:"omitempty,gte=0"`
	PrepTime      *int    `json:"prep_time"`
	IsRecommended bool    `json:"is_recommended"`
	DisplayOrder  *int    `json:"display_order"`
	OptionIDs     []int   `json:"option_ids"`
}

type UpdateMenuItemRequest struct {
	Name          *string  `json:"name"`
	Category      *string  `json:"category"`
	Price         *float64 `json:"price" binding:"omitempty,gt=0"`
	ImageURL      *string  `json:"image_url"`
	Description   *string  `json:"description"`
	IsAvailable   *bool    `json:"is_available"`
	StockQuantity *int     `json:"stock_quantity" binding:"omitempty,gte=0"`
	PrepTime      *int     `json:"prep_time"`
	IsRecommended *bool    `json:"is_recommended"`
	DisplayOrder  *int     `json:"display_order"`
	OptionIDs     []int    `json:"option_ids"`
}

type CreateOptionChoiceRequest struct {
	Name          string  `json:"name" binding:"required"`
	PriceModifier float64 `json:"price_modifier"`
	IsDefault     bool    `json:"is_default"`
	DisplayOrder  *int    `json:"display_order"`
}

type UpdateOptionChoiceRequest struct {
	Name          *string  `json:"name"`
	PriceModifier *float64 `json:"price_modifier"`
	IsDefault     *bool    `json:"is_default"`
	DisplayOrder  *int     `json:"display_order"`
}

type CreateMenuOptionRequest struct {
	Name         string                      `json:"name" binding:"required"`
	Description  *string                     `json:"description"`
	OptionType   string                      `json:"option_type"`
	IsRequired   bool                        `json:"is_required"`
	MinSelection *int                        `json:"min_selection"`
	MaxSelection *int                        `json:"max_selection"`
	DisplayOrder int                         `json:"display_order"`
	Choices      []CreateOptionChoiceRequest `json:"choices"`
}

type UpdateMenuOptionRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	OptionType   *string `json:"option_type"`
	IsRequired   *bool   `json:"is_required"`
	MinSelection *int    `json:"min_selection"`
	MaxSelection *int    `json:"max_selection"`
	DisplayOrder *int    `json:"display_order"`
}

type ChoiceOrder struct {
	ID           int `json:"id" binding:"required"`
	DisplayOrder int `json:"display_order"`
}

type ReorderChoicesRequest struct {
	Choices []ChoiceOrder `json:"choices" binding:"required"`
}
