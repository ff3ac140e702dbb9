package requests

import "github.com/shopspring/decimal"

type SavePricesRequest struct {
	Margins        map[string]decimal.Decimal `json:"margins"`
	RoundingPolicy string                     `json:"rounding_policy" validate:"omitempty,oneof=charm99 charm95 plain"`
}

type SuggestMarginsRequest struct {
	Location   string   `json:"location" validate:"required,max=255"`
	AreaType   string   `json:"area_type" validate:"omitempty,oneof=urban suburban rural"`
	Categories []string `json:"categories" validate:"omitempty,dive,required"`
}
