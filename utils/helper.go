package utils

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StringToUUIDPtr converts a string to UUID pointer
func StringToUUIDPtr(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &u
}

// StringPtr returns a pointer to the string value
func StringPtr(s string) *string {
	return &s
}

func DecimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
