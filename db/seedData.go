package db

import (
	"errors"

	"retail-backoffice/db/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type categorySeed struct {
	name   string
	margin int64
	group  string
}

var defaultCategories = []categorySeed{
	{"Soft Drinks", 30, "Beverages"},
	{"Juices", 30, "Beverages"},
	{"Water & Soda", 25, "Beverages"},
	{"Energy Drinks", 35, "Beverages"},
	{"Tea & Coffee", 40, "Beverages"},

	{"Snacks & Chips", 35, "Food"},
	{"Biscuits & Cookies", 35, "Food"},
	{"Chocolates & Candies", 40, "Food"},
	{"Instant Foods", 30, "Food"},
	{"Dry Fruits & Nuts", 45, "Food"},
	{"Packaged Foods", 30, "Food"},
	{"Cooking Oil", 20, "Food"},
	{"Rice & Grains", 20, "Food"},
	{"Spices & Masalas", 35, "Food"},
	{"Noodles & Pasta", 30, "Food"},
	{"Breakfast Items", 30, "Food"},

	{"Dairy Products", 20, "Dairy & Fresh"},
	{"Bread & Bakery", 25, "Dairy & Fresh"},
	{"Ice Cream", 35, "Dairy & Fresh"},

	{"Soaps & Body Wash", 40, "Personal Care"},
	{"Hair Care Products", 45, "Personal Care"},
	{"Shampoos & Conditioners", 45, "Personal Care"},
	{"Hair Oils", 40, "Personal Care"},
	{"Hair Colors & Dyes", 45, "Personal Care"},
	{"Skin Care", 45, "Personal Care"},
	{"Dental Care", 40, "Personal Care"},
	{"Deodorants & Perfumes", 50, "Personal Care"},
	{"Feminine Hygiene", 35, "Personal Care"},
	{"Men's Grooming", 45, "Personal Care"},

	{"Detergents", 30, "Household"},
	{"Dish Washing", 35, "Household"},
	{"Floor Cleaners", 35, "Household"},
	{"Bathroom Cleaners", 35, "Household"},
	{"Air Fresheners", 45, "Household"},
	{"Insecticides", 35, "Household"},
	{"Cleaning Tools", 40, "Household"},
	{"Paper Products", 35, "Household"},
	{"Disposable Items", 40, "Household"},

	{"Baby Food", 30, "Baby Care"},
	{"Baby Care", 35, "Baby Care"},
	{"Diapers & Wipes", 25, "Baby Care"},

	{"Pet Supplies", 35, "Other"},
	{"Stationery", 50, "Other"},
	{"Batteries", 45, "Other"},
	{"Light Bulbs", 40, "Other"},
	{"Plastic Ware", 45, "Other"},
	{"Kitchen Items", 40, "Other"},
	{"Home Storage", 45, "Other"},
	{"Cell Accessories", 50, "Other"},
	{"Festive Items", 50, "Seasonal"},
	{"School Supplies", 45, "Seasonal"},

	{models.UncategorizedCategory, 30, "System"},
}

// SeedCategories inserts the default category vocabulary. Existing rows are
// left untouched so operator-edited default margins survive restarts.
func SeedCategories(db *gorm.DB) (int, error) {
	created := 0
	for _, seed := range defaultCategories {
		var existing models.Category
		err := db.Where("name = ?", seed.name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}

		category := models.Category{
			Name:          seed.name,
			DefaultMargin: decimal.NewFromInt(seed.margin),
			Description:   seed.group,
			IsActive:      true,
		}
		if err := db.Create(&category).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
