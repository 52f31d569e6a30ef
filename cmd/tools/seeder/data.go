package main

import "time"

type plantSeed struct {
	ID                   string
	Name                 string
	Price                string
	Description          string
	CareInstructions     string
	SunlightRequirements string
	Category             string
	StockQuantity        int
	ImageURL             string
	Weight               string
}

type discountSeed struct {
	Code    string
	Kind    string
	Value   string
	Expires time.Duration
}

var samplePlants = []plantSeed{
	{
		ID:                   "plant_001",
		Name:                 "Monstera Deliciosa",
		Price:                "29.99",
		Description:          "Beautiful tropical plant with large, glossy leaves and natural splits. Perfect for bright, indirect light.",
		CareInstructions:     "Water when top inch of soil is dry. Provide bright, indirect light. Mist occasionally for humidity.",
		SunlightRequirements: "Bright, indirect light",
		Category:             "houseplant",
		StockQuantity:        25,
		ImageURL:             "https://images.unsplash.com/photo-1518531933037-91b2f5f229cc",
		Weight:               "3.5",
	},
	{
		ID:                   "plant_002",
		Name:                 "Snake Plant",
		Price:                "19.99",
		Description:          "Low-maintenance succulent with upright, sword-like leaves. Great for beginners and low-light conditions.",
		CareInstructions:     "Water every 2-3 weeks. Tolerates low light but prefers bright, indirect light.",
		SunlightRequirements: "Low to bright, indirect light",
		Category:             "houseplant",
		StockQuantity:        40,
		ImageURL:             "https://images.unsplash.com/photo-1470058869958-2a77ade41c02",
		Weight:               "2.0",
	},
	{
		ID:                   "plant_003",
		Name:                 "Fiddle Leaf Fig",
		Price:                "49.99",
		Description:          "Statement plant with large, violin-shaped leaves. A popular choice for modern interiors.",
		CareInstructions:     "Water when top 2 inches of soil are dry. Needs bright, indirect light and consistent watering.",
		SunlightRequirements: "Bright, indirect light",
		Category:             "houseplant",
		StockQuantity:        15,
		ImageURL:             "https://images.unsplash.com/photo-1601985705806-5b9a71f6004f",
		Weight:               "4.0",
	},
	{
		ID:                   "plant_004",
		Name:                 "Pothos",
		Price:                "15.99",
		Description:          "Trailing vine with heart-shaped leaves. Perfect for hanging baskets or climbing up poles.",
		CareInstructions:     "Water when soil surface is dry. Thrives in various light conditions.",
		SunlightRequirements: "Low to bright, indirect light",
		Category:             "houseplant",
		StockQuantity:        35,
		ImageURL:             "https://images.pexels.com/photos/807598/pexels-photo-807598.jpeg",
		Weight:               "1.5",
	},
	{
		ID:                   "plant_005",
		Name:                 "Succulent Collection",
		Price:                "24.99",
		Description:          "Beautiful collection of mixed succulents in decorative pots. Low maintenance and colorful.",
		CareInstructions:     "Water sparingly, every 2-3 weeks. Provide bright light and good drainage.",
		SunlightRequirements: "Bright, direct light",
		Category:             "succulent",
		StockQuantity:        20,
		ImageURL:             "https://images.pexels.com/photos/1470171/pexels-photo-1470171.jpeg",
		Weight:               "2.5",
	},
	{
		ID:                   "plant_006",
		Name:                 "Peace Lily",
		Price:                "27.99",
		Description:          "Elegant plant with white flowers and glossy green leaves. Great for low-light areas.",
		CareInstructions:     "Keep soil moist but not soggy. Prefers low to medium light.",
		SunlightRequirements: "Low to medium, indirect light",
		Category:             "flowering",
		StockQuantity:        18,
		ImageURL:             "https://images.pexels.com/photos/776656/pexels-photo-776656.jpeg",
		Weight:               "3.0",
	},
	{
		ID:                   "plant_007",
		Name:                 "Rubber Plant",
		Price:                "34.99",
		Description:          "Glossy, dark green leaves on a sturdy stem. A classic houseplant that grows into a beautiful tree.",
		CareInstructions:     "Water when top inch of soil is dry. Wipe leaves regularly to maintain shine.",
		SunlightRequirements: "Bright, indirect light",
		Category:             "houseplant",
		StockQuantity:        22,
		ImageURL:             "https://images.unsplash.com/photo-1592150621744-aca64f48394a",
		Weight:               "4.5",
	},
	{
		ID:                   "plant_008",
		Name:                 "ZZ Plant",
		Price:                "32.99",
		Description:          "Extremely low-maintenance plant with waxy, dark green leaves. Perfect for offices and low-light areas.",
		CareInstructions:     "Water every 2-4 weeks. Tolerates neglect and low light very well.",
		SunlightRequirements: "Low to bright, indirect light",
		Category:             "houseplant",
		StockQuantity:        30,
		ImageURL:             "https://images.unsplash.com/photo-1583753075968-1236ccb83c66",
		Weight:               "2.8",
	},
}

// Expiries are relative to the seed run so fresh environments get usable codes.
var sampleDiscounts = []discountSeed{
	{Code: "SPRING20", Kind: "percentage", Value: "20", Expires: 180 * 24 * time.Hour},
	{Code: "SAVE10", Kind: "fixed", Value: "10", Expires: 365 * 24 * time.Hour},
}
