package menu

// DefaultItems is the Los Dos Gallos menu used when no catalog is supplied
// in configuration.
var DefaultItems = []Item{
	{ID: "street-tacos", Name: "Street Tacos", PriceCents: 250, Category: "tacos", Description: "Traditional Mexican street tacos"},
	{ID: "gringo-tacos", Name: "Gringo Tacos", PriceCents: 300, Category: "tacos", Description: "American-style hard shell tacos"},
	{ID: "fish-tacos", Name: "Fish Tacos", PriceCents: 450, Category: "tacos", Description: "Fresh fish with cabbage slaw"},
	{ID: "california-burrito", Name: "California Burrito", PriceCents: 950, Category: "burritos", Description: "Carne asada, fries, cheese, sour cream"},
	{ID: "bean-rice-burrito", Name: "Bean and Rice Burrito", PriceCents: 700, Category: "burritos", Description: "Beans, rice, cheese, salsa"},
	{ID: "chicken-burrito", Name: "Chicken Burrito", PriceCents: 850, Category: "burritos", Description: "Grilled chicken, rice, beans, cheese"},
	{ID: "chips-salsa", Name: "Chips and Salsa", PriceCents: 350, Category: "sides", Description: "Fresh tortilla chips with house salsa"},
	{ID: "guacamole", Name: "Guacamole", PriceCents: 200, Category: "sides", Description: "Fresh avocado dip"},
	{ID: "beans", Name: "Beans", PriceCents: 250, Category: "sides", Description: "Refried beans"},
	{ID: "rice", Name: "Rice", PriceCents: 250, Category: "sides", Description: "Spanish rice"},
	{ID: "horchata", Name: "Horchata", PriceCents: 300, Category: "drinks", Description: "Traditional rice drink"},
	{ID: "soft-drink", Name: "Soft Drink", PriceCents: 200, Category: "drinks", Description: "Coke, Sprite, Orange"},
	{ID: "water", Name: "Water", PriceCents: 150, Category: "drinks", Description: "Bottled water"},
}

// DefaultAliases maps common spoken variants onto canonical item names.
var DefaultAliases = map[string]string{
	"taco":            "Street Tacos",
	"tacos":           "Street Tacos",
	"guac":            "Guacamole",
	"chips":           "Chips and Salsa",
	"soda":            "Soft Drink",
	"coke":            "Soft Drink",
	"sprite":          "Soft Drink",
	"burrito":         "California Burrito",
	"refried beans":   "Beans",
	"spanish rice":    "Rice",
	"bottled water":   "Water",
	"hard shell taco": "Gringo Tacos",
}

// DefaultCatalog builds the built-in Los Dos Gallos catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultItems, DefaultAliases)
	if err != nil {
		panic(err) // static data, cannot fail
	}
	return c
}
