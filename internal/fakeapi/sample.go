package fakeapi

import "github.com/mzansiplatess/plates-cli/internal/models"

func intPtr(n int) *int { return &n }

// Demo account seeded into every server.
const (
	DemoEmail    = "demo@mzansiplates.co.za"
	DemoPassword = "braai123"
)

func sampleRestaurants() []models.Restaurant {
	return []models.Restaurant{
		{ID: "braai-spot", Name: "Braai Spot", Description: "Authentic SA braai", City: "Johannesburg", Address: "12 Vilakazi St, Soweto", Phone: "011 555 0101", Rating: 4.5},
		{ID: "kota-king", Name: "Kota King", Description: "Best kotas in town", City: "Johannesburg", Address: "88 Commissioner St", Phone: "011 555 0147", Rating: 4.8},
		{ID: "shisa-nyama", Name: "Shisa Nyama", Description: "Local grill experience", City: "Durban", Address: "3 Florida Rd, Morningside", Phone: "031 555 0190", Rating: 4.2},
		{ID: "bo-kaap-kitchen", Name: "Bo-Kaap Kitchen", Description: "Cape Malay classics", City: "Cape Town", Address: "71 Wale St", Phone: "021 555 0123", Rating: 4.6},
	}
}

func sampleRecipes() []models.Recipe {
	return []models.Recipe{
		{
			ID: "bobotie", Name: "Bobotie", Description: "Spiced minced meat baked with an egg custard topping",
			Category: "Main", PrepTime: 20, CookTime: 60, Servings: 6, Difficulty: "medium", Rating: 4.8, Author: "Mama Thandi",
			Ingredients:  []string{"500g beef mince", "2 onions", "2 tbsp curry powder", "1 slice white bread", "250ml milk", "2 eggs", "50g raisins", "3 bay leaves"},
			Instructions: []string{"Soak the bread in milk.", "Fry the onions and curry powder, then brown the mince.", "Mix in the squeezed bread and raisins and press into a dish.", "Whisk the eggs with the milk, pour over and add bay leaves.", "Bake at 180°C for 45 minutes."},
			Tags:         []string{"cape-malay", "baked"},
		},
		{
			ID: "chakalaka", Name: "Chakalaka", Description: "Spicy vegetable relish",
			Category: "Side", PrepTime: 10, CookTime: 20, Servings: 4, Difficulty: "easy", Rating: 4.3,
			Ingredients:  []string{"1 onion", "2 carrots", "1 green pepper", "1 tin baked beans", "1 tsp chilli"},
			Instructions: []string{"Fry the onion and pepper.", "Add grated carrot and chilli.", "Stir in the beans and simmer."},
			Tags:         []string{"vegetarian"},
		},
		{
			ID: "milk-tart", Name: "Milk Tart", Description: "Custard tart dusted with cinnamon",
			Category: "Dessert", PrepTime: 30, CookTime: 30, Servings: 8, Difficulty: "medium", Rating: 4.8,
			Ingredients:  []string{"1 pastry case", "1 litre milk", "2 eggs", "100g sugar", "3 tbsp flour", "Cinnamon"},
			Instructions: []string{"Bake the pastry case blind.", "Heat the milk and whisk in eggs, sugar and flour until thick.", "Pour into the case, dust with cinnamon and chill."},
		},
		{
			ID: "biltong", Name: "Biltong", Description: "Traditional dried meat snack",
			Category: "Snack", PrepTime: 30, CookTime: 2880, Servings: 10, Difficulty: "hard", Rating: 4.7,
			Ingredients:  []string{"1kg silverside", "Coarse salt", "Coriander seeds", "Vinegar"},
			Instructions: []string{"Slice the meat with the grain.", "Marinate in vinegar and spices overnight.", "Hang to dry for two days."},
		},
	}
}

func sampleEvents() []models.Event {
	return []models.Event{
		{
			ID: "cape-town-food-festival", Name: "Cape Town Food Festival", Description: "Celebrate local cuisine with top chefs",
			Category: "Food Festival", Location: "Green Point Stadium", City: "Cape Town", StartDate: "2026-12-15", StartTime: "10:00",
			Price: 150, Currency: "ZAR", MaxAttendees: intPtr(500), CurrentAttendees: 245, Organizer: "Mzansi Plates", IsActive: true,
		},
		{
			ID: "braai-masterclass", Name: "Traditional Braai Masterclass", Description: "Learn the art of South African braai",
			Category: "Cooking Class", Location: "Johannesburg Food Academy", City: "Johannesburg", StartDate: "2026-12-16", StartTime: "14:00",
			Price: 200, Currency: "ZAR", MaxAttendees: intPtr(32), CurrentAttendees: 32, Organizer: "Braai Spot", IsActive: true,
		},
		{
			ID: "wine-and-cheese", Name: "Wine & Cheese Pairing", Description: "Explore local wines with artisanal cheeses",
			Category: "Wine Tasting", Location: "Stellenbosch Winery", City: "Stellenbosch", StartDate: "2026-12-20", StartTime: "18:00",
			Price: 300, Currency: "ZAR", CurrentAttendees: 18, Organizer: "Winelands Co", IsActive: true,
		},
		{
			ID: "craft-beer-festival", Name: "Craft Beer Festival", Description: "Local breweries showcase their best",
			Category: "Food Festival", Location: "Durban Harbour", City: "Durban", StartDate: "2026-12-28", StartTime: "15:00",
			Price: 120, Currency: "ZAR", MaxAttendees: intPtr(300), CurrentAttendees: 89, Organizer: "Durban Brewers", IsActive: true,
		},
	}
}
