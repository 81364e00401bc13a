// Package models defines the records exchanged with the Mzansi Plates API.
// Field names follow the API's wire format.
package models

import (
	"fmt"
	"strings"
)

// Restaurant is a listed eatery.
type Restaurant struct {
	ID          string  `json:"_id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	City        string  `json:"city"`
	Address     string  `json:"address"`
	Phone       string  `json:"phone"`
	ImageURL    string  `json:"image_url"`
	Rating      float64 `json:"rating"`
}

// FavouriteType names the kind of record a favourite points at.
type FavouriteType string

const (
	FavouriteRestaurant FavouriteType = "RESTAURANT"
	FavouriteRecipe     FavouriteType = "RECIPE"
	FavouriteEvent      FavouriteType = "EVENT"
)

// ParseFavouriteType accepts the wire values case-insensitively, plus
// their plural forms as typed on the command line.
func ParseFavouriteType(s string) (FavouriteType, error) {
	switch strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(s)), "S") {
	case "RESTAURANT":
		return FavouriteRestaurant, nil
	case "RECIPE":
		return FavouriteRecipe, nil
	case "EVENT":
		return FavouriteEvent, nil
	}
	return "", fmt.Errorf("unknown favourite type %q (want restaurant, recipe or event)", s)
}

// Favourite links a user to a restaurant, recipe or event.
type Favourite struct {
	ID        string        `json:"_id,omitempty"`
	UserID    string        `json:"userId"`
	ItemType  FavouriteType `json:"itemType"`
	ItemID    string        `json:"itemId"`
	CreatedAt string        `json:"createdAt,omitempty"`
	UpdatedAt string        `json:"updatedAt,omitempty"`
}

// User is an account on the platform.
type User struct {
	ID              string           `json:"_id,omitempty"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Password        string           `json:"password,omitempty"`
	ProfileImageURL string           `json:"profileImageUrl,omitempty"`
	Phone           string           `json:"phone,omitempty"`
	City            string           `json:"city,omitempty"`
	Bio             string           `json:"bio,omitempty"`
	Preferences     *UserPreferences `json:"preferences,omitempty"`
	IsEmailVerified bool             `json:"isEmailVerified"`
	CreatedAt       string           `json:"createdAt,omitempty"`
	UpdatedAt       string           `json:"updatedAt,omitempty"`
}

// UserPreferences are the server-side profile preferences.
type UserPreferences struct {
	DietaryRestrictions  []string             `json:"dietaryRestrictions"`
	FavoriteCuisines     []string             `json:"favoriteCuisines"`
	NotificationSettings NotificationSettings `json:"notificationSettings"`
	Language             string               `json:"language"`
	Currency             string               `json:"currency"`
}

// NotificationSettings are the server-side notification toggles.
type NotificationSettings struct {
	PushNotifications  bool `json:"pushNotifications"`
	EmailNotifications bool `json:"emailNotifications"`
	EventReminders     bool `json:"eventReminders"`
	NewRecipes         bool `json:"newRecipes"`
	RestaurantUpdates  bool `json:"restaurantUpdates"`
}

// DefaultPreferences returns the preferences a new account starts with.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		DietaryRestrictions: []string{},
		FavoriteCuisines:    []string{},
		NotificationSettings: NotificationSettings{
			PushNotifications:  true,
			EmailNotifications: true,
			EventReminders:     true,
			NewRecipes:         true,
			RestaurantUpdates:  true,
		},
		Language: "en",
		Currency: "ZAR",
	}
}

// Pagination accompanies paged list responses.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}
