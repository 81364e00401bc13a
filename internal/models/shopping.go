package models

import "fmt"

// ShoppingItem is one line of the local shopping list.
type ShoppingItem struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
	Completed bool    `json:"completed"`
}

// Label renders "500 g Ground beef" or "Bread" when no quantity is set.
func (s ShoppingItem) Label() string {
	if s.Quantity == 0 {
		return s.Name
	}
	qty := fmt.Sprintf("%g", s.Quantity)
	if s.Unit == "" {
		return qty + " " + s.Name
	}
	return qty + " " + s.Unit + " " + s.Name
}
