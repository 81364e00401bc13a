// Package empty provides empty state messages shared by the browser and
// the list commands.
package empty

import "strings"

// Message is an empty state with optional hints.
type Message struct {
	Title   string
	Body    string
	Hints   []string
	Command string // suggested command to run
}

// Lines renders the body, hints and command below the title.
func (m Message) Lines() []string {
	var lines []string
	if m.Body != "" {
		lines = append(lines, m.Body)
	}
	for _, h := range m.Hints {
		lines = append(lines, "• "+h)
	}
	if m.Command != "" {
		lines = append(lines, "Run: "+m.Command)
	}
	return lines
}

func (m Message) String() string {
	return strings.Join(append([]string{m.Title}, m.Lines()...), "\n")
}

// NoRestaurants returns the empty state for a restaurant listing.
func NoRestaurants(filtered bool) Message {
	return noResults("restaurants", filtered)
}

// NoRecipes returns the empty state for a recipe listing.
func NoRecipes(filtered bool) Message {
	return noResults("recipes", filtered)
}

// NoEvents returns the empty state for an event listing.
func NoEvents(filtered bool) Message {
	msg := noResults("events", filtered)
	if !filtered {
		msg.Body = "No food events are coming up."
	}
	return msg
}

func noResults(what string, filtered bool) Message {
	msg := Message{Title: "No " + what + " found"}
	if filtered {
		msg.Body = "Nothing matches these filters."
		msg.Hints = []string{"Try a broader search or drop a filter"}
	}
	return msg
}

// NoFavourites returns the empty state for the favourites list.
func NoFavourites() Message {
	return Message{
		Title:   "No favourites yet",
		Body:    "Save restaurants, recipes and events to find them again quickly.",
		Command: "plates favourites add recipe <id>",
	}
}

// ShoppingListEmpty returns the empty state for the shopping list.
func ShoppingListEmpty() Message {
	return Message{
		Title:   "Your shopping list is empty",
		Command: "plates shopping add --recipe <id>",
	}
}
