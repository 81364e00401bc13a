package models

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Recipe is a published recipe. Times are in minutes.
type Recipe struct {
	ID           string   `json:"_id,omitempty"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	PrepTime     int      `json:"prepTime"`
	CookTime     int      `json:"cookTime"`
	Servings     int      `json:"servings"`
	Difficulty   string   `json:"difficulty"`
	Rating       float64  `json:"rating"`
	ImageURL     string   `json:"image_url"`
	Author       string   `json:"author,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty"`
	UpdatedAt    string   `json:"updatedAt,omitempty"`
}

// TotalTime is prep plus cook time.
func (r Recipe) TotalTime() int { return r.PrepTime + r.CookTime }

// DifficultyLevel maps easy/medium/hard to 1/2/3. Anything else is 1.
func (r Recipe) DifficultyLevel() int {
	switch strings.ToLower(r.Difficulty) {
	case "medium":
		return 2
	case "hard":
		return 3
	default:
		return 1
	}
}

// DifficultyLabel returns the difficulty in title case.
func (r Recipe) DifficultyLabel() string {
	return cases.Title(language.English).String(strings.ToLower(r.Difficulty))
}

// FormattedTime renders TotalTime as 45m, 2h or 1h 30m.
func (r Recipe) FormattedTime() string {
	total := r.TotalTime()
	switch {
	case total < 60:
		return fmt.Sprintf("%dm", total)
	case total%60 == 0:
		return fmt.Sprintf("%dh", total/60)
	default:
		return fmt.Sprintf("%dh %dm", total/60, total%60)
	}
}

// FormattedPrepTime renders PrepTime in whole minutes or whole hours.
func (r Recipe) FormattedPrepTime() string { return shortMinutes(r.PrepTime) }

// FormattedCookTime renders CookTime in whole minutes or whole hours.
func (r Recipe) FormattedCookTime() string { return shortMinutes(r.CookTime) }

func shortMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh", m/60)
}

// Markdown renders the recipe as a document for the detail view.
func (r Recipe) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Name)
	if r.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", r.Description)
	}

	meta := []string{
		"**Prep** " + r.FormattedPrepTime(),
		"**Cook** " + r.FormattedCookTime(),
		"**Total** " + r.FormattedTime(),
		fmt.Sprintf("**Serves** %d", r.Servings),
	}
	if r.Difficulty != "" {
		meta = append(meta, "**Difficulty** "+r.DifficultyLabel())
	}
	if r.Rating > 0 {
		meta = append(meta, fmt.Sprintf("**Rating** %.1f", r.Rating))
	}
	b.WriteString(strings.Join(meta, " · "))
	b.WriteString("\n")

	if len(r.Ingredients) > 0 {
		b.WriteString("\n## Ingredients\n\n")
		for _, ing := range r.Ingredients {
			fmt.Fprintf(&b, "- %s\n", ing)
		}
	}
	if len(r.Instructions) > 0 {
		b.WriteString("\n## Method\n\n")
		for i, step := range r.Instructions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}

	var footer []string
	if r.Author != "" {
		footer = append(footer, "By "+r.Author)
	}
	if len(r.Tags) > 0 {
		footer = append(footer, "Tags: "+strings.Join(r.Tags, ", "))
	}
	if len(footer) > 0 {
		fmt.Fprintf(&b, "\n_%s_\n", strings.Join(footer, " · "))
	}
	return b.String()
}
