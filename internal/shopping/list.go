// Package shopping keeps the local shopping list.
package shopping

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mzansiplatess/plates-cli/internal/models"
	"github.com/mzansiplatess/plates-cli/internal/output"
	"github.com/mzansiplatess/plates-cli/internal/statefile"
)

// FileName is the list document inside the data directory.
const FileName = "shopping.json"

// Default quantity and unit for items added by name alone.
const (
	DefaultQuantity = 1
	DefaultUnit     = "piece"
)

type document struct {
	Items []models.ShoppingItem `json:"items"`
}

func emptyDocument() document { return document{Items: []models.ShoppingItem{}} }

// List is the shopping list stored under a data directory. Item positions
// are 1-based, as shown to the user.
type List struct {
	file *statefile.File
}

// New returns the list kept in dir.
func New(dir string) *List {
	return &List{file: statefile.New(filepath.Join(dir, FileName), statefile.JSON)}
}

// Items returns every item in list order.
func (l *List) Items() ([]models.ShoppingItem, error) {
	doc, _, err := statefile.Load(l.file, emptyDocument)
	if err != nil {
		return nil, output.ErrStorage("shopping list", err)
	}
	if doc.Items == nil {
		return []models.ShoppingItem{}, nil
	}
	return doc.Items, nil
}

// Add appends items. Blank names are rejected and a zero quantity gets the
// default quantity and unit.
func (l *List) Add(items ...models.ShoppingItem) ([]models.ShoppingItem, error) {
	for i := range items {
		items[i].Name = strings.TrimSpace(items[i].Name)
		if items[i].Name == "" {
			return nil, output.ErrUsage("Item name required")
		}
		if items[i].Quantity == 0 {
			items[i].Quantity = DefaultQuantity
			if items[i].Unit == "" {
				items[i].Unit = DefaultUnit
			}
		}
	}
	return l.update(func(doc *document) error {
		doc.Items = append(doc.Items, items...)
		return nil
	})
}

// AddRecipe appends one unquantified item per recipe ingredient.
func (l *List) AddRecipe(r models.Recipe) ([]models.ShoppingItem, error) {
	items := make([]models.ShoppingItem, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if strings.TrimSpace(ing) == "" {
			continue
		}
		items = append(items, models.ShoppingItem{Name: strings.TrimSpace(ing)})
	}
	if len(items) == 0 {
		return nil, output.ErrUsage(fmt.Sprintf("Recipe %q has no ingredients", r.Name))
	}
	return l.update(func(doc *document) error {
		doc.Items = append(doc.Items, items...)
		return nil
	})
}

// Toggle flips the completed flag of the item at pos.
func (l *List) Toggle(pos int) (models.ShoppingItem, error) {
	var item models.ShoppingItem
	_, err := l.update(func(doc *document) error {
		i, err := index(doc, pos)
		if err != nil {
			return err
		}
		doc.Items[i].Completed = !doc.Items[i].Completed
		item = doc.Items[i]
		return nil
	})
	return item, err
}

// Remove deletes the item at pos.
func (l *List) Remove(pos int) (models.ShoppingItem, error) {
	var item models.ShoppingItem
	_, err := l.update(func(doc *document) error {
		i, err := index(doc, pos)
		if err != nil {
			return err
		}
		item = doc.Items[i]
		doc.Items = append(doc.Items[:i], doc.Items[i+1:]...)
		return nil
	})
	return item, err
}

// ClearCompleted removes completed items and reports how many went.
func (l *List) ClearCompleted() (int, error) {
	removed := 0
	_, err := l.update(func(doc *document) error {
		kept := doc.Items[:0]
		for _, it := range doc.Items {
			if it.Completed {
				removed++
				continue
			}
			kept = append(kept, it)
		}
		doc.Items = kept
		return nil
	})
	return removed, err
}

// Progress summarises the list as "2 of 8 items completed".
func Progress(items []models.ShoppingItem) string {
	done := 0
	for _, it := range items {
		if it.Completed {
			done++
		}
	}
	return fmt.Sprintf("%d of %d items completed", done, len(items))
}

func index(doc *document, pos int) (int, error) {
	if pos < 1 || pos > len(doc.Items) {
		if len(doc.Items) == 0 {
			return 0, output.ErrUsage("Shopping list is empty")
		}
		return 0, output.ErrUsage(fmt.Sprintf("No item %d (list has %d)", pos, len(doc.Items)))
	}
	return pos - 1, nil
}

func (l *List) update(fn func(*document) error) ([]models.ShoppingItem, error) {
	doc, err := statefile.Update(l.file, emptyDocument, fn)
	if err != nil {
		var e *output.Error
		if errors.As(err, &e) {
			return nil, err
		}
		return nil, output.ErrStorage("shopping list", err)
	}
	return doc.Items, nil
}
