package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mzansiplatess/plates-cli/internal/completion"
	"github.com/mzansiplatess/plates-cli/internal/models"
	"github.com/mzansiplatess/plates-cli/internal/output"
	"github.com/mzansiplatess/plates-cli/internal/shopping"
	"github.com/mzansiplatess/plates-cli/internal/tui/empty"
)

// NewShoppingCmd creates the shopping list command group.
func NewShoppingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "shopping",
		Aliases: []string{"shop", "list"},
		Short:   "Manage your shopping list",
		Long: `Manage the shopping list kept on this machine.

Items are numbered from 1 in the order they were added.`,
	}
	list := newShoppingListCmd()
	cmd.RunE = list.RunE
	cmd.AddCommand(
		list,
		newShoppingAddCmd(),
		newShoppingDoneCmd(),
		newShoppingRemoveCmd(),
		newShoppingClearCmd(),
	)
	return cmd
}

// shoppingRow is a list item with its position.
type shoppingRow struct {
	ID int `json:"id"`
	models.ShoppingItem
}

func shoppingRows(items []models.ShoppingItem) []shoppingRow {
	rows := make([]shoppingRow, len(items))
	for i, it := range items {
		rows[i] = shoppingRow{ID: i + 1, ShoppingItem: it}
	}
	return rows
}

func newShoppingListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the shopping list",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			items, err := app.Shopping.Items()
			if err != nil {
				return err
			}

			summary := shopping.Progress(items)
			if len(items) == 0 {
				summary = empty.ShoppingListEmpty().Title
			}
			return app.OK(shoppingRows(items),
				output.WithSummary(summary),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "add", Cmd: "plates shopping add <item>", Description: "Add an item"},
					output.Breadcrumb{Action: "done", Cmd: "plates shopping done <n>", Description: "Tick an item off"},
				),
			)
		},
	}
}

func newShoppingAddCmd() *cobra.Command {
	var (
		qty      float64
		unit     string
		recipeID string
	)
	cmd := &cobra.Command{
		Use:   "add [item...]",
		Short: "Add an item, or every ingredient of a recipe",
		Example: `  plates shopping add Boerewors --qty 1 --unit kg
  plates shopping add --recipe bobotie`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			var items []models.ShoppingItem
			var summary string
			switch {
			case recipeID != "" && len(args) > 0:
				return output.ErrUsage("Give either item names or --recipe, not both")
			case recipeID != "":
				recipe, err := app.API.Recipe(cmd.Context(), recipeID)
				if err != nil {
					return err
				}
				if items, err = app.Shopping.AddRecipe(*recipe); err != nil {
					return err
				}
				summary = fmt.Sprintf("Added the ingredients for %s", recipe.Name)
			case len(args) == 0:
				return output.ErrUsageHint("Item name required", "Example: plates shopping add Boerewors --qty 1 --unit kg")
			default:
				if qty < 0 {
					return output.ErrUsage("--qty must not be negative")
				}
				item := models.ShoppingItem{Name: strings.Join(args, " "), Quantity: qty, Unit: unit}
				if items, err = app.Shopping.Add(item); err != nil {
					return err
				}
				summary = "Added " + items[len(items)-1].Label()
			}

			return app.OK(shoppingRows(items),
				output.WithSummary(summary),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "list", Cmd: "plates shopping list", Description: "Show the list"},
				),
			)
		},
	}
	cmd.Flags().Float64Var(&qty, "qty", 0, "Quantity (default 1)")
	cmd.Flags().StringVar(&unit, "unit", "", "Unit, e.g. kg or piece")
	cmd.Flags().StringVar(&recipeID, "recipe", "", "Add every ingredient of this recipe")
	_ = cmd.RegisterFlagCompletionFunc("recipe", completer.Flag(completion.KindRecipes))
	return cmd
}

func newShoppingDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "done <n>",
		Aliases: []string{"toggle", "tick"},
		Short:   "Tick an item off, or untick it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			pos, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			item, err := app.Shopping.Toggle(pos)
			if err != nil {
				return err
			}

			verb := "Ticked off"
			if !item.Completed {
				verb = "Unticked"
			}
			return app.OK(shoppingRow{ID: pos, ShoppingItem: item},
				output.WithSummary(verb+" "+item.Label()),
			)
		},
	}
}

func newShoppingRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <n>",
		Aliases: []string{"remove"},
		Short:   "Remove an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			pos, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			item, err := app.Shopping.Remove(pos)
			if err != nil {
				return err
			}
			return app.OK(item, output.WithSummary("Removed "+item.Label()))
		},
	}
}

func newShoppingClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every ticked-off item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			n, err := app.Shopping.ClearCompleted()
			if err != nil {
				return err
			}
			return app.OK(map[string]any{"removed": n},
				output.WithSummary("Cleared "+plural(n, "item", "items")),
			)
		},
	}
}
