package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"chefai/internal/cache"
	"chefai/internal/localstore"
	"chefai/internal/recipes"
	"chefai/internal/shopping"
)

type cliOptions struct {
	dataDir string
	remote  string
	token   string

	list         bool
	search       string
	importFile   string
	remove       string
	shop         string
	shopping     bool
	addItem      string
	check        string
	clearChecked bool
}

func (o cliOptions) any() bool {
	return o.list || o.search != "" || o.importFile != "" || o.remove != "" || o.shop != "" ||
		o.shopping || o.addItem != "" || o.check != "" || o.clearChecked
}

// client is what the app held in memory: the repository bound to one
// backend and the device shopping list.
type client struct {
	repo *recipes.Repository
	list *shopping.List
	out  io.Writer
}

func newClient(ctx context.Context, opts cliOptions, out io.Writer) (*client, error) {
	medium := cache.NewFileCache(opts.dataDir)
	recipeStore := localstore.Open(medium, recipes.LocalKey, []recipes.Recipe{})
	shoppingStore := localstore.Open(medium, shopping.LocalKey, []shopping.Item{})
	if err := localstore.WaitAll(ctx, recipeStore, shoppingStore); err != nil {
		return nil, err
	}

	repo := recipes.NewRepository()
	var err error
	if opts.remote != "" {
		backend := recipes.NewRemoteBackend(opts.remote, recipes.WithToken(opts.token))
		err = repo.Resolve(ctx, recipes.StateAuthenticated, backend)
	} else {
		err = repo.Resolve(ctx, recipes.StateAnonymous, recipes.NewLocalBackend(recipeStore))
	}
	if err != nil {
		fmt.Fprintln(out, recipes.UserMessage(recipes.OpLoad, err))
		return nil, err
	}
	return &client{repo: repo, list: shopping.New(shoppingStore), out: out}, nil
}

func runCLI(ctx context.Context, opts cliOptions, out io.Writer) error {
	c, err := newClient(ctx, opts, out)
	if err != nil {
		return err
	}

	if opts.importFile != "" {
		if err := c.importFile(ctx, opts.importFile); err != nil {
			return err
		}
	}
	if opts.remove != "" {
		if err := c.repo.Remove(ctx, opts.remove); err != nil {
			fmt.Fprintln(out, recipes.UserMessage(recipes.OpDelete, err))
			return err
		}
		fmt.Fprintf(out, "removed %s\n", opts.remove)
	}
	if opts.list {
		c.printRecipes(c.repo.List())
	}
	if opts.search != "" {
		c.printRecipes(c.repo.Search(opts.search))
	}
	if opts.shop != "" {
		r, ok := recipes.FindByID(c.repo.List(), opts.shop)
		if !ok {
			return fmt.Errorf("recipe %s: %w", opts.shop, recipes.ErrNotFound)
		}
		n := c.list.AddFromRecipe(r)
		fmt.Fprintf(out, "added %d ingredients from %q\n", n, r.Title)
	}
	if opts.addItem != "" {
		item, err := c.list.Add(opts.addItem, "", "")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s  %s x%d\n", item.ID, item.Text, item.Quantity)
	}
	if opts.check != "" {
		c.list.Toggle(opts.check)
	}
	if opts.clearChecked {
		c.list.ClearChecked()
	}
	if opts.shopping {
		c.printShopping()
	}
	return nil
}

func (c *client) importFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	batch, err := decodeRecipes(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, r := range batch {
		saved, err := c.repo.Save(ctx, r)
		if err != nil {
			fmt.Fprintln(c.out, recipes.UserMessage(recipes.OpSave, err))
			return err
		}
		fmt.Fprintf(c.out, "saved %s  %s\n", saved.ID, saved.Title)
	}
	return nil
}

// decodeRecipes accepts a single recipe object or an array of them.
func decodeRecipes(data []byte) ([]recipes.Recipe, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var batch []recipes.Recipe
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, err
		}
		return batch, nil
	}
	var r recipes.Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return []recipes.Recipe{r}, nil
}

func (c *client) printRecipes(list []recipes.Recipe) {
	if len(list) == 0 {
		fmt.Fprintln(c.out, "no recipes")
		return
	}
	for _, r := range list {
		fmt.Fprintf(c.out, "%s  %s (%s, %s)\n", r.ID, r.Title, r.CookingTime, r.Difficulty)
	}
}

func (c *client) printShopping() {
	items := c.list.Items()
	fmt.Fprintf(c.out, "%s: %d pending\n", shopping.ShareTitle, c.list.PendingCount())
	for _, it := range items {
		mark := " "
		if it.Checked {
			mark = "x"
		}
		fmt.Fprintf(c.out, "[%s] %s  %s x%d\n", mark, it.ID, it.Text, it.Quantity)
	}
}
