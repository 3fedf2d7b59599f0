package menu

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when no menu item matches the requested name.
var ErrNotFound = errors.New("menu item not found")

// Item represents a dish on the menu. Prices are stored in cents so totals
// never accumulate floating-point drift.
type Item struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	PriceCents  int    `yaml:"price_cents"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

// Catalog is a read-only lookup of sellable items. It is built once at
// startup and safe for concurrent use afterwards.
type Catalog struct {
	items    []Item
	byName   map[string]*Item
	synonyms map[string]string
}

// NewCatalog builds a catalog from the given items. Item names are matched
// case-insensitively; extra aliases map alternate spoken forms (including
// plurals) onto canonical names.
func NewCatalog(items []Item, aliases map[string]string) (*Catalog, error) {
	c := &Catalog{
		items:    make([]Item, len(items)),
		byName:   make(map[string]*Item, len(items)),
		synonyms: make(map[string]string, len(aliases)),
	}
	copy(c.items, items)

	for i := range c.items {
		it := &c.items[i]
		if it.Name == "" {
			return nil, fmt.Errorf("menu item %q has no name", it.ID)
		}
		if it.PriceCents <= 0 {
			return nil, fmt.Errorf("menu item %q has non-positive price", it.Name)
		}
		key := normalize(it.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("duplicate menu item name %q", it.Name)
		}
		c.byName[key] = it
	}

	for alias, canonical := range aliases {
		if _, ok := c.byName[normalize(canonical)]; !ok {
			return nil, fmt.Errorf("alias %q points at unknown item %q", alias, canonical)
		}
		c.synonyms[normalize(alias)] = normalize(canonical)
	}

	return c, nil
}

// Find resolves a spoken item name or alias to a menu item.
func (c *Catalog) Find(nameOrAlias string) (Item, error) {
	key := normalize(nameOrAlias)
	if canonical, ok := c.synonyms[key]; ok {
		key = canonical
	}
	if it, ok := c.byName[key]; ok {
		return *it, nil
	}
	// Tolerate the singular/plural mismatches speech recognition produces
	// ("fish taco" for "fish tacos" and the reverse).
	if it, ok := c.byName[key+"s"]; ok {
		return *it, nil
	}
	if strings.HasSuffix(key, "s") {
		if it, ok := c.byName[strings.TrimSuffix(key, "s")]; ok {
			return *it, nil
		}
	}
	return Item{}, ErrNotFound
}

// Items returns every item on the menu, in catalog order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Categories returns the distinct categories in alphabetical order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, it := range c.items {
		if !seen[it.Category] {
			seen[it.Category] = true
			cats = append(cats, it.Category)
		}
	}
	sort.Strings(cats)
	return cats
}

// FormatForPrompt renders the menu grouped by category in the shape the
// language model is grounded on.
func (c *Catalog) FormatForPrompt() string {
	var b strings.Builder
	for _, cat := range c.Categories() {
		fmt.Fprintf(&b, "%s:\n", strings.ToUpper(cat))
		for _, it := range c.items {
			if it.Category != cat {
				continue
			}
			fmt.Fprintf(&b, "- %s: $%d.%02d - %s\n", it.Name, it.PriceCents/100, it.PriceCents%100, it.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
