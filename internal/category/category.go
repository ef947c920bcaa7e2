// Package category reads the expense categories owned by the ledger and
// suggests one of them for a recognized receipt.
package category

// Category is an expense category as kept by the ledger.
type Category struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	DefaultTaxRate float64 `json:"default_tax_rate"`
	IsActive       bool    `json:"is_active"`
}

// Store lists categories. Implementations do not filter inactive entries.
type Store interface {
	ListCategories() ([]*Category, error)
}

// StaticStore serves a fixed category list from memory.
type StaticStore []*Category

func (s StaticStore) ListCategories() ([]*Category, error) {
	return s, nil
}

// DefaultStore holds Defaults numbered from 1, in the order a fresh database
// would assign.
func DefaultStore() StaticStore {
	categories := Defaults()
	for i, c := range categories {
		c.ID = int64(i + 1)
	}
	return categories
}

// Active returns the active categories in their original order.
func Active(categories []*Category) []*Category {
	active := make([]*Category, 0, len(categories))
	for _, c := range categories {
		if c != nil && c.IsActive {
			active = append(active, c)
		}
	}
	return active
}

// Defaults is the category set a new ledger starts with.
func Defaults() []*Category {
	return []*Category{
		{Name: "Lebensmittel", Description: "Einkauf Zutaten", DefaultTaxRate: 2.6, IsActive: true},
		{Name: "Verpackung", Description: "Boxen, Becher, Besteck", DefaultTaxRate: 8.1, IsActive: true},
		{Name: "Standplatz", Description: "Miete, Gebuehren", DefaultTaxRate: 8.1, IsActive: true},
		{Name: "Fahrzeug", Description: "Wartung, Treibstoff", DefaultTaxRate: 8.1, IsActive: true},
		{Name: "Marketing", Description: "Werbung, Aktionen", DefaultTaxRate: 8.1, IsActive: true},
		{Name: "Versicherung", Description: "Versicherungen", DefaultTaxRate: 8.1, IsActive: true},
		{Name: "Diverses", Description: "Sonstiges", DefaultTaxRate: 8.1, IsActive: true},
	}
}
