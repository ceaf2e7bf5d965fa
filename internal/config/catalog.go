package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Item is one purchasable shop entry.
type Item struct {
	Name  string `yaml:"name" json:"name"`
	Price int64  `yaml:"price" json:"price"`
}

// Catalog is the static shop table. Order is presentation order.
type Catalog struct {
	Items []Item `yaml:"items"`
}

// Price returns the price of the named item.
func (c Catalog) Price(name string) (int64, bool) {
	for _, item := range c.Items {
		if item.Name == name {
			return item.Price, true
		}
	}
	return 0, false
}

// LoadCatalog loads the shop catalog from a YAML file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}

	for _, item := range catalog.Items {
		if item.Name == "" || item.Price <= 0 {
			return Catalog{}, fmt.Errorf("catalog item %q: name and positive price are required", item.Name)
		}
	}

	return catalog, nil
}

// LoadCatalogOrDefault loads the catalog or falls back to the built-in table.
func LoadCatalogOrDefault(path string) Catalog {
	catalog, err := LoadCatalog(path)
	if err != nil {
		return DefaultCatalog()
	}
	return catalog
}

// DefaultCatalog returns the built-in shop table.
func DefaultCatalog() Catalog {
	return Catalog{Items: []Item{
		{Name: "item1", Price: 10},
		{Name: "item2", Price: 20},
		{Name: "item3", Price: 30},
	}}
}
