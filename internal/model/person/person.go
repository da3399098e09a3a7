package person

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Person is the flat record served by the persons API.
type Person struct {
	ID   uint32 `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Age  uint32 `json:"age,omitempty" yaml:"age,omitempty"`
	Date string `json:"date,omitempty" yaml:"date,omitempty"`
}

// Validate reports whether p can be stored.
func (p Person) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidPerson
	}
	return nil
}

// Seed provides the persons every fresh process starts with.
func Seed() []Person {
	return []Person{
		{ID: 1, Name: "Alice"},
		{ID: 2, Name: "Bob"},
		{ID: 3, Name: "Carol"},
	}
}

// LoadSeedFile reads a YAML list of persons, e.g.
//
//	- id: 1
//	  name: Alice
//	  age: 30
func LoadSeedFile(path string) ([]Person, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var items []Person
	if err := yaml.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return items, nil
}
