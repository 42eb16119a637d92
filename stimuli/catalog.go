/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package stimuli builds trial sequences for the reference game: which
// object is the target on each round, which distractors surround it, where
// every object sits on each role's grid, and which cells are occluded.
package stimuli

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

//go:embed catalog.json
var defaultCatalog []byte

// Object is a catalog entry. SubID is the object's identity; Shape, Basic
// and Super are its category labels from coarse silhouette up to
// superordinate category.
type Object struct {
	Name  string `json:"name"`
	SubID string `json:"subID"`
	Shape string `json:"shape"`
	Basic string `json:"basic"`
	Super string `json:"super"`
}

type Catalog []Object

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(defaultCatalog, &c); err != nil {
		return nil, fmt.Errorf("decode embedded catalog: %w", err)
	}
	return c, nil
}

// ReadCatalog decodes a JSON array of objects.
func ReadCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return c, nil
}

// LoadCatalog reads the catalog at path, or the embedded one when path is empty.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCatalog(f)
}

// subIDCounts counts catalog entries per identity.
func (c Catalog) subIDCounts() map[string]int {
	counts := make(map[string]int, len(c))
	for _, o := range c {
		counts[o.SubID]++
	}
	return counts
}
