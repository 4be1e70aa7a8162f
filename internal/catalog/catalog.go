// Package catalog loads the learning path and lab catalogs used to resolve
// activity names into UUIDs.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
)

// Kind selects the CSV layout of a catalog snapshot.
type Kind struct {
	FileName   string
	NameColumn string
	Header     []string
}

var (
	Paths = Kind{
		FileName:   "Learning-Path-Data.csv",
		NameColumn: "Name of LP",
		Header:     []string{"Name of LP", "Technology", "UUID"},
	}
	Labs = Kind{
		FileName:   "Lab-Exercise-Data.csv",
		NameColumn: "Name of Lab",
		Header:     []string{"Name of Lab", "Technology", "UUID", "Type"},
	}
)

// Key identifies a catalog group.
type Key struct {
	Name       string
	Technology string
}

// Catalog maps (name, technology) to every UUID seen for it, in file order.
// Duplicates are kept so that ambiguity stays visible to the resolver.
type Catalog struct {
	byKey map[Key][]string
	uuids mapset.Set[string]
}

func New() *Catalog {
	return &Catalog{
		byKey: make(map[Key][]string),
		uuids: mapset.NewThreadUnsafeSet[string](),
	}
}

func (c *Catalog) Add(name, technology, uuid string) {
	k := Key{Name: name, Technology: technology}
	c.byKey[k] = append(c.byKey[k], uuid)
	c.uuids.Add(uuid)
}

// Lookup returns the UUIDs recorded for the pair; nil when there is no entry.
func (c *Catalog) Lookup(name, technology string) []string {
	return c.byKey[Key{Name: name, Technology: technology}]
}

// Contains reports whether uuid appears under any key. A UUID listed under
// several keys still counts as present.
func (c *Catalog) Contains(uuid string) bool {
	return c.uuids.Contains(uuid)
}

func (c *Catalog) Len() int { return len(c.byKey) }

// Load reads a catalog CSV whose header contains nameColumn, "Technology"
// and "UUID". Extra columns are ignored; ragged rows are an error.
func Load(r io.Reader, nameColumn string) (*Catalog, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("catalog: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	nameIdx, okName := idx[nameColumn]
	techIdx, okTech := idx["Technology"]
	uuidIdx, okUUID := idx["UUID"]
	if !okName || !okTech || !okUUID {
		return nil, fmt.Errorf("catalog: header %q must contain %q, %q and %q", header, nameColumn, "Technology", "UUID")
	}

	c := New()
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		c.Add(rec[nameIdx], rec[techIdx], rec[uuidIdx])
	}
	return c, nil
}

func LoadFile(path string, kind Kind) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	c, err := Load(f, kind.NameColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
