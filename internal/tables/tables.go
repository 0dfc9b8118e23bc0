// Package tables resolves GRIB1 parameter numbers (code table 2) to names
// and units.
package tables

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

//go:embed default.toml
var defaultTables string

// maxInternational is the last parameter number shared by every centre.
const maxInternational = 127

// Parameter is one entry of a parameter table.
type Parameter struct {
	Number      int    `toml:"number"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Units       string `toml:"units"`
}

type table struct {
	Center    int         `toml:"center"`
	SubCenter *int        `toml:"subcenter"`
	Version   int         `toml:"version"`
	Params    []Parameter `toml:"param"`

	byNumber map[int]Parameter
}

type file struct {
	Tables []table `toml:"table"`
}

// Lookup resolves parameters against a list of tables. Tables loaded later
// take precedence.
type Lookup struct {
	tables []*table
}

// Default returns the embedded tables.
func Default() (*Lookup, error) {
	l := &Lookup{}
	if err := l.add(defaultTables, "default tables"); err != nil {
		return nil, err
	}
	return l, nil
}

// Load returns the embedded tables overridden by the TOML files at paths.
func Load(paths ...string) (*Lookup, error) {
	l, err := Default()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		var f file
		if _, err := toml.DecodeFile(p, &f); err != nil {
			return nil, errors.Wrapf(err, "loading parameter table %s", p)
		}
		l.append(f)
	}
	return l, nil
}

func (l *Lookup) add(doc, what string) error {
	var f file
	if _, err := toml.Decode(doc, &f); err != nil {
		return errors.Wrapf(err, "decoding %s", what)
	}
	l.append(f)
	return nil
}

func (l *Lookup) append(f file) {
	for i := range f.Tables {
		t := &f.Tables[i]
		t.byNumber = make(map[int]Parameter, len(t.Params))
		for _, p := range t.Params {
			t.byNumber[p.Number] = p
		}
		l.tables = append(l.tables, t)
	}
}

// Parameter finds the entry for number in the table of (center, subcenter,
// version). A table for the exact subcentre wins over one for any
// subcentre; numbers up to 127 fall back to the international table.
func (l *Lookup) Parameter(center, subcenter, version, number int) (Parameter, bool) {
	var anySub *table
	for i := len(l.tables) - 1; i >= 0; i-- {
		t := l.tables[i]
		if t.Center != center || t.Version != version {
			continue
		}
		if _, ok := t.byNumber[number]; !ok {
			continue
		}
		if t.SubCenter != nil && *t.SubCenter == subcenter {
			return t.byNumber[number], true
		}
		if t.SubCenter == nil && anySub == nil {
			anySub = t
		}
	}
	if anySub != nil {
		return anySub.byNumber[number], true
	}
	if number <= maxInternational && center != 0 {
		for i := len(l.tables) - 1; i >= 0; i-- {
			t := l.tables[i]
			if t.Center != 0 {
				continue
			}
			if p, ok := t.byNumber[number]; ok {
				return p, true
			}
		}
	}
	return Parameter{}, false
}

// Name returns the parameter name, or a synthesized "VAR<c>-<sc>-<v>-<n>"
// name for parameters missing from every table.
func (l *Lookup) Name(center, subcenter, version, number int) string {
	if p, ok := l.Parameter(center, subcenter, version, number); ok {
		return p.Name
	}
	return UnknownName(center, subcenter, version, number)
}

// UnknownName is the name given to parameters missing from every table.
func UnknownName(center, subcenter, version, number int) string {
	return fmt.Sprintf("VAR%d-%d-%d-%d", center, subcenter, version, number)
}
