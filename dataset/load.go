package dataset

import (
	"crypto/sha256"
	"embed"
	"encoding/csv"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"rethink/errors"
)

//go:embed data/*.csv manifest.yaml
var bundle embed.FS

// Meta describes a bundled dataset, from manifest.yaml
type Meta struct {
	Name        string       `yaml:"name"`
	File        string       `yaml:"file"`
	Source      string       `yaml:"source"`
	Description string       `yaml:"description"`
	Columns     []ColumnMeta `yaml:"columns"`
}

// ColumnMeta documents a single column
type ColumnMeta struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type manifest struct {
	Datasets []Meta `yaml:"datasets"`
}

var loadedManifest *manifest

func readManifest() (*manifest, error) {
	if loadedManifest != nil {
		return loadedManifest, nil
	}
	raw, err := bundle.ReadFile("manifest.yaml")
	if err != nil {
		return nil, errors.Wrap(err, "read dataset manifest")
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, "parse dataset manifest")
	}
	loadedManifest = &m
	return loadedManifest, nil
}

// List returns metadata for every bundled dataset, sorted by name
func List() ([]Meta, error) {
	m, err := readManifest()
	if err != nil {
		return nil, err
	}
	out := make([]Meta, len(m.Datasets))
	copy(out, m.Datasets)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Describe returns the metadata for one dataset
func Describe(name string) (Meta, error) {
	m, err := readManifest()
	if err != nil {
		return Meta{}, err
	}
	for _, d := range m.Datasets {
		if d.Name == name {
			return d, nil
		}
	}
	return Meta{}, errors.NewNotFoundError("dataset %q", name)
}

// Load reads a bundled dataset into a Table
func Load(name string) (*Table, error) {
	meta, err := Describe(name)
	if err != nil {
		return nil, err
	}
	raw, err := bundle.ReadFile("data/" + meta.File)
	if err != nil {
		return nil, errors.Wrapf(err, "read dataset %s", name)
	}
	return parseCSV(name, raw)
}

// Hash returns the hex SHA-256 of a dataset's raw bytes. The fit cache keys
// on this so a data revision invalidates cached fits.
func Hash(name string) (string, error) {
	meta, err := Describe(name)
	if err != nil {
		return "", err
	}
	raw, err := bundle.ReadFile("data/" + meta.File)
	if err != nil {
		return "", errors.Wrapf(err, "read dataset %s", name)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// parseCSV reads a header row then values. A column is numeric when every
// value parses as a float; otherwise it is kept as strings.
func parseCSV(name string, raw []byte) (*Table, error) {
	r := csv.NewReader(strings.NewReader(string(raw)))
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parse dataset %s", name)
	}
	if len(records) < 2 {
		return nil, errors.Newf("dataset %s: no data rows", name)
	}

	header := records[0]
	rows := records[1:]
	cols := make([]Column, len(header))
	for j, colName := range header {
		values := make([]string, len(rows))
		numeric := true
		floats := make([]float64, len(rows))
		for i, row := range rows {
			if len(row) != len(header) {
				return nil, errors.Newf("dataset %s: row %d has %d fields, want %d", name, i+1, len(row), len(header))
			}
			values[i] = row[j]
			if numeric {
				f, perr := strconv.ParseFloat(strings.TrimSpace(row[j]), 64)
				if perr != nil {
					numeric = false
				} else {
					floats[i] = f
				}
			}
		}
		if numeric {
			cols[j] = Column{Name: colName, Kind: Numeric, Floats: floats}
		} else {
			cols[j] = Column{Name: colName, Kind: String, Strings: values}
		}
	}
	return NewTable(name, cols...)
}
