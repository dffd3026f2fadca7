package aisdb

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	CleanTable   = "ais_clean"
	DirtyTable   = "ais_dirty"
	SourcesTable = "ais_sources"
	MarkerTable  = "ingest_updates"
)

var ErrUnknownTable = errors.New("table not implemented")

//go:embed tables.yaml
var tablesYAML []byte

// Column is a column name and its SQL type.
type Column struct {
	Name string
	Type string
}

// UnmarshalYAML reads a column written as [name, type].
func (c *Column) UnmarshalYAML(node *yaml.Node) error {
	var pair []string
	err := node.Decode(&pair)
	if err != nil {
		return err
	}
	if len(pair) != 2 {
		return errors.Errorf("line %d: column must be [name, type]", node.Line)
	}
	c.Name, c.Type = pair[0], pair[1]

	return nil
}

// Index is a btree index over columns. Its full name is prefixed with the table name.
type Index struct {
	Name    string
	Columns []string
}

// UnmarshalYAML reads an index written as [name, [columns...]].
func (i *Index) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode || len(node.Content) != 2 {
		return errors.Errorf("line %d: index must be [name, [columns]]", node.Line)
	}
	err := node.Content[0].Decode(&i.Name)
	if err != nil {
		return err
	}

	return node.Content[1].Decode(&i.Columns)
}

// TableSpec describes a table of the AIS database.
type TableSpec struct {
	Name    string   `yaml:"-"`
	Columns []Column `yaml:"columns"`
	Indices []Index  `yaml:"indices"`
	// Cluster is the index the table is clustered on, if any.
	Cluster string `yaml:"cluster"`
}

// Specs holds the table specifications by table name.
type Specs map[string]*TableSpec

// LoadSpecs parses table specifications.
func LoadSpecs(data []byte) (Specs, error) {
	specs := Specs{}
	err := yaml.Unmarshal(data, &specs)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse table specifications")
	}
	for name, spec := range specs {
		if spec == nil || len(spec.Columns) == 0 {
			return nil, errors.Errorf("table %s has no column", name)
		}
		spec.Name = name
	}

	return specs, nil
}

// DefaultSpecs returns the embedded specifications of ais_clean, ais_dirty and ais_sources.
func DefaultSpecs() Specs {
	specs, err := LoadSpecs(tablesYAML)
	if err != nil {
		panic(err)
	}

	return specs
}

// Get returns the specification of table.
func (s Specs) Get(table string) (*TableSpec, error) {
	spec, ok := s[table]
	if !ok {
		return nil, errors.Wrap(ErrUnknownTable, table)
	}

	return spec, nil
}

// Tables returns the sorted table names.
func (s Specs) Tables() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CreateTableSQL returns the statement creating the table.
func (t *TableSpec) CreateTableSQL() string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c.Name) + " " + c.Type
	}

	return "CREATE TABLE IF NOT EXISTS " + quoteIdent(t.Name) + " (" + strings.Join(cols, ", ") + ")"
}

// IndexName returns the full name of an index of the table.
func (t *TableSpec) IndexName(idx Index) string {
	return strings.ToLower(t.Name) + "_" + idx.Name
}

// Query is a utility query run at most once, identified by UpdateID.
type Query struct {
	SQL      string
	UpdateID string
}

// IndexQueries returns one CREATE INDEX query per index of the table.
func (t *TableSpec) IndexQueries() []Query {
	queries := make([]Query, len(t.Indices))
	for i, idx := range t.Indices {
		name := t.IndexName(idx)
		cols := make([]string, len(idx.Columns))
		for j, c := range idx.Columns {
			cols[j] = quoteIdent(strings.ToLower(c))
		}
		queries[i] = Query{
			SQL: "CREATE INDEX IF NOT EXISTS " + quoteIdent(name) + " ON " + quoteIdent(t.Name) +
				" USING btree (" + strings.Join(cols, ",") + ")",
			UpdateID: "MakeAllIndices" + name,
		}
	}

	return queries
}

// ClusterQuery returns the query clustering the table on its cluster index.
func (t *TableSpec) ClusterQuery() (Query, error) {
	for _, idx := range t.Indices {
		if idx.Name == t.Cluster {
			return Query{
				SQL:      "CLUSTER VERBOSE " + quoteIdent(t.Name) + " USING " + quoteIdent(t.IndexName(idx)),
				UpdateID: "Cluster" + t.Name,
			}, nil
		}
	}

	return Query{}, errors.Errorf("table %s has no cluster index", t.Name)
}

// CopySQL returns the COPY statement loading a csv file with a header into the table. id columns are filled by
// the database.
func (t *TableSpec) CopySQL() string {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "id" {
			continue
		}
		cols = append(cols, quoteIdent(c.Name))
	}

	return "COPY " + quoteIdent(t.Name) + " (" + strings.Join(cols, ",") + ") FROM STDIN WITH (FORMAT csv, HEADER true)"
}
