package query

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/coolbeans/kmdp/pkg/store"
)

// OutputFormat names a result serialization.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatCSV   OutputFormat = "csv"
)

// Write serializes the result in the given format.
func (r *Result) Write(w io.Writer, format OutputFormat) error {
	switch format {
	case FormatJSON:
		data, err := r.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatCSV:
		return r.writeCSV(w)
	case FormatTable, "":
		_, err := io.WriteString(w, r.Table())
		return err
	}
	return fmt.Errorf("unsupported format: %s", format)
}

// Table renders the result as an ASCII table.
func (r *Result) Table() string {
	if len(r.Variables) == 0 || len(r.Bindings) == 0 {
		return "No results\n"
	}

	widths := make([]int, len(r.Variables))
	for i, name := range r.Variables {
		widths[i] = len(name)
	}
	for _, row := range r.Bindings {
		for i, name := range r.Variables {
			widths[i] = max(widths[i], len(Display(row[name])))
		}
	}

	var sep strings.Builder
	sep.WriteString("+")
	for _, w := range widths {
		sep.WriteString(strings.Repeat("-", w+2))
		sep.WriteString("+")
	}
	sep.WriteString("\n")

	var sb strings.Builder
	writeRow := func(cells func(i int) string) {
		sb.WriteString("|")
		for i := range r.Variables {
			fmt.Fprintf(&sb, " %-*s |", widths[i], cells(i))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(sep.String())
	writeRow(func(i int) string { return r.Variables[i] })
	sb.WriteString(sep.String())
	for _, row := range r.Bindings {
		writeRow(func(i int) string { return Display(row[r.Variables[i]]) })
	}
	sb.WriteString(sep.String())
	fmt.Fprintf(&sb, "%d rows\n", r.Count)
	return sb.String()
}

func (r *Result) writeCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(r.Variables); err != nil {
		return err
	}
	for _, row := range r.Bindings {
		record := make([]string, len(r.Variables))
		for i, name := range r.Variables {
			record[i] = Display(row[name])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// termJSON is one RDF term in the SPARQL 1.1 query results JSON format.
type termJSON struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Language string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// MarshalJSON encodes the result in the SPARQL 1.1 query results JSON format.
func (r *Result) MarshalJSON() ([]byte, error) {
	type head struct {
		Vars []string `json:"vars"`
	}
	type results struct {
		Bindings []map[string]termJSON `json:"bindings"`
	}

	rows := make([]map[string]termJSON, len(r.Bindings))
	for i, row := range r.Bindings {
		encoded := make(map[string]termJSON, len(row))
		for name, term := range row {
			encoded[name] = encodeTerm(term)
		}
		rows[i] = encoded
	}

	vars := r.Variables
	if vars == nil {
		vars = []string{}
	}
	return json.MarshalIndent(struct {
		Head    head    `json:"head"`
		Results results `json:"results"`
	}{head{vars}, results{rows}}, "", "  ")
}

func encodeTerm(term string) termJSON {
	switch {
	case store.IsBlankNode(term):
		return termJSON{Type: "bnode", Value: strings.TrimPrefix(term, "_:")}
	case strings.HasPrefix(term, `"`):
		lit, _ := store.ParseLiteral(term)
		return termJSON{Type: "literal", Value: lit.Value, Language: lit.Language, Datatype: lit.Datatype}
	}
	return termJSON{Type: "uri", Value: term}
}
