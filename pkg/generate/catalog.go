package generate

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// CatalogFile is the name of the generated XML catalog.
const CatalogFile = "terms-catalog.xml"

const catalogNamespace = "urn:oasis:names:tc:entity:xmlns:xml:catalog"

// CatalogEntry maps a schema namespace to the location of its schema file,
// relative to the catalog.
type CatalogEntry struct {
	Namespace string
	Location  string
}

type catalogDocument struct {
	XMLName xml.Name        `xml:"catalog"`
	Xmlns   string          `xml:"xmlns,attr"`
	Prefer  string          `xml:"prefer,attr"`
	Public  []catalogPublic `xml:"public"`
	System  []catalogSystem `xml:"system"`
	URI     []catalogURI    `xml:"uri"`
}

type catalogPublic struct {
	PublicID string `xml:"publicId,attr"`
	URI      string `xml:"uri,attr"`
}

type catalogSystem struct {
	SystemID string `xml:"systemId,attr"`
	URI      string `xml:"uri,attr"`
}

type catalogURI struct {
	Name string `xml:"name,attr"`
	URI  string `xml:"uri,attr"`
}

// CatalogGenerator writes OASIS XML catalogs.
type CatalogGenerator struct{}

// NewCatalogGenerator creates a CatalogGenerator.
func NewCatalogGenerator() *CatalogGenerator {
	return &CatalogGenerator{}
}

// Render returns the catalog document. Each entry becomes a public, a
// system and a uri mapping. Entries are sorted by namespace.
func (c *CatalogGenerator) Render(entries []CatalogEntry) ([]byte, error) {
	sorted := append([]CatalogEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Namespace < sorted[j].Namespace })

	doc := catalogDocument{Xmlns: catalogNamespace, Prefer: "public"}
	for _, entry := range sorted {
		location := filepath.ToSlash(entry.Location)
		doc.Public = append(doc.Public, catalogPublic{PublicID: entry.Namespace, URI: location})
		doc.System = append(doc.System, catalogSystem{SystemID: entry.Namespace, URI: location})
		doc.URI = append(doc.URI, catalogURI{Name: entry.Namespace, URI: location})
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// Generate writes terms-catalog.xml into outDir and returns its path.
func (c *CatalogGenerator) Generate(entries []CatalogEntry, outDir string) (string, error) {
	data, err := c.Render(entries)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", outDir, err)
	}
	path := filepath.Join(outDir, CatalogFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
