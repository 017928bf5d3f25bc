// Package surrogate models knowledge-asset surrogates: metadata records that
// describe a knowledge asset, its computable carriers and its alternative
// metadata descriptions.
package surrogate

import (
	"encoding/xml"

	"github.com/coolbeans/kmdp/pkg/id"
)

// Namespace is the XML namespace of surrogate documents.
const Namespace = "https://www.omg.org/spec/API4KP/20200801/surrogate"

// Language and format tags of the canonical surrogate representation.
const (
	SurrogateLanguage = "Knowledge_Asset_Surrogate_2_0"
	XMLFormat         = "XML_1_1"
	JSONFormat        = "JSON"
	YAMLFormat        = "YAML_1_2"
	DefaultCharset    = "UTF-8"
)

// KnowledgeAsset is the surrogate of a knowledge asset.
type KnowledgeAsset struct {
	XMLName xml.Name `xml:"https://www.omg.org/spec/API4KP/20200801/surrogate KnowledgeAsset" json:"-" yaml:"-"`

	AssetID        id.ResourceIdentifier `xml:"assetId" json:"assetId" yaml:"assetId"`
	Root           bool                  `xml:"root,attr,omitempty" json:"root,omitempty" yaml:"root,omitempty"`
	Name           string                `xml:"name,omitempty" json:"name,omitempty" yaml:"name,omitempty" validate:"omitempty,max=512"`
	Description    string                `xml:"description,omitempty" json:"description,omitempty" yaml:"description,omitempty"`
	FormalCategory []string              `xml:"formalCategory,omitempty" json:"formalCategory,omitempty" yaml:"formalCategory,omitempty" validate:"dive,uri"`
	FormalType     []string              `xml:"formalType,omitempty" json:"formalType,omitempty" yaml:"formalType,omitempty" validate:"dive,uri"`
	Role           []string              `xml:"role,omitempty" json:"role,omitempty" yaml:"role,omitempty" validate:"dive,uri"`
	Annotations    []Annotation          `xml:"annotation,omitempty" json:"annotation,omitempty" yaml:"annotation,omitempty" validate:"dive"`
	Links          []Link                `xml:"link,omitempty" json:"link,omitempty" yaml:"link,omitempty" validate:"dive"`
	Carriers       []KnowledgeArtifact   `xml:"carriers,omitempty" json:"carriers,omitempty" yaml:"carriers,omitempty" validate:"dive"`
	Surrogates     []KnowledgeArtifact   `xml:"surrogate,omitempty" json:"surrogate,omitempty" yaml:"surrogate,omitempty" validate:"required,min=1,dive"`
}

// KnowledgeArtifact is one concrete expression of an asset, either a carrier
// or a surrogate.
type KnowledgeArtifact struct {
	ArtifactID     id.ResourceIdentifier    `xml:"artifactId" json:"artifactId" yaml:"artifactId"`
	Name           string                   `xml:"name,omitempty" json:"name,omitempty" yaml:"name,omitempty"`
	Representation *SyntacticRepresentation `xml:"representation,omitempty" json:"representation,omitempty" yaml:"representation,omitempty" validate:"required"`
	MimeType       string                   `xml:"mimeType,omitempty" json:"mimeType,omitempty" yaml:"mimeType,omitempty"`
	Locator        string                   `xml:"locator,omitempty" json:"locator,omitempty" yaml:"locator,omitempty" validate:"omitempty,uri"`
	Inlined        string                   `xml:"inlinedExpression,omitempty" json:"inlinedExpression,omitempty" yaml:"inlinedExpression,omitempty"`
}

// SyntacticRepresentation describes how an artifact is written down.
type SyntacticRepresentation struct {
	Language      string   `xml:"language" json:"language" yaml:"language" validate:"required"`
	Profile       string   `xml:"profile,omitempty" json:"profile,omitempty" yaml:"profile,omitempty"`
	Serialization string   `xml:"serialization,omitempty" json:"serialization,omitempty" yaml:"serialization,omitempty"`
	Format        string   `xml:"format,omitempty" json:"format,omitempty" yaml:"format,omitempty"`
	Lexicon       []string `xml:"lexicon,omitempty" json:"lexicon,omitempty" yaml:"lexicon,omitempty"`
	Charset       string   `xml:"charset,omitempty" json:"charset,omitempty" yaml:"charset,omitempty"`
	Encoding      string   `xml:"encoding,omitempty" json:"encoding,omitempty" yaml:"encoding,omitempty"`
}

// Annotation relates the asset to a concept.
type Annotation struct {
	Rel string `xml:"rel" json:"rel" yaml:"rel" validate:"required,uri"`
	Ref string `xml:"ref" json:"ref" yaml:"ref" validate:"required,uri"`
}

// Link relates the asset to another asset.
type Link struct {
	Rel    string                `xml:"rel" json:"rel" yaml:"rel" validate:"required,uri"`
	Target id.ResourceIdentifier `xml:"href" json:"href" yaml:"href"`
}

// Rep returns a representation of a language in a format.
func Rep(language, format string) *SyntacticRepresentation {
	return &SyntacticRepresentation{Language: language, Format: format}
}

// Matches reports whether the representation uses language and, when format
// is not empty, format.
func (r *SyntacticRepresentation) Matches(language, format string) bool {
	if r == nil || r.Language != language {
		return false
	}
	return format == "" || r.Format == format
}
