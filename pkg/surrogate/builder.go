package surrogate

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/coolbeans/kmdp/pkg/id"
)

// Builder assembles a KnowledgeAsset. The canonical surrogate artifact is
// attached when the builder is created, so every With call applies to an
// asset that already describes itself.
type Builder struct {
	asset *KnowledgeAsset
}

// NewBuilder starts a surrogate for the asset. root marks an asset that is not
// part of a larger composite.
func NewBuilder(assetID id.ResourceIdentifier, root bool) (*Builder, error) {
	surrogateID, err := CanonicalSurrogateID(assetID)
	if err != nil {
		return nil, err
	}

	asset := &KnowledgeAsset{
		AssetID: assetID,
		Root:    root,
		Surrogates: []KnowledgeArtifact{{
			ArtifactID: surrogateID,
			Representation: &SyntacticRepresentation{
				Language: SurrogateLanguage,
				Format:   XMLFormat,
				Charset:  DefaultCharset,
			},
		}},
	}
	return &Builder{asset: asset}, nil
}

// CanonicalSurrogateID derives the identifier of an asset's canonical
// surrogate. The result is stable for a given asset and version.
func CanonicalSurrogateID(assetID id.ResourceIdentifier) (id.ResourceIdentifier, error) {
	if assetID.UUID == uuid.Nil {
		return id.ResourceIdentifier{}, fmt.Errorf("canonical surrogate: %w", id.ErrMissingTag)
	}
	u := uuid.NewSHA1(assetID.UUID, []byte("surrogate"))
	return id.NewUUIDID(assetID.Namespace, u, assetID.VersionTag)
}

// WithName sets the name and description.
func (b *Builder) WithName(name, description string) *Builder {
	b.asset.Name = name
	b.asset.Description = description
	return b
}

// WithFormalType adds a formal category and type.
func (b *Builder) WithFormalType(category, formalType string) *Builder {
	b.asset.FormalCategory = appendUnique(b.asset.FormalCategory, category)
	b.asset.FormalType = appendUnique(b.asset.FormalType, formalType)
	return b
}

// WithRole adds a knowledge asset role.
func (b *Builder) WithRole(role string) *Builder {
	b.asset.Role = appendUnique(b.asset.Role, role)
	return b
}

// WithAnnotation relates the asset to a concept.
func (b *Builder) WithAnnotation(rel, ref string) *Builder {
	for _, a := range b.asset.Annotations {
		if a.Rel == rel && a.Ref == ref {
			return b
		}
	}
	b.asset.Annotations = append(b.asset.Annotations, Annotation{Rel: rel, Ref: ref})
	return b
}

// WithLink relates the asset to another asset.
func (b *Builder) WithLink(rel string, target id.ResourceIdentifier) *Builder {
	b.asset.Links = append(b.asset.Links, Link{Rel: rel, Target: target})
	return b
}

// WithCarrier adds a carrier artifact in the given representation.
func (b *Builder) WithCarrier(artifactID id.ResourceIdentifier, rep *SyntacticRepresentation) *Builder {
	b.asset.Carriers = append(b.asset.Carriers, KnowledgeArtifact{
		ArtifactID:     artifactID,
		Representation: rep,
	})
	return b
}

// WithInlinedCarrier adds a carrier whose expression is embedded in the
// surrogate.
func (b *Builder) WithInlinedCarrier(artifactID id.ResourceIdentifier, rep *SyntacticRepresentation, expression string) *Builder {
	b.asset.Carriers = append(b.asset.Carriers, KnowledgeArtifact{
		ArtifactID:     artifactID,
		Representation: rep,
		Inlined:        expression,
	})
	return b
}

// WithLocator sets the locator of the most recently added carrier.
func (b *Builder) WithLocator(locator string) *Builder {
	if n := len(b.asset.Carriers); n > 0 {
		b.asset.Carriers[n-1].Locator = locator
	}
	return b
}

// WithSurrogate adds an alternative metadata description.
func (b *Builder) WithSurrogate(artifactID id.ResourceIdentifier, rep *SyntacticRepresentation) *Builder {
	b.asset.Surrogates = append(b.asset.Surrogates, KnowledgeArtifact{
		ArtifactID:     artifactID,
		Representation: rep,
	})
	return b
}

// Get returns the asset. Later calls on the builder keep modifying it.
func (b *Builder) Get() *KnowledgeAsset {
	return b.asset
}

func appendUnique(list []string, value string) []string {
	if value == "" {
		return list
	}
	for _, item := range list {
		if item == value {
			return list
		}
	}
	return append(list, value)
}
