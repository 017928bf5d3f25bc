package surrogate

// FindCarrier returns the first carrier in the given language and format. An
// empty format matches any format.
func FindCarrier(asset *KnowledgeAsset, language, format string) (*KnowledgeArtifact, bool) {
	if asset == nil {
		return nil, false
	}
	return find(asset.Carriers, language, format)
}

// FindSurrogate returns the first surrogate in the given language and format.
func FindSurrogate(asset *KnowledgeAsset, language, format string) (*KnowledgeArtifact, bool) {
	if asset == nil {
		return nil, false
	}
	return find(asset.Surrogates, language, format)
}

// CanonicalSurrogate returns the surrogate artifact describing the asset
// itself.
func CanonicalSurrogate(asset *KnowledgeAsset) (*KnowledgeArtifact, bool) {
	if asset == nil {
		return nil, false
	}
	expected, err := CanonicalSurrogateID(asset.AssetID)
	if err != nil {
		return nil, false
	}
	for i := range asset.Surrogates {
		if asset.Surrogates[i].ArtifactID.ResourceID == expected.ResourceID {
			return &asset.Surrogates[i], true
		}
	}
	return nil, false
}

func find(artifacts []KnowledgeArtifact, language, format string) (*KnowledgeArtifact, bool) {
	for i := range artifacts {
		if artifacts[i].Representation.Matches(language, format) {
			return &artifacts[i], true
		}
	}
	return nil, false
}
