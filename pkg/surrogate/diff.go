package surrogate

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Comparison is the result of diffing two surrogates.
type Comparison string

const (
	// Equal surrogates serialize identically.
	Equal Comparison = "EQUAL"
	// Equivalent surrogates differ only in the order of repeated elements.
	Equivalent Comparison = "EQUIVALENT"
	// Different surrogates carry different content.
	Different Comparison = "DIFFERENT"
)

// Diff compares two surrogates.
func Diff(a, b *KnowledgeAsset) Comparison {
	left, errLeft := json.Marshal(a)
	right, errRight := json.Marshal(b)
	if errLeft != nil || errRight != nil {
		return Different
	}
	if bytes.Equal(left, right) {
		return Equal
	}

	left, errLeft = normalized(left)
	right, errRight = normalized(right)
	if errLeft != nil || errRight != nil {
		return Different
	}
	if bytes.Equal(left, right) {
		return Equivalent
	}
	return Different
}

// normalized re-encodes a JSON surrogate with every repeated element sorted.
func normalized(data []byte) ([]byte, error) {
	var asset KnowledgeAsset
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, err
	}

	sort.Strings(asset.FormalCategory)
	sort.Strings(asset.FormalType)
	sort.Strings(asset.Role)
	sort.Slice(asset.Annotations, func(i, j int) bool {
		x, y := asset.Annotations[i], asset.Annotations[j]
		if x.Rel != y.Rel {
			return x.Rel < y.Rel
		}
		return x.Ref < y.Ref
	})
	sort.Slice(asset.Links, func(i, j int) bool {
		x, y := asset.Links[i], asset.Links[j]
		if x.Rel != y.Rel {
			return x.Rel < y.Rel
		}
		return x.Target.String() < y.Target.String()
	})
	sortArtifacts(asset.Carriers)
	sortArtifacts(asset.Surrogates)

	return json.Marshal(&asset)
}

func sortArtifacts(artifacts []KnowledgeArtifact) {
	for i := range artifacts {
		if rep := artifacts[i].Representation; rep != nil {
			sort.Strings(rep.Lexicon)
		}
	}
	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].ArtifactID.String() < artifacts[j].ArtifactID.String()
	})
}
