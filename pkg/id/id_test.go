package id

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionedID(t *testing.T) {
	rid, err := NewVersionedID("http://foo.bar/", "baz", "1.1.0")
	require.NoError(t, err)

	assert.Equal(t, "http://foo.bar/baz", rid.ResourceID)
	assert.Equal(t, "http://foo.bar/baz/versions/1.1.0", rid.VersionID)
	assert.Equal(t, "baz", rid.Tag)
	assert.Equal(t, "1.1.0", rid.VersionTag)
	assert.Equal(t, rid.VersionID, rid.String())
}

func TestNewID_Deterministic(t *testing.T) {
	namespaces := []string{"http://foo.bar/", "https://example.org/ns#", "urn:example:ns"}
	tags := []string{"baz", "1.2.3", "a-b-c"}

	for _, ns := range namespaces {
		for _, tag := range tags {
			first, err := NewID(ns, tag)
			require.NoError(t, err)
			second, err := NewID(ns, tag)
			require.NoError(t, err)

			assert.Equal(t, first.ResourceID, second.ResourceID)
			assert.Equal(t, first.UUID, second.UUID)
			assert.NotEqual(t, uuid.Nil, first.UUID)
		}
	}
}

func TestVersionURIComposition(t *testing.T) {
	tests := []struct {
		namespace string
		expected  string
	}{
		{"http://foo.bar/", "http://foo.bar/baz/versions/2"},
		{"https://foo.bar/", "https://foo.bar/baz/versions/2"},
		{"urn:foo:", "urn:foo:baz:2"},
		{"urn:foo", "urn:foo:baz:2"},
	}

	for _, tt := range tests {
		rid, err := NewVersionedID(tt.namespace, "baz", "2")
		require.NoError(t, err)
		assert.Equal(t, tt.expected, rid.VersionID, tt.namespace)
	}
}

func TestUUIDShapedTag(t *testing.T) {
	u := uuid.MustParse("5b9a5b38-8a8a-4a55-8bc7-58e7c5bd0c4e")

	rid, err := NewID("https://example.org/assets/", u.String())
	require.NoError(t, err)
	assert.Equal(t, u, rid.UUID)
	assert.Equal(t, "https://example.org/assets/"+u.String(), rid.ResourceID)

	bare := New(u)
	assert.Equal(t, "urn:uuid:"+u.String(), bare.ResourceID)

	versioned, err := NewUUIDID("", u, "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "urn:uuid:"+u.String()+":1.0.0", versioned.VersionID)
}

func TestMissingComponents(t *testing.T) {
	_, err := NewID("http://foo.bar/", "")
	assert.ErrorIs(t, err, ErrMissingTag)

	_, err = NewID("", "baz")
	assert.ErrorIs(t, err, ErrMissingNamespace)

	_, err = NewUUIDID("http://foo.bar/", uuid.Nil, "")
	assert.ErrorIs(t, err, ErrMissingTag)

	_, err = NewFromURI("")
	assert.ErrorIs(t, err, ErrMissingTag)
}

func TestNewFromURI(t *testing.T) {
	rid, err := NewFromURI("http://foo.bar/baz/versions/1.1.0")
	require.NoError(t, err)

	expected, err := NewVersionedID("http://foo.bar/", "baz", "1.1.0")
	require.NoError(t, err)
	assert.Equal(t, expected, rid)

	fragment, err := NewFromURI("https://example.org/colors#red")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/colors#", fragment.Namespace)
	assert.Equal(t, "red", fragment.Tag)
	assert.False(t, fragment.IsVersioned())

	u := uuid.New()
	urn, err := NewFromURI("urn:uuid:" + u.String())
	require.NoError(t, err)
	assert.Equal(t, u, urn.UUID)
}

func TestWithVersion(t *testing.T) {
	rid, err := NewVersionedIDWithDate("http://foo.bar/", "baz", "1.0.0", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	next := rid.WithVersion("2.0.0")
	assert.Equal(t, "http://foo.bar/baz/versions/2.0.0", next.VersionID)
	assert.Equal(t, "1.0.0", rid.VersionTag, "original must not change")
	assert.True(t, rid.SameResource(next))

	named, err := NewIDWithName("http://foo.bar/", "baz", "", "Baz")
	require.NoError(t, err)
	assert.Equal(t, "Baz", named.Name)
	assert.Equal(t, "http://foo.bar/baz", named.String())
}

func TestClassifyVersionTag(t *testing.T) {
	tests := []struct {
		tag      string
		expected VersionTagType
	}{
		{"1.0.0", SemVer},
		{"1.2.*", SemVer},
		{"10.20.30-SNAPSHOT", SemVer},
		{"42", Sequential},
		{"20240101", Sequential},
		{"2024-01-01", Timestamp},
		{"2024-01-01T10:00:00Z", Timestamp},
		{"1.0", Generic},
		{"LATEST", Generic},
		{"", Generic},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyVersionTag(tt.tag))
		})
	}
}
