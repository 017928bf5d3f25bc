// Package id builds canonical resource identifiers from namespaces, tags,
// UUIDs and version tags.
package id

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMissingTag is returned when neither a tag nor a UUID is supplied.
	ErrMissingTag = errors.New("identifier requires a tag or a UUID")

	// ErrMissingNamespace is returned when a tag is supplied without a namespace.
	ErrMissingNamespace = errors.New("identifier requires a namespace")
)

const (
	versionsSegment = "/versions/"
	uuidURNPrefix   = "urn:uuid:"
)

// ResourceIdentifier identifies a resource and, optionally, one of its versions.
type ResourceIdentifier struct {
	Namespace     string    `json:"namespaceUri,omitempty" xml:"namespaceUri,omitempty" yaml:"namespaceUri,omitempty"`
	Tag           string    `json:"tag,omitempty" xml:"tag,omitempty" yaml:"tag,omitempty"`
	UUID          uuid.UUID `json:"uuid" xml:"uuid" yaml:"uuid"`
	ResourceID    string    `json:"resourceId" xml:"resourceId" yaml:"resourceId"`
	VersionTag    string    `json:"versionTag,omitempty" xml:"versionTag,omitempty" yaml:"versionTag,omitempty"`
	VersionID     string    `json:"versionId,omitempty" xml:"versionId,omitempty" yaml:"versionId,omitempty"`
	EstablishedOn time.Time `json:"establishedOn,omitempty" xml:"establishedOn,omitempty" yaml:"establishedOn,omitempty"`
	Name          string    `json:"name,omitempty" xml:"name,omitempty" yaml:"name,omitempty"`
}

// New creates an identifier for a bare UUID, addressed as a urn:uuid URI.
func New(u uuid.UUID) ResourceIdentifier {
	return ResourceIdentifier{
		Tag:        u.String(),
		UUID:       u,
		ResourceID: uuidURNPrefix + u.String(),
	}
}

// NewID creates an unversioned identifier for a tag within a namespace.
func NewID(namespace, tag string) (ResourceIdentifier, error) {
	return build(namespace, tag, "", time.Time{}, "")
}

// NewVersionedID creates an identifier for a tag within a namespace at a version.
func NewVersionedID(namespace, tag, version string) (ResourceIdentifier, error) {
	return build(namespace, tag, version, time.Time{}, "")
}

// NewVersionedIDWithDate is NewVersionedID with an established-on date.
func NewVersionedIDWithDate(namespace, tag, version string, establishedOn time.Time) (ResourceIdentifier, error) {
	return build(namespace, tag, version, establishedOn, "")
}

// NewIDWithName is NewVersionedID with a human readable name.
func NewIDWithName(namespace, tag, version, name string) (ResourceIdentifier, error) {
	return build(namespace, tag, version, time.Time{}, name)
}

// NewUUIDID creates an identifier whose tag is a UUID. An empty namespace
// yields a urn:uuid resource URI.
func NewUUIDID(namespace string, u uuid.UUID, version string) (ResourceIdentifier, error) {
	if u == uuid.Nil {
		return ResourceIdentifier{}, ErrMissingTag
	}
	if namespace == "" {
		rid := New(u)
		if version != "" {
			rid.VersionTag = version
			rid.VersionID = VersionURI(rid.ResourceID, version)
		}
		return rid, nil
	}
	return build(namespace, u.String(), version, time.Time{}, "")
}

// NewFromURI parses a resource or version URI. Version URIs are recognized by
// a "/versions/" segment.
func NewFromURI(uri string) (ResourceIdentifier, error) {
	if uri == "" {
		return ResourceIdentifier{}, ErrMissingTag
	}

	if strings.HasPrefix(uri, uuidURNPrefix) {
		u, err := uuid.Parse(strings.TrimPrefix(uri, uuidURNPrefix))
		if err != nil {
			return ResourceIdentifier{}, fmt.Errorf("invalid uuid urn %q: %w", uri, err)
		}
		return New(u), nil
	}

	resource, version := uri, ""
	if idx := strings.LastIndex(uri, versionsSegment); idx != -1 {
		resource, version = uri[:idx], uri[idx+len(versionsSegment):]
	}

	cut := strings.LastIndexAny(resource, "/#:")
	if cut == -1 || cut == len(resource)-1 {
		return ResourceIdentifier{}, fmt.Errorf("%w: cannot split %q", ErrMissingTag, uri)
	}

	return build(resource[:cut+1], resource[cut+1:], version, time.Time{}, "")
}

func build(namespace, tag, version string, establishedOn time.Time, name string) (ResourceIdentifier, error) {
	if tag == "" {
		return ResourceIdentifier{}, ErrMissingTag
	}
	if namespace == "" {
		return ResourceIdentifier{}, fmt.Errorf("%w for tag %q", ErrMissingNamespace, tag)
	}

	rid := ResourceIdentifier{
		Namespace:     namespace,
		Tag:           tag,
		ResourceID:    ResourceURI(namespace, tag),
		EstablishedOn: establishedOn,
		Name:          name,
	}
	rid.UUID = DeriveUUID(rid.ResourceID, tag)

	if version != "" {
		rid.VersionTag = version
		rid.VersionID = VersionURI(rid.ResourceID, version)
	}

	return rid, nil
}

// ResourceURI joins a namespace and a tag, adding a separator when the
// namespace does not end with one.
func ResourceURI(namespace, tag string) string {
	if strings.HasSuffix(namespace, "/") || strings.HasSuffix(namespace, "#") || strings.HasSuffix(namespace, ":") {
		return namespace + tag
	}
	if strings.HasPrefix(namespace, "urn:") {
		return namespace + ":" + tag
	}
	return namespace + "/" + tag
}

// VersionURI composes the URI of a version of a resource: "/versions/<tag>"
// for web URIs, ":<tag>" for URNs.
func VersionURI(resourceID, version string) string {
	if strings.HasPrefix(resourceID, "urn:") {
		return resourceID + ":" + version
	}
	return resourceID + versionsSegment + version
}

// DeriveUUID returns the UUID of a resource: the tag itself when it is
// UUID-shaped, else a name-based UUID of the resource URI.
func DeriveUUID(resourceID, tag string) uuid.UUID {
	if u, ok := ParseUUID(tag); ok {
		return u
	}
	return uuid.NewMD5(uuid.NameSpaceURL, []byte(resourceID))
}

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ParseUUID parses a canonical hyphenated UUID string.
func ParseUUID(value string) (uuid.UUID, bool) {
	if !uuidPattern.MatchString(value) {
		return uuid.Nil, false
	}
	u, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false
	}
	return u, true
}

// WithVersion returns a copy of the identifier at another version.
func (r ResourceIdentifier) WithVersion(version string) ResourceIdentifier {
	r.VersionTag = version
	r.VersionID = ""
	if version != "" {
		r.VersionID = VersionURI(r.ResourceID, version)
	}
	return r
}

// IsVersioned reports whether the identifier names a specific version.
func (r ResourceIdentifier) IsVersioned() bool {
	return r.VersionTag != ""
}

// SameResource reports whether both identifiers name the same resource,
// regardless of version.
func (r ResourceIdentifier) SameResource(other ResourceIdentifier) bool {
	return r.UUID == other.UUID && r.ResourceID == other.ResourceID
}

// String returns the version URI when present, else the resource URI.
func (r ResourceIdentifier) String() string {
	if r.VersionID != "" {
		return r.VersionID
	}
	return r.ResourceID
}
