package concept

import (
	"github.com/google/uuid"
)

// DefaultNamespace is the seed every identifier namespace is derived from unless configured otherwise.
const DefaultNamespace = "gov.va.med.term.loinc"

// Namespaces derives stable concept identifiers from business keys. Each role gets its own
// namespace so that, for example, a LOINC code and an axis value spelled the same way can
// never collide.
type Namespaces struct {
	Seed     string
	Data     uuid.UUID
	Grouping uuid.UUID
	Metadata uuid.UUID
}

// NewNamespaces returns the namespaces for seed. An empty seed selects DefaultNamespace.
func NewNamespaces(seed string) Namespaces {
	if seed == "" {
		seed = DefaultNamespace
	}
	base := uuid.NewSHA1(uuid.NameSpaceURL, []byte(seed))
	return Namespaces{
		Seed:     seed,
		Data:     uuid.NewSHA1(base, []byte("data")),
		Grouping: uuid.NewSHA1(base, []byte("grouping")),
		Metadata: uuid.NewSHA1(base, []byte("metadata")),
	}
}

// DataID returns the identifier of the data concept for a source code.
func (n Namespaces) DataID(code string) uuid.UUID {
	return uuid.NewSHA1(n.Data, []byte(code))
}

// GroupingID returns the identifier of the grouping concept shared by every row whose
// column presents value. The key is category:column:value, so identical values in
// different columns produce different concepts.
func (n Namespaces) GroupingID(category, column, value string) uuid.UUID {
	return uuid.NewSHA1(n.Grouping, []byte(category+":"+column+":"+value))
}

// MetadataID returns the identifier of a structural concept or property-type.
func (n Namespaces) MetadataID(key string) uuid.UUID {
	return uuid.NewSHA1(n.Metadata, []byte(key))
}

// ID returns the identifier for key under role. Grouping keys must already be joined.
func (n Namespaces) ID(role Role, key string) uuid.UUID {
	switch role {
	case RoleGrouping:
		return uuid.NewSHA1(n.Grouping, []byte(key))
	case RoleMetadata:
		return n.MetadataID(key)
	default:
		return n.DataID(key)
	}
}
