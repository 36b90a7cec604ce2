package docstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Collection addresses a collection by its slash separated path, e.g.
// "patients" or "patients/AnnLee/riskScores".
type Collection struct {
	path string
}

// C returns the top-level collection name.
func C(name string) Collection {
	return Collection{path: name}
}

// Path returns the full collection path.
func (c Collection) Path() string {
	return c.path
}

// Name returns the last path segment.
func (c Collection) Name() string {
	if i := strings.LastIndex(c.path, "/"); i >= 0 {
		return c.path[i+1:]
	}
	return c.path
}

// Nested reports whether the collection lives under a parent document.
func (c Collection) Nested() bool {
	return strings.Contains(c.path, "/")
}

// Doc returns a reference to the document id inside the collection.
func (c Collection) Doc(id string) DocRef {
	return DocRef{Parent: c, ID: id}
}

func (c Collection) String() string {
	return c.path
}

// DocRef is a weak pointer to a document. It is persisted as its path
// string and never dereferenced implicitly.
type DocRef struct {
	Parent Collection
	ID     string
}

// Collection returns the sub-collection name under this document.
func (r DocRef) Collection(name string) Collection {
	return Collection{path: r.Path() + "/" + name}
}

// Path returns "collection/id".
func (r DocRef) Path() string {
	if r.Parent.path == "" {
		return r.ID
	}
	return r.Parent.path + "/" + r.ID
}

// IsZero reports whether the reference is unset.
func (r DocRef) IsZero() bool {
	return r.ID == "" && r.Parent.path == ""
}

func (r DocRef) String() string {
	return r.Path()
}

// ParseDocRef parses a "collection/id" path. A bare id without a
// collection is accepted and yields a reference with an empty parent.
func ParseDocRef(path string) (DocRef, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return DocRef{}, fmt.Errorf("empty document path")
	}
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return DocRef{ID: path}, nil
	}
	return DocRef{Parent: Collection{path: path[:i]}, ID: path[i+1:]}, nil
}

// MarshalJSON stores the reference as its path.
func (r DocRef) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(r.Path())
}

// UnmarshalJSON reads a reference path written by MarshalJSON.
func (r *DocRef) UnmarshalJSON(b []byte) error {
	var path *string
	if err := json.Unmarshal(b, &path); err != nil {
		return fmt.Errorf("document reference: %w", err)
	}
	if path == nil || *path == "" {
		*r = DocRef{}
		return nil
	}
	ref, err := ParseDocRef(*path)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
