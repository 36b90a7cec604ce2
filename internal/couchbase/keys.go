package couchbase

import (
	"strings"

	"stealthcompany.com/clinic/internal/docstore"
)

// Documents are keyed by their full path so nested collections sharing a
// Couchbase collection never collide, e.g. "patients/AnnLee/riskScores/3".
func docKey(c docstore.Collection, id string) string {
	return c.Doc(id).Path()
}

func idFromKey(c docstore.Collection, key string) string {
	return strings.TrimPrefix(key, c.Path()+"/")
}

// keyRange returns the half-open key interval holding every document of c.
// '0' is the byte right after '/'.
func keyRange(c docstore.Collection) (string, string) {
	return c.Path() + "/", c.Path() + "0"
}
