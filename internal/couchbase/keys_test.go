package couchbase

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stealthcompany.com/clinic/internal/docstore"
)

func TestDocKeyRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		collection docstore.Collection
		id         string
		key        string
	}{
		{
			name:       "top level",
			collection: docstore.C("doctors"),
			id:         "drSmith",
			key:        "doctors/drSmith",
		},
		{
			name:       "nested",
			collection: docstore.C("patients").Doc("AnnLee").Collection("riskScores"),
			id:         "3",
			key:        "patients/AnnLee/riskScores/3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := docKey(tt.collection, tt.id)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.id, idFromKey(tt.collection, key))
		})
	}
}

func TestKeyRangeExcludesSiblingPrefixes(t *testing.T) {
	from, to := keyRange(docstore.C("patients").Doc("Ann").Collection("riskScores"))

	inside := "patients/Ann/riskScores/12"
	sibling := "patients/AnnLee/riskScores/1"

	assert.True(t, inside >= from && inside < to)
	assert.False(t, sibling >= from && sibling < to)
}

func TestBuildScanQuery(t *testing.T) {
	keyspace := "`clinic`.`_default`.`patients`"

	t.Run("full scan", func(t *testing.T) {
		stmt, params, err := buildScanQuery(keyspace, docstore.C("patients"), "", nil, 0)
		require.NoError(t, err)
		assert.NotContains(t, stmt, "$value")
		assert.NotContains(t, stmt, "LIMIT")
		assert.True(t, strings.HasSuffix(stmt, "ORDER BY META(d).id"))
		assert.Equal(t, "patients/", params["from"])
		assert.Equal(t, "patients0", params["to"])
	})

	t.Run("equality filter with limit", func(t *testing.T) {
		stmt, params, err := buildScanQuery(keyspace, docstore.C("patients"), "doctorId", "doctors/drSmith", 1)
		require.NoError(t, err)
		assert.Contains(t, stmt, "d.`doctorId` = $value")
		assert.Contains(t, stmt, "LIMIT 1")
		assert.Equal(t, "doctors/drSmith", params["value"])
	})

	t.Run("rejects injected field", func(t *testing.T) {
		_, _, err := buildScanQuery(keyspace, docstore.C("patients"), "x` = 1 OR `y", "v", 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, docstore.ErrInvalidField))
	})
}
