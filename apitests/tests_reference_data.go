package apitests

import (
	"net/url"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DoReferenceDataTests exercises the read-only reference-data family. The
// harness never mutates reference data; these tests only verify that lookups
// behave consistently.
func DoReferenceDataTests(t *T) {
	t.RequireCapability("reference-data")

	t.Run("list is non-empty", func(t *T) {
		ctx, cancel := t.Context()
		defer cancel()

		resp, err := t.ReferenceData().List(ctx, url.Values{})
		entries := t.parseRecords(t.requireStatus(resp, err, 200))
		assert.NotEmpty(t, entries, "workspace should expose some reference data")
	})

	t.Run("get by code matches list entry", func(t *T) {
		ctx, cancel := t.Context()
		defer cancel()

		resp, err := t.ReferenceData().List(ctx, url.Values{})
		entries := t.parseRecords(t.requireStatus(resp, err, 200))
		require.NotEmpty(t, entries)

		first := entries[0]
		resp, err = t.ReferenceData().GetByCode(ctx, first.Code)
		got := t.parseRecord(t.requireStatus(resp, err, 200))
		assert.Equal(t, first.ID, got.ID)
	})

	t.Run("search is repeatable", func(t *T) {
		t.RequireCapability("search")
		ctx, cancel := t.Context()
		defer cancel()

		query := map[string]interface{}{"field": "kind", "value": "currency"}
		resp, err := t.ReferenceData().Search(ctx, query)
		first := t.parseRecords(t.requireStatus(resp, err, 200))

		resp, err = t.ReferenceData().Search(ctx, query)
		second := t.parseRecords(t.requireStatus(resp, err, 200))
		assert.Equal(t, len(first), len(second), "identical searches should return the same result set")
	})
}
