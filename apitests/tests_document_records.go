package apitests

import (
	"net/url"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atractapp/legito-api-testing-sub002/apiclient"
)

func newRecordPayload() map[string]interface{} {
	return map[string]interface{}{
		"code": "DOC-" + uuid.NewString()[:8],
		"name": "harness test record",
	}
}

// DoDocumentRecordTests covers the full operation surface of the
// document-record family: CRUD, bulk, tags, and search. Every test creates
// its own records and deletes them at the end, so suites can run repeatedly
// against a shared workspace.
func DoDocumentRecordTests(t *T) {
	t.RequireCapability("document-records")

	t.Run("create and get by ID", func(t *T) {
		ctx, cancel := t.Context()
		defer cancel()

		payload := newRecordPayload()
		resp, err := t.DocumentRecords().Create(ctx, payload)
		created := t.parseRecord(t.requireStatus(resp, err, 200, 201))
		require.NotEmpty(t, created.ID, "created record must have an ID")
		defer t.cleanupDocumentRecord(created.ID)

		resp, err = t.DocumentRecords().GetByID(ctx, created.ID)
		got := t.parseRecord(t.requireStatus(resp, err, 200))
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, payload["code"], got.Code)
	})

	t.Run("get by code", func(t *T) {
		ctx, cancel := t.Context()
		defer cancel()

		resp, err := t.DocumentRecords().Create(ctx, newRecordPayload())
		created := t.parseRecord(t.requireStatus(resp, err, 200, 201))
		defer t.cleanupDocumentRecord(created.ID)

		resp, err = t.DocumentRecords().GetByCode(ctx, created.Code)
		got := t.parseRecord(t.requireStatus(resp, err, 200))
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("list", func(t *T) {
		ctx, cancel := t.Context()
		defer cancel()

		resp, err := t.DocumentRecords().Create(ctx, newRecordPayload())
		created := t.parseRecord(t.requireStatus(resp, err, 200, 201))
		defer t.cleanupDocumentRecord(created.ID)

		resp, err = t.DocumentRecords().List(ctx, url.Values{})
		records := t.parseRecords(t.requireStatus(resp, err, 200))
		assert.NotEmpty(t, records, "list should include at least the record just created")
	})

	t.Run("update", func(t *T) {
		ctx, cancel := t.Context()
		defer cancel()

		payload := newRecordPayload()
		resp, err := t.DocumentRecords().Create(ctx, payload)
		created := t.parseRecord(t.requireStatus(resp, err, 200, 201))
		defer t.cleanupDocumentRecord(created.ID)

		payload["name"] = "renamed by update"
		resp, err = t.DocumentRecords().Update(ctx, created.ID, payload)
		updated := t.parseRecord(t.requireStatus(resp, err, 200))
		assert.Equal(t, "renamed by update", updated.Fields["name"])
	})

	t.Run("patch", func(t *T) {
		ctx, cancel := t.Context()
		defer cancel()

		resp, err := t.DocumentRecords().Create(ctx, newRecordPayload())
		created := t.parseRecord(t.requireStatus(resp, err, 200, 201))
		defer t.cleanupDocumentRecord(created.ID)

		resp, err = t.DocumentRecords().Patch(ctx, created.ID, map[string]interface{}{"status": "approved"})
		patched := t.parseRecord(t.requireStatus(resp, err, 200))
		assert.Equal(t, "approved", patched.Fields["status"])
		assert.Equal(t, "harness test record", patched.Fields["name"], "patch must not clobber other fields")
	})

	t.Run("tags", func(t *T) {
		t.RequireCapability("tags")
		ctx, cancel := t.Context()
		defer cancel()

		resp, err := t.DocumentRecords().Create(ctx, newRecordPayload())
		created := t.parseRecord(t.requireStatus(resp, err, 200, 201))
		defer t.cleanupDocumentRecord(created.ID)

		resp, err = t.DocumentRecords().AddTags(ctx, created.ID, []string{"alpha", "beta"})
		tagged := t.parseRecord(t.requireStatus(resp, err, 200))
		assert.ElementsMatch(t, []string{"alpha", "beta"}, tagged.Tags)

		// Adding the same tag again must not duplicate it.
		resp, err = t.DocumentRecords().AddTags(ctx, created.ID, []string{"beta"})
		tagged = t.parseRecord(t.requireStatus(resp, err, 200))
		assert.ElementsMatch(t, []string{"alpha", "beta"}, tagged.Tags)

		resp, err = t.DocumentRecords().RemoveTags(ctx, created.ID, []string{"alpha"})
		untagged := t.parseRecord(t.requireStatus(resp, err, 200))
		assert.ElementsMatch(t, []string{"beta"}, untagged.Tags)
	})

	t.Run("search", func(t *T) {
		t.RequireCapability("search")
		ctx, cancel := t.Context()
		defer cancel()

		marker := uuid.NewString()
		payload := newRecordPayload()
		payload["marker"] = marker
		resp, err := t.DocumentRecords().Create(ctx, payload)
		created := t.parseRecord(t.requireStatus(resp, err, 200, 201))
		defer t.cleanupDocumentRecord(created.ID)

		resp, err = t.DocumentRecords().Search(ctx, map[string]interface{}{"field": "marker", "value": marker})
		matches := t.parseRecords(t.requireStatus(resp, err, 200))
		require.Len(t, matches, 1)
		assert.Equal(t, created.ID, matches[0].ID)
	})

	t.Run("bulk create and bulk delete", func(t *T) {
		ctx, cancel := t.Context()
		defer cancel()

		batch := []map[string]interface{}{newRecordPayload(), newRecordPayload(), newRecordPayload()}
		resp, err := t.DocumentRecords().BulkCreate(ctx, batch)
		created := t.parseRecords(t.requireStatus(resp, err, 200, 201))
		require.Len(t, created, len(batch))

		ids := make([]string, 0, len(created))
		for _, rec := range created {
			ids = append(ids, rec.ID)
		}
		resp, err = t.DocumentRecords().BulkDelete(ctx, ids)
		t.requireStatus(resp, err, 200, 204)

		_, err = t.DocumentRecords().GetByID(ctx, ids[0])
		var fatal *apiclient.FatalRequestError
		require.ErrorAs(t, err, &fatal, "bulk-deleted record should be gone")
		assert.Equal(t, 404, fatal.Status)
	})

	t.Run("delete", func(t *T) {
		ctx, cancel := t.Context()
		defer cancel()

		resp, err := t.DocumentRecords().Create(ctx, newRecordPayload())
		created := t.parseRecord(t.requireStatus(resp, err, 200, 201))

		resp, err = t.DocumentRecords().DeleteByID(ctx, created.ID)
		t.requireStatus(resp, err, 200, 204)

		_, err = t.DocumentRecords().GetByID(ctx, created.ID)
		var fatal *apiclient.FatalRequestError
		require.ErrorAs(t, err, &fatal, "deleted record should be gone")
		assert.Equal(t, 404, fatal.Status)
	})
}

func (t *T) cleanupDocumentRecord(id string) {
	ctx, cancel := t.Context()
	defer cancel()
	_, _ = t.DocumentRecords().DeleteByID(ctx, id)
}
