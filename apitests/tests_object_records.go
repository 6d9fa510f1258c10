package apitests

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DoObjectRecordTests exercises the object-record family. The operation
// surface is the same as document records; these tests focus on the flows
// that differ in payload shape and leave the exhaustive coverage to the
// document-record suite.
func DoObjectRecordTests(t *T) {
	t.RequireCapability("object-records")

	t.Run("create, update, delete lifecycle", func(t *T) {
		ctx, cancel := t.Context()
		defer cancel()

		payload := map[string]interface{}{
			"code": "OBJ-" + uuid.NewString()[:8],
			"name": "harness object record",
		}
		resp, err := t.ObjectRecords().Create(ctx, payload)
		created := t.parseRecord(t.requireStatus(resp, err, 200, 201))
		require.NotEmpty(t, created.ID)

		payload["name"] = "renamed object record"
		resp, err = t.ObjectRecords().Update(ctx, created.ID, payload)
		updated := t.parseRecord(t.requireStatus(resp, err, 200))
		assert.Equal(t, "renamed object record", updated.Fields["name"])

		resp, err = t.ObjectRecords().DeleteByID(ctx, created.ID)
		t.requireStatus(resp, err, 200, 204)
	})

	t.Run("patch preserves unrelated fields", func(t *T) {
		ctx, cancel := t.Context()
		defer cancel()

		resp, err := t.ObjectRecords().Create(ctx, map[string]interface{}{
			"code":  "OBJ-" + uuid.NewString()[:8],
			"name":  "patch target",
			"owner": "harness",
		})
		created := t.parseRecord(t.requireStatus(resp, err, 200, 201))
		defer func() {
			cleanupCtx, cleanupCancel := t.Context()
			defer cleanupCancel()
			_, _ = t.ObjectRecords().DeleteByID(cleanupCtx, created.ID)
		}()

		resp, err = t.ObjectRecords().Patch(ctx, created.ID, map[string]interface{}{"name": "patched"})
		patched := t.parseRecord(t.requireStatus(resp, err, 200))
		assert.Equal(t, "patched", patched.Fields["name"])
		assert.Equal(t, "harness", patched.Fields["owner"])
	})

	t.Run("search by marker", func(t *T) {
		t.RequireCapability("search")
		ctx, cancel := t.Context()
		defer cancel()

		marker := uuid.NewString()
		resp, err := t.ObjectRecords().Create(ctx, map[string]interface{}{
			"code":   "OBJ-" + uuid.NewString()[:8],
			"marker": marker,
		})
		created := t.parseRecord(t.requireStatus(resp, err, 200, 201))
		defer func() {
			cleanupCtx, cleanupCancel := t.Context()
			defer cleanupCancel()
			_, _ = t.ObjectRecords().DeleteByID(cleanupCtx, created.ID)
		}()

		resp, err = t.ObjectRecords().Search(ctx, map[string]interface{}{"field": "marker", "value": marker})
		matches := t.parseRecords(t.requireStatus(resp, err, 200))
		require.Len(t, matches, 1)
		assert.Equal(t, created.ID, matches[0].ID)
	})
}
