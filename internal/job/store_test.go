package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	first := New("jd", "resume", "", nil)
	require.NoError(t, store.Save(ctx, first))

	second := New("jd2", "resume2", "", nil)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, loaded.ID)

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID, "newest first")
}

func TestJobCompletePayloadHasAllFields(t *testing.T) {
	j := New("jd", "resume", "", nil)
	payload := j.CompletePayload()

	// Every field is present even on a fresh job so consumers never need
	// existence checks.
	for _, key := range []string{
		"job_id", "state", "success", "final_resume", "cover_letter", "models",
		"audit_status", "audit_retries", "audit_failed", "audit_error",
		"resume_report", "cover_letter_report", "executive_brief", "error_message",
	} {
		assert.Contains(t, payload, key)
	}
	assert.Equal(t, map[string]any{}, payload["executive_brief"])
	assert.Equal(t, map[string]string{}, payload["models"])
	assert.Equal(t, false, payload["audit_failed"])
}

func TestJobCompletePayloadCarriesModels(t *testing.T) {
	models := map[string]string{"tailoring": "gemini-2.5-pro"}
	j := New("jd", "resume", "", models)

	assert.Equal(t, models, j.CompletePayload()["models"])
}
