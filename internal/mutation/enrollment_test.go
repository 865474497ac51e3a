package mutation

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkuaegis/aegis-study-client/internal/cache"
	"github.com/dkuaegis/aegis-study-client/internal/models"
	apperrors "github.com/dkuaegis/aegis-study-client/pkg/errors"
)

type mockWriteAPI struct {
	calls    map[string]int
	err      error
	response interface{}
}

func newMockWriteAPI() *mockWriteAPI {
	return &mockWriteAPI{calls: make(map[string]int)}
}

func (m *mockWriteAPI) record(method, path string, dest interface{}) error {
	m.calls[method+" "+path]++
	if m.err != nil {
		return m.err
	}
	if dest != nil && m.response != nil {
		raw, err := json.Marshal(m.response)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	return nil
}

func (m *mockWriteAPI) Post(_ context.Context, path string, _, dest interface{}) error {
	return m.record(http.MethodPost, path, dest)
}

func (m *mockWriteAPI) Put(_ context.Context, path string, _, dest interface{}) error {
	return m.record(http.MethodPut, path, dest)
}

func (m *mockWriteAPI) Patch(_ context.Context, path string, _, dest interface{}) error {
	return m.record(http.MethodPatch, path, dest)
}

func (m *mockWriteAPI) Delete(_ context.Context, path string) error {
	return m.record(http.MethodDelete, path, nil)
}

// seededQueries returns a cache pre-populated with every view an enrollment
// write must invalidate, plus an unrelated study that must survive.
func seededQueries(t *testing.T) (*cache.Queries, *cache.MemoryStore) {
	t.Helper()
	store := cache.NewMemoryStore()
	ctx := context.Background()
	for _, key := range []string{
		"studies:7:detail",
		"studies:7:status",
		"studies:7:user-application",
		"studies:7:applications",
		"studies:list",
		"roles",
		"studies:9:detail",
	} {
		require.NoError(t, store.Set(ctx, key, "cached", time.Minute))
	}
	return cache.NewQueries(store, nil, nil), store
}

func missing(t *testing.T, store *cache.MemoryStore, key string) bool {
	t.Helper()
	var got string
	return store.Get(context.Background(), key, &got) != nil
}

func TestApplyInvalidatesMembershipViews(t *testing.T) {
	api := newMockWriteAPI()
	api.response = map[string]string{"status": "PENDING"}
	queries, store := seededQueries(t)

	m := NewEnrollment(api, queries, nil)
	status, err := m.Apply(context.Background(), 7, "keen to learn")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, status)

	assert.Equal(t, 1, api.calls["POST studies/7/enrollment"])
	assert.True(t, missing(t, store, "studies:7:detail"))
	assert.True(t, missing(t, store, "studies:7:status"))
	assert.True(t, missing(t, store, "studies:list"))
	assert.True(t, missing(t, store, "roles"))
	assert.False(t, missing(t, store, "studies:9:detail"), "other studies stay cached")
}

func TestApplyMapsConflictToMessage(t *testing.T) {
	api := newMockWriteAPI()
	api.err = apperrors.New("CONFLICT", http.StatusConflict, "duplicate")
	queries, _ := seededQueries(t)

	m := NewEnrollment(api, queries, nil)
	_, err := m.Apply(context.Background(), 7, "again")
	require.Error(t, err)
	assert.Equal(t, "you have already applied to this study", apperrors.FromError(err).Message)
	assert.Equal(t, http.StatusConflict, apperrors.StatusOf(err))
}

func TestApplyUnmappedStatusFallsBack(t *testing.T) {
	api := newMockWriteAPI()
	api.err = apperrors.New("TEAPOT", http.StatusTeapot, "teapot")
	queries, _ := seededQueries(t)

	m := NewEnrollment(api, queries, nil)
	_, err := m.Apply(context.Background(), 7, "hello")
	require.Error(t, err)
	assert.Equal(t, fallbackMessage, apperrors.FromError(err).Message)
}

func TestApplyInvalidID(t *testing.T) {
	api := newMockWriteAPI()
	queries, _ := seededQueries(t)

	m := NewEnrollment(api, queries, nil)
	_, err := m.Apply(context.Background(), 0, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidID)
	assert.Empty(t, api.calls)
}

func TestCancelInvalidatesMembershipViews(t *testing.T) {
	api := newMockWriteAPI()
	queries, store := seededQueries(t)

	m := NewEnrollment(api, queries, nil)
	require.NoError(t, m.Cancel(context.Background(), 7))

	assert.Equal(t, 1, api.calls["DELETE studies/7/enrollment"])
	assert.True(t, missing(t, store, "studies:7:detail"))
	assert.True(t, missing(t, store, "studies:list"))
	assert.True(t, missing(t, store, "roles"))
}

func TestUpdateApplicationInvalidatesOwnViewOnly(t *testing.T) {
	api := newMockWriteAPI()
	queries, store := seededQueries(t)

	m := NewEnrollment(api, queries, nil)
	require.NoError(t, m.UpdateApplication(context.Background(), 7, "revised reason"))

	assert.Equal(t, 1, api.calls["PUT studies/7/user-application"])
	assert.True(t, missing(t, store, "studies:7:user-application"))
	assert.False(t, missing(t, store, "studies:7:detail"), "editing text does not change membership")
	assert.False(t, missing(t, store, "roles"))
}
