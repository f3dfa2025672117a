package resume

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mangesh9326/Job-Platform/pkg/utils"
)

const testSlot = "sess-1:resume_analysis_data"

func sampleRecord() *Record {
	return &Record{
		Name:            "Jane Doe",
		Email:           "jane@example.com",
		Phone:           "+919876543210",
		ExperienceYears: "3",
		Skills: []Skill{
			{Name: "Go", Relevance: utils.Float64Ptr(100)},
			{Name: "Redis", Relevance: utils.Float64Ptr(40)},
		},
		Education: []string{"B.Tech - COEP - 2016 – 2020"},
		Projects: []Project{
			{Title: "Shop", Description: "e-commerce", Stack: []string{"go", "mysql"}},
		},
		Summary:  "Backend engineer",
		ATSScore: 61,
	}
}

// countingStore 记录写入次数，并可注入读写错误
type countingStore struct {
	*MemoryStore
	getErr error
	setErr error
}

func (c *countingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	return c.MemoryStore.Get(ctx, key)
}

func (c *countingStore) Set(ctx context.Context, key, value string) error {
	if c.setErr != nil {
		return c.setErr
	}
	return c.MemoryStore.Set(ctx, key, value)
}

func seed(t *testing.T, store SessionStore, rec *Record) {
	t.Helper()
	data, err := EncodeRecord(rec)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), testSlot, data))
}

func TestDecide_States(t *testing.T) {
	fresh := sampleRecord()
	saved := sampleRecord()

	d := Decide(nil, nil)
	assert.Equal(t, StateNoData, d.State)
	assert.Nil(t, d.Result)
	assert.False(t, d.WriteThrough)

	d = Decide(nil, saved)
	assert.Equal(t, StateSavedOnly, d.State)
	assert.Same(t, saved, d.Result)
	assert.False(t, d.WriteThrough)

	d = Decide(fresh, nil)
	assert.Equal(t, StateFreshOnly, d.State)
	assert.Same(t, fresh, d.Result)
	assert.True(t, d.WriteThrough)

	d = Decide(fresh, saved)
	assert.Equal(t, StateReconciled, d.State)
	assert.Same(t, saved, d.Result)
	assert.False(t, d.WriteThrough)
	assert.False(t, d.Replaced)

	changed := sampleRecord()
	changed.Summary = "Platform engineer"
	d = Decide(changed, saved)
	assert.Equal(t, StateReconciled, d.State)
	assert.Same(t, changed, d.Result)
	assert.True(t, d.WriteThrough)
	assert.True(t, d.Replaced)
}

func TestReconcile_EditsOutsideFingerprintArePreserved(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	saved := sampleRecord()
	saved.ExperienceYears = "4.5 years incl. internship"
	saved.ATSScore = 90
	seed(t, store, saved)
	writesBefore := store.Writes()

	fresh := sampleRecord()
	out := NewReconciler(store, testSlot).Reconcile(ctx, fresh)

	assert.Equal(t, StateReconciled, out.State)
	assert.False(t, out.Replaced)
	assert.False(t, out.Persisted)
	assert.Equal(t, ExperienceYears("4.5 years incl. internship"), out.Result.ExperienceYears)
	assert.Equal(t, 90.0, out.Result.ATSScore)
	assert.Equal(t, writesBefore, store.Writes())
}

func TestReconcile_AddedSkillCountsAsDifferentResume(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	saved := sampleRecord()
	saved.Skills = append(saved.Skills, Skill{Name: "Kafka"})
	seed(t, store, saved)

	out := NewReconciler(store, testSlot).Reconcile(ctx, sampleRecord())
	// skills 在指纹内，新增技能使两份记录内容不同
	assert.True(t, out.Replaced)
	assert.Len(t, out.Result.Skills, 2)
}

func TestReconcile_ReplacementWrittenOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	saved := sampleRecord()
	saved.Summary = "old"
	seed(t, store, saved)
	writesBefore := store.Writes()

	fresh := sampleRecord()
	fresh.Summary = "new"
	r := NewReconciler(store, testSlot)

	out := r.Reconcile(ctx, fresh)
	require.NoError(t, out.PersistErr)
	assert.Equal(t, StateReconciled, out.State)
	assert.True(t, out.Replaced)
	assert.True(t, out.Persisted)
	assert.Equal(t, "new", out.Result.Summary)
	assert.Equal(t, writesBefore+1, store.Writes())

	stored := r.Load(ctx)
	require.NotNil(t, stored)
	assert.Equal(t, "new", stored.Summary)
}

func TestReconcile_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	saved := sampleRecord()
	saved.Summary = "old"
	seed(t, store, saved)

	fresh := sampleRecord()
	fresh.Summary = "new"
	r := NewReconciler(store, testSlot)

	first := r.Reconcile(ctx, fresh)
	writes := store.Writes()
	second := r.Reconcile(ctx, fresh)

	assert.Equal(t, Fingerprint(first.Result), Fingerprint(second.Result))
	assert.False(t, second.Persisted)
	assert.Equal(t, writes, store.Writes())

	third := r.Reconcile(ctx, first.Result)
	assert.Equal(t, Fingerprint(first.Result), Fingerprint(third.Result))
	assert.Equal(t, writes, store.Writes())
}

func TestReconcile_FreshOnlyWritesThrough(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := NewReconciler(store, testSlot)

	fresh, err := Normalize([]byte(`{"name":"Jane","skills":{"python":0.9},"summary":"a\nb   c"}`))
	require.NoError(t, err)

	out := r.Reconcile(ctx, fresh)
	assert.Equal(t, StateFreshOnly, out.State)
	assert.True(t, out.Persisted)
	assert.Equal(t, 1, store.Writes())

	loaded := r.Load(ctx)
	require.NotNil(t, loaded)
	assert.Equal(t, "Jane", loaded.Name)
	assert.Equal(t, "a b c", loaded.Summary)
	require.Len(t, loaded.Skills, 1)
	assert.Equal(t, "Python", loaded.Skills[0].Name)
}

func TestReconcile_ZeroPaddedExperienceWritesThrough(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := NewReconciler(store, testSlot)

	fresh, err := Normalize([]byte(`{"name":"Jane","experience_years":"03"}`))
	require.NoError(t, err)

	out := r.Reconcile(ctx, fresh)
	require.NoError(t, out.PersistErr)
	assert.True(t, out.Persisted)

	loaded := r.Load(ctx)
	require.NotNil(t, loaded)
	assert.Equal(t, ExperienceYears("03"), loaded.ExperienceYears)
}

func TestReconcile_SavedOnlyAndNoData(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := NewReconciler(store, testSlot)

	out := r.Reconcile(ctx, nil)
	assert.Equal(t, StateNoData, out.State)
	assert.Nil(t, out.Result)

	seed(t, store, sampleRecord())
	out = r.Reconcile(ctx, nil)
	assert.Equal(t, StateSavedOnly, out.State)
	require.NotNil(t, out.Result)
	assert.Equal(t, "Jane Doe", out.Result.Name)
	assert.False(t, out.Persisted)
}

func TestReconcile_UndecodableSavedTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{`{not json`, `[]`, `{"skills":"python"}`, `{"education":[1,2]}`, ``} {
		store := NewMemoryStore()
		require.NoError(t, store.Set(ctx, testSlot, raw))

		out := NewReconciler(store, testSlot).Reconcile(ctx, sampleRecord())
		assert.Equal(t, StateFreshOnly, out.State, "槽位内容 %q 应按不存在处理", raw)
		assert.True(t, out.Persisted)
	}
}

func TestReconcile_StoreReadErrorTreatedAsAbsent(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore(), getErr: errors.New("redis down")}
	out := NewReconciler(store, testSlot).Reconcile(context.Background(), sampleRecord())
	assert.Equal(t, StateFreshOnly, out.State)
}

func TestReconcile_WriteFailureStillReturnsResult(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore(), setErr: errors.New("read-only")}

	out := NewReconciler(store, testSlot).Reconcile(context.Background(), sampleRecord())
	assert.Equal(t, StateFreshOnly, out.State)
	require.NotNil(t, out.Result)
	assert.False(t, out.Persisted)
	assert.ErrorIs(t, out.PersistErr, ErrPersistenceUnavailable)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "no_data", StateNoData.String())
	assert.Equal(t, "fresh_only", StateFreshOnly.String())
	assert.Equal(t, "saved_only", StateSavedOnly.String())
	assert.Equal(t, "reconciled", StateReconciled.String())
}
