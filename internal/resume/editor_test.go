package resume

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestEditor_BlankSkillRemovedOnCommit(t *testing.T) {
	e := NewEditor(sampleRecord(), NewMemoryStore(), testSlot)
	before := e.Record().Skills

	idx, err := e.AddListItem(SectionSkills)
	require.NoError(t, err)
	assert.Equal(t, len(before), idx)

	focus, ok := e.Focus()
	require.True(t, ok)
	assert.Equal(t, Focus{Section: SectionSkills, Index: idx}, focus)

	// 只输入空格也视为空白
	require.NoError(t, e.UpdateListItem(SectionSkills, idx, ItemPatch{Name: strPtr("   ")}))
	removed, err := e.CommitBlankItemPolicy(SectionSkills, idx)
	require.NoError(t, err)
	assert.True(t, removed)

	assert.Equal(t, before, e.Record().Skills)
	_, ok = e.Focus()
	assert.False(t, ok)
}

func TestEditor_FilledItemKeptOnCommit(t *testing.T) {
	e := NewEditor(sampleRecord(), nil, testSlot)
	idx, err := e.AddListItem(SectionEducation)
	require.NoError(t, err)
	require.NoError(t, e.UpdateListItem(SectionEducation, idx, ItemPatch{Text: strPtr("MSc - IIT")}))

	removed, err := e.CommitBlankItemPolicy(SectionEducation, idx)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, "MSc - IIT", e.Record().Education[idx])
}

func TestEditor_BlankProjectRemovedOnCommit(t *testing.T) {
	e := NewEditor(sampleRecord(), nil, testSlot)
	idx, err := e.AddListItem(SectionProjects)
	require.NoError(t, err)
	assert.Len(t, e.Record().Projects, 2)

	removed, err := e.CommitBlankItemPolicy(SectionProjects, idx)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Len(t, e.Record().Projects, 1)
}

func TestEditor_StackTextRetained(t *testing.T) {
	e := NewEditor(sampleRecord(), nil, testSlot)

	require.NoError(t, e.UpdateListItem(SectionProjects, 0, ItemPatch{StackText: strPtr("Go,  Redis , ")}))
	p := e.Record().Projects[0]
	assert.Equal(t, []string{"Go", "Redis"}, p.Stack)
	assert.Equal(t, "Go,  Redis , ", p.StackText)
	assert.Equal(t, "Shop", p.Title)

	require.NoError(t, e.UpdateListItem(SectionProjects, 0, ItemPatch{Title: strPtr("Store")}))
	p = e.Record().Projects[0]
	assert.Equal(t, "Store", p.Title)
	assert.Equal(t, "Go,  Redis , ", p.StackText)
}

func TestEditor_SkillRenameDropsRelevance(t *testing.T) {
	e := NewEditor(sampleRecord(), nil, testSlot)

	require.NoError(t, e.UpdateListItem(SectionSkills, 0, ItemPatch{Name: strPtr("Go")}))
	assert.NotNil(t, e.Record().Skills[0].Relevance)

	require.NoError(t, e.UpdateListItem(SectionSkills, 0, ItemPatch{Name: strPtr("Golang")}))
	assert.Equal(t, "Golang", e.Record().Skills[0].Name)
	assert.Nil(t, e.Record().Skills[0].Relevance)
}

func TestEditor_RemoveReindexes(t *testing.T) {
	rec := sampleRecord()
	rec.Education = []string{"a", "b", "c"}
	e := NewEditor(rec, nil, testSlot)

	_, err := e.AddListItem(SectionEducation)
	require.NoError(t, err)
	require.NoError(t, e.RemoveListItem(SectionEducation, 1))

	assert.Equal(t, []string{"a", "c", ""}, e.Record().Education)
	focus, ok := e.Focus()
	require.True(t, ok)
	assert.Equal(t, 2, focus.Index)

	// 原记录不受影响
	assert.Equal(t, []string{"a", "b", "c"}, rec.Education)
}

func TestEditor_IndexAndSectionErrors(t *testing.T) {
	e := NewEditor(sampleRecord(), nil, testSlot)

	assert.ErrorIs(t, e.RemoveListItem(SectionSkills, 5), ErrIndexOutOfRange)
	assert.ErrorIs(t, e.UpdateListItem(SectionEducation, -1, ItemPatch{}), ErrIndexOutOfRange)
	_, err := e.AddListItem(Section("hobbies"))
	assert.ErrorIs(t, err, ErrUnknownSection)
	assert.ErrorIs(t, e.SetField(Field("age"), "3"), ErrUnknownField)
}

func TestEditor_SetFieldReplacesRecord(t *testing.T) {
	e := NewEditor(sampleRecord(), nil, testSlot)
	snapshot := e.Record()

	require.NoError(t, e.SetField(FieldName, "Janet"))
	require.NoError(t, e.SetField(FieldExperienceYears, "about five"))

	assert.Equal(t, "Jane Doe", snapshot.Name)
	assert.Equal(t, "Janet", e.Record().Name)
	assert.Equal(t, ExperienceYears("about five"), e.Record().ExperienceYears)
}

func TestEditor_SaveWritesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	e := NewEditor(sampleRecord(), store, testSlot)
	require.NoError(t, e.SetField(FieldSummary, "line one\n\nline two"))

	require.NoError(t, e.Save(ctx))

	saved := NewReconciler(store, testSlot).Load(ctx)
	require.NotNil(t, saved)
	assert.Equal(t, "line one line two", saved.Summary)
	assert.Equal(t, "Jane Doe", saved.Name)
}

func TestEditor_SaveFreeTextExperience(t *testing.T) {
	ctx := context.Background()
	for _, years := range []string{"05", "00", "007.5", "-0", "3.", "about five"} {
		store := NewMemoryStore()
		e := NewEditor(sampleRecord(), store, testSlot)
		require.NoError(t, e.SetField(FieldExperienceYears, years))

		require.NoError(t, e.Save(ctx), years)
		saved := NewReconciler(store, testSlot).Load(ctx)
		require.NotNil(t, saved, years)
		assert.Equal(t, ExperienceYears(years), saved.ExperienceYears)
	}
}

func TestEditor_SaveFailureKeepsState(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore(), setErr: errors.New("read-only")}
	e := NewEditor(sampleRecord(), store, testSlot)
	require.NoError(t, e.SetField(FieldName, "Changed"))

	err := e.Save(context.Background())
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
	assert.Equal(t, "Changed", e.Record().Name)

	noStore := NewEditor(sampleRecord(), nil, testSlot)
	assert.ErrorIs(t, noStore.Save(context.Background()), ErrPersistenceUnavailable)
}

func TestEditor_ToggleSection(t *testing.T) {
	e := NewEditor(nil, nil, testSlot)
	assert.False(t, e.Expanded(SectionProjects))
	assert.True(t, e.ToggleSection(SectionProjects))
	assert.True(t, e.Expanded(SectionProjects))
	assert.False(t, e.ToggleSection(SectionProjects))
}

func TestEditor_ApplyOperations(t *testing.T) {
	e := NewEditor(sampleRecord(), nil, testSlot)

	ops := []Operation{
		{Op: "setField", Field: FieldPhone, Value: "12345"},
		{Op: "addListItem", Section: SectionSkills},
		{Op: "updateListItem", Section: SectionSkills, Index: 2, Patch: ItemPatch{Name: strPtr("Kafka")}},
		{Op: "commitBlankItem", Section: SectionSkills, Index: 2},
		{Op: "removeListItem", Section: SectionEducation, Index: 0},
	}
	for _, op := range ops {
		require.NoError(t, e.Apply(op))
	}

	rec := e.Record()
	assert.Equal(t, "12345", rec.Phone)
	require.Len(t, rec.Skills, 3)
	assert.Equal(t, "Kafka", rec.Skills[2].Name)
	assert.Empty(t, rec.Education)

	assert.Error(t, e.Apply(Operation{Op: "explode"}))
	assert.Error(t, e.Apply(Operation{Op: "setField"}))
	assert.Error(t, e.Apply(Operation{Op: "addListItem"}))
	assert.Error(t, e.Apply(Operation{Op: "addListItem", Section: "hobbies"}))
}
