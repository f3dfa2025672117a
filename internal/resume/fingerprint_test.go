package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_StableAcrossPersistence(t *testing.T) {
	rec := sampleRecord()
	rec.Summary = "  Backend\n\n engineer   "

	data, err := EncodeRecord(rec)
	require.NoError(t, err)
	decoded, err := DecodeRecord(data)
	require.NoError(t, err)

	assert.Equal(t, Fingerprint(rec), Fingerprint(decoded))
	assert.Equal(t, "Backend engineer", decoded.Summary)
}

func TestFingerprint_IgnoresFieldsOutsideSubset(t *testing.T) {
	a := sampleRecord()
	b := sampleRecord()
	b.ExperienceYears = "10"
	b.ATSScore = 12
	b.JobMatch.MissingSkills = []string{"rust"}
	b.ResumeText = "full text"
	b.File = "uploads/x.pdf"
	b.Projects[0].StackText = "go,   mysql"

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.True(t, SameContent(a, b))
}

func TestFingerprint_SensitiveToSubset(t *testing.T) {
	base := Fingerprint(sampleRecord())

	mutations := map[string]func(r *Record){
		"name":      func(r *Record) { r.Name = "John" },
		"email":     func(r *Record) { r.Email = "j@x.io" },
		"phone":     func(r *Record) { r.Phone = "" },
		"skills":    func(r *Record) { r.Skills = r.Skills[:1] },
		"order":     func(r *Record) { r.Skills[0], r.Skills[1] = r.Skills[1], r.Skills[0] },
		"projects":  func(r *Record) { r.Projects[0].Stack = []string{"go"} },
		"education": func(r *Record) { r.Education = nil },
		"summary":   func(r *Record) { r.Summary = "other" },
	}
	for name, mutate := range mutations {
		r := sampleRecord()
		mutate(r)
		assert.NotEqual(t, base, Fingerprint(r), "修改 %s 后指纹应变化", name)
	}
}

func TestFingerprint_WhitespaceOnlySummaryDifference(t *testing.T) {
	a := sampleRecord()
	b := sampleRecord()
	b.Summary = "Backend \n engineer"
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_NilAndEmptySequencesEqual(t *testing.T) {
	a := &Record{Name: "x"}
	b := &Record{Name: "x", Skills: []Skill{}, Education: []string{}, Projects: []Project{}}
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.Equal(t, "", Fingerprint(nil))
	assert.False(t, SameContent(nil, a))
}

func TestCleanSummary(t *testing.T) {
	assert.Equal(t, "a b c", CleanSummary("a\nb   c"))
	assert.Equal(t, "a b", CleanSummary("\t a \r\n\n b \n"))
	assert.Equal(t, "", CleanSummary(" \n "))
}
