package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_JaneScenario(t *testing.T) {
	raw := []byte(`{"name":"Jane","skills":{"python":0.9},"summary":"a\nb   c"}`)

	rec, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "Jane", rec.Name)
	require.Len(t, rec.Skills, 1)
	assert.Equal(t, "Python", rec.Skills[0].Name)
	require.NotNil(t, rec.Skills[0].Relevance)
	assert.InDelta(t, 0.9, *rec.Skills[0].Relevance, 1e-9)
	assert.Equal(t, "a b c", rec.Summary)
}

func TestNormalize_Defaults(t *testing.T) {
	rec, err := Normalize([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, "", rec.Name)
	assert.Equal(t, "", rec.Email)
	assert.Equal(t, "", rec.Phone)
	assert.Equal(t, ExperienceYears("0"), rec.ExperienceYears)
	assert.NotNil(t, rec.Skills)
	assert.Empty(t, rec.Skills)
	assert.NotNil(t, rec.Education)
	assert.Empty(t, rec.Education)
	assert.NotNil(t, rec.Projects)
	assert.Empty(t, rec.Projects)
	assert.Equal(t, "", rec.Summary)
}

func TestNormalize_NullFieldsBecomeDefaults(t *testing.T) {
	rec, err := Normalize([]byte(`{"name":null,"email":null,"skills":null,"education":null,"experience_years":null,"summary":null}`))
	require.NoError(t, err)
	assert.Equal(t, "", rec.Name)
	assert.Empty(t, rec.Skills)
	assert.Equal(t, ExperienceYears("0"), rec.ExperienceYears)
}

func TestNormalize_SkillOrderAndCapitalization(t *testing.T) {
	raw := []byte(`{"skills":{"react native":100,"go":80,"ci/cd":40,"éclair":10}}`)

	rec, err := Normalize(raw)
	require.NoError(t, err)

	names := make([]string, 0, len(rec.Skills))
	for _, s := range rec.Skills {
		names = append(names, s.Name)
	}
	// 只有首字符大写，顺序与输入一致
	assert.Equal(t, []string{"React native", "Go", "Ci/cd", "Éclair"}, names)
}

func TestNormalize_SkillListForms(t *testing.T) {
	rec, err := Normalize([]byte(`{"skills":["docker",{"name":"kafka","relevance":70},42]}`))
	require.NoError(t, err)
	require.Len(t, rec.Skills, 3)
	assert.Equal(t, "Docker", rec.Skills[0].Name)
	assert.Nil(t, rec.Skills[0].Relevance)
	assert.Equal(t, "Kafka", rec.Skills[1].Name)
	require.NotNil(t, rec.Skills[1].Relevance)
	assert.Equal(t, 70.0, *rec.Skills[1].Relevance)
	assert.Equal(t, "42", rec.Skills[2].Name)
}

func TestNormalize_EducationFlattening(t *testing.T) {
	raw := []byte(`{"education":[
		"B.Tech Computer Engineering",
		{"degree":"MSc","institution":"MIT","start_date":"2019","end_date":"2021"},
		{"name":"BSc","university":"Pune University"},
		{"degree":"HSC","end_date":"2015"},
		{}
	]}`)

	rec, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"B.Tech Computer Engineering",
		"MSc - MIT - 2019 – 2021",
		"BSc - Pune University",
		"HSC - 2015",
	}, rec.Education)
}

func TestNormalize_Projects(t *testing.T) {
	raw := []byte(`{"projects":[
		{"title":"Shop","description":"e-commerce","stack":["go"," redis "]},
		{"name":"Bot","description":"chat","tech_stack":["python"]},
		{"title":"CLI","description":"tool","language_used":"Go, Cobra"},
		{"title":"Empty"}
	]}`)

	rec, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, rec.Projects, 4)
	assert.Equal(t, []string{"go", "redis"}, rec.Projects[0].Stack)
	assert.Equal(t, "Bot", rec.Projects[1].Title)
	assert.Equal(t, []string{"python"}, rec.Projects[1].Stack)
	assert.Equal(t, []string{"Go", "Cobra"}, rec.Projects[2].Stack)
	assert.NotNil(t, rec.Projects[3].Stack)
	assert.Empty(t, rec.Projects[3].Stack)
}

func TestNormalize_PassthroughFields(t *testing.T) {
	raw := []byte(`{"experience_years":2.5,"ats_score":73,"job_match":{"matched_skills":["go"],"missing_skills":["rust"]},"phone":9876543210}`)

	rec, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, ExperienceYears("2.5"), rec.ExperienceYears)
	assert.Equal(t, 73.0, rec.ATSScore)
	assert.Equal(t, []string{"go"}, rec.JobMatch.MatchedSkills)
	assert.Equal(t, []string{"rust"}, rec.JobMatch.MissingSkills)
	assert.Equal(t, "9876543210", rec.Phone)
}

func TestNormalize_WrongTypesDegradeToDefaults(t *testing.T) {
	rec, err := Normalize([]byte(`{"name":{"first":"x"},"skills":"python","education":"BSc","projects":"none","summary":5}`))
	require.NoError(t, err)
	assert.Equal(t, "", rec.Name)
	assert.Empty(t, rec.Skills)
	assert.Empty(t, rec.Education)
	assert.Empty(t, rec.Projects)
	assert.Equal(t, "5", rec.Summary)
}

func TestNormalize_Malformed(t *testing.T) {
	cases := []string{``, `null`, `[1,2]`, `"text"`, `42`, `{"name":`}
	for _, c := range cases {
		_, err := Normalize([]byte(c))
		assert.ErrorIs(t, err, ErrMalformedExtraction, "输入 %q 应当被判定为无法解析", c)
	}
}

func TestCapitalizeFirst(t *testing.T) {
	assert.Equal(t, "", CapitalizeFirst(""))
	assert.Equal(t, "Python", CapitalizeFirst("python"))
	assert.Equal(t, "JavaScript", CapitalizeFirst("javaScript"))
	assert.Equal(t, "C++", CapitalizeFirst("c++"))
}

func TestSplitStack(t *testing.T) {
	assert.Equal(t, []string{"Go", "Redis", "Kafka"}, SplitStack(" Go ,Redis,  Kafka"))
	assert.Equal(t, []string{"Go"}, SplitStack("Go, "))
	assert.Empty(t, SplitStack(""))
}
