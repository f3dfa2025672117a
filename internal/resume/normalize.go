package resume

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize 把解析引擎返回的原始 JSON 整理成规范的 Record。
// 缺失或类型不符的可选字段一律取默认值；只有当输入根本不是 JSON 对象时才返回 ErrMalformedExtraction。
func Normalize(raw []byte) (*Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformedExtraction
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}

	rec := &Record{
		Name:            stringField(fields["name"]),
		Email:           stringField(fields["email"]),
		Phone:           stringField(fields["phone"]),
		ExperienceYears: experienceField(fields["experience_years"]),
		Skills:          normalizeSkills(fields["skills"]),
		Education:       normalizeEducation(fields["education"]),
		Projects:        normalizeProjects(fields["projects"]),
		Summary:         CleanSummary(stringField(fields["summary"])),
		File:            stringField(fields["file"]),
		ResumeText:      stringField(fields["resumeText"]),
	}
	if score, ok := numberField(fields["ats_score"]); ok {
		rec.ATSScore = score
	}
	if jm, ok := fields["job_match"]; ok {
		// 结构不符时保持空值
		_ = json.Unmarshal(jm, &rec.JobMatch)
	}
	rec.ensureDefaults()
	return rec, nil
}

// CapitalizeFirst 只把首字符转为大写，其余保持不变
func CapitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func stringField(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// 数字形式的电话号码等
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func numberField(raw json.RawMessage) (float64, bool) {
	if isNull(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, perr := strconv.ParseFloat(strings.TrimSpace(s), 64); perr == nil {
			return v, true
		}
	}
	return 0, false
}

func experienceField(raw json.RawMessage) ExperienceYears {
	if isNull(raw) {
		return "0"
	}
	var y ExperienceYears
	if err := json.Unmarshal(raw, &y); err != nil || y == "" {
		return "0"
	}
	return y
}

// normalizeSkills 支持三种形态：
// {"python": 90, ...}、["python", ...]、[{"name": "python", "relevance": 90}, ...]
func normalizeSkills(raw json.RawMessage) []Skill {
	skills := []Skill{}
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return skills
	}

	switch t[0] {
	case '{':
		dec := json.NewDecoder(bytes.NewReader(t))
		if _, err := dec.Token(); err != nil {
			return skills
		}
		// 逐个读取键值，保留引擎给出的顺序
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return skills
			}
			name, _ := tok.(string)
			var value json.RawMessage
			if err := dec.Decode(&value); err != nil {
				return skills
			}
			skills = append(skills, newSkill(name, value))
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(t, &items); err != nil {
			return skills
		}
		for _, item := range items {
			it := bytes.TrimSpace(item)
			if len(it) > 0 && it[0] == '{' {
				var obj struct {
					Name      string          `json:"name"`
					Relevance json.RawMessage `json:"relevance"`
				}
				if err := json.Unmarshal(it, &obj); err != nil {
					continue
				}
				skills = append(skills, newSkill(obj.Name, obj.Relevance))
				continue
			}
			if name := stringField(it); name != "" {
				skills = append(skills, Skill{Name: CapitalizeFirst(name)})
			}
		}
	}
	return skills
}

func newSkill(name string, relevance json.RawMessage) Skill {
	s := Skill{Name: CapitalizeFirst(name)}
	if v, ok := numberField(relevance); ok {
		s.Relevance = &v
	}
	return s
}

// normalizeEducation 字符串原样保留，对象拼接为 "学位 - 学校 - (开始 – 结束)"
func normalizeEducation(raw json.RawMessage) []string {
	out := []string{}
	var items []json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, item := range items {
		it := bytes.TrimSpace(item)
		if len(it) > 0 && it[0] == '{' {
			var e map[string]json.RawMessage
			if err := json.Unmarshal(it, &e); err != nil {
				continue
			}
			if line := flattenEducation(e); line != "" {
				out = append(out, line)
			}
			continue
		}
		if s := stringField(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func flattenEducation(e map[string]json.RawMessage) string {
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := stringField(e[k]); v != "" {
				return v
			}
		}
		return ""
	}
	degree := first("name", "degree")
	institution := first("institution", "university")
	start, end := first("start_date"), first("end_date")

	years := ""
	if start != "" || end != "" {
		years = fmt.Sprintf("(%s – %s)", start, end)
		years = strings.ReplaceAll(years, "  ", " ")
		years = strings.Trim(years, " –()")
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{degree, institution, years} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " - ")
}

func normalizeProjects(raw json.RawMessage) []Project {
	out := []Project{}
	var items []map[string]json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		p := Project{
			Title:       stringField(item["title"]),
			Description: stringField(item["description"]),
		}
		if p.Title == "" {
			p.Title = stringField(item["name"])
		}
		p.Stack = stackField(item["stack"])
		if len(p.Stack) == 0 {
			p.Stack = stackField(item["tech_stack"])
		}
		if len(p.Stack) == 0 {
			p.Stack = stackField(item["language_used"])
		}
		out = append(out, p)
	}
	return out
}

// stackField 接受字符串数组或逗号分隔的字符串
func stackField(raw json.RawMessage) []string {
	if isNull(raw) {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return SplitStack(stringField(raw))
}

// SplitStack 按逗号拆分技术栈文本并去掉空白项
func SplitStack(text string) []string {
	out := []string{}
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
