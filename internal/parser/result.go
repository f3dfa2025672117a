package parser

import (
	"bytes"
	"encoding/json"
)

// SkillScore 技能及其相关度（0-100）
type SkillScore struct {
	Name  string
	Score int
}

// SkillScores 有序的技能表，序列化为保持顺序的 JSON 对象
type SkillScores []SkillScore

// MarshalJSON 输出 {"python": 100, "go": 50}，键顺序与切片一致
func (s SkillScores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sk := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(sk.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, _ := json.Marshal(sk.Score)
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ProjectResult 解析出的项目
type ProjectResult struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	LanguageUsed string   `json:"language_used"`
	Stack        []string `json:"stack"`
}

// Result 与外部解析引擎相同的输出结构
type Result struct {
	Name            *string         `json:"name"`
	Email           *string         `json:"email"`
	Phone           *string         `json:"phone"`
	Skills          SkillScores     `json:"skills"`
	ExperienceYears float64         `json:"experience_years"`
	Education       []string        `json:"education"`
	Projects        []ProjectResult `json:"projects"`
	Summary         string          `json:"summary"`
	File            string          `json:"file,omitempty"`
}
