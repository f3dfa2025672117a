// Package resume 保存简历记录的规范形态，以及归一化、对账与编辑逻辑。
package resume

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Skill 技能条目，Relevance 只在首次解析时有值
type Skill struct {
	Name      string   `json:"name"`
	Relevance *float64 `json:"relevance,omitempty"`
}

// Project 项目条目
// StackText 保存用户输入的原始逗号分隔文本，避免编辑中途丢失空格
type Project struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Stack       []string `json:"stack"`
	StackText   string   `json:"_stackText,omitempty"`
}

// JobMatch 解析引擎给出的岗位匹配结果，原样透传
type JobMatch struct {
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
}

// Record 可编辑的简历记录
type Record struct {
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	ExperienceYears ExperienceYears `json:"experience_years"`
	Skills          []Skill         `json:"skills"`
	Education       []string        `json:"education"`
	Projects        []Project       `json:"projects"`
	Summary         string          `json:"summary"`

	// 以下字段不参与指纹计算
	ATSScore   float64  `json:"ats_score"`
	JobMatch   JobMatch `json:"job_match"`
	File       string   `json:"file,omitempty"`
	ResumeText string   `json:"resumeText,omitempty"`
}

// numericText 只匹配合法的 JSON 数字写法，"05" 之类带前导零的文本按字符串输出
var numericText = regexp.MustCompile(`^-?(0|[1-9]\d*)(\.\d+)?$`)

// ExperienceYears 工作年限。用户可以随意编辑，
// 纯数字时序列化为 JSON number，其余情况序列化为字符串。
type ExperienceYears string

// MarshalJSON 实现 json.Marshaler
func (y ExperienceYears) MarshalJSON() ([]byte, error) {
	s := string(y)
	if numericText.MatchString(s) {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

// UnmarshalJSON 接受 number、string 或 null
func (y *ExperienceYears) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*y = "0"
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = ExperienceYears(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*y = ExperienceYears(n.String())
	}
	return nil
}

// Clone 深拷贝，保存与返回快照时使用
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Skills = make([]Skill, len(r.Skills))
	for i, s := range r.Skills {
		c.Skills[i] = s
		if s.Relevance != nil {
			v := *s.Relevance
			c.Skills[i].Relevance = &v
		}
	}
	c.Education = append([]string{}, r.Education...)
	c.Projects = make([]Project, len(r.Projects))
	for i, p := range r.Projects {
		c.Projects[i] = p
		c.Projects[i].Stack = append([]string{}, p.Stack...)
	}
	c.JobMatch.MatchedSkills = append([]string{}, r.JobMatch.MatchedSkills...)
	c.JobMatch.MissingSkills = append([]string{}, r.JobMatch.MissingSkills...)
	return &c
}

// ensureDefaults 把 nil 序列替换为空序列
func (r *Record) ensureDefaults() {
	if r.Skills == nil {
		r.Skills = []Skill{}
	}
	if r.Education == nil {
		r.Education = []string{}
	}
	if r.Projects == nil {
		r.Projects = []Project{}
	}
	for i := range r.Projects {
		if r.Projects[i].Stack == nil {
			r.Projects[i].Stack = []string{}
		}
	}
	if r.JobMatch.MatchedSkills == nil {
		r.JobMatch.MatchedSkills = []string{}
	}
	if r.JobMatch.MissingSkills == nil {
		r.JobMatch.MissingSkills = []string{}
	}
}
