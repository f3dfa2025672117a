package resume

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/Mangesh9326/Job-Platform/pkg/utils"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanSummary 把所有空白（含换行）折叠为单个空格并去掉首尾空白
func CleanSummary(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// fingerprintSkill 与 fingerprintProject 固定参与指纹的字段顺序
type fingerprintSkill struct {
	Name      string   `json:"name"`
	Relevance *float64 `json:"relevance,omitempty"`
}

type fingerprintProject struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Stack       []string `json:"stack"`
}

type fingerprintView struct {
	Name      string               `json:"name"`
	Email     string               `json:"email"`
	Phone     string               `json:"phone"`
	Skills    []fingerprintSkill   `json:"skills"`
	Projects  []fingerprintProject `json:"projects"`
	Education []string             `json:"education"`
	Summary   string               `json:"summary"`
}

// Fingerprint 计算记录内容指纹。
// 只覆盖 name/email/phone/skills/projects/education/summary，
// 其它字段（工作年限、ATS 分数、原始文本等）不影响结果。
func Fingerprint(r *Record) string {
	if r == nil {
		return ""
	}
	view := fingerprintView{
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Skills:    make([]fingerprintSkill, 0, len(r.Skills)),
		Projects:  make([]fingerprintProject, 0, len(r.Projects)),
		Education: append([]string{}, r.Education...),
		Summary:   CleanSummary(r.Summary),
	}
	for _, s := range r.Skills {
		view.Skills = append(view.Skills, fingerprintSkill(s))
	}
	for _, p := range r.Projects {
		stack := p.Stack
		if stack == nil {
			stack = []string{}
		}
		view.Projects = append(view.Projects, fingerprintProject{
			Title:       p.Title,
			Description: p.Description,
			Stack:       stack,
		})
	}

	// 结构体字段顺序固定，编码结果是确定的
	data, err := json.Marshal(view)
	if err != nil {
		return ""
	}
	return utils.CalculateMD5(data)
}

// SameContent 两条记录指纹相同即视为同一份简历
func SameContent(a, b *Record) bool {
	if a == nil || b == nil {
		return false
	}
	return Fingerprint(a) == Fingerprint(b)
}
