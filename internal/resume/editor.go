package resume

import (
	"context"
	"fmt"
	"strings"
)

// Field 可整体替换的标量字段
type Field string

const (
	FieldName            Field = "name"
	FieldEmail           Field = "email"
	FieldPhone           Field = "phone"
	FieldExperienceYears Field = "experience_years"
	FieldSummary         Field = "summary"
)

// Section 有序列表分区
type Section string

const (
	SectionSkills    Section = "skills"
	SectionEducation Section = "education"
	SectionProjects  Section = "projects"
)

// ItemPatch 列表项补丁，nil 字段保持原值。
// Skills 使用 Name，Education 使用 Text，Projects 使用 Title/Description/StackText。
type ItemPatch struct {
	Name        *string `json:"name,omitempty"`
	Text        *string `json:"text,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	StackText   *string `json:"stack,omitempty"`
}

// Focus 新增列表项后需要获得输入焦点的位置
type Focus struct {
	Section Section `json:"section"`
	Index   int     `json:"index"`
}

// Editor 编辑会话内持有一条记录，以及展开状态、焦点等界面状态。
// 只由所属请求（或 CLI 流程）单线程使用。
type Editor struct {
	record   *Record
	store    SessionStore
	key      string
	focus    *Focus
	expanded map[Section]bool
}

// NewEditor 基于记录副本创建编辑器
func NewEditor(rec *Record, store SessionStore, key string) *Editor {
	if rec == nil {
		rec = &Record{ExperienceYears: "0"}
	}
	c := rec.Clone()
	c.ensureDefaults()
	return &Editor{
		record:   c,
		store:    store,
		key:      key,
		expanded: make(map[Section]bool),
	}
}

// Record 返回当前记录的快照
func (e *Editor) Record() *Record {
	return e.record.Clone()
}

// Focus 返回当前焦点
func (e *Editor) Focus() (Focus, bool) {
	if e.focus == nil {
		return Focus{}, false
	}
	return *e.focus, true
}

// ToggleSection 切换分区展开状态，返回新状态
func (e *Editor) ToggleSection(s Section) bool {
	e.expanded[s] = !e.expanded[s]
	return e.expanded[s]
}

// Expanded 分区是否展开
func (e *Editor) Expanded(s Section) bool {
	return e.expanded[s]
}

// SetField 替换一个标量字段。整条记录复制后替换，不做深层合并。
func (e *Editor) SetField(f Field, value string) error {
	next := e.record.Clone()
	switch f {
	case FieldName:
		next.Name = value
	case FieldEmail:
		next.Email = value
	case FieldPhone:
		next.Phone = value
	case FieldExperienceYears:
		next.ExperienceYears = ExperienceYears(value)
	case FieldSummary:
		next.Summary = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	e.record = next
	return nil
}

// AddListItem 在分区末尾追加空白项并把焦点移到该项，返回新项下标
func (e *Editor) AddListItem(s Section) (int, error) {
	var idx int
	switch s {
	case SectionSkills:
		e.record.Skills = append(e.record.Skills, Skill{})
		idx = len(e.record.Skills) - 1
	case SectionEducation:
		e.record.Education = append(e.record.Education, "")
		idx = len(e.record.Education) - 1
	case SectionProjects:
		e.record.Projects = append(e.record.Projects, Project{Stack: []string{}})
		idx = len(e.record.Projects) - 1
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownSection, s)
	}
	e.focus = &Focus{Section: s, Index: idx}
	return idx, nil
}

// UpdateListItem 按下标替换一个列表项
func (e *Editor) UpdateListItem(s Section, index int, patch ItemPatch) error {
	if err := e.checkIndex(s, index); err != nil {
		return err
	}
	switch s {
	case SectionSkills:
		item := e.record.Skills[index]
		if patch.Name != nil && *patch.Name != item.Name {
			// 改名后原有相关度不再适用
			item = Skill{Name: *patch.Name}
		}
		e.record.Skills[index] = item
	case SectionEducation:
		if patch.Text != nil {
			e.record.Education[index] = *patch.Text
		}
	case SectionProjects:
		item := e.record.Projects[index]
		item.Stack = append([]string{}, item.Stack...)
		if patch.Title != nil {
			item.Title = *patch.Title
		}
		if patch.Description != nil {
			item.Description = *patch.Description
		}
		if patch.StackText != nil {
			item.StackText = *patch.StackText
			item.Stack = SplitStack(*patch.StackText)
		}
		e.record.Projects[index] = item
	}
	return nil
}

// RemoveListItem 删除一个列表项，后续项前移
func (e *Editor) RemoveListItem(s Section, index int) error {
	if err := e.checkIndex(s, index); err != nil {
		return err
	}
	switch s {
	case SectionSkills:
		e.record.Skills = append(e.record.Skills[:index:index], e.record.Skills[index+1:]...)
	case SectionEducation:
		e.record.Education = append(e.record.Education[:index:index], e.record.Education[index+1:]...)
	case SectionProjects:
		e.record.Projects = append(e.record.Projects[:index:index], e.record.Projects[index+1:]...)
	}
	e.shiftFocus(s, index)
	return nil
}

// CommitBlankItemPolicy 列表项失去焦点时调用，内容去空白后为空则删除该项
func (e *Editor) CommitBlankItemPolicy(s Section, index int) (bool, error) {
	if err := e.checkIndex(s, index); err != nil {
		return false, err
	}
	var blank bool
	switch s {
	case SectionSkills:
		blank = strings.TrimSpace(e.record.Skills[index].Name) == ""
	case SectionEducation:
		blank = strings.TrimSpace(e.record.Education[index]) == ""
	case SectionProjects:
		p := e.record.Projects[index]
		blank = strings.TrimSpace(p.Title) == "" &&
			strings.TrimSpace(p.Description) == "" &&
			strings.TrimSpace(p.StackText) == "" &&
			len(p.Stack) == 0
	}
	if e.focus != nil && e.focus.Section == s && e.focus.Index == index {
		e.focus = nil
	}
	if !blank {
		return false, nil
	}
	if err := e.RemoveListItem(s, index); err != nil {
		return false, err
	}
	return true, nil
}

// Save 把完整快照写入会话槽位。失败时返回 ErrPersistenceUnavailable，内存中的修改保留。
func (e *Editor) Save(ctx context.Context) error {
	if e.store == nil {
		return fmt.Errorf("%w: 未配置会话存储", ErrPersistenceUnavailable)
	}
	return persist(ctx, e.store, e.key, e.record)
}

func (e *Editor) length(s Section) (int, error) {
	switch s {
	case SectionSkills:
		return len(e.record.Skills), nil
	case SectionEducation:
		return len(e.record.Education), nil
	case SectionProjects:
		return len(e.record.Projects), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownSection, s)
	}
}

func (e *Editor) checkIndex(s Section, index int) error {
	n, err := e.length(s)
	if err != nil {
		return err
	}
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %s[%d]，长度 %d", ErrIndexOutOfRange, s, index, n)
	}
	return nil
}

func (e *Editor) shiftFocus(s Section, removed int) {
	if e.focus == nil || e.focus.Section != s {
		return
	}
	switch {
	case e.focus.Index == removed:
		e.focus = nil
	case e.focus.Index > removed:
		e.focus.Index--
	}
}
