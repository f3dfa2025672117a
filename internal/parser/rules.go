package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Engine 规则式解析引擎
type Engine struct {
	// Now 用于把 present/current 换算成日期，测试时可固定
	Now func() time.Time
	// Fallback 内置提取器不支持该格式时使用，可为 nil
	Fallback TextSource
}

// NewEngine 创建使用当前时间的解析引擎
func NewEngine() *Engine {
	return &Engine{Now: time.Now}
}

// ParseFile 读取文件并解析
func (e *Engine) ParseFile(ctx context.Context, path string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	text, err := ExtractText(filepath.Ext(path), data)
	if errors.Is(err, ErrUnsupportedFormat) && e.Fallback != nil {
		text, err = e.Fallback.ExtractText(ctx, path, data)
	}
	if err != nil {
		return nil, err
	}
	res := e.ParseText(text)
	res.File = path
	return res, nil
}

// ParseText 从纯文本中抽取各字段
func (e *Engine) ParseText(text string) *Result {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	sections := splitSections(text)

	projects := parseProjects(sections.get(aliasProjects))
	if len(projects) == 0 && projectHeading.MatchString(text) {
		projects = parseProjects(text)
	}

	summary := sections.get(aliasSummary)
	if r := []rune(summary); len(r) > 500 {
		summary = string(r[:500])
	}

	return &Result{
		Name:            optional(extractName(text)),
		Email:           optional(extractEmail(text)),
		Phone:           optional(extractPhone(text)),
		Skills:          extractSkills(sections.get(aliasSkills)),
		ExperienceYears: e.extractExperience(sections.get(aliasExperience)),
		Education:       extractEducation(sections.get(aliasEducation)),
		Projects:        projects,
		Summary:         summary,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ---------------- 分段 ----------------

var (
	aliasExperience = []string{"experience", "internships", "work experience"}
	aliasProjects   = []string{"projects", "challenges", "blogs"}
	aliasSkills     = []string{"skills", "technologies", "tools"}
	aliasEducation  = []string{"education"}
	aliasSummary    = []string{"summary", "career objective", "objective"}

	titleHeading = regexp.MustCompile(`^[A-Z][A-Za-z /&-]{3,}$`)
)

type section struct {
	heading string
	lines   []string
}

type sectionList []*section

// get 返回第一个标题包含任一别名的分段内容
func (s sectionList) get(aliases []string) string {
	for _, sec := range s {
		for _, alias := range aliases {
			if strings.Contains(sec.heading, alias) {
				return strings.Join(sec.lines, "\n")
			}
		}
	}
	return ""
}

func isUpperLine(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func splitSections(text string) sectionList {
	current := &section{heading: "header"}
	list := sectionList{current}
	index := map[string]*section{"header": current}

	for _, line := range strings.Split(text, "\n") {
		clean := strings.TrimSpace(line)
		if clean == "" {
			continue
		}
		if (isUpperLine(clean) || titleHeading.MatchString(clean)) && len(strings.Fields(clean)) <= 6 {
			key := strings.ToLower(clean)
			// 重复标题会清空之前的内容
			if existing, ok := index[key]; ok {
				existing.lines = nil
				current = existing
			} else {
				current = &section{heading: key}
				index[key] = current
				list = append(list, current)
			}
		} else {
			current.lines = append(current.lines, clean)
		}
		if len(list) > 40 {
			break
		}
	}
	return list
}

// ---------------- 姓名 / 邮箱 / 电话 ----------------

var (
	nameNoise     = regexp.MustCompile(`[\d+().@\-]`)
	ignoredInName = map[string]bool{"resume": true, "curriculum": true, "vitae": true, "cv": true, "profile": true}
)

func isAlphaWord(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return w != ""
}

func capitalizeWord(w string) string {
	r := []rune(strings.ToLower(w))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func extractName(text string) string {
	checked := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if checked++; checked > 10 {
			break
		}
		var words []string
		for _, w := range strings.Fields(nameNoise.ReplaceAllString(line, "")) {
			if isAlphaWord(w) {
				words = append(words, w)
			}
		}
		if len(words) < 2 || len(words) > 5 {
			continue
		}
		skip := false
		for _, w := range words {
			if ignoredInName[strings.ToLower(w)] {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		for i, w := range words {
			words[i] = capitalizeWord(w)
		}
		return strings.Join(words, " ")
	}
	return ""
}

var (
	emailPattern        = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	personalMailDomains = []string{"gmail.com", "outlook.com", "yahoo.com", "hotmail.com"}

	phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{7,16}\d`)
	phoneNoise   = regexp.MustCompile(`[^\d+]`)
)

func extractEmail(text string) string {
	emails := emailPattern.FindAllString(text, -1)
	if len(emails) == 0 {
		return ""
	}
	// 优先个人邮箱
	for _, e := range emails {
		for _, d := range personalMailDomains {
			if strings.HasSuffix(e, d) {
				return e
			}
		}
	}
	return emails[0]
}

func extractPhone(text string) string {
	candidates := phonePattern.FindAllString(strings.ReplaceAll(text, "\n", " "), -1)
	if len(candidates) == 0 {
		return ""
	}
	normalized := make([]string, 0, len(candidates))
	for _, c := range candidates {
		normalized = append(normalized, phoneNoise.ReplaceAllString(c, ""))
	}
	for _, n := range normalized {
		if len(n) == 12 && strings.HasPrefix(n, "+91") {
			return n
		}
	}
	for _, n := range normalized {
		if len(n) == 10 {
			return n
		}
	}
	return normalized[0]
}

// ---------------- 技能 ----------------

type skillAlias struct {
	skill   string
	aliases []string
}

// techSkills 按类别排列的技能词典，顺序影响同分技能的先后
var techSkills = [][]skillAlias{
	{ // frontend
		{"html", []string{"html5"}}, {"css", []string{"css3"}}, {"javascript", []string{"js"}},
		{"typescript", []string{"ts"}}, {"react", []string{"reactjs", "react.js"}}, {"angular", nil},
		{"vue", []string{"vuejs"}}, {"bootstrap", nil}, {"tailwind", []string{"tailwindcss"}}, {"jquery", nil},
	},
	{ // backend
		{"node", []string{"nodejs", "node.js"}}, {"express", []string{"expressjs", "express.js"}}, {"php", nil},
		{"python", nil}, {"django", nil}, {"flask", nil}, {"java", []string{"core java", "advanced java"}},
		{"spring", []string{"spring boot"}}, {"c", nil}, {"c++", []string{"cpp"}}, {"c#", []string{"csharp"}},
		{"golang", []string{"go"}}, {"ruby", nil}, {"rails", []string{"ruby on rails"}},
	},
	{ // databases
		{"mysql", nil}, {"postgresql", []string{"postgres"}}, {"mongodb", []string{"mongo"}},
		{"sqlserver", []string{"mssql"}}, {"sql", nil}, {"oracle", nil}, {"redis", nil},
	},
	{ // devops / cloud
		{"docker", nil}, {"kubernetes", []string{"k8s"}}, {"aws", []string{"amazon web service"}}, {"azure", nil},
		{"gcp", []string{"google cloud"}}, {"jenkins", nil}, {"ci/cd", []string{"cicd"}}, {"terraform", nil},
		{"ansible", nil}, {"prometheus", nil},
	},
	{ // mobile
		{"react native", []string{"react-native"}}, {"flutter", nil}, {"swift", nil}, {"kotlin", nil},
	},
	{ // data / ml
		{"pandas", nil}, {"numpy", nil}, {"scikit-learn", []string{"sklearn"}}, {"tensorflow", nil},
		{"pytorch", []string{"torch"}}, {"spark", []string{"pyspark"}}, {"hadoop", nil},
		{"ml", []string{"machine learning"}}, {"ai", []string{"artificial intelligence"}},
		{"nlp", []string{"natural language processing"}},
	},
	{ // tools
		{"git", nil}, {"github", nil}, {"gitlab", nil}, {"jira", nil}, {"confluence", nil}, {"linux", nil},
	},
}

var softSkills = []string{
	"leadership", "communication", "problem solving", "quick learner",
	"collaboration", "time management", "project management", "email marketing",
}

// 软技能命中即给固定分
const softSkillScore = 40

var (
	skillPatternCache = map[string]*regexp.Regexp{}
)

func init() {
	for _, group := range techSkills {
		for _, s := range group {
			for _, p := range append([]string{s.skill}, s.aliases...) {
				skillPatternCache[p] = wordPattern(p)
			}
		}
	}
	for _, s := range softSkills {
		skillPatternCache[s] = wordPattern(s)
	}
}

func wordPattern(p string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`)
}

func extractSkills(text string) SkillScores {
	lower := strings.ToLower(text)

	type counted struct {
		name  string
		count int
	}
	var counts []counted
	maxCount := 0
	for _, group := range techSkills {
		for _, s := range group {
			total := 0
			for _, p := range append([]string{s.skill}, s.aliases...) {
				total += len(skillPatternCache[p].FindAllStringIndex(lower, -1))
			}
			if total > 0 {
				counts = append(counts, counted{name: s.skill, count: total})
				if total > maxCount {
					maxCount = total
				}
			}
		}
	}

	scores := make(SkillScores, 0, len(counts))
	seen := map[string]bool{}
	for _, c := range counts {
		scores = append(scores, SkillScore{Name: c.name, Score: c.count * 100 / maxCount})
		seen[c.name] = true
	}
	for _, s := range softSkills {
		if !seen[s] && skillPatternCache[s].MatchString(lower) {
			scores = append(scores, SkillScore{Name: s, Score: softSkillScore})
		}
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores
}

// ---------------- 工作年限 ----------------

var (
	presentWord = regexp.MustCompile(`(?i)\b(present|current)\b`)
	yearRange   = regexp.MustCompile(`(?i)\b((?:19|20)\d{2})\s*[-to]+\s*((?:19|20)\d{2})\b`)

	monthName = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec|January|February|March|April|May|June|July|August|September|October|November|December)`
	dateExpr  = `(?:\d{1,2}\s+` + monthName + `\s+\d{4}|` + monthName + `\s+\d{4})`
	dateRange = regexp.MustCompile(`(?i)(` + dateExpr + `)\s*[-to]+\s*(` + dateExpr + `)`)
)

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

func parseMonthYear(s string) (int, time.Month, bool) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", ""))
	if len(fields) < 2 {
		return 0, 0, false
	}
	// 形如 "12 Mar 2021" 时去掉日
	if len(fields) == 3 {
		fields = fields[1:]
	}
	name := strings.ToLower(fields[0])
	if len(name) < 3 {
		return 0, 0, false
	}
	m, ok := monthIndex[name[:3]]
	if !ok {
		return 0, 0, false
	}
	y, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, false
	}
	return y, m, true
}

func (e *Engine) extractExperience(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	t := strings.NewReplacer("–", "-", "—", "-").Replace(text)
	t = presentWord.ReplaceAllString(t, now().Format("Jan 2006"))

	totalMonths := 0
	used := map[string]bool{}

	for _, m := range yearRange.FindAllStringSubmatch(t, -1) {
		key := m[1] + "|" + m[2]
		if used[key] {
			continue
		}
		used[key] = true
		y1, _ := strconv.Atoi(m[1])
		y2, _ := strconv.Atoi(m[2])
		if diff := y2 - y1; diff > 0 && diff <= 10 {
			totalMonths += diff * 12
		}
	}

	for _, m := range dateRange.FindAllStringSubmatch(t, -1) {
		key := m[1] + "|" + m[2]
		if used[key] {
			continue
		}
		used[key] = true
		sy, sm, ok1 := parseMonthYear(m[1])
		ey, em, ok2 := parseMonthYear(m[2])
		if !ok1 || !ok2 {
			continue
		}
		months := (ey-sy)*12 + int(em-sm)
		if months >= 1 && months <= 120 {
			totalMonths += months
		}
	}

	years := float64(totalMonths) / 12
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(years, 'f', 2, 64), 64)
	return rounded
}

// ---------------- 教育经历 ----------------

var (
	educationPattern = regexp.MustCompile(`(?i)` + strings.Join([]string{
		`\bB\.?\s*Tech\b`, `\bM\.?\s*Tech\b`,
		`\bB\.?\s*E\b`, `\bM\.?\s*E\b`,
		`\bB\.?\s*Sc\b`, `\bM\.?\s*Sc\b`,
		`\bB\.?\s*CA\b`, `\bM\.?\s*CA\b`,
		`\bB\.?\s*A\b`, `\bM\.?\s*A\b`,
		`\bB\.?\s*Com\b`, `\bM\.?\s*Com\b`,
		`\bMBA\b`, `\bBBA\b`,
		`\bPh\.?\s*D\b`,
		`\bBachelor of [A-Za-z ]+`,
		`\bMaster of [A-Za-z ]+`,
		`\bHSC\b`, `\bSSC\b`, `\b12th\b`, `\b10th\b`,
		`\bIntermediate\b`, `\bHigher Secondary\b`, `\bHigh School\b`, `\bJunior College\b`,
	}, "|"))
	bulletChars   = regexp.MustCompile(`[•●◆■]`)
	inlineSpaces  = regexp.MustCompile(`[ \t]+`)
	lettersOnly   = regexp.MustCompile(`^[A-Za-z ]+$`)
	headingTokens = map[string]bool{"education": true, "profile": true, "summary": true, "projects": true, "skills": true}
)

func extractEducation(text string) []string {
	out := []string{}
	if strings.TrimSpace(text) == "" {
		return out
	}
	t := bulletChars.ReplaceAllString(text, "-")
	t = strings.ReplaceAll(t, "\r", "\n")
	t = inlineSpaces.ReplaceAllString(t, " ")

	seen := map[string]bool{}
	for _, line := range strings.Split(t, "\n") {
		clean := strings.TrimSpace(line)
		if len(clean) < 4 || headingTokens[strings.ToLower(clean)] {
			continue
		}
		if !educationPattern.MatchString(clean) {
			continue
		}
		// 纯字母的行误判率高，例如 "B EDUCATION"
		if lettersOnly.MatchString(clean) {
			continue
		}
		clean = strings.Join(strings.Fields(clean), " ")
		if !seen[clean] {
			seen[clean] = true
			out = append(out, clean)
		}
	}
	return out
}

// ---------------- 项目 ----------------

var (
	projectHeading  = regexp.MustCompile(`(?im)^\s*(?:PROJECTS?|PROJECT SECTION)\s*:?\s*$`)
	projectBlock    = regexp.MustCompile(`(?ims)^\s*(?:PROJECTS?|PROJECT SECTION)\s*:?\s*$(.+?)(?:^\s*(?:EXPERIENCE|INTERNSHIPS|WORK EXPERIENCE|EDUCATION|SKILLS|CERTIFICATIONS?)\s*:?\s*$|\z)`)
	numberedTitle   = regexp.MustCompile(`^\d+[).]?\s*(.+)`)
	titleLabel      = regexp.MustCompile(`(?i)^title:\s*`)
	multiSpace      = regexp.MustCompile(`\s{2,}`)
	bulletPrefix    = regexp.MustCompile(`^[•\-–]\s*`)
	stackSeparators = regexp.MustCompile(`[,|/]`)
	stackKeywords   = []string{"language used", "languages used", "tech stack", "technologies"}

	invalidProjectTitles = map[string]bool{
		"projects have been completed": true, "responsibilities": true, "roles and responsibilities": true,
		"summary": true, "profile": true, "experience": true, "education": true, "skills": true, "certifications": true,
	}
)

type projectDraft struct {
	title       string
	description []string
	stackText   string
}

func (d *projectDraft) build() (ProjectResult, bool) {
	if d == nil || d.title == "" {
		return ProjectResult{}, false
	}
	title := strings.TrimSpace(d.title)
	title = titleLabel.ReplaceAllString(title, "")
	title = multiSpace.ReplaceAllString(title, " ")
	if invalidProjectTitles[strings.TrimRight(strings.ToLower(title), ".")] {
		return ProjectResult{}, false
	}

	desc := strings.TrimSpace(strings.Join(d.description, " "))
	if desc == "" && d.stackText == "" {
		return ProjectResult{}, false
	}

	stack := []string{}
	if d.stackText != "" {
		set := map[string]bool{}
		for _, s := range stackSeparators.Split(d.stackText, -1) {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" && !set[s] {
				set[s] = true
				stack = append(stack, s)
			}
		}
		sort.Strings(stack)
	}
	return ProjectResult{
		Title:        title,
		Description:  desc,
		LanguageUsed: strings.TrimSpace(d.stackText),
		Stack:        stack,
	}, true
}

func afterColon(line string) string {
	if i := strings.Index(line, ":"); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return strings.TrimSpace(line)
}

func parseProjects(text string) []ProjectResult {
	projects := []ProjectResult{}
	if strings.TrimSpace(text) == "" {
		return projects
	}

	block := text
	if projectHeading.MatchString(text) {
		m := projectBlock.FindStringSubmatch(text)
		if m == nil {
			return projects
		}
		block = m[1]
	}

	var current *projectDraft
	flush := func() {
		if p, ok := current.build(); ok {
			projects = append(projects, p)
		}
	}
	start := func(title string) {
		flush()
		current = &projectDraft{title: strings.TrimSpace(title)}
	}

	for _, raw := range strings.Split(block, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		if m := numberedTitle.FindStringSubmatch(line); m != nil && len(strings.Fields(m[1])) <= 6 {
			start(m[1])
			continue
		}
		if strings.HasPrefix(lower, "title:") {
			start(afterColon(line))
			continue
		}
		if containsAny(lower, stackKeywords) {
			if current == nil {
				current = &projectDraft{}
			}
			current.stackText = afterColon(line)
			continue
		}
		if strings.HasPrefix(lower, "description:") {
			if current == nil {
				current = &projectDraft{}
			}
			current.description = append(current.description, afterColon(line))
			continue
		}

		if current == nil || current.title == "" {
			cleanTitle := strings.TrimRight(lower, ".")
			if strings.Contains(line, ".") || strings.Contains(cleanTitle, " have ") ||
				strings.Contains(cleanTitle, " has ") || strings.Contains(cleanTitle, " been ") ||
				invalidProjectTitles[cleanTitle] {
				continue
			}
			if n := len(strings.Fields(line)); n >= 1 && n <= 5 {
				start(line)
				continue
			}
		}

		if current != nil && current.title != "" {
			current.description = append(current.description, bulletPrefix.ReplaceAllString(line, ""))
		}
	}
	flush()
	return projects
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
