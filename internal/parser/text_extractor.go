// Package parser 内置的规则式简历解析引擎：提取 PDF/DOCX 文本并按启发式规则抽取字段。
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

var (
	// ErrUnsupportedFormat 不支持的文件格式（含旧版 .doc）
	ErrUnsupportedFormat = errors.New("不支持的文件格式")
	// ErrEmptyText 文件中没有可提取的文本
	ErrEmptyText = errors.New("未能从文件中提取到文本")
)

// ExtractText 从文件内容中提取纯文本，ext 形如 ".pdf"
func ExtractText(ext string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(ext) {
	case ".pdf":
		text, err = extractPDFText(data)
	case ".docx":
		text, err = extractDocxText(data)
	case ".txt":
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

func extractPDFText(data []byte) (text string, err error) {
	// 损坏的 PDF 可能让底层库 panic
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("解析 PDF 失败: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("读取 PDF 失败: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, rerr := page.GetTextByRow()
		if rerr != nil {
			// 按行提取失败时退回整页文本
			plain, perr := page.GetPlainText(nil)
			if perr != nil {
				continue
			}
			sb.WriteString(plain)
			sb.WriteString("\n")
			continue
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, w := range row.Content {
				words = append(words, w.S)
			}
			sb.WriteString(strings.Join(words, ""))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("解析 DOCX 失败: %w", err)
	}
	defer doc.Close()

	// GetContent 返回 document.xml 原文，需要自行去掉标签
	content := doc.Editable().GetContent()
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content), nil
}
