package analysis

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/reusedev/doc-hub/internal/modules/ai/vision"
	"github.com/reusedev/doc-hub/internal/modules/history"
	"github.com/reusedev/doc-hub/internal/modules/model"
)

const defaultSystem = "You are a document assistant. Answer using only what the attached page images show. " +
	"When the answer comes from a specific page, name the page number."

// fingerprint identifies a question about a set of pages independent of who
// asked it, so repeated questions can be answered from cache.
func fingerprint(documentId int, pages []int, prompt, modelName, system string) string {
	s := fmt.Sprintf("%d|%s|%s|%s|%s", documentId, model.JoinPageIndexes(pages), modelName, system, strings.TrimSpace(prompt))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(s)).String()
}

type pageContext struct {
	Index     int
	TextLayer string
	OCR       string
}

// buildPrompt appends the extracted text of each page to the question.
func buildPrompt(prompt string, pages []pageContext) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(prompt))
	for _, p := range pages {
		text := strings.TrimSpace(p.TextLayer)
		source := "embedded text"
		if text == "" {
			text = strings.TrimSpace(p.OCR)
			source = "ocr"
		}
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "\n\n[page %d %s]\n%s", p.Index, source, text)
	}
	return b.String()
}

func joinOCR(pages []pageContext) string {
	var parts []string
	for _, p := range pages {
		if p.OCR != "" {
			parts = append(parts, fmt.Sprintf("[page %d]\n%s", p.Index, p.OCR))
		}
	}
	return strings.Join(parts, "\n\n")
}

func historyMessages(turns []history.Turn) []vision.Message {
	ret := make([]vision.Message, 0, len(turns))
	for _, t := range turns {
		ret = append(ret, vision.Message{Role: t.Role, Text: t.Text})
	}
	return ret
}

func systemPrompt(system string) string {
	if strings.TrimSpace(system) == "" {
		return defaultSystem
	}
	return system
}
