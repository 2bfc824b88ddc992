package genlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"lyricvideo/internal/model"
)

const width = 80

var (
	heavyRule = strings.Repeat("=", width)
	lightRule = strings.Repeat("-", width)
)

// Logger 单次任务的生成日志，写入失败只记录告警，不影响生成流程
type Logger struct {
	mu   sync.Mutex
	path string
	f    *os.File
	log  *logrus.Entry
}

// Open 创建并清空日志文件
func Open(path string) *Logger {
	l := &Logger{path: path, log: logrus.WithFields(logrus.Fields{"component": "genlog", "path": path})}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.log.WithError(err).Warn("generation log disabled")
		return l
	}
	f, err := os.Create(path)
	if err != nil {
		l.log.WithError(err).Warn("generation log disabled")
		return l
	}
	l.f = f
	l.write(heavyRule + "\nLYRIC VIDEO GENERATION LOG\n" + heavyRule + "\n\n")
	return l
}

// Path 日志文件路径
func (l *Logger) Path() string { return l.path }

func (l *Logger) write(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return
	}
	if _, err := l.f.WriteString(s); err != nil {
		l.log.WithError(err).Warn("generation log write failed")
	}
}

// Log 追加一行
func (l *Logger) Log(content string) {
	l.write(content + "\n")
}

// Section 一级标题
func (l *Logger) Section(title string) {
	l.Log("\n" + heavyRule)
	l.Log(title)
	l.Log(heavyRule + "\n")
}

// Subsection 二级标题
func (l *Logger) Subsection(title string) {
	l.Log("\n" + lightRule)
	l.Log(title)
	l.Log(lightRule + "\n")
}

func (l *Logger) StyleGuide(g model.StyleGuide) {
	l.Section("STYLE GUIDE GENERATION")
	l.Log(fmt.Sprintf("Visual Style:\n%s\n", g.VisualStyle))
	l.Log(fmt.Sprintf("Story Context:\n%s\n", g.SegmentStory))
	l.Log(fmt.Sprintf("Conversation: %t\n", g.IsConversation))
}

func (l *Logger) CharacterDesigns(refs []model.CharacterReference) {
	l.Section("CHARACTER DESIGNS GENERATED")
	for _, r := range refs {
		l.Log(fmt.Sprintf("%s: %s", roleTitle(r.Role), r.ImagePath))
	}
	l.Log("")
}

func (l *Logger) LineStart(lineNumber int, english, korean string) {
	l.Section(fmt.Sprintf("LINE %d: %s", lineNumber, english))
	l.Log(fmt.Sprintf("Korean: %s\n", korean))
}

// PromptGeneration reasoning 为空时不输出
func (l *Logger) PromptGeneration(prompt, reasoning string) {
	l.Subsection("CLAUDE PROMPT GENERATION")
	if reasoning != "" {
		l.Log(fmt.Sprintf("Creative Reasoning:\n%s\n", reasoning))
	}
	l.Log(fmt.Sprintf("Seedream Prompt:\n%s\n", prompt))
}

func (l *Logger) ReferenceSelection(indices []int, reasoning string, available int) {
	l.Subsection("REFERENCE SELECTION")
	if available > 0 {
		l.Log(fmt.Sprintf("Available images: 0-%d", available-1))
	} else {
		l.Log("Available images: none")
	}
	l.Log(fmt.Sprintf("Selected indices: %s", formatIndices(indices)))
	l.Log(fmt.Sprintf("Reasoning:\n%s\n", reasoning))
}

func (l *Logger) GenerationResult(success bool, elapsed time.Duration, imagePath string) {
	status := "FAILED"
	if success {
		status = "SUCCESS"
	}
	l.Subsection("GENERATION RESULT")
	l.Log("Status: " + status)
	l.Log(fmt.Sprintf("Generation Time: %.2fs", elapsed.Seconds()))
	l.Log(fmt.Sprintf("Image Path: %s\n", imagePath))
}

func (l *Logger) Summary(total int, elapsed time.Duration) {
	avg := 0.0
	if total > 0 {
		avg = elapsed.Seconds() / float64(total)
	}
	l.Section("GENERATION SUMMARY")
	l.Log(fmt.Sprintf("Total Images Generated: %d", total))
	l.Log(fmt.Sprintf("Total Time: %.2fs", elapsed.Seconds()))
	l.Log(fmt.Sprintf("Average Time per Image: %.2fs\n", avg))
}

// Close 关闭文件，之后的写入被忽略
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

func roleTitle(r model.Role) string {
	s := string(r)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatIndices(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprint(idx)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
