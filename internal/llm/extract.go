package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const rawPrefixLen = 200

var (
	// ErrEmptyResponse 模型返回了空内容
	ErrEmptyResponse = errors.New("empty response")
	// ErrMissingField 结构化结果缺少必填字段
	ErrMissingField = errors.New("missing required field")

	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	anyJSON    = regexp.MustCompile(`(?s)\{.*\}`)
)

// ParseError 模型有响应但无法解析，Raw 为原文前缀
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not extract JSON from response: %v: %s", e.Err, e.Raw)
	}
	return fmt.Sprintf("could not extract JSON from response: %s", e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError 截取原文前缀构造解析错误
func NewParseError(text string, err error) *ParseError {
	raw := text
	if r := []rune(raw); len(r) > rawPrefixLen {
		raw = string(r[:rawPrefixLen])
	}
	return &ParseError{Raw: raw, Err: err}
}

// ExtractJSON 依次尝试整体解析、代码块、首尾花括号三种形式
func ExtractJSON(text string, out any) error {
	trimmed := strings.TrimSpace(text)
	if json.Unmarshal([]byte(trimmed), out) == nil {
		return nil
	}
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		if json.Unmarshal([]byte(m[1]), out) == nil {
			return nil
		}
	}
	if m := anyJSON.FindString(text); m != "" {
		if json.Unmarshal([]byte(m), out) == nil {
			return nil
		}
	}
	return NewParseError(text, nil)
}
