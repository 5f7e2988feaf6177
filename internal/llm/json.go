package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeJSON unmarshals the JSON payload found in a model reply.
func decodeJSON(reply string, result any) error {
	if err := json.Unmarshal([]byte(extractJSON(reply)), result); err != nil {
		return fmt.Errorf("parsing JSON response: %w (content: %s)", err, reply)
	}
	return nil
}

// extractJSON returns the JSON part of a reply. Models often wrap it in a
// markdown fence or surround it with prose.
func extractJSON(s string) string {
	if body, ok := fenced(s); ok {
		return body
	}
	if start := strings.IndexAny(s, "{["); start >= 0 {
		if end := closingBracket(s, start); end > 0 {
			return s[start : end+1]
		}
	}
	return s
}

// fenced returns the body of the first ``` block, dropping a language tag.
func fenced(s string) (string, bool) {
	const fence = "```"
	open := strings.Index(s, fence)
	if open < 0 {
		return "", false
	}
	rest := s[open+len(fence):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{[") {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, fence)
	if end < 0 {
		return "", false
	}
	return strings.TrimRight(rest[:end], "\r\n"), true
}

// closingBracket finds the bracket matching s[start], skipping brackets
// inside string literals. It returns -1 when the value is unterminated.
func closingBracket(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
