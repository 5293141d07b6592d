package util

import (
	"strings"
	"time"
)

var kst = time.FixedZone("KST", 9*60*60)

// FormatKST renders t in Korea Standard Time.
func FormatKST(t time.Time, layout string) string {
	return t.In(kst).Format(layout)
}

// 첫 줄에 중복된 헤더가 있으면 제거한다.
func StripLeadingHeader(text, header string) string {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(header) == "" {
		return text
	}
	for _, candidate := range []string{header + "\r\n\r\n", header + "\n\n", header + "\r\n", header + "\n", header} {
		if strings.HasPrefix(text, candidate) {
			return strings.TrimPrefix(text, candidate)
		}
	}
	return text
}
