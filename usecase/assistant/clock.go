package assistant

import (
	"regexp"
	"strings"
	"time"
)

// Formats accepted by CurrentTimeMessage.
const (
	TimeFormatFull = "full"
	TimeFormatDate = "date"
	TimeFormatTime = "time"
)

var (
	timeWords = regexp.MustCompile(`(?i)\b(time|clock|today|tonight|tomorrow|yesterday|now|date|when|weekday|what day)\b`)
	// CJK text has no word boundaries, so these match as substrings.
	timeKeywordsCJK = []string{"时间", "几点", "今天", "现在", "何时", "时候", "日期", "星期", "礼拜", "号"}
)

// IsTimeSensitive reports whether the message asks about the current time
// or date, in which case the request carries a time system message.
func IsTimeSensitive(text string) bool {
	if timeWords.MatchString(text) {
		return true
	}
	for _, kw := range timeKeywordsCJK {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// CurrentTimeMessage renders now for injection as a system message.
func CurrentTimeMessage(now time.Time, format string) string {
	switch format {
	case TimeFormatTime:
		return "Current exact time: " + now.Format("15:04:05")
	case TimeFormatDate:
		return "Current date: " + now.Format("2006/1/2")
	default:
		return "Current exact time: " + now.Format("2006/01/02 15:04:05")
	}
}
