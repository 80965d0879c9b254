package botdefense

import (
	"net/http"
	"strings"
)

// user-agent fragments that scripts and scrapers send
var botPatterns = []string{
	"bot",
	"crawler",
	"spider",
	"scrapy",
	"headless",
	"phantomjs",
	"python-requests",
	"wget",
}

var browserIndicators = []string{
	"mozilla",
	"chrome",
	"safari",
	"firefox",
}

// path fragments that only show up in probes
var suspiciousPatterns = []string{
	".php",
	".asp",
	".cgi",
	"../",
	"..%2f",
	"%00",
	"<script",
	"union+select",
}

// what made a request look automated
type Signals struct {
	EmptyUserAgent  bool
	BotPatternMatch string
	MissingHeaders  []string
	Score           int
}

// scores a request for bot indicators; higher is more likely a bot
func Detect(r *http.Request) Signals {
	var s Signals

	ua := strings.ToLower(r.Header.Get("User-Agent"))

	if ua == "" {
		s.EmptyUserAgent = true
		s.Score += 50
	}

	for _, pattern := range botPatterns {
		if strings.Contains(ua, pattern) {
			s.BotPatternMatch = pattern
			s.Score += 40
			break
		}
	}

	for _, h := range []string{"Accept", "Accept-Language", "Accept-Encoding"} {
		if r.Header.Get(h) == "" {
			s.MissingHeaders = append(s.MissingHeaders, h)
			s.Score += 10
		}
	}

	// real browsers get the benefit of the doubt
	if len(s.MissingHeaders) == 0 && hasBrowserIndicator(ua) {
		s.Score = max(s.Score-20, 0)
	}

	return s
}

func hasBrowserIndicator(ua string) bool {
	for _, indicator := range browserIndicators {
		if strings.Contains(ua, indicator) {
			return true
		}
	}

	return false
}

func IsSuspiciousPath(path string) bool {
	lower := strings.ToLower(path)

	for _, pattern := range suspiciousPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	return false
}
