package suggest

import "strings"

// botPatterns are substrings that identify automated accounts.
var botPatterns = []string{
	"[bot]",
	"-bot",
	"_bot",
	"bot-",
	"bot_",
	".bot",
	"github-actions",
	"dependabot",
	"renovate",
	"greenkeeper",
	"snyk",
	"codecov",
	"coveralls",
	"travis",
	"circleci",
	"jenkins",
	"buildkite",
	"semaphore",
	"appveyor",
	"azure-pipelines",
	"imgbot",
	"allcontributors",
	"whitesource",
	"mergify",
	"sonarcloud",
	"deepsource",
	"codefactor",
	"codacy",
	"stale",
}

// servicePatterns are substrings that identify organization service accounts.
var servicePatterns = []string{
	"octo-sts",
	"-sts",
	"-svc",
	"-service",
	"-system",
	"-automation",
	"-ci",
	"-cd",
	"-deploy",
	"-release",
	"release-manager",
	"-build",
	"-admin",
	"security-scanner",
	"compliance-checker",
}

// IsBotLogin reports whether a login looks like an automated account.
// Bot-like logins are excluded from every signal: they are never scored,
// never counted as owners, and never measured for latency.
func IsBotLogin(login string) bool {
	if login == "" {
		return true
	}
	lower := strings.ToLower(login)

	for _, pattern := range botPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	for _, pattern := range servicePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
