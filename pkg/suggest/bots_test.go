package suggest

import "testing"

func TestIsBotLogin(t *testing.T) {
	tests := []struct {
		login string
		want  bool
	}{
		// Human accounts.
		{"alice", false},
		{"bob-smith", false},
		{"octocat", false},
		{"jrobot", false}, // "bot" substring alone is not enough
		{"abbott", false},

		// Bracketed bot suffix.
		{"dependabot[bot]", true},
		{"github-actions[bot]", true},

		// Separator-delimited bot markers.
		{"deploy-bot", true},
		{"bot-deployer", true},
		{"ci_bot", true},
		{"bot_runner", true},
		{"team.bot", true},

		// Known automation services.
		{"renovate", true},
		{"greenkeeper", true},
		{"snyk-security", true},
		{"codecov-commenter", true},
		{"mergify", true},
		{"stale", true},

		// Organization service accounts.
		{"acme-ci", true},
		{"infra-deploy", true},
		{"platform-automation", true},
		{"release-manager", true},
		{"octo-sts", true},

		// Case-insensitive.
		{"Dependabot[BOT]", true},
		{"RENOVATE", true},

		// Empty login is treated as automated.
		{"", true},
	}

	for _, tt := range tests {
		name := tt.login
		if name == "" {
			name = "(empty)"
		}
		t.Run(name, func(t *testing.T) {
			if got := IsBotLogin(tt.login); got != tt.want {
				t.Errorf("IsBotLogin(%q) = %v, want %v", tt.login, got, tt.want)
			}
		})
	}
}
