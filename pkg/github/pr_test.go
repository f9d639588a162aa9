package github

import "testing"

func TestParsePRURL(t *testing.T) {
	tests := []struct {
		ref        string
		wantOwner  string
		wantRepo   string
		wantNumber int
		wantErr    bool
	}{
		{"https://github.com/acme/widgets/pull/42", "acme", "widgets", 42, false},
		{"https://github.com/acme/widgets/pull/42/", "acme", "widgets", 42, false},
		{"acme/widgets#42", "acme", "widgets", 42, false},
		{"org-name/repo.name#7", "org-name", "repo.name", 7, false},

		{"https://github.com/acme/widgets", "", "", 0, true},
		{"https://github.com/acme/widgets/pull/abc", "", "", 0, true},
		{"acme/widgets", "", "", 0, true},
		{"acme#42", "", "", 0, true},
		{"acme/widgets#", "", "", 0, true},
		{"acme/widgets#notanumber", "", "", 0, true},
		{"", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			owner, repo, number, err := ParsePRURL(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.ref)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePRURL(%q) failed: %v", tt.ref, err)
			}
			if owner != tt.wantOwner || repo != tt.wantRepo || number != tt.wantNumber {
				t.Errorf("ParsePRURL(%q) = (%s, %s, %d), want (%s, %s, %d)",
					tt.ref, owner, repo, number, tt.wantOwner, tt.wantRepo, tt.wantNumber)
			}
		})
	}
}
