package leads

import "testing"

func TestValidName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"empty", "", false},
		{"single char", "J", false},
		{"two chars", "Jo", true},
		{"full name", "Jordan Lee", true},
		{"two accented runes", "Ñá", true},
		{"one multibyte rune", "é", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidName(tt.input); got != tt.want {
				t.Fatalf("ValidName(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.com", "jordan@example.com", "Jordan.Lee+baja@sub.example.mx"}
	invalid := []string{"", "not-an-email", "a@b", "a b@c.com", "@b.com", "a@@b.com", "a@b.com "}

	for _, email := range valid {
		if !ValidEmail(email) {
			t.Errorf("expected %q to be valid", email)
		}
	}
	for _, email := range invalid {
		if ValidEmail(email) {
			t.Errorf("expected %q to be invalid", email)
		}
	}
}

func TestCanonicalPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string // empty means nil
	}{
		{"(619) 555-0100", "6195550100"},
		{"+52 646 123 4567", "526461234567"},
		{"6195550100", "6195550100"},
		{"555-0100", ""},
		{"", ""},
		{"skipped", ""},
		{"call me", ""},
	}
	for _, tt := range tests {
		got := CanonicalPhone(tt.input)
		switch {
		case tt.want == "" && got != nil:
			t.Errorf("CanonicalPhone(%q) = %q, want nil", tt.input, *got)
		case tt.want != "" && (got == nil || *got != tt.want):
			t.Errorf("CanonicalPhone(%q) = %v, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCanonicalPhoneIdempotent(t *testing.T) {
	inputs := []string{"(619) 555-0100", "+1 (858) 758-7768", "52.646.123.4567", "12345678901234"}
	for _, in := range inputs {
		once := CanonicalPhone(in)
		if once == nil {
			t.Fatalf("expected %q to canonicalize", in)
		}
		twice := CanonicalPhone(*once)
		if twice == nil || *twice != *once {
			t.Fatalf("canonicalizing %q twice changed it: %q -> %v", in, *once, twice)
		}
	}
}

func TestResolveSource(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		referer   string
		want      string
	}{
		{"known source wins", "lead_magnet", "https://site.example/landing", SourceLeadMagnet},
		{"known source normalized", " Construction ", "", SourceConstruction},
		{"landing referer", "", "https://site.example/landing/baja", SourceLandingPage},
		{"referral referer", "partner", "https://site.example/?via=referral", SourceReferral},
		{"no hints", "", "", SourceDirect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveSource(tt.requested, tt.referer); got != tt.want {
				t.Fatalf("ResolveSource(%q, %q) = %q, want %q", tt.requested, tt.referer, got, tt.want)
			}
		})
	}
}

func TestCustomFieldsPromotion(t *testing.T) {
	score := 80.0
	req := SubmitRequest{
		Answers: map[string]any{
			"lotOwnership":  "yes",
			"timeline":      "soon",
			"budget":        "450-650",
			"decisionMaker": "joint",
		},
		Timeline:       "immediately",
		ReadinessScore: &score,
	}

	fields := req.CustomFields()
	if fields["timeline"] != "immediately" {
		t.Errorf("expected direct timeline to win, got %v", fields["timeline"])
	}
	if fields["budget"] != "450-650" {
		t.Errorf("expected budget from answers, got %v", fields["budget"])
	}
	if fields["style"] != nil {
		t.Errorf("expected missing style to be nil, got %v", fields["style"])
	}
	if fields["decision_maker"] != "joint" {
		t.Errorf("expected decision_maker promoted, got %v", fields["decision_maker"])
	}
	if fields["lotOwnership"] != "yes" {
		t.Errorf("expected answers merged, got %v", fields["lotOwnership"])
	}
	if fields["readiness_score"] != 80.0 {
		t.Errorf("expected readiness score, got %v", fields["readiness_score"])
	}
}

func TestFirstForwardedIP(t *testing.T) {
	if got := FirstForwardedIP("203.0.113.9, 10.0.0.1"); got != "203.0.113.9" {
		t.Fatalf("unexpected ip %q", got)
	}
	if got := FirstForwardedIP(""); got != "" {
		t.Fatalf("expected empty ip, got %q", got)
	}
}
