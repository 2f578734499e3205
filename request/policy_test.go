package request

import (
	"errors"
	"testing"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    FetchPolicy
		wantErr bool
	}{
		{name: "cache-first", in: "cache-first", want: CacheFirst},
		{name: "cache-only", in: "cache-only", want: CacheOnly},
		{name: "cache-and-network", in: "cache-and-network", want: CacheAndNetwork},
		{name: "no-cache", in: "no-cache", want: NoCache},
		{name: "default", in: "default", want: PolicyDefault},
		{name: "unknown", in: "network-only", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownPolicy) {
					t.Errorf("ParsePolicy(%q) error = %v, want ErrUnknownPolicy", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePolicy(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPolicyStringRoundTrip(t *testing.T) {
	for _, p := range []FetchPolicy{PolicyDefault, CacheFirst, CacheOnly, CacheAndNetwork, NoCache} {
		back, err := ParsePolicy(p.String())
		if err != nil {
			t.Errorf("ParsePolicy(%v.String()) error = %v", p, err)
			continue
		}
		if back != p {
			t.Errorf("round trip %v -> %q -> %v", p, p.String(), back)
		}
	}

	if got := FetchPolicy(99).String(); got != "fetch-policy(99)" {
		t.Errorf("unknown policy String() = %q", got)
	}
}
