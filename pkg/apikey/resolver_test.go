package apikey

import (
	"errors"
	"testing"

	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
)

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name      string
		override  string
		primary   string
		secondary string
		want      string
		wantErr   error
	}{
		{
			name:     "override wins over server keys",
			override: "overridekey1234567890",
			primary:  "primarykey01234567890",
			want:     "overridekey1234567890",
		},
		{
			name:    "empty override falls through to primary",
			primary: "validlongkey1234567890",
			want:    "validlongkey1234567890",
		},
		{
			name:      "short override falls through",
			override:  "short",
			primary:   "",
			secondary: "secondarykey234567890",
			want:      "secondarykey234567890",
		},
		{
			name:     "quoted and padded key is sanitized",
			override: ` "AIzaValidTestKey1234567890" `,
			want:     "AIzaValidTestKey1234567890",
		},
		{
			name:     "no usable candidate",
			override: "short",
			primary:  "also short",
			wantErr:  domain.ErrMissingCredential,
		},
		{
			name:    "whitespace-only primary is unusable",
			primary: "   \t  ",
			wantErr: domain.ErrMissingCredential,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := NewResolver(test.primary, test.secondary)

			got, err := r.Resolve(test.override)
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("expected error %v, got %v", test.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != test.want {
				t.Errorf("expected %q, got %q", test.want, got)
			}
		})
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"AIzaValidTestKey1234567890", "AIza****7890"},
		{"tiny", "****"},
		{"", "****"},
	}

	for _, test := range tests {
		if got := Mask(test.key); got != test.want {
			t.Errorf("Mask(%q) = %q, want %q", test.key, got, test.want)
		}
	}
}
