package models

import (
	"errors"
	"testing"
	"time"
)

func TestCredentialExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tc := []struct {
		name      string
		expiresIn int
		want      time.Duration
	}{
		{name: "provider grants an hour", expiresIn: 3600, want: time.Hour},
		{name: "provider grants two hours", expiresIn: 7200, want: time.Hour},
		{name: "shorter than ceiling", expiresIn: 1800, want: 30 * time.Minute},
		{name: "zero", expiresIn: 0, want: 0},
		{name: "negative", expiresIn: -10, want: 0},
		{name: "lifetime that overflows a duration", expiresIn: 10_000_000_000, want: time.Hour},
		{name: "maximum lifetime", expiresIn: 1 << 62, want: time.Hour},
		{name: "minimum lifetime", expiresIn: -(1 << 62), want: 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := CredentialExpiry(now, tt.expiresIn).Sub(now); got != tt.want {
				t.Errorf("lifetime = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLinkedCredentialState(t *testing.T) {
	now := time.Now()
	deleted := now.Add(-time.Minute)

	tc := []struct {
		name string
		cred LinkedCredential
		want CredentialState
	}{
		{
			name: "active",
			cred: LinkedCredential{OwnerID: "u1", AccessToken: "tok", ExpiresAt: now.Add(time.Minute)},
			want: CredentialActive,
		},
		{
			name: "expired with token present",
			cred: LinkedCredential{OwnerID: "u1", AccessToken: "tok", ExpiresAt: now.Add(-time.Second)},
			want: CredentialExpired,
		},
		{
			name: "expires exactly now",
			cred: LinkedCredential{OwnerID: "u1", AccessToken: "tok", ExpiresAt: now},
			want: CredentialExpired,
		},
		{
			name: "soft deleted",
			cred: LinkedCredential{OwnerID: "u1", ExpiresAt: now.Add(time.Minute), DeletedAt: &deleted},
			want: CredentialUnlinked,
		},
		{
			name: "token nulled",
			cred: LinkedCredential{OwnerID: "u1", ExpiresAt: now.Add(time.Minute)},
			want: CredentialUnlinked,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cred.State(now); got != tt.want {
				t.Errorf("State() = %s, want %s", got, tt.want)
			}
			if got := tt.cred.Valid(now); got != (tt.want == CredentialActive) {
				t.Errorf("Valid() = %v for state %s", got, tt.want)
			}
		})
	}

	t.Run("nil credential is not valid", func(t *testing.T) {
		var c *LinkedCredential
		if c.Valid(now) {
			t.Error("nil credential should not be valid")
		}
	})
}

func TestLinkedCredentialValidate(t *testing.T) {
	now := time.Now()

	t.Run("new credential respects ceiling", func(t *testing.T) {
		c := NewLinkedCredential("u1", "spotify-1", "access", "refresh", 7200, now)
		if err := c.Validate(); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if got := c.ExpiresAt.Sub(c.CreatedAt); got != MaxCredentialLifetime {
			t.Errorf("stored lifetime = %s, want %s", got, MaxCredentialLifetime)
		}
	})

	t.Run("missing owner", func(t *testing.T) {
		c := NewLinkedCredential("", "spotify-1", "access", "refresh", 60, now)
		if err := c.Validate(); !errors.Is(err, ErrMissingOwner) {
			t.Errorf("Validate() = %v, want ErrMissingOwner", err)
		}
	})

	t.Run("ceiling violation", func(t *testing.T) {
		c := NewLinkedCredential("u1", "spotify-1", "access", "refresh", 60, now)
		c.ExpiresAt = now.Add(2 * time.Hour)
		if err := c.Validate(); !errors.Is(err, ErrLifetimeExceeded) {
			t.Errorf("Validate() = %v, want ErrLifetimeExceeded", err)
		}
	})
}

func TestParseMood(t *testing.T) {
	tc := []struct {
		in      string
		want    Mood
		wantErr bool
	}{
		{in: "Happy", want: MoodHappy},
		{in: "calm", want: MoodCalm},
		{in: " ENERGIZED ", want: MoodEnergized},
		{in: "bored", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMood(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseMood(%q) expected error", tt.in)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseMood(%q) = %s, %v; want %s", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestMoodHelpers(t *testing.T) {
	for _, m := range Moods() {
		if m.Color() == "" {
			t.Errorf("mood %s has no color", m)
		}
	}
	if ClampIntensity(-4) != 0 || ClampIntensity(140) != 100 || ClampIntensity(42) != 42 {
		t.Error("ClampIntensity should bound to 0..100")
	}
}

func TestTrackArtistNames(t *testing.T) {
	tr := Track{Artists: []Artist{{Name: "Dua Lipa"}, {Name: "DaBaby"}}}
	if got := tr.ArtistNames(); got != "Dua Lipa, DaBaby" {
		t.Errorf("ArtistNames() = %q", got)
	}
}
