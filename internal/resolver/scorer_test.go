package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCleanCompanyName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"Acme Corp", "acme"},
		{"Acme GmbH", "acme"},
		{"Müller & Sons Ltd.", "mllersons"},
		{"Data-Soft Inc", "datasoft"},
		{"Plain", "plain"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CleanCompanyName(tc.in), "input %q", tc.in)
	}
}

func TestScoreDomain(t *testing.T) {
	t.Parallel()

	t.Run("exact label", func(t *testing.T) {
		require.Equal(t, 100, ScoreDomain("Acme Corp", "acme.example"))
	})

	t.Run("containment", func(t *testing.T) {
		require.Equal(t, 85, ScoreDomain("Acme Corp", "acme-supplies.example"))
	})

	t.Run("social penalty", func(t *testing.T) {
		plain := ScoreDomain("LinkedIn", "linkedin.com")
		require.Equal(t, 100-socialPenalty, plain)
	})

	t.Run("short names are neutral", func(t *testing.T) {
		require.Equal(t, neutralScore, ScoreDomain("AB", "whatever.example"))
	})

	t.Run("unrelated", func(t *testing.T) {
		require.Equal(t, 0, ScoreDomain("Zyxwv Holdings", "unrelated.example"))
	})

	t.Run("deterministic", func(t *testing.T) {
		first := ScoreDomain("Acme Corp", "acme.example")
		for i := 0; i < 5; i++ {
			require.Equal(t, first, ScoreDomain("Acme Corp", "acme.example"))
		}
	})
}

func TestBackoffBounds(t *testing.T) {
	t.Parallel()

	b := NewBackoff(100*time.Millisecond, time.Second)
	for attempt := 1; attempt <= 8; attempt++ {
		d := b.Delay(attempt)
		require.Greater(t, d, time.Duration(0))
		require.LessOrEqual(t, d, time.Second, "delay must respect the cap")
	}
	// First attempt waits at least half the base delay.
	require.GreaterOrEqual(t, b.Delay(1), 50*time.Millisecond)
}
