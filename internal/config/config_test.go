package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("GEMA_JWT_SECRET", "secret")
	t.Setenv("GEMA_JUDGE_BASE_URL", "https://judge.example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://judge.example.com", cfg.JudgeBaseURL)
	require.Equal(t, time.Second, cfg.JudgePollInterval)
	require.Equal(t, 30*time.Second, cfg.JudgePollDeadline)
	require.Equal(t, 10*time.Second, cfg.JudgeHTTPTimeout)
	require.Equal(t, 20*time.Second, cfg.SubmitCooldown)
	require.Equal(t, 10, cfg.RunRateLimit)
	require.Equal(t, "submission.judged", cfg.NATSSubject)
	require.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("GEMA_JWT_SECRET", "secret")
	t.Setenv("GEMA_JUDGE_BASE_URL", "http://localhost:2358")
	t.Setenv("GEMA_JUDGE_POLL_INTERVAL", "250ms")
	t.Setenv("GEMA_JUDGE_POLL_DEADLINE", "5s")
	t.Setenv("GEMA_SUBMIT_COOLDOWN", "45s")
	t.Setenv("GEMA_APP_PORT", ":9000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, cfg.JudgePollInterval)
	require.Equal(t, 5*time.Second, cfg.JudgePollDeadline)
	require.Equal(t, 45*time.Second, cfg.SubmitCooldown)
	require.Equal(t, ":9000", cfg.HTTPAddress())
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("GEMA_JWT_SECRET", "secret")
	t.Setenv("GEMA_JUDGE_BASE_URL", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("GEMA_JUDGE_BASE_URL", "http://localhost:2358")
	t.Setenv("GEMA_JUDGE_POLL_INTERVAL", "soon")
	_, err = Load()
	require.ErrorContains(t, err, "judge.poll_interval")

	t.Setenv("GEMA_JUDGE_POLL_INTERVAL", "10s")
	t.Setenv("GEMA_JUDGE_POLL_DEADLINE", "1s")
	_, err = Load()
	require.Error(t, err)
}
