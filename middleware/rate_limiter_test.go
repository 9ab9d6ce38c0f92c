package middleware

import "testing"

func TestEnvFloat(t *testing.T) {
	t.Setenv("TEST_RATE_FLOAT", "2.5")
	if got := envFloat("TEST_RATE_FLOAT", 5); got != 2.5 {
		t.Errorf("envFloat = %v, want 2.5", got)
	}

	t.Setenv("TEST_RATE_FLOAT", "not-a-number")
	if got := envFloat("TEST_RATE_FLOAT", 5); got != 5 {
		t.Errorf("envFloat with garbage = %v, want fallback 5", got)
	}

	t.Setenv("TEST_RATE_FLOAT", "-1")
	if got := envFloat("TEST_RATE_FLOAT", 5); got != 5 {
		t.Errorf("envFloat with negative = %v, want fallback 5", got)
	}

	if got := envFloat("TEST_RATE_FLOAT_UNSET", 5); got != 5 {
		t.Errorf("envFloat unset = %v, want fallback 5", got)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("TEST_RATE_INT", "60")
	if got := envInt("TEST_RATE_INT", 30); got != 60 {
		t.Errorf("envInt = %d, want 60", got)
	}

	t.Setenv("TEST_RATE_INT", "0")
	if got := envInt("TEST_RATE_INT", 30); got != 30 {
		t.Errorf("envInt with zero = %d, want fallback 30", got)
	}

	if got := envInt("TEST_RATE_INT_UNSET", 30); got != 30 {
		t.Errorf("envInt unset = %d, want fallback 30", got)
	}
}
