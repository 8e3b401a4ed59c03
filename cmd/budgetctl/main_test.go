package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestAsOf(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("date", "2024-03-09")
	got, err := asOf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}

	viper.Set("date", "09/03/2024")
	if _, err := asOf(); err == nil {
		t.Error("expected error for a non ISO date")
	}

	viper.Set("date", "")
	got, err = asOf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hour() != 0 || got.Location() != time.UTC {
		t.Errorf("expected a UTC day, got %s", got)
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"close-period", "close-due", "generate-alerts", "suggest"} {
		if cmd, _, err := rootCmd.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("expected command %q to be registered", name)
		}
	}
}
