package difficulty

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestInstructions_AutoHighAccuracy(t *testing.T) {
	got, err := Instructions(Input{Level: LevelB1, RollingAccuracy: 88, Preference: PreferenceAuto})
	if err != nil {
		t.Fatal(err)
	}
	want := "The user is at intermediate level (B1) - use various tenses, more complex vocabulary, compound and complex sentences. " +
		"The user is performing well, so gradually introduce more advanced concepts."
	if got != want {
		t.Errorf("got\n%q\nwant\n%q", got, want)
	}
}

func TestInstructions_AutoThresholds(t *testing.T) {
	tests := []struct {
		accuracy    float64
		wantAdvance bool
		wantSupport bool
	}{
		{100, true, false},
		{85, true, false},
		{84.99, false, false},
		{70, false, false},
		{69.99, false, true},
		{0, false, true},
	}
	for _, tt := range tests {
		got, err := Instructions(Input{Level: LevelA2, RollingAccuracy: tt.accuracy, Preference: PreferenceAuto})
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(got, advanceNudge) != tt.wantAdvance {
			t.Errorf("accuracy %v: advance nudge present = %v", tt.accuracy, !tt.wantAdvance)
		}
		if strings.Contains(got, supportNudge) != tt.wantSupport {
			t.Errorf("accuracy %v: support nudge present = %v", tt.accuracy, !tt.wantSupport)
		}
	}
}

func TestInstructions_ExplicitPreferenceIgnoresAccuracy(t *testing.T) {
	auto, _ := Instructions(Input{Level: LevelB1, RollingAccuracy: 95, Preference: PreferenceAuto})
	simple, err := Instructions(Input{Level: LevelB1, RollingAccuracy: 95, Preference: PreferenceSimple})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(auto, "introduce more advanced concepts") {
		t.Fatalf("auto output lacks advance nudge: %q", auto)
	}
	if strings.Contains(simple, "introduce more advanced concepts") {
		t.Errorf("simple output kept the advance nudge: %q", simple)
	}
	if !strings.Contains(simple, "Keep responses simple and clear.") {
		t.Errorf("simple output lacks simple phrase: %q", simple)
	}

	low, _ := Instructions(Input{Level: LevelB1, RollingAccuracy: 10, Preference: PreferenceSimple})
	if low != simple {
		t.Errorf("explicit preference output changed with accuracy:\n%q\n%q", low, simple)
	}
}

func TestInstructions_PreferencePhrases(t *testing.T) {
	for pref, phrase := range preferencePhrases {
		got, err := Instructions(Input{Level: LevelC1, RollingAccuracy: 50, Preference: pref})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasSuffix(got, phrase) {
			t.Errorf("%s: got %q, want suffix %q", pref, got, phrase)
		}
	}
}

func TestInstructions_WeakTopicsOrderAndPlacement(t *testing.T) {
	got, err := Instructions(Input{
		Level:           LevelA1,
		RollingAccuracy: 60,
		Preference:      PreferenceAuto,
		WeakTopics:      []string{"dative", "separable verbs"},
	})
	if err != nil {
		t.Fatal(err)
	}

	register := strings.Index(got, "beginner level (A1)")
	nudge := strings.Index(got, supportNudge)
	focus := strings.Index(got, "Focus on helping with these grammar topics: dative, separable verbs.")
	if register < 0 || nudge < 0 || focus < 0 {
		t.Fatalf("missing part in %q", got)
	}
	if !(register < nudge && nudge < focus) {
		t.Errorf("parts out of order in %q", got)
	}
}

func TestInstructions_Deterministic(t *testing.T) {
	in := Input{Level: LevelB2, RollingAccuracy: 77.5, Preference: PreferenceModerate, WeakTopics: []string{"konjunktiv"}}
	first, _ := Instructions(in)
	for i := 0; i < 50; i++ {
		got, _ := Instructions(in)
		if got != first {
			t.Fatalf("run %d differs:\n%q\n%q", i, got, first)
		}
	}
}

func TestInstructions_EveryLevelHasRegister(t *testing.T) {
	for _, lv := range Levels {
		got, err := Instructions(Input{Level: lv, RollingAccuracy: 75, Preference: PreferenceAuto})
		if err != nil {
			t.Fatalf("%s: %v", lv, err)
		}
		if !strings.Contains(got, "("+string(lv)+")") {
			t.Errorf("%s: register missing from %q", lv, got)
		}
	}
}

func TestInstructions_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{"unknown level", Input{Level: "D1", Preference: PreferenceAuto}},
		{"empty level", Input{Preference: PreferenceAuto}},
		{"unknown preference", Input{Level: LevelA1, Preference: "wild"}},
		{"negative accuracy", Input{Level: LevelA1, Preference: PreferenceAuto, RollingAccuracy: -1}},
		{"accuracy above 100", Input{Level: LevelA1, Preference: PreferenceAuto, RollingAccuracy: 100.5}},
		{"NaN accuracy", Input{Level: LevelA1, Preference: PreferenceAuto, RollingAccuracy: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Instructions(tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestParseLevelAndPreference(t *testing.T) {
	if lv, err := ParseLevel(" b2 "); err != nil || lv != LevelB2 {
		t.Errorf("ParseLevel = %q, %v", lv, err)
	}
	if _, err := ParseLevel("Z9"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	if p, err := ParsePreference("AUTO"); err != nil || p != PreferenceAuto {
		t.Errorf("ParsePreference = %q, %v", p, err)
	}
	if _, err := ParsePreference("spicy"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	if LevelA1.Rank() >= LevelC2.Rank() {
		t.Error("levels out of order")
	}
}
