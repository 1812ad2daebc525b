package normalize

import (
	"strings"
	"testing"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

func TestPromptCollapsesWhitespace(t *testing.T) {
	got := Prompt(models.ContentText, "  Explain   the\tsubjunctive \n mood ")
	want := "explain the subjunctive mood"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPromptStripsFiller(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Could you please explain verb conjugation", "explain verb conjugation"},
		{"explain verb conjugation, thanks", "explain verb conjugation,"},
		{"I think maybe write a short dialogue", "write a short dialogue"},
	}
	for _, tc := range cases {
		if got := Prompt(models.ContentText, tc.in); got != tc.want {
			t.Errorf("Prompt(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPromptKeepsFillerLikeSubstrings(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"I am pleased with my progress", "i am pleased with my progress"},
		{"describe a thanksgiving dinner", "describe a thanksgiving dinner"},
		{"a slogan for maybelline", "a slogan for maybelline"},
	}
	for _, tc := range cases {
		if got := Prompt(models.ContentText, tc.in); got != tc.want {
			t.Errorf("Prompt(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFingerprintDistinguishesFillerLikeWords(t *testing.T) {
	a := Fingerprint(models.ContentText, "i am pleased", models.GenerationOptions{})
	b := Fingerprint(models.ContentText, "i am d", models.GenerationOptions{})
	if a == b {
		t.Error("distinct prompts should not share a fingerprint")
	}
}

func TestPromptEquivalentInputsShareForm(t *testing.T) {
	a := Prompt(models.ContentText, "Please explain   the past tense")
	b := Prompt(models.ContentText, "explain the past tense")
	if a != b {
		t.Errorf("equivalent prompts normalized differently: %q vs %q", a, b)
	}
}

func TestPromptTruncation(t *testing.T) {
	long := strings.Repeat("vocabulary drill ", 100)
	got := Prompt(models.ContentText, long)
	if len(got) > maxTextPromptLen {
		t.Errorf("truncated prompt is %d chars, cap is %d", len(got), maxTextPromptLen)
	}
	if !strings.HasSuffix(got, truncationMarker) {
		t.Errorf("truncated prompt missing marker: %q", got[len(got)-10:])
	}
	// Deterministic: same input, same cut.
	if again := Prompt(models.ContentText, long); again != got {
		t.Error("truncation is not deterministic")
	}
}

func TestPromptIdempotent(t *testing.T) {
	inputs := []string{
		"Could you please explain verb conjugation",
		"can please you conjugate",
		strings.Repeat("please help me learn spanish today ", 40),
		"",
		"  plain prompt  ",
	}
	for _, in := range inputs {
		once := Prompt(models.ContentText, in)
		twice := Prompt(models.ContentText, once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestOptionsClamping(t *testing.T) {
	opts := Options(models.ContentText, models.GenerationOptions{
		Temperature: 2.5,
		MaxTokens:   99999,
	})
	if opts.Temperature != maxTemperature {
		t.Errorf("temperature not clamped: %v", opts.Temperature)
	}
	if opts.MaxTokens != maxTextTokens {
		t.Errorf("max tokens not clamped: %v", opts.MaxTokens)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options(models.ContentImage, models.GenerationOptions{})
	if opts.Temperature != defaultTemp {
		t.Errorf("expected default temperature, got %v", opts.Temperature)
	}
	if opts.Width != defaultImageDim || opts.Height != defaultImageDim {
		t.Errorf("expected default image dims, got %dx%d", opts.Width, opts.Height)
	}
	if opts.Difficulty != models.DifficultyBeginner {
		t.Errorf("expected beginner default, got %q", opts.Difficulty)
	}
}

func TestOptionsImageDimClamp(t *testing.T) {
	opts := Options(models.ContentImage, models.GenerationOptions{Width: 4096, Height: 2048})
	if opts.Width != maxImageDim || opts.Height != maxImageDim {
		t.Errorf("image dims not clamped: %dx%d", opts.Width, opts.Height)
	}
}

func TestOptionsIdempotent(t *testing.T) {
	raw := models.GenerationOptions{Temperature: 1.8, MaxTokens: 5000, Topic: " Verbs ", Width: 3000}
	once := Options(models.ContentImage, raw)
	twice := Options(models.ContentImage, once)
	if once != twice {
		t.Errorf("not idempotent: %+v != %+v", once, twice)
	}
}

func TestFingerprintDeterminism(t *testing.T) {
	opts := models.GenerationOptions{Temperature: 0.7, MaxTokens: 200, Topic: "travel"}
	a := Fingerprint(models.ContentText, "Please explain past tense", opts)
	b := Fingerprint(models.ContentText, "explain   past tense", opts)
	if a != b {
		t.Errorf("semantically equal requests produced different fingerprints:\n%v\n%v", a, b)
	}
}

func TestFingerprintKeyFormat(t *testing.T) {
	fp := Fingerprint(models.ContentText, "Explain Tenses", models.GenerationOptions{})
	key := fp.Key()
	if key != strings.ToLower(key) {
		t.Errorf("key is not lowercase: %q", key)
	}
	if !strings.HasPrefix(key, "text|") {
		t.Errorf("key missing content type prefix: %q", key)
	}
	if strings.Count(key, "|") < 2 {
		t.Errorf("key not pipe-delimited tuple: %q", key)
	}
}

func TestFingerprintDistinguishesOptions(t *testing.T) {
	a := Fingerprint(models.ContentText, "same prompt", models.GenerationOptions{Temperature: 0.2})
	b := Fingerprint(models.ContentText, "same prompt", models.GenerationOptions{Temperature: 0.9})
	if a == b {
		t.Error("different temperatures should yield different fingerprints")
	}
}
