package catalog

import "testing"

func TestSimilarity_Identical(t *testing.T) {
	if got := Similarity("Smith", "Smith"); got != 1.0 {
		t.Errorf("Similarity(identical) = %v, want 1.0", got)
	}
}

func TestSimilarity_CaseInsensitive(t *testing.T) {
	if got := Similarity("SMITH", "smith"); got != 1.0 {
		t.Errorf("Similarity(case variants) = %v, want 1.0", got)
	}
}

func TestSimilarity_Disjoint(t *testing.T) {
	if got := Similarity("Smith", "Young"); got != 0 {
		t.Errorf("Similarity(disjoint) = %v, want 0", got)
	}
}

func TestSimilarity_Empty(t *testing.T) {
	if got := Similarity("", "Smith"); got != 0 {
		t.Errorf("Similarity(empty, x) = %v, want 0", got)
	}
	if got := Similarity("", ""); got != 0 {
		t.Errorf("Similarity(empty, empty) = %v, want 0", got)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a, b := "Jonathan Patterson", "John Paterson"
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("similarity should be symmetric")
	}
}

func TestSimilarity_TypoCloserThanUnrelated(t *testing.T) {
	typo := Similarity("Patterson", "Paterson")
	unrelated := Similarity("Patterson", "Washington")
	if typo <= unrelated {
		t.Errorf("typo score %v should exceed unrelated score %v", typo, unrelated)
	}
	if typo <= 0.3 {
		t.Errorf("single-letter typo score %v should clear the default threshold", typo)
	}
}

func TestSimilarity_LastNameMatchesFullName(t *testing.T) {
	// Searching by last name alone should still score against the full name.
	if got := Similarity("Patterson", "Jonathan Patterson"); got <= 0.3 {
		t.Errorf("last-name-only score %v should clear the default threshold", got)
	}
}

func TestSimilarity_PunctuationIgnored(t *testing.T) {
	if got := Similarity("O'Brien", "OBrien"); got != Similarity("o brien", "obrien") {
		t.Errorf("punctuation should split words like whitespace, got %v", got)
	}
}
