package assistant

import (
	"reflect"
	"testing"
)

func TestMatchStopwordOnlyQueryMatchesNothing(t *testing.T) {
	m := NewMatcher(0)
	bodies := []string{
		"",
		"The cat sat on the mat. What is this?",
		"Is it here? It is. There it was!",
	}
	for _, query := range []string{"", "what is the?", "Is it ... here, there?!", "   "} {
		for _, body := range bodies {
			if got := m.Match(query, body); len(got) != 0 {
				t.Fatalf("Match(%q, %q) = %v, want empty", query, body, got)
			}
		}
	}
}

func TestMatchKeepsOrderAndCapsResults(t *testing.T) {
	body := "The cat sat. Dogs bark loudly. The cat ran away. A cat slept. The cat purred."
	got := NewMatcher(0).Match("Where is the cat?", body)
	want := []string{"The cat sat.", "The cat ran away.", "A cat slept."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Match() = %#v, want %#v", got, want)
	}
}

func TestMatchIsCaseInsensitiveAndIgnoresPunctuation(t *testing.T) {
	body := "Use the MIMS password reset form. Lunch is at noon."
	got := NewMatcher(0).Match("how do I reset my mims PASSWORD?", body)
	want := []string{"Use the MIMS password reset form."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Match() = %#v, want %#v", got, want)
	}
}

func TestMatchRequiresWholeTokenOverlap(t *testing.T) {
	body := "Category theory is abstract. Cats are mammals."
	if got := NewMatcher(0).Match("cat", body); len(got) != 0 {
		t.Fatalf("Match() = %#v, want no partial-word matches", got)
	}
}

func TestMatchCustomLimit(t *testing.T) {
	body := "Exams start Monday. Exams end Friday. Exams are graded weekly."
	got := NewMatcher(1).Match("exams", body)
	if len(got) != 1 || got[0] != "Exams start Monday." {
		t.Fatalf("Match() = %#v", got)
	}
}

func TestWordTokensDropsPunctuationAndLowercases(t *testing.T) {
	got := wordTokens("Hello, World! It's 2024.")
	want := []string{"hello", "world", "it", "s", "2024"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("wordTokens() = %#v, want %#v", got, want)
	}
}

func TestMatchJoinsHardWrappedLines(t *testing.T) {
	body := "Teachers must submit the attendance\nform to the office by Friday. Lunch is at noon."
	got := NewMatcher(0).Match("When is the attendance form due?", body)
	want := []string{"Teachers must submit the attendance form to the office by Friday."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Match() = %#v, want %#v", got, want)
	}

	crlf := "Exams start\r\non Monday.\r\n\r\nTimetable\r\n\r\nExams end Friday."
	got = NewMatcher(0).Match("exams timetable", crlf)
	want = []string{"Exams start on Monday.", "Timetable", "Exams end Friday."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Match() = %#v, want %#v", got, want)
	}
}

func TestMatchTypographicApostrophes(t *testing.T) {
	m := NewMatcher(0)
	if got := m.Match("what\u2019s it?", "What\u2019s new. It is late."); len(got) != 0 {
		t.Fatalf("Match() = %#v, want empty for a stopword-only query", got)
	}

	got := wordTokens("Don\u2019t panic")
	want := []string{"don", "t", "panic"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("wordTokens() = %#v, want %#v", got, want)
	}

	got = m.Match("the teacher\u2019s handbook", "Read the teacher's handbook first. Lunch is at noon.")
	if len(got) != 1 || got[0] != "Read the teacher's handbook first." {
		t.Fatalf("Match() = %#v", got)
	}
}
