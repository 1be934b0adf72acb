package annotation

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sampleYAML = `
sentences:
  - text: "I went to the sister's house."
    words:
      I: {stress: 0, liaison: 0}
      went: {stress: 1, liaison: {delete: t}}
      to: {stress: 0, liaison: 0}
      the: {stress: 0}
      sister's: {stress: 1, liaison: 0}
      house: {stress: true, liaison: 0}
  - text: "We need to check it out."
    words:
      We: {stress: 0, liaison: 0}
      need: {stress: 1, liaison: {delete: d}}
      to: {stress: 0, liaison: 0}
      check: {stress: 1, liaison: 0}
      it: {stress: 0, liaison: 0}
      out: {stress: 1, liaison: 0}
`

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"Hello", []string{"Hello"}},
		{"We need to check it out.", []string{"We", "need", "to", "check", "it", "out."}},
		{"a  b", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		if got := Tokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStrip(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"out.", "out"},
		{"wait!?", "wait!"},
		{"so,", "so"},
		{"why?", "why"},
		{"note:", "note"},
		{"sister's", "sister's"},
		{"", ""},
		{".", ""},
	}
	for _, tt := range tests {
		if got := Strip(tt.in); got != tt.want {
			t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	set, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("expected 2 sentences, got %d", set.Len())
	}
	want := []string{"I went to the sister's house.", "We need to check it out."}
	if got := set.Sentences(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sentences() = %q, want %q", got, want)
	}

	a, ok := set.Lookup(want[0], "went")
	if !ok || !a.Stress {
		t.Fatalf("went: got %+v ok=%v", a, ok)
	}
	if c, has := a.DeleteChar(); !has || c != "t" {
		t.Errorf("went delete: got %q %v", c, has)
	}

	h, _ := set.Lookup(want[0], "house.")
	if !h.Stress || h.Liaison != nil {
		t.Errorf("house.: got %+v", h)
	}
	the, _ := set.Lookup(want[0], "the")
	if the.Stress || the.Liaison != nil {
		t.Errorf("the: got %+v", the)
	}
}

func TestLookup_Misses(t *testing.T) {
	set, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	// 区分大小写
	if _, ok := set.Lookup("We need to check it out.", "we"); ok {
		t.Error("lookup must be case-sensitive")
	}
	if _, ok := set.Lookup("Unknown sentence.", "We"); ok {
		t.Error("unknown sentence should miss")
	}
	// 只去掉一个标点
	if _, ok := set.Lookup("We need to check it out.", "out.."); ok {
		t.Error("only one trailing punctuation character is stripped")
	}
}

func TestParse_RejectsBadLiaison(t *testing.T) {
	tests := []string{
		"sentences:\n  - text: a\n    words:\n      a: {liaison: {delete: xy}}\n",
		"sentences:\n  - text: a\n    words:\n      a: {liaison: 1}\n",
		"sentences:\n  - text: a\n    words:\n      a: {liaison: [t]}\n",
		"sentences:\n  - words: {}\n",
	}
	for _, doc := range tests {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("expected error for %q", doc)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentences.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	set, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !set.Has("We need to check it out.") {
		t.Error("expected sentence to be loaded")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSet_AddReplacesWithoutDuplicatingOrder(t *testing.T) {
	set := NewSet()
	set.Add("a b", map[string]Annotation{"a": {}})
	set.Add("a b", map[string]Annotation{"a": {Stress: true}})
	if set.Len() != 1 {
		t.Fatalf("expected 1 sentence, got %d", set.Len())
	}
	if a, _ := set.Lookup("a b", "a"); !a.Stress {
		t.Error("second Add should replace annotations")
	}
}

func TestCheck(t *testing.T) {
	set := NewSet()
	set.Add("I went to Rome.", map[string]Annotation{
		"I":    {},
		"went": {Stress: true, Liaison: &Liaison{Delete: "x"}},
		"ro":   {},
	})
	issues := Check(set)

	var missing, marks []Issue
	for _, is := range issues {
		switch is.Kind {
		case MissingAnnotation:
			missing = append(missing, is)
		case MissingMark:
			marks = append(marks, is)
		}
	}
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing annotations (to, Rome), got %+v", missing)
	}
	if missing[1].Token != "Rome" || missing[1].Suggestion != "ro" {
		t.Errorf("expected Rome → ro suggestion, got %+v", missing[1])
	}
	if len(marks) != 1 || marks[0].Token != "went" {
		t.Errorf("expected missing mark on went, got %+v", marks)
	}
}

func TestSuggest_NoCloseKey(t *testing.T) {
	if got := Suggest("zebra", []string{"I", "went"}); got != "" {
		t.Errorf("expected no suggestion, got %q", got)
	}
}
