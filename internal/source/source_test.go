package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadJSONL(t *testing.T) {
	in := `{"name":"a","text":"first doc"}

{"id":"b","text":"second"}
not json
{"url":"https://example.com/c","title":"Title","text":"third"}
{"text":"anonymous"}
`
	docs, err := ReadJSONL(strings.NewReader(in), "test", Options{IncludeTitle: true})
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(docs) != 4 {
		t.Fatalf("expected 4 docs (malformed skipped), got %d", len(docs))
	}
	if docs[0].Name != "a" || docs[1].Name != "b" || docs[2].Name != "https://example.com/c" {
		t.Errorf("names = %q %q %q", docs[0].Name, docs[1].Name, docs[2].Name)
	}
	if docs[2].Text != "Title\nthird" {
		t.Errorf("title not prepended: %q", docs[2].Text)
	}
	if docs[3].Name != "" {
		t.Errorf("unnamed record should stay unnamed, got %q", docs[3].Name)
	}
}

func TestLoadFromJSONLEmpty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.jsonl", "\n\nnot json\n")
	if _, err := LoadFromJSONL(path, Options{}); err == nil {
		t.Error("expected error for file without valid items")
	}
}

func TestLoadMixed(t *testing.T) {
	dir := t.TempDir()
	jsonl := writeFile(t, dir, "docs.jsonl", `{"text":"one"}`+"\n"+`{"name":"named","text":"two"}`+"\n")
	txt := writeFile(t, dir, "notes.txt", "three")

	b, err := Load([]string{jsonl, txt}, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	names := b.Names()
	want := []string{"text1", "named", "notes"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("names = %v, want %v", names, want)
	}
	if b.At(2).Text != "three" {
		t.Errorf("text file = %q", b.At(2).Text)
	}
}

func TestLoadDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jsonl", `{"name":"x","text":"1"}`+"\n"+`{"name":"x","text":"2"}`+"\n")
	if _, err := Load([]string{a}, Options{}); err == nil {
		t.Error("duplicate names should fail")
	}
}

func TestLoadTextKeepsInvalidUTF8(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.txt", "ok \xff\xfe")
	d, err := LoadText(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if d.Text != "ok \xff\xfe" {
		t.Errorf("bytes should pass through, got %q", d.Text)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "no markup here", "no markup here"},
		{"entities", "fish &amp; chips", "fish & chips"},
		{"paragraphs", "<p>one</p><p>two</p>", "one\ntwo"},
		{"script dropped", "<div>keep<script>var x = 1;</script></div>", "keep"},
		{"line break", "a<br>b", "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
