package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.maxChunkSize != DefaultMaxChunkSize {
			t.Errorf("expected maxChunkSize %d, got %d", DefaultMaxChunkSize, p.maxChunkSize)
		}
		if p.overlapSentences != DefaultOverlapSentences {
			t.Errorf("expected overlap %d, got %d", DefaultOverlapSentences, p.overlapSentences)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithMaxChunkSize(200), WithOverlapSentences(2))
		if p.maxChunkSize != 200 || p.overlapSentences != 2 {
			t.Errorf("unexpected config: %+v", p)
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithMaxChunkSize(0), WithOverlapSentences(-1))
		if p.maxChunkSize != DefaultMaxChunkSize {
			t.Errorf("expected default maxChunkSize, got %d", p.maxChunkSize)
		}
		if p.overlapSentences != DefaultOverlapSentences {
			t.Errorf("expected default overlap, got %d", p.overlapSentences)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	if New().Name() != "chunker" {
		t.Errorf("expected name 'chunker'")
	}
}

func TestChunk_SentenceOverlap(t *testing.T) {
	p := New(WithMaxChunkSize(20), WithOverlapSentences(1))

	chunks := p.Chunk("A cat sat. A dog ran. A bird flew.")

	want := []string{"A cat sat. A dog ran.", "A dog ran. A bird flew."}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %+v", len(want), len(chunks), chunks)
	}
	for i, c := range chunks {
		if c.Text != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], c.Text)
		}
		if c.Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, c.Index)
		}
	}
}

func TestChunk_BlankInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t\n"} {
		chunks := New().Chunk(input)
		if len(chunks) != 1 {
			t.Fatalf("expected 1 chunk for %q, got %d", input, len(chunks))
		}
		if chunks[0].Text != input || chunks[0].Index != 0 {
			t.Errorf("expected original input wrapped, got %+v", chunks[0])
		}
	}
}

func TestChunk_SmallContentSingleChunk(t *testing.T) {
	chunks := New().Chunk("Just one short paragraph. With two sentences.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "Just one short paragraph. With two sentences." {
		t.Errorf("unexpected text %q", chunks[0].Text)
	}
}

func TestChunk_LongSentenceHardSplit(t *testing.T) {
	p := New(WithMaxChunkSize(10), WithOverlapSentences(1))
	long := strings.Repeat("x", 25)

	chunks := p.Chunk("Hi there. " + long + ". Bye now.")

	var texts []string
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	want := []string{"Hi there.", "xxxxxxxxxx", "xxxxxxxxxx", "xxxxx.", "Bye now."}
	if strings.Join(texts, "|") != strings.Join(want, "|") {
		t.Errorf("expected %v, got %v", want, texts)
	}
}

func TestChunk_HardSplitIsRuneSafe(t *testing.T) {
	p := New(WithMaxChunkSize(4))
	chunks := p.Chunk("ééééééééé")

	for _, c := range chunks {
		if !utf8.ValidString(c.Text) {
			t.Errorf("chunk %d is not valid UTF-8", c.Index)
		}
		if utf8.RuneCountInString(c.Text) > 4 {
			t.Errorf("chunk %d exceeds width: %q", c.Index, c.Text)
		}
	}
}

func TestChunk_ContiguousIndicesAndCoverage(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("Sentence number ")
		b.WriteString(strings.Repeat("w", i%7+1))
		b.WriteString(" ends here. ")
	}
	text := b.String()

	for _, size := range []int{40, 64, 128, 512} {
		for _, overlap := range []int{0, 1, 2, 5} {
			chunks := New(WithMaxChunkSize(size), WithOverlapSentences(overlap)).Chunk(text)

			joined := ""
			for i, c := range chunks {
				if c.Index != i {
					t.Fatalf("size=%d overlap=%d: index gap at %d", size, overlap, i)
				}
				if strings.TrimSpace(c.Text) == "" {
					t.Fatalf("size=%d overlap=%d: empty chunk %d", size, overlap, i)
				}
				joined += c.Text + " "
			}
			for _, s := range SplitSentences(text) {
				if !strings.Contains(joined, s) {
					t.Fatalf("size=%d overlap=%d: sentence %q lost", size, overlap, s)
				}
			}
		}
	}
}

func TestChunk_Deterministic(t *testing.T) {
	text := "One. Two! Three? Four. Five six seven. Eight."
	p := New(WithMaxChunkSize(12))

	a := p.Chunk(text)
	b := p.Chunk(text)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"terminators", "Hello world. How are you? Great!", []string{"Hello world.", "How are you?", "Great!"}},
		{"decimal not split", "Version 1.5 is out. Upgrade now.", []string{"Version 1.5 is out.", "Upgrade now."}},
		{"newline counts as whitespace", "First line.\nSecond line.", []string{"First line.", "Second line."}},
		{"no terminator", "just words", []string{"just words"}},
		{"blank", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.input)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
