package captions

import (
	"strings"
	"testing"

	"github.com/patrickprogramme/cakeplayer/internal/timeline"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

// helper : renvoie true si substr apparaît avant substr2 dans s
func appearsBefore(s, substr, substr2 string) bool {
	i := strings.Index(s, substr)
	j := strings.Index(s, substr2)
	return i >= 0 && j >= 0 && i < j
}

func TestNearestTieChoosesNextPhrase(t *testing.T) {
	tr := Transcript{
		Phrases: []Phrase{
			{TimestampMs: 0, Text: "phrase1"},
			{TimestampMs: 100000, Text: "phrase2"},
		},
		Headings: []Heading{{StartMs: 50000, Title: "Step"}},
	}

	out := tr.transcriptWithHeadings(0, asPlain)

	// milieu exact -> voisin de droite
	if !appearsBefore(out, "phrase1", "## Step") || !appearsBefore(out, "## Step", "phrase2") {
		t.Fatalf("expected heading attached to phrase2, got:\n%s", out)
	}
}

func TestThresholdPreventsNudge(t *testing.T) {
	tr := Transcript{
		Phrases: []Phrase{
			{TimestampMs: 0, Text: "A"},
			{TimestampMs: 100000, Text: "B"},
		},
		Headings: []Heading{{StartMs: 51000, Title: "C"}},
	}
	// dist = 49000 > 20000 -> pas de nudge, l'intertitre reste à sa place
	out := tr.transcriptWithHeadings(20000, asPlain)

	if !appearsBefore(out, "A", "## C") || !appearsBefore(out, "## C", "B") {
		t.Fatalf("expected A C B order, got:\n%s", out)
	}
}

func TestHeadingsOutsidePhrases(t *testing.T) {
	tr := Transcript{
		Phrases: []Phrase{
			{TimestampMs: 1000, Text: "middle"},
		},
		Headings: []Heading{
			{StartMs: 0, Title: "Intro"},
			{StartMs: 9000, Title: "Outro"},
		},
	}

	out := tr.transcriptWithHeadings(0, asPlain)

	want := "## Intro\n\nmiddle\n\n## Outro\n"
	if out != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", out, want)
	}
}

func TestCollapsedModeJoinsPhrases(t *testing.T) {
	tr := Transcript{
		Phrases: []Phrase{
			{TimestampMs: 0, Text: "one"},
			{TimestampMs: 500, Text: "two"},
			{TimestampMs: 10000, Text: "three"},
		},
		Headings: []Heading{
			{StartMs: 0, Title: "First"},
			{StartMs: 10000, Title: "Second"},
		},
	}

	out := tr.Collapsed()

	want := "## First\none two\n## Second\nthree\n"
	if out != want {
		t.Fatalf("unexpected collapsed output:\n%q\nwant:\n%q", out, want)
	}
}

func TestNoPhrasesReturnsEmpty(t *testing.T) {
	tr := Transcript{Headings: []Heading{{StartMs: 0, Title: "Only"}}}
	if got := tr.Plain(); got != "" {
		t.Fatalf("expected empty transcript, got %q", got)
	}
	if got := tr.transcriptWithHeadings(0, asPlain); got != "Only" {
		t.Fatalf("expected heading titles only, got %q", got)
	}
}

func TestNewTranscriptPlacesCaptionsOnGlobalTimeline(t *testing.T) {
	idx, err := timeline.New([]model.Seconds{0, 10}, 5)
	if err != nil {
		t.Fatal(err)
	}
	track := Track{
		{{Start: 1, End: 2, Text: "  bonjour   tout le monde "}},
		{{Start: 0.5, End: 2, Text: "deuxième"}, {Start: 3, End: 4, Text: "   "}},
	}

	tr := NewTranscript("Demo", idx, track, []string{"Accueil", ""})

	if len(tr.Headings) != 1 || tr.Headings[0].Title != "Accueil" {
		t.Fatalf("unexpected headings: %+v", tr.Headings)
	}
	if len(tr.Phrases) != 2 {
		t.Fatalf("expected 2 phrases, got %+v", tr.Phrases)
	}
	if tr.Phrases[0].Text != "bonjour tout le monde" {
		t.Fatalf("whitespace not normalized: %q", tr.Phrases[0].Text)
	}
	if tr.Phrases[1].TimestampMs != 10500 {
		t.Fatalf("expected 10500ms, got %d", tr.Phrases[1].TimestampMs)
	}
	if got := tr.Phrases[1].Seconds(); got != 10.5 {
		t.Fatalf("expected 10.5s, got %v", got)
	}

	want := "## Accueil\n\nbonjour tout le monde\ndeuxième\n"
	if got := tr.Plain(); got != want {
		t.Fatalf("unexpected plain output:\n%q\nwant:\n%q", got, want)
	}
}
