package clipboard

import (
	"errors"
	"reflect"
	"testing"

	"dragwatch/internal/logging"
	"dragwatch/internal/metrics"
)

func newTestProbe(t *testing.T, accessor Accessor) *Probe {
	t.Helper()
	log, err := logging.New(&logging.Config{Level: logging.LevelError, Output: "stderr"})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	return NewProbe(accessor, log, nil)
}

func TestProbeFileURLFormat(t *testing.T) {
	acc := NewStaticAccessor()
	acc.Set([]string{"public.file-url"}, []string{"file:///a.txt"}, "", "")

	res := newTestProbe(t, acc).Check()
	if !res.HasFileSignature {
		t.Error("expected file signature")
	}
	if !reflect.DeepEqual(res.FilePaths, []string{"file:///a.txt"}) {
		t.Errorf("FilePaths = %v", res.FilePaths)
	}
}

func TestProbePlainTextOnly(t *testing.T) {
	acc := NewStaticAccessor()
	acc.Set([]string{"text/plain"}, nil, "hello", "")

	res := newTestProbe(t, acc).Check()
	if res.HasFileSignature {
		t.Error("plain text must not look like a file drag")
	}
	if len(res.FilePaths) != 0 {
		t.Errorf("FilePaths = %v, want empty", res.FilePaths)
	}
}

func TestProbeFormatSubstringCatchAll(t *testing.T) {
	// Any format containing "file" matches, even with nothing readable.
	acc := NewStaticAccessor()
	acc.Set([]string{"application/x-custom-FileBundle"}, nil, "", "")

	res := newTestProbe(t, acc).Check()
	if !res.HasFileSignature {
		t.Error("substring catch-all should have matched")
	}
	if len(res.FilePaths) != 0 {
		t.Errorf("FilePaths = %v, want empty", res.FilePaths)
	}
}

func TestProbeTextWithFileScheme(t *testing.T) {
	acc := NewStaticAccessor()
	acc.Set([]string{"text/plain"}, nil, "file:///home/u/doc.pdf", "")

	res := newTestProbe(t, acc).Check()
	if !res.HasFileSignature {
		t.Error("file:// text should count as a signature")
	}
	if !reflect.DeepEqual(res.FilePaths, []string{"file:///home/u/doc.pdf"}) {
		t.Errorf("FilePaths = %v", res.FilePaths)
	}
}

func TestProbeMarkupReference(t *testing.T) {
	// Markup referencing a file sets the signature without a path.
	acc := NewStaticAccessor()
	acc.Set([]string{"text/html"}, nil, "", `<a href="file:///tmp/x">x</a>`)

	res := newTestProbe(t, acc).Check()
	if !res.HasFileSignature {
		t.Error("markup file reference should count as a signature")
	}
	if len(res.FilePaths) != 0 {
		t.Errorf("FilePaths = %v, want empty", res.FilePaths)
	}
}

func TestProbeDeduplicatesPreservingOrder(t *testing.T) {
	acc := NewStaticAccessor()
	acc.Set(
		[]string{"text/uri-list"},
		[]string{"file:///b.txt", "file:///a.txt", "file:///b.txt"},
		"file:///a.txt",
		"",
	)

	res := newTestProbe(t, acc).Check()
	want := []string{"file:///b.txt", "file:///a.txt"}
	if !reflect.DeepEqual(res.FilePaths, want) {
		t.Errorf("FilePaths = %v, want %v", res.FilePaths, want)
	}
}

func TestProbeAccessorFailureIsSilent(t *testing.T) {
	acc := NewStaticAccessor()
	acc.Err = errors.New("clipboard busy")

	res := newTestProbe(t, acc).Check()
	if res.HasFileSignature || len(res.FilePaths) != 0 {
		t.Errorf("failure must degrade to a negative result, got %+v", res)
	}
}

func TestProbeEmptyClipboard(t *testing.T) {
	res := newTestProbe(t, NewStaticAccessor()).Check()
	if res.HasFileSignature || len(res.FilePaths) != 0 {
		t.Errorf("empty clipboard produced %+v", res)
	}
}

func TestProbeCountsHits(t *testing.T) {
	reg := metrics.NewRegistry()
	mset := metrics.NewSet(reg)

	acc := NewStaticAccessor()
	acc.Set([]string{"public.file-url"}, []string{"file:///a.txt"}, "", "")

	log, err := logging.New(&logging.Config{Level: logging.LevelError, Output: "stderr"})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	probe := NewProbe(acc, log, mset)

	probe.Check()
	probe.Check()
	if hits := reg.Snapshot()["dragwatch_probe_hits_total"]; hits != 2 {
		t.Errorf("probe_hits_total = %g, want 2", hits)
	}
}

func TestMatchesFileFormat(t *testing.T) {
	cases := []struct {
		format string
		want   bool
	}{
		{"public.file-url", true},
		{"CF_HDROP", true},
		{"text/uri-list", true},
		{"x-special/gnome-copied-files", true},
		{"FileNameW", true},
		{"text/plain", false},
		{"image/png", false},
		{"application/pdf", false},
	}
	for _, tc := range cases {
		if got := matchesFileFormat(tc.format); got != tc.want {
			t.Errorf("matchesFileFormat(%q) = %v, want %v", tc.format, got, tc.want)
		}
	}
}
