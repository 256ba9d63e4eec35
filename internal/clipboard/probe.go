// Package clipboard implements a best-effort probe of the system
// clipboard for signatures of an external file drag.
package clipboard

import (
	"strings"

	"dragwatch/internal/logging"
	"dragwatch/internal/metrics"
)

// ProbeResult is the outcome of a single clipboard inspection. It is a
// point-in-time snapshot; the clipboard may change between two probes.
type ProbeResult struct {
	// HasFileSignature reports whether anything on the clipboard looks
	// like a staged file reference.
	HasFileSignature bool `json:"has_file_signature"`

	// FilePaths holds the extracted references in discovery order,
	// deduplicated. Non-empty only when HasFileSignature is true. A
	// signature without an extractable path yields true with no paths.
	FilePaths []string `json:"file_paths"`
}

// Accessor is the platform-specific interface for reading clipboard
// state. Implementations must treat every call as independent; no
// consistency is assumed between calls.
type Accessor interface {
	// Formats returns the identifiers of the formats currently on the
	// clipboard.
	Formats() ([]string, error)

	// ReadFileURLs returns file references from a dedicated file-list
	// format, if one is present.
	ReadFileURLs() ([]string, error)

	// ReadText returns the plain-text clipboard content.
	ReadText() (string, error)

	// ReadMarkup returns rich/markup clipboard content (HTML or
	// similar), if present.
	ReadMarkup() (string, error)
}

// fileFormats are format identifiers that directly indicate staged
// file references, across platforms.
var fileFormats = []string{
	"public.file-url",
	"nsfilenamespboardtype",
	"cf_hdrop",
	"filenamew",
	"filename",
	"text/uri-list",
	"application/x-kde-urilist",
	"x-special/gnome-copied-files",
}

// Probe inspects the clipboard for file-drag signatures. Safe for
// concurrent use when the Accessor is.
type Probe struct {
	accessor Accessor
	log      *logging.Logger
	mset     *metrics.Set
}

// NewProbe creates a probe over the given accessor.
func NewProbe(accessor Accessor, log *logging.Logger, mset *metrics.Set) *Probe {
	return &Probe{
		accessor: accessor,
		log:      log.WithComponent("clipboard"),
		mset:     mset,
	}
}

// NewPlatformProbe creates a probe backed by this platform's clipboard.
func NewPlatformProbe(log *logging.Logger, mset *metrics.Set) *Probe {
	return NewProbe(newPlatformAccessor(), log, mset)
}

// Check performs one synchronous inspection. It never returns an
// error: any accessor failure degrades to a negative result, since the
// probe is a heuristic signal and the next poll simply tries again.
func (p *Probe) Check() ProbeResult {
	var res ProbeResult

	formats, err := p.accessor.Formats()
	if err != nil {
		p.log.Debug("format enumeration failed", "error", err)
		formats = nil
	}

	hasFileFormat := false
	for _, f := range formats {
		if matchesFileFormat(f) {
			hasFileFormat = true
			res.HasFileSignature = true
			break
		}
	}

	if hasFileFormat {
		urls, err := p.accessor.ReadFileURLs()
		if err != nil {
			p.log.Debug("file-url read failed", "error", err)
		} else {
			res.FilePaths = append(res.FilePaths, urls...)
		}
	}

	text, err := p.accessor.ReadText()
	if err != nil {
		p.log.Debug("text read failed", "error", err)
	} else if strings.HasPrefix(strings.TrimSpace(text), "file://") {
		res.HasFileSignature = true
		res.FilePaths = append(res.FilePaths, strings.TrimSpace(text))
	}

	// Markup can reference files without exposing a clean path list;
	// the signature counts even when nothing is extracted.
	if !res.HasFileSignature {
		markup, err := p.accessor.ReadMarkup()
		if err != nil {
			p.log.Debug("markup read failed", "error", err)
		} else if strings.Contains(markup, "file://") {
			res.HasFileSignature = true
		}
	}

	res.FilePaths = dedupe(res.FilePaths)
	if res.HasFileSignature && p.mset != nil {
		p.mset.ProbeHitsTotal.Inc()
	}
	return res
}

// matchesFileFormat reports whether a format identifier indicates file
// content. Besides the known identifiers, any format whose name
// contains "file" matches. That catch-all is deliberately broad and
// can match unrelated formats; keep it as-is, the consumer tolerates
// false positives.
func matchesFileFormat(format string) bool {
	lower := strings.ToLower(format)
	for _, known := range fileFormats {
		if lower == known {
			return true
		}
	}
	return strings.Contains(lower, "file")
}

func dedupe(paths []string) []string {
	if len(paths) < 2 {
		return paths
	}
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
