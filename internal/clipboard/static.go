package clipboard

import "sync"

// StaticAccessor serves fixed clipboard contents. Used by tests and by
// the daemon's simulated mode.
type StaticAccessor struct {
	mu sync.Mutex

	FormatList []string
	FileURLs   []string
	Text       string
	Markup     string

	// Err, when set, is returned by every read method.
	Err error
}

// NewStaticAccessor returns an accessor with an empty clipboard.
func NewStaticAccessor() *StaticAccessor {
	return &StaticAccessor{}
}

// Set replaces the served contents.
func (a *StaticAccessor) Set(formats, urls []string, text, markup string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.FormatList = formats
	a.FileURLs = urls
	a.Text = text
	a.Markup = markup
}

func (a *StaticAccessor) Formats() ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return nil, a.Err
	}
	return append([]string(nil), a.FormatList...), nil
}

func (a *StaticAccessor) ReadFileURLs() ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return nil, a.Err
	}
	return append([]string(nil), a.FileURLs...), nil
}

func (a *StaticAccessor) ReadText() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return "", a.Err
	}
	return a.Text, nil
}

func (a *StaticAccessor) ReadMarkup() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return "", a.Err
	}
	return a.Markup, nil
}
