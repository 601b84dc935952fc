package tui

import (
	"net/url"
	"strings"
)

// State holds answers keyed by form path, in the same shape a browser
// submission has, plus the server-side errors being shown.
type State struct {
	values url.Values
	errors map[string][]string
}

// NewState seeds the state with errors keyed by form path.
func NewState(errs map[string][]string) *State {
	return &State{
		values: make(url.Values),
		errors: cloneErrors(errs),
	}
}

// Values returns the collected answers (mutable).
func (s *State) Values() url.Values {
	if s == nil {
		return nil
	}
	return s.values
}

// Set records the answers for path. Blank answers are dropped and a path
// left with none is removed.
func (s *State) Set(path string, values ...string) {
	if s == nil || path == "" {
		return
	}
	var kept []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		s.values.Del(path)
		return
	}
	s.values[path] = kept
}

// ErrorsFor returns the errors attached to any of paths, in order.
func (s *State) ErrorsFor(paths ...string) []string {
	if s == nil || len(s.errors) == 0 {
		return nil
	}
	var out []string
	for _, p := range paths {
		out = append(out, s.errors[p]...)
	}
	return out
}

func cloneErrors(src map[string][]string) map[string][]string {
	if len(src) == 0 {
		return make(map[string][]string)
	}
	out := make(map[string][]string, len(src))
	for k, v := range src {
		out[k] = append([]string(nil), v...)
	}
	return out
}
