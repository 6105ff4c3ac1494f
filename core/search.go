package core

// searchDelegate forwards find commands to the display's search
// capability. Every call is a stateless one-shot delegation: no debouncing
// and no query caching, so highlighting tracks the host's search input
// exactly. An empty query on next/previous repeats the display's own
// current query.
type searchDelegate struct {
	display Display
}

func (s searchDelegate) Search(query string) bool {
	if s.display == nil {
		return false
	}
	return s.display.FindNext(query)
}

func (s searchDelegate) SearchNext() bool {
	if s.display == nil {
		return false
	}
	return s.display.FindNext("")
}

func (s searchDelegate) SearchPrevious() bool {
	if s.display == nil {
		return false
	}
	return s.display.FindPrevious("")
}

func (s searchDelegate) ClearSearch() {
	if s.display == nil {
		return
	}
	s.display.ClearSearch()
}
