package search

// Suggester returns topic suggestions for partially typed input.
type Suggester interface {
	Suggest(query string, limit int) ([]*Suggestion, error)
}

// DebugStatser provides lightweight stats for visibility/debugging.
// Implemented by engines that can report index doc counts, etc.
type DebugStatser interface {
	DocCount() (int, error)
}
