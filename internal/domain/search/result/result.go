package result

// Result is a search hit annotated with its document text.
type Result struct {
	id    string
	score float64
	text  string
}

// New creates a search result.
func New(id string, score float64, text string) Result {
	return Result{id: id, score: score, text: text}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Score returns the relevance score.
func (r *Result) Score() float64 { return r.score }

// Text returns the document text, or a placeholder when the id is unmapped.
func (r *Result) Text() string { return r.text }
