package result

import "testing"

func TestNew(t *testing.T) {
	r := New("doc-1", 0.95, "hello")

	if r.ID() != "doc-1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Score() != 0.95 {
		t.Errorf("Score() = %f", r.Score())
	}
	if r.Text() != "hello" {
		t.Errorf("Text() = %q", r.Text())
	}
}
