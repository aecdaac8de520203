package domain

// IndexSpec describes a remote collection at creation time. Dimension is fixed for the collection's lifetime.
type IndexSpec struct {
	Name           string
	Dimension      int
	SpaceType      string
	Precision      string
	M              int
	EFConstruction int
}

// VectorItem is one entry of a bulk insert.
type VectorItem struct {
	ID     string
	Vector []float32
}
