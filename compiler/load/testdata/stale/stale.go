package stale

//minorm:shape
type Rec struct {
	Name string
}
