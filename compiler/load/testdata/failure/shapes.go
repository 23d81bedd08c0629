package failure

//minorm:shape
type Bad struct {
	C chan int
}
