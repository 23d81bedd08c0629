package none

type Plain struct {
	A int
}
