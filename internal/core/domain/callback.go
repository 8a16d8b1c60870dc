package domain

// Callback receives exactly one completion for an asynchronous request.
//
// The three methods are invoked in order, from the single delivery goroutine
// of the owning connection: SetResponse, SetError, then Run. A panic or a
// non-nil error from any of them is contained to that one delivery.
type Callback interface {
	SetResponse(resp Response)
	SetError(code Status)
	Run() error
}

// CallbackFunc adapts a plain function to the Callback contract. The function
// receives the response once Run is invoked.
func CallbackFunc(fn func(resp Response) error) Callback {
	return &funcCallback{fn: fn}
}

type funcCallback struct {
	fn   func(resp Response) error
	resp Response
}

func (c *funcCallback) SetResponse(resp Response) {
	c.resp = resp
}

func (c *funcCallback) SetError(code Status) {
	c.resp.Status = code
}

func (c *funcCallback) Run() error {
	return c.fn(c.resp)
}
