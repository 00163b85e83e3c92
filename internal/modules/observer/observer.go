package observer

const (
	// EventAttempt carries the Response of one supplier call.
	EventAttempt = iota + 1
	// EventFinished carries every Response of a request once fallback stops.
	EventFinished
	// EventSysExit is sent when the service shuts down mid-request.
	EventSysExit
)

type Observer interface {
	Update(event int, data interface{})
}

// Func adapts a plain function to Observer.
type Func func(event int, data interface{})

func (f Func) Update(event int, data interface{}) {
	f(event, data)
}
