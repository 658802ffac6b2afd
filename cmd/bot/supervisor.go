package main

import (
	"github.com/thejerf/suture/v4"
	"github.com/tnicklin/herald/logger"
)

var sutureEventLabels = map[suture.EventType]string{
	suture.EventTypeStopTimeout:      "timeout",
	suture.EventTypeServicePanic:     "panic",
	suture.EventTypeServiceTerminate: "terminate",
	suture.EventTypeBackoff:          "backoff",
	suture.EventTypeResume:           "resume",
}

// newSupervisor returns the root supervisor. Service failures are logged and
// the service is restarted with suture's backoff.
func newSupervisor(log logger.Logger) *suture.Supervisor {
	return suture.New("herald", suture.Spec{
		EventHook: func(e suture.Event) {
			fields := []any{"event", sutureEventLabels[e.Type()]}
			for k, v := range e.Map() {
				fields = append(fields, k, v)
			}
			log.WarnW(e.String(), fields...)
		},
	})
}
