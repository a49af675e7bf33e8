package searchlist

import "time"

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is safe for concurrent use and intended as the default when
// no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Admit(Role, time.Duration) {}
func (NoopMetrics) Release(Role)              {}
func (NoopMetrics) Cancel(Role)               {}
func (NoopMetrics) Outcome(Role, bool)        {}
func (NoopMetrics) Waiting(int)               {}
func (NoopMetrics) Size(int)                  {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}
