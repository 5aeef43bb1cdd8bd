package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"persist", PhasePersist, &log})
	r.Register(recorder{"visibility", PhasePostUpdate, &log})
	r.Register(recorder{"dispatch", PhaseDispatch, &log})
	r.Register(recorder{"sources", PhaseUpdate, &log})
	r.Register(recorder{"sources-2", PhaseUpdate, &log})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"dispatch", "sources", "sources-2", "visibility", "persist"}, log)
}

func TestRunnerTickPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"a", PhaseUpdate, &log})
	r.Register(recorder{"b", PhasePostUpdate, &log})

	r.TickPhase(PhasePostUpdate, 0)
	assert.Equal(t, []string{"b"}, log)
}
