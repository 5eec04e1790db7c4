package shutdown

import (
	"testing"
	"time"

	"github.com/SlpAus/lotto-mirror-backend/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdown_StopsServicesInStages(t *testing.T) {
	graceful := lifecycle.NewManager("graceful")
	forceful := lifecycle.NewManager("forceful")

	stopped := make(chan string, 2)
	require.NoError(t, graceful.Go("worker", func(h *lifecycle.Handle) {
		<-h.Done()
		stopped <- h.Name()
	}))

	NewCoordinator(graceful, forceful).Shutdown(nil)

	select {
	case name := <-stopped:
		assert.Equal(t, "worker", name)
	case <-time.After(time.Second):
		t.Fatal("graceful service did not stop")
	}
}
