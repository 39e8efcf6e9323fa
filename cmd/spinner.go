package cmd

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/claimstake/console/pkg/orchestrator"
	"github.com/schollz/progressbar/v3"
)

// confirmationSpinner shows a spinner on stderr while an action waits for
// its confirmation.
type confirmationSpinner struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	stop chan struct{}
}

func (cs *confirmationSpinner) observe(actionId string, kind orchestrator.ActionKind, state orchestrator.State) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.stop != nil {
		close(cs.stop)
		cs.stop = nil
		_ = cs.bar.Finish()
		cs.bar = nil
	}

	switch state {
	case orchestrator.State_Submitting:
		fmt.Fprintf(os.Stderr, "Submitting %s...\n", kind)
	case orchestrator.State_AwaitingConfirmation:
		cs.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(fmt.Sprintf("waiting for %s confirmation", kind)),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
		cs.stop = make(chan struct{})
		go spin(cs.bar, cs.stop)
	}
}

func spin(bar *progressbar.ProgressBar, stop chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
}
