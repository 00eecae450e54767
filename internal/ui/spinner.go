package ui

import (
	"fmt"
	"time"
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ShowSpinner animates msg until StopSpinner is called. Nothing else may
// write to the display while the spinner runs.
func (d *Display) ShowSpinner(msg string) {
	d.spinnerMu.Lock()
	defer d.spinnerMu.Unlock()
	d.stopSpinnerLocked()

	done := make(chan struct{})
	finished := make(chan struct{})
	d.spinnerDone, d.spinnerFinished = done, finished

	go func() {
		defer close(finished)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			fmt.Fprintf(d.out, "\r%s%s %s%s", colorCyan, spinnerChars[i], msg, colorReset)
			i = (i + 1) % len(spinnerChars)
			select {
			case <-done:
				// Clear the spinner line
				fmt.Fprint(d.out, "\r\033[2K\r")
				return
			case <-ticker.C:
			}
		}
	}()
}

// StopSpinner stops the active spinner and waits for its line to be cleared.
// It may be called from any goroutine.
func (d *Display) StopSpinner() {
	d.spinnerMu.Lock()
	defer d.spinnerMu.Unlock()
	d.stopSpinnerLocked()
}

func (d *Display) stopSpinnerLocked() {
	if d.spinnerDone == nil {
		return
	}
	close(d.spinnerDone)
	<-d.spinnerFinished
	d.spinnerDone, d.spinnerFinished = nil, nil
}
