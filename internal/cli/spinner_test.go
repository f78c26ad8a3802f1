package cli

import (
	"context"
	"testing"
	"time"
)

func TestSpinnerStartStop(t *testing.T) {
	s := newSpinner("Cloning repository...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()
}

func TestSpinnerStopTwice(t *testing.T) {
	s := newSpinner("Analyzing...")
	s.Start()

	// Repeated stops must neither panic nor hang.
	s.Stop()
	s.Stop()
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, "Waiting on the model...")
	s.Start()

	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should report cancellation after its context ends")
	}
	s.Stop()
}

func TestSpinnerContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	s := newSpinnerWithContext(ctx, "Uploading diagram...")
	s.Start()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should report cancellation after the deadline")
	}
	s.Stop()
}

func TestSpinnerStopWithMessage(t *testing.T) {
	s := newSpinner("Extracting model...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithSuccess("model extracted")

	s = newSpinner("Extracting model...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithError("extraction failed")
}
