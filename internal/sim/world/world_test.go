package world

import (
	"context"
	"sync"
	"testing"
	"time"

	"transitcraft.sim/internal/persistence/snapshot"
	"transitcraft.sim/internal/protocol"
)

// Run owns all mutation; Do and View are the only doors in. Hammer both from
// many goroutines and make sure every call completes and the world stays
// consistent.
func TestRun_DoAndViewFromManyGoroutines(t *testing.T) {
	w := newTestWorld(t, 7)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				res := w.Do(ctx, protocol.ActMsg{
					Cmd:      protocol.CmdSetSpeed,
					SetSpeed: &protocol.SetSpeedReq{Speed: i % 3},
				})
				if !res.OK {
					t.Errorf("set speed rejected: %s %s", res.Code, res.Reason)
					return
				}
				if err := w.View(ctx, func(w *World) {
					if s := w.GameSpeed(); s < 0 || s > 2 {
						t.Errorf("speed out of range: %d", s)
					}
				}); err != nil {
					t.Errorf("view: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestDo_ReturnsWhenContextCancelled(t *testing.T) {
	w := newTestWorld(t, 7)
	// Run is not started, so the inbox never drains.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan protocol.ResultMsg, 1)
	go func() {
		done <- w.Do(ctx, protocol.ActMsg{
			Cmd: protocol.CmdSetSpeed, SetSpeed: &protocol.SetSpeedReq{Speed: 1},
		})
	}()

	select {
	case res := <-done:
		if res.OK {
			t.Fatal("expected failure against a stopped world")
		}
		if res.Code != protocol.ErrInternal {
			t.Fatalf("code = %s, want %s", res.Code, protocol.ErrInternal)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

// Shutdown exports state while the loop is still serving reads, then stops
// it. Exporting after the stop is too late: the read channel never drains.
func TestRun_ExportBeforeStop(t *testing.T) {
	w := newTestWorld(t, 7)
	worldCtx, stopWorld := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Run(worldCtx)
		close(stopped)
	}()

	exportCtx, exportCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer exportCancel()
	var snap *snapshot.V1
	if err := w.View(exportCtx, func(w *World) { snap = w.Export() }); err != nil {
		t.Fatalf("export against a running world: %v", err)
	}
	if snap == nil || snap.WorldID != "test" {
		t.Fatalf("bad snapshot: %+v", snap)
	}

	stopWorld()
	<-stopped

	lateCtx, lateCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer lateCancel()
	if err := w.View(lateCtx, func(*World) {}); err == nil {
		t.Fatal("View should fail once the world loop has stopped")
	}
}

func TestView_ErrorAfterCancel(t *testing.T) {
	w := newTestWorld(t, 7)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.View(ctx, func(*World) {}); err == nil {
		t.Fatal("expected context error from View")
	}
}
