package task

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRepeatingTask(t *testing.T) {
	var executions atomic.Int32
	tsk := NewRepeating(func() { executions.Add(1) }, 5*time.Millisecond)

	tsk.Start()
	tsk.Start()
	if !tsk.Running() {
		t.Fatal("task is not running after Start")
	}

	deadline := time.Now().Add(2 * time.Second)
	for executions.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("task executed %d times within 2s, want at least 3", executions.Load())
		}
		time.Sleep(time.Millisecond)
	}

	tsk.Stop(false)
	if tsk.Running() {
		t.Fatal("task is still running after Stop")
	}
	stopped := executions.Load()
	time.Sleep(20 * time.Millisecond)
	if executions.Load() != stopped {
		t.Errorf("task executed after Stop")
	}
}

func TestRepeatingTaskForceExec(t *testing.T) {
	var executions atomic.Int32
	tsk := NewRepeating(func() { executions.Add(1) }, time.Hour)

	tsk.Stop(true)
	if executions.Load() != 0 {
		t.Fatal("Stop on a task that never started executed it")
	}

	tsk.Start()
	tsk.Stop(true)
	if executions.Load() != 1 {
		t.Errorf("executions = %d after Stop(true), want 1", executions.Load())
	}
}
