package pool

import (
	"sync/atomic"
	"testing"
)

func TestSubmitWaitAll(t *testing.T) {
	p := New(4)
	defer p.Release()
	var count int64
	for i := 0; i < 100; i++ {
		p.Submit(func() {
			atomic.AddInt64(&count, 1)
		})
	}
	p.WaitAll()
	if count != 100 {
		t.Fatalf("expected 100 tasks run, got %d", count)
	}
}

func TestRecursiveSubmit(t *testing.T) {
	p := New(2)
	defer p.Release()
	var count int64
	var spawn func(depth int)
	spawn = func(depth int) {
		atomic.AddInt64(&count, 1)
		if depth == 0 {
			return
		}
		for i := 0; i < 2; i++ {
			d := depth - 1
			p.Submit(func() { spawn(d) })
		}
	}
	p.Submit(func() { spawn(5) })
	p.WaitAll()
	// 1 + 2 + 4 + ... + 64 nodes of a depth-5 binary recursion
	if count != 127 {
		t.Fatalf("expected 127 tasks run, got %d", count)
	}
}

func TestInlineMode(t *testing.T) {
	p := New(0)
	ran := false
	p.Submit(func() { ran = true })
	p.WaitAll()
	p.Release()
	if !ran {
		t.Fatalf("inline pool did not run task")
	}
}

func TestPanicPropagation(t *testing.T) {
	p := New(2)
	defer p.Release()
	p.Submit(func() { panic("boom") })
	defer func() {
		if r := recover(); r != "boom" {
			t.Fatalf("expected boom panic, got %v", r)
		}
	}()
	p.WaitAll()
}
