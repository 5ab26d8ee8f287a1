package gpu

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestReleaseRunsOnce(t *testing.T) {
	var calls int
	var gotToken SyncToken
	r := NewRelease(func(token SyncToken, lost bool) {
		calls++
		gotToken = token
	})

	tok := SyncToken{Namespace: NamespaceGPUIO, CommandBufferID: 3, ReleaseCount: 9}
	if !r.Run(tok, false) {
		t.Error("first Run should report it ran")
	}
	if r.Run(SyncToken{}, true) || r.Drop() {
		t.Error("later runs should report false")
	}
	if calls != 1 || gotToken != tok {
		t.Errorf("calls = %d, token = %+v", calls, gotToken)
	}
	if !r.Done() {
		t.Error("Done() = false after Run")
	}
}

func TestReleaseConcurrent(t *testing.T) {
	var calls atomic.Int32
	r := NewRelease(func(SyncToken, bool) { calls.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Drop()
		}()
	}
	wg.Wait()
	if calls.Load() != 1 {
		t.Errorf("release ran %d times, want 1", calls.Load())
	}
}

func TestReleaseNil(t *testing.T) {
	var r *Release
	if r.Run(SyncToken{}, false) {
		t.Error("nil Release should not run")
	}
	if !r.Done() {
		t.Error("nil Release reports done")
	}
	if !NewRelease(nil).Drop() {
		t.Error("Release with nil func should still record its run")
	}
}

func TestMailboxAndToken(t *testing.T) {
	if !(Mailbox{}).IsZero() {
		t.Error("zero mailbox not IsZero")
	}
	a := newMailbox(1, 0, 1)
	b := newMailbox(1, 1, 1)
	c := newMailbox(1, 0, 2)
	if a.IsZero() || a == b || a == c {
		t.Errorf("mailboxes must be unique: %v %v %v", a, b, c)
	}

	if (SyncToken{}).HasData() || !(SyncToken{}).IsZero() {
		t.Error("zero token must carry no data")
	}
	if !(SyncToken{Namespace: NamespaceGPUIO, ReleaseCount: 1}).HasData() {
		t.Error("token with release count should carry data")
	}
	if (SyncToken{Namespace: NamespaceInvalid, ReleaseCount: 1}).HasData() {
		t.Error("invalid namespace carries no data")
	}
	if NamespaceGPUIO.String() != "gpu-io" || CommandBufferNamespace(42).String() != "invalid" {
		t.Error("unexpected namespace names")
	}
}
