package delivery

import (
	"image"
	"testing"

	"github.com/gogpu/osr/gpu"
)

type paintRecord struct {
	damage image.Rectangle
	bounds image.Rectangle
}

func recorder(calls *[]paintRecord) PaintFunc {
	return func(damage image.Rectangle, bitmap *image.RGBA) {
		*calls = append(*calls, paintRecord{damage: damage, bounds: bitmap.Bounds()})
	}
}

func TestUpdaterDrawDelivers(t *testing.T) {
	var calls []paintRecord
	u := NewUpdater(recorder(&calls), 0)
	u.AllocateRegion(image.Pt(100, 100))
	if u.Region().Len() != 40000 {
		t.Fatalf("region length = %d, want 40000", u.Region().Len())
	}
	u.SetActive(true)

	acks := 0
	u.Draw(image.Rect(0, 0, 50, 50), func() { acks++ })

	if len(calls) != 1 {
		t.Fatalf("paint calls = %d, want 1", len(calls))
	}
	if calls[0].damage != image.Rect(0, 0, 50, 50) || calls[0].bounds != image.Rect(0, 0, 100, 100) {
		t.Errorf("paint got %+v", calls[0])
	}
	if acks != 1 {
		t.Errorf("acks = %d, want 1", acks)
	}
}

func TestUpdaterDrawAcksOnEveryPath(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(u *Updater)
		paints int
	}{
		{"no region", func(u *Updater) { u.SetActive(true) }, 0},
		{"inactive", func(u *Updater) { u.AllocateRegion(image.Pt(4, 4)) }, 0},
		{"invalid after valid", func(u *Updater) {
			u.AllocateRegion(image.Pt(4, 4))
			u.AllocateRegion(image.Pt(0, 4))
			u.SetActive(true)
		}, 0},
		{"recovered", func(u *Updater) {
			u.AllocateRegion(image.Pt(-1, 4))
			u.AllocateRegion(image.Pt(4, 4))
			u.SetActive(true)
		}, 1},
		{"closed", func(u *Updater) {
			u.AllocateRegion(image.Pt(4, 4))
			u.SetActive(true)
			u.Close()
		}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []paintRecord
			u := NewUpdater(recorder(&calls), 0)
			tt.setup(u)
			acks := 0
			u.Draw(image.Rect(0, 0, 1, 1), func() { acks++ })
			if acks != 1 {
				t.Errorf("acks = %d, want 1", acks)
			}
			if len(calls) != tt.paints {
				t.Errorf("paints = %d, want %d", len(calls), tt.paints)
			}
		})
	}
}

func TestUpdaterDrawAcksOnPanic(t *testing.T) {
	u := NewUpdater(func(image.Rectangle, *image.RGBA) { panic("paint") }, 0)
	u.AllocateRegion(image.Pt(2, 2))
	u.SetActive(true)

	acks := 0
	func() {
		defer func() { _ = recover() }()
		u.Draw(image.Rect(0, 0, 1, 1), func() { acks++ })
	}()
	if acks != 1 {
		t.Errorf("acks = %d, want 1 after panic", acks)
	}
	u.Draw(image.Rect(0, 0, 1, 1), nil)
}

func TestUpdaterInvalidKeepsMapping(t *testing.T) {
	u := NewUpdater(nil, 0)
	u.AllocateRegion(image.Pt(8, 8))
	old := u.Region()
	u.AllocateRegion(image.Pt(1<<20, 1<<20))
	if u.Region() != old || !old.Mapped() {
		t.Error("invalid allocation must leave the previous mapping untouched")
	}
	if u.Deliverable() {
		t.Error("nothing is deliverable after a failed allocation")
	}

	u.AllocateRegion(image.Pt(2, 2))
	if old.Mapped() {
		t.Error("successful allocation must release the previous mapping")
	}
	if !u.Deliverable() {
		t.Error("valid allocation should restore delivery")
	}
}

func TestDisplayClientUpdater(t *testing.T) {
	var calls []paintRecord
	c := NewDisplayClient(recorder(&calls), nil, 0)
	if !c.IsOffscreen() {
		t.Error("IsOffscreen() = false")
	}
	c.SetActive(true)
	u := c.CreateUpdater()
	if !u.Active() {
		t.Error("new updater must inherit the active state")
	}
	u.AllocateRegion(image.Pt(3, 3))
	u.Draw(image.Rect(0, 0, 3, 3), nil)

	c.SetActive(false)
	u.Draw(image.Rect(0, 0, 3, 3), nil)
	if len(calls) != 1 {
		t.Errorf("paints = %d, want 1", len(calls))
	}

	second := c.CreateUpdater()
	if u.Region() != nil || second == u {
		t.Error("CreateUpdater must close the previous updater")
	}
	c.Close()
	if c.Updater() != nil {
		t.Error("Close must drop the updater")
	}
}

func TestDisplayClientSwapNoConsumer(t *testing.T) {
	c := NewDisplayClient(nil, nil, 0)
	var got gpu.SyncToken
	calls := 0
	c.OnSwapBuffers(image.Pt(10, 20), gpu.SyncToken{Namespace: gpu.NamespaceGPUIO, ReleaseCount: 5}, func(token gpu.SyncToken, lost bool) {
		calls++
		got = token
	})
	if calls != 1 || !got.IsZero() {
		t.Errorf("release calls = %d, token = %+v; want one call with zero token", calls, got)
	}
	if c.TextureRect() != image.Rect(0, 0, 10, 20) {
		t.Errorf("TextureRect() = %v", c.TextureRect())
	}
}

func TestDisplayClientSwapConsumer(t *testing.T) {
	var (
		gotMailbox gpu.Mailbox
		gotToken   gpu.SyncToken
		gotRect    image.Rectangle
		held       *gpu.Release
	)
	c := NewDisplayClient(nil, func(m gpu.Mailbox, tok gpu.SyncToken, r image.Rectangle, rel *gpu.Release) {
		gotMailbox, gotToken, gotRect, held = m, tok, r, rel
	}, 0)

	mb := gpu.Mailbox{Name: [gpu.MailboxNameSize]byte{1, 2, 3}, SharedImage: true}
	c.BackingTextureCreated(mb)

	released := 0
	tok := gpu.SyncToken{Namespace: gpu.NamespaceGPUIO, CommandBufferID: 1, ReleaseCount: 2}
	c.OnSwapBuffers(image.Pt(8, 8), tok, func(gpu.SyncToken, bool) { released++ })

	if gotMailbox != mb || gotToken != tok || gotRect != image.Rect(0, 0, 8, 8) {
		t.Errorf("consumer got %v %+v %v", gotMailbox, gotToken, gotRect)
	}
	if released != 0 {
		t.Fatal("release must wait for the consumer")
	}
	held.Drop()
	held.Drop()
	if released != 1 {
		t.Errorf("released = %d, want 1", released)
	}

	c.OnSwapBuffers(image.Pt(8, 8), tok, nil)
	if !gotMailbox.IsZero() {
		t.Error("mailbox must be consumed by the previous swap")
	}
}
