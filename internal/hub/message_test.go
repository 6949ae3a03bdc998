package hub

import "testing"

func TestComputeDelta(t *testing.T) {
	old := State{LastInput: "A", LongPressMs: 200, LongMoveMs: 500, Visible: true}

	t.Run("unchanged", func(t *testing.T) {
		if d := ComputeDelta(old, old); !d.IsEmpty() {
			t.Fatalf("delta = %+v, want empty", d)
		}
	})

	t.Run("changed fields only", func(t *testing.T) {
		cur := old
		cur.LastCommand = "+mlup"
		cur.Visible = false

		d := ComputeDelta(old, cur)
		if d.IsEmpty() {
			t.Fatal("delta is empty")
		}
		if d.LastCommand == nil || *d.LastCommand != "+mlup" {
			t.Errorf("lastCommand = %v", d.LastCommand)
		}
		if d.Visible == nil || *d.Visible {
			t.Errorf("visible = %v", d.Visible)
		}
		if d.LastInput != nil || d.LongPressMs != nil || d.TestMode != nil {
			t.Errorf("unexpected fields in %+v", d)
		}
	})
}
