package segment

import (
	"bytes"
	"testing"

	"github.com/tamirms/streamsim/internal/vote"
)

type collected struct {
	Index, Start, End int64
	Sign              []byte
}

func collector(out *[]collected) func(Closed) {
	return func(c Closed) {
		*out = append(*out, collected{c.Index, c.Start, c.End, bytes.Clone(c.Sign)})
	}
}

func TestSingleBlock(t *testing.T) {
	var got []collected
	s := New(10, vote.New(8))
	emit := collector(&got)

	s.Advance(3, 4, emit)
	s.Vote([]byte{0xf0}, 1)
	s.Advance(9, 10, emit)
	s.Vote([]byte{0xf0}, 1)
	if len(got) != 0 {
		t.Fatalf("blocks emitted before crossing: %+v", got)
	}
	s.Finish(10, emit)

	if len(got) != 1 {
		t.Fatalf("got %d blocks, want 1", len(got))
	}
	b := got[0]
	if b.Index != 0 || b.Start != 0 || b.End != 10 || b.Sign[0] != 0xf0 {
		t.Fatalf("block = %+v", b)
	}
}

// TestSkipsUntouchedBlocks verifies that a jump over several block indices
// emits only the touched block and that the gap produces no records.
func TestSkipsUntouchedBlocks(t *testing.T) {
	var got []collected
	s := New(4, vote.New(8))
	emit := collector(&got)

	s.Advance(1, 2, emit)
	s.Vote([]byte{0x01}, 1)
	s.Advance(17, 18, emit) // block 4; blocks 1-3 untouched
	if s.current != 4 {
		t.Fatalf("current block = %d, want 4", s.current)
	}
	s.Vote([]byte{0x02}, 1)
	s.Finish(19, emit)

	want := []collected{
		{0, 0, 4, []byte{0x01}},
		{4, 16, 19, []byte{0x02}},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d blocks, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.Index != w.Index || g.Start != w.Start || g.End != w.End || !bytes.Equal(g.Sign, w.Sign) {
			t.Errorf("block %d = %+v, want %+v", i, g, w)
		}
	}
}

// TestAdvanceWithoutVote covers a zero-weight feature: it still closes the
// previous block but leaves the new block untouched.
func TestAdvanceWithoutVote(t *testing.T) {
	var got []collected
	s := New(4, vote.New(8))
	emit := collector(&got)

	s.Advance(0, 1, emit)
	s.Vote([]byte{0xff}, 1)
	s.Advance(5, 6, emit)
	if len(got) != 1 || got[0].Index != 0 || got[0].End != 4 {
		t.Fatalf("after crossing: %+v", got)
	}
	s.Finish(6, emit)
	if len(got) != 1 {
		t.Fatalf("untouched final block emitted: %+v", got)
	}
}

// TestCountersResetBetweenBlocks verifies votes from one block do not leak
// into the next.
func TestCountersResetBetweenBlocks(t *testing.T) {
	var got []collected
	s := New(2, vote.New(8))
	emit := collector(&got)

	s.Advance(0, 1, emit)
	for range 5 {
		s.Vote([]byte{0xff}, 1)
	}
	s.Advance(2, 3, emit)
	s.Vote([]byte{0x0f}, 1)
	s.Finish(3, emit)

	if len(got) != 2 {
		t.Fatalf("got %d blocks, want 2", len(got))
	}
	if got[1].Sign[0] != 0x0f {
		t.Fatalf("second block sign = %08b, want 00001111", got[1].Sign[0])
	}
}

func TestFinishEmptyStream(t *testing.T) {
	var got []collected
	s := New(8, vote.New(64))
	s.Finish(0, collector(&got))
	if len(got) != 0 {
		t.Fatalf("empty stream emitted %+v", got)
	}
}

// TestEndClampedToBlock verifies End never exceeds the block's upper bound
// even when more bytes were consumed than the block holds.
func TestEndClampedToBlock(t *testing.T) {
	var got []collected
	s := New(8, vote.New(8))
	emit := collector(&got)

	s.Advance(7, 8, emit)
	s.Vote([]byte{1}, 1)
	s.Finish(100, emit)
	if len(got) != 1 || got[0].End != 8 {
		t.Fatalf("got %+v, want End=8", got)
	}
}
