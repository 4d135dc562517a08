package compositor

import (
	"image"

	"github.com/ivlev/photoreel/internal/system"
)

// Sequence walks the timeline one frame at a time, Scanner style:
//
//	seq := gen.Frames(pool)
//	defer seq.Close()
//	for seq.Next() {
//		sink.WriteFrame(seq.Frame())
//	}
//
// The buffer returned by Frame is reused by the following call to Next.
// A Sequence cannot be restarted.
type Sequence struct {
	g    *Generator
	pool *system.FramePool
	buf  *image.RGBA
	next int
	cur  int
	done bool
}

func (s *Sequence) Next() bool {
	if s.done {
		return false
	}
	if s.next >= s.g.total {
		s.Close()
		return false
	}
	if s.buf == nil {
		if s.pool != nil {
			s.buf = s.pool.Get(s.g.Bounds())
		} else {
			s.buf = image.NewRGBA(s.g.Bounds())
		}
	}
	s.g.RenderFrame(s.next, s.buf)
	s.cur = s.next
	s.next++
	return true
}

// Frame is the buffer rendered by the last successful Next.
func (s *Sequence) Frame() *image.RGBA {
	if s.done {
		return nil
	}
	return s.buf
}

// Index is the frame index rendered by the last successful Next, or -1.
func (s *Sequence) Index() int { return s.cur }

func (s *Sequence) Time() float64 { return s.g.Time(s.cur) }

func (s *Sequence) Total() int { return s.g.total }

// Close releases the frame buffer. It is safe to call more than once.
func (s *Sequence) Close() {
	if s.done {
		return
	}
	s.done = true
	if s.buf != nil && s.pool != nil {
		s.pool.Put(s.buf)
	}
	s.buf = nil
}
