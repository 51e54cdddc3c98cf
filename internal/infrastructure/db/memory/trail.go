package memory

import "github.com/freshcart/delivery-service/internal/core/domain"

// trail is a fixed-capacity ring of history points. Pushing onto a full ring
// overwrites the oldest point.
type trail struct {
	points []domain.HistoryPoint
	start  int
	size   int
}

func newTrail(capacity int) *trail {
	return &trail{points: make([]domain.HistoryPoint, capacity)}
}

func (t *trail) push(p domain.HistoryPoint) {
	if t.size < len(t.points) {
		t.points[(t.start+t.size)%len(t.points)] = p
		t.size++
		return
	}
	t.points[t.start] = p
	t.start = (t.start + 1) % len(t.points)
}

func (t *trail) snapshot() []domain.HistoryPoint {
	out := make([]domain.HistoryPoint, t.size)
	for i := 0; i < t.size; i++ {
		out[i] = t.points[(t.start+i)%len(t.points)]
	}
	return out
}
