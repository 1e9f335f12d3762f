package pipeline

// Pool accumulates the ids waiting to be scored during one cycle. It is created per
// cycle and never shared between cycles.
type Pool struct {
	ids  []string
	seen map[string]struct{}
}

func NewPool() *Pool {
	return &Pool{seen: make(map[string]struct{})}
}

// Add appends ids that are not already pooled and returns how many were new.
func (p *Pool) Add(ids ...string) int {
	added := 0
	for _, id := range ids {
		if _, ok := p.seen[id]; ok {
			continue
		}
		p.seen[id] = struct{}{}
		p.ids = append(p.ids, id)
		added++
	}
	return added
}

func (p *Pool) Contains(id string) bool {
	_, ok := p.seen[id]
	return ok
}

func (p *Pool) Len() int {
	return len(p.ids)
}

// Take returns up to limit ids in insertion order. A limit of zero returns all of them.
func (p *Pool) Take(limit int) []string {
	if limit <= 0 || limit >= len(p.ids) {
		return append([]string(nil), p.ids...)
	}
	return append([]string(nil), p.ids[:limit]...)
}
