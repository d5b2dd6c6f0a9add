package session

// LockCount reports how many learner locks are held or awaited.
func (t *Tutor) LockCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
