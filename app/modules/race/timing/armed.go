package timing

import "sync"

// ArmedChannels tells the decoder which start number an impulse without an
// embedded start number belongs to.
type ArmedChannels interface {
	Armed(ch Channel) (uint, bool)
}

// ArmedMap is an ArmedChannels set by the operator. It is safe for use from
// the model context and the decoder goroutine at the same time.
type ArmedMap struct {
	mu    sync.RWMutex
	armed map[Channel]uint
}

func NewArmedMap() *ArmedMap {
	return &ArmedMap{armed: map[Channel]uint{}}
}

func (a *ArmedMap) Arm(ch Channel, startNumber uint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.armed[ch] = startNumber
}

func (a *ArmedMap) Disarm(ch Channel) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.armed, ch)
}

func (a *ArmedMap) Armed(ch Channel) (uint, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	sn, ok := a.armed[ch]
	return sn, ok
}
