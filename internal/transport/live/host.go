package live

import (
	"errors"
	"fmt"
	"sync/atomic"

	"quiz-funnel/internal/interstitial"
)

var errDisconnected = errors.New("live: client disconnected")

// Mount and Unmount forward ad markup to the connected renderer, which owns
// the sandboxed element the markup is injected into.
func (s *session) Mount(markup string) (interstitial.Handle, error) {
	h := fmt.Sprintf("ad-%d", atomic.AddUint64(&s.handles, 1))
	if !s.send(outboundMessage{Type: TypeAdMount, Payload: adMountPayload{Handle: h, Markup: markup}}) {
		return "", errDisconnected
	}
	return interstitial.Handle(h), nil
}

func (s *session) Unmount(h interstitial.Handle) error {
	s.send(outboundMessage{Type: TypeAdUnmount, Payload: adUnmountPayload{Handle: string(h)}})
	return nil
}
