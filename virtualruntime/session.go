package virtualruntime

import (
	"sync"

	"github.com/Alia5/vrpoll/tracking"
)

type session struct {
	rt     *Runtime
	mode   tracking.ApplicationMode
	mutex  sync.Mutex
	closed bool
}

func (s *session) isClosed() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.closed
}

func (s *session) DeviceIndexForRole(role tracking.ControllerRole) tracking.DeviceIndex {
	if s.isClosed() {
		return tracking.InvalidDeviceIndex
	}
	return s.rt.deviceIndexForRole(role)
}

func (s *session) DeviceClass(idx tracking.DeviceIndex) tracking.DeviceClass {
	if s.isClosed() {
		return tracking.ClassInvalid
	}
	return s.rt.deviceClass(idx)
}

func (s *session) SkeletalSummary(role tracking.ControllerRole) (tracking.SkeletalSummary, error) {
	if s.isClosed() {
		return tracking.SkeletalSummary{}, tracking.ErrSessionClosed
	}
	return s.rt.skeletalSummary(role)
}

func (s *session) Shutdown() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return tracking.ErrSessionClosed
	}
	s.closed = true
	s.rt.release()
	return nil
}
