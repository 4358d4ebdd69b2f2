package shortener

import "time"

func (l *Links) SetClock(now func() time.Time) {
	l.now = now
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}
