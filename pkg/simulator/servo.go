package simulator

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// Servo drives one servo channel to an angle in degrees.
type Servo interface {
	Move(ctx context.Context, channel int, angle float64) error
}

// LogServo records moves and logs them. It never fails.
type LogServo struct {
	Logger *log.Logger

	mu     sync.Mutex
	angles map[int]float64
}

// NewLogServo returns a LogServo writing to logger. A nil logger discards.
func NewLogServo(logger *log.Logger) *LogServo {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &LogServo{Logger: logger, angles: make(map[int]float64)}
}

func (s *LogServo) Move(_ context.Context, channel int, angle float64) error {
	s.mu.Lock()
	s.angles[channel] = angle
	s.mu.Unlock()
	s.Logger.Info("servo moved", "channel", channel, "angle", angle)
	return nil
}

// Angle returns the last angle sent to channel.
func (s *LogServo) Angle(channel int) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.angles[channel]
	return a, ok
}
