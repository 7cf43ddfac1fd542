package switches

import (
	"context"
	"sync"

	"github.com/matzehuels/switchyard/pkg/errors"
)

// fakeRemote records calls and lets tests hold a toggle in flight.
type fakeRemote struct {
	mu       sync.Mutex
	configs  map[string]Config
	position map[string]Position

	toggleErr    error
	configsErr   error
	updateErr    error
	updateResult *Config
	autoErr      error

	gate    chan struct{} // when non-nil, Toggle blocks until closed
	entered chan string   // receives the id when Toggle starts

	toggles []string
	updates []Config
	tests   []Position
	angles  []angleCall
	sweeps  []string
	fetches int
}

type angleCall struct {
	id    string
	angle float64
	ch    Channel
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{configs: map[string]Config{}, position: map[string]Position{}}
}

func (f *fakeRemote) Toggle(ctx context.Context, id string) (Position, error) {
	f.mu.Lock()
	f.toggles = append(f.toggles, id)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- id
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Unknown, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "toggle %s", id)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggleErr != nil {
		return Unknown, f.toggleErr
	}
	p := f.position[id]
	if p == Unknown {
		p = Straight
	}
	next := p.Other()
	f.position[id] = next
	return next, nil
}

func (f *fakeRemote) SwitchConfigs(context.Context) (map[string]Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.configsErr != nil {
		return nil, f.configsErr
	}
	out := make(map[string]Config, len(f.configs))
	for k, v := range f.configs {
		out[k] = v
	}
	return out, nil
}

func (f *fakeRemote) UpdateSwitchConfig(_ context.Context, cfg Config) (*Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, cfg)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.configs[cfg.ID] = cfg
	return f.updateResult, nil
}

func (f *fakeRemote) TestServo(_ context.Context, _ string, pos Position) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tests = append(f.tests, pos)
	return nil
}

func (f *fakeRemote) SetAngle(_ context.Context, id string, angle float64, ch Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.angles = append(f.angles, angleCall{id: id, angle: angle, ch: ch})
	return nil
}

// AutoCalibrate stores the sweep angles on the switch's existing channel.
func (f *fakeRemote) AutoCalibrate(_ context.Context, id string) (*Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps = append(f.sweeps, id)
	if f.autoErr != nil {
		return nil, f.autoErr
	}
	cfg, ok := f.configs[id]
	if !ok || !cfg.Channel.IsSet() {
		return nil, errors.Verbatim(errors.ErrCodeValidation, "servo channel not assigned")
	}
	cfg.Angle0, cfg.Angle1 = SweepAngle0, SweepAngle1
	f.configs[id] = cfg
	f.position[id] = Diverging
	return &cfg, nil
}

func (f *fakeRemote) toggleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.toggles)
}
