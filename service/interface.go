package service

import "fmt"

// Service defines the lifecycle interface for infrastructure subsystems
// Services manage long-lived resources: display drivers, audio backends, monitors
//
// Lifecycle:
//  1. Construction (via factory)
//  2. Init() - acquire resources (open devices, allocate buffers)
//  3. Start() - launch background goroutines
//  4. [runtime operation]
//  5. Stop() - halt goroutines, release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Init acquires the service's resources
	// Called before any service starts
	Init() error

	// Start begins service operation (launches goroutines if any)
	// Called after all services have initialized
	Start() error

	// Stop halts service operation and releases resources
	// Must be idempotent - safe to call multiple times
	Stop() error
}

// Group initializes and starts services in registration order and
// stops them in reverse. A failure during bring-up stops the services
// already running before the error is returned
type Group struct {
	services []Service
}

// Add appends a service to the group
func (g *Group) Add(s Service) {
	g.services = append(g.services, s)
}

// Up runs Init then Start across the group in order
func (g *Group) Up() error {
	for i, s := range g.services {
		if err := s.Init(); err != nil {
			for j := i - 1; j >= 0; j-- {
				g.services[j].Stop()
			}
			return fmt.Errorf("init %s: %w", s.Name(), err)
		}
	}
	for _, s := range g.services {
		if err := s.Start(); err != nil {
			g.Down()
			return fmt.Errorf("start %s: %w", s.Name(), err)
		}
	}
	return nil
}

// Down stops all services in reverse order. Stop is idempotent, so
// services that never started tolerate the call
func (g *Group) Down() {
	for i := len(g.services) - 1; i >= 0; i-- {
		g.services[i].Stop()
	}
}
