package bootstrap

import (
	"fmt"
	"io"
	"time"
)

// InfrastructureInfo describes one piece of infrastructure opened for a run.
type InfrastructureInfo struct {
	Name    string
	Type    string // e.g. "warehouse", "storage", "tracing"
	Status  string
	Details string
	Healthy bool
}

// Summary tracks and displays what the application opened during startup.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	infrastructure  []InfrastructureInfo
}

// NewSummary creates a new bootstrap summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackInfrastructure adds an infrastructure entry.
func (s *Summary) TrackInfrastructure(name, componentType, status, details string, healthy bool) {
	s.infrastructure = append(s.infrastructure, InfrastructureInfo{
		Name:    name,
		Type:    componentType,
		Status:  status,
		Details: details,
		Healthy: healthy,
	})
}

// Infrastructure returns the tracked entries in registration order.
func (s *Summary) Infrastructure() []InfrastructureInfo {
	return append([]InfrastructureInfo(nil), s.infrastructure...)
}

// Write prints the summary tree to w.
func (s *Summary) Write(w io.Writer) {
	version := s.version
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(w, "\n🚀 %s v%s started in %.2fs\n\n", s.serviceName, version, s.startupDuration.Seconds())

	if len(s.infrastructure) == 0 {
		fmt.Fprintf(w, "   └── No infrastructure registered\n\n")
		return
	}

	fmt.Fprintf(w, "📊 Infrastructure\n")
	for i, inf := range s.infrastructure {
		prefix := "├──"
		if i == len(s.infrastructure)-1 {
			prefix = "└──"
		}
		fmt.Fprintf(w, "   %s %s %s [%s]: %s\n", prefix, statusIcon(inf.Status, inf.Healthy), inf.Name, inf.Type, inf.Details)
	}
	fmt.Fprintf(w, "\n")
}

func statusIcon(status string, healthy bool) string {
	if !healthy {
		return "❌"
	}
	switch status {
	case "active", "initialized", "connected", "healthy":
		return "✅"
	case "inactive", "disabled":
		return "⏸️"
	case "error", "failed":
		return "❌"
	default:
		return "⚠️"
	}
}
