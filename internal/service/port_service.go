// internal/service/port_service.go
package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"serial-service/internal/discovery/usb"
	"serial-service/internal/protocol/serial"
	"serial-service/internal/utils"
)

// PortService enumerates the serial ports present on the host
type PortService struct {
	enumerator serial.Enumerator
	adapters   *usb.AdapterDatabase
	logger     *utils.ServiceLogger
}

// NewPortService creates a port service
func NewPortService(enumerator serial.Enumerator, logger *zap.Logger) *PortService {
	return &PortService{
		enumerator: enumerator,
		adapters:   usb.NewAdapterDatabase(),
		logger:     utils.NewServiceLogger(logger, "port-service"),
	}
}

// ListPorts returns the sorted device names. Enumeration failures are logged
// and reported as an empty list.
func (ps *PortService) ListPorts(ctx context.Context) []string {
	ports, err := ps.enumerator.ListPorts()
	if err != nil {
		ps.logger.Warn("Port enumeration failed", zap.Error(err))
		return []string{}
	}

	if ports == nil {
		return []string{}
	}

	sort.Strings(ports)
	return ports
}

// ListDetailedPorts returns ports with USB metadata, sorted by name. Known
// USB adapters are labelled with vendor and model. Failures degrade to an
// empty list like ListPorts.
func (ps *PortService) ListDetailedPorts(ctx context.Context) []*serial.PortDetails {
	details, err := ps.enumerator.ListDetailedPorts()
	if err != nil {
		ps.logger.Warn("Detailed port enumeration failed", zap.Error(err))
		return []*serial.PortDetails{}
	}

	if details == nil {
		return []*serial.PortDetails{}
	}

	for _, d := range details {
		if !d.IsUSB {
			continue
		}
		if id, ok := ps.adapters.Identify(d.VID, d.PID); ok {
			d.Vendor = id.Vendor
			d.Model = id.Model
			d.Kind = string(id.Kind)
		}
	}

	sort.Slice(details, func(i, j int) bool {
		return details[i].Name < details[j].Name
	})
	return details
}
