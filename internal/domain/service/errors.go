package service

import (
	"errors"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/controller"
	"alexa-smarthome-bridge/internal/domain/device"
	"alexa-smarthome-bridge/internal/ports"
)

var (
	ErrEndpointNotFound = errors.New("endpoint not found")
	ErrUnknownItem      = errors.New("no device for hub item")
	ErrInvalidDevice    = errors.New("invalid device")
)

// maxWriteAttempts bounds the read-modify-write loop on version conflicts.
const maxWriteAttempts = 3

// ErrorType maps an error to the Alexa ErrorResponse type that reports it.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, ErrEndpointNotFound):
		return alexa.ErrorNoSuchEndpoint
	case errors.Is(err, device.ErrUnsupportedDirective):
		return alexa.ErrorInvalidDirective
	case errors.Is(err, controller.ErrUnknownCapability),
		errors.Is(err, device.ErrFieldConflict),
		errors.Is(err, ErrInvalidDevice):
		return alexa.ErrorEndpointUnreachable
	}
	return alexa.ErrorInternal
}

func notFound(err error) bool {
	return errors.Is(err, ports.ErrNotFound)
}
