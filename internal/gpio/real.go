//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealWriter drives relay outputs on actual hardware using the Linux GPIO
// character device.
type RealWriter struct {
	chip  *gpiocdev.Chip
	valve *gpiocdev.Line // nil when disabled
	pump  *gpiocdev.Line // nil when disabled
}

// NewRealWriter requests the valve and pump lines as outputs, initially off.
// A negative pin leaves that output unmanaged.
func NewRealWriter(chipName string, pinValve, pinPump int) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}
	w := &RealWriter{chip: chip}

	if pinValve >= 0 {
		w.valve, err = chip.RequestLine(pinValve, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("freeze-guard-valve"))
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request valve pin %d: %w", pinValve, err)
		}
	}
	if pinPump >= 0 {
		w.pump, err = chip.RequestLine(pinPump, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("freeze-guard-pump"))
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request pump pin %d: %w", pinPump, err)
		}
	}
	return w, nil
}

// Apply sets both outputs.
func (w *RealWriter) Apply(valveOpen, pumpOn bool) error {
	var errs []error
	if w.valve != nil {
		if err := w.valve.SetValue(level(valveOpen)); err != nil {
			errs = append(errs, fmt.Errorf("set valve: %w", err))
		}
	}
	if w.pump != nil {
		if err := w.pump.SetValue(level(pumpOn)); err != nil {
			errs = append(errs, fmt.Errorf("set pump: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close drives both outputs low and releases the lines. The relays must not
// stay energised once the process exits.
func (w *RealWriter) Close() error {
	var errs []error
	for name, line := range map[string]*gpiocdev.Line{"valve": w.valve, "pump": w.pump} {
		if line == nil {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("reset %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	w.valve, w.pump = nil, nil
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		w.chip = nil
	}
	return errors.Join(errs...)
}
