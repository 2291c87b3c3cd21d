package tensorcheck

import (
	"fmt"
	"sync"

	"github.com/leanovate/gopter"

	"github.com/tensorcheck/tensorcheck/errors"
	"github.com/tensorcheck/tensorcheck/internal/draw"
)

// DeviceKind identifies a compute device family.
type DeviceKind uint8

const (
	// CPU is the host processor, always available.
	CPU DeviceKind = iota
	// CUDA is an NVIDIA accelerator; available only when registered.
	CUDA
	// MPS is an Apple accelerator; available only when registered.
	MPS
	// Meta is the shape-only placeholder device. Meta tensors carry dtype and
	// shape but unspecified values, and meta modules refuse Forward.
	Meta
)

// String returns the kind name.
func (k DeviceKind) String() string {
	switch k {
	case CPU:
		return "cpu"
	case CUDA:
		return "cuda"
	case MPS:
		return "mps"
	case Meta:
		return "meta"
	default:
		return "unknown"
	}
}

// Device identifies a compute device by kind and ordinal.
type Device struct {
	Kind  DeviceKind
	Index int
}

// CPUDevice is the default device.
var CPUDevice = Device{Kind: CPU}

// MetaDevice is the shape-only placeholder device.
var MetaDevice = Device{Kind: Meta}

// String renders the device in the usual kind[:index] notation.
func (d Device) String() string {
	if d.Kind == CUDA {
		return fmt.Sprintf("cuda:%d", d.Index)
	}
	return d.Kind.String()
}

// IsMeta reports whether the device is the meta placeholder.
func (d Device) IsMeta() bool {
	return d.Kind == Meta
}

var deviceRegistry = struct {
	sync.RWMutex
	physical []Device
}{
	physical: []Device{CPUDevice},
}

// RegisterDevice adds an accelerator to the process-wide set of available
// physical devices. CPU is always present; the meta device is not physical
// and cannot be registered. Duplicate registration is a no-op.
func RegisterDevice(d Device) error {
	if d.IsMeta() {
		return errors.NewConfig(errors.ErrDeviceMeta, "meta device cannot be registered as physical", "device")
	}
	deviceRegistry.Lock()
	defer deviceRegistry.Unlock()
	for _, have := range deviceRegistry.physical {
		if have == d {
			return nil
		}
	}
	deviceRegistry.physical = append(deviceRegistry.physical, d)
	return nil
}

// PhysicalDevices returns a snapshot of the available physical devices.
func PhysicalDevices() []Device {
	deviceRegistry.RLock()
	defer deviceRegistry.RUnlock()
	return append([]Device(nil), deviceRegistry.physical...)
}

// DeviceAvailable reports whether the device is physically available or meta.
func DeviceAvailable(d Device) bool {
	if d.IsMeta() {
		return true
	}
	deviceRegistry.RLock()
	defer deviceRegistry.RUnlock()
	for _, have := range deviceRegistry.physical {
		if have == d {
			return true
		}
	}
	return false
}

// DeviceOptions configures the device generator.
type DeviceOptions struct {
	pool      []Device
	allowMeta bool
}

// NewDeviceOptions returns a default, valid device options value.
func NewDeviceOptions() DeviceOptions {
	return DeviceOptions{}
}

// WithDevices sets an explicit pool to sample from. When unset, the available
// physical devices are used.
func (o DeviceOptions) WithDevices(devices ...Device) DeviceOptions {
	o.pool = append(make([]Device, 0, len(devices)), devices...)
	return o
}

// WithAllowMeta controls whether the meta device joins the pool.
func (o DeviceOptions) WithAllowMeta(value bool) DeviceOptions {
	o.allowMeta = value
	return o
}

// Validate validates device options values.
func (o DeviceOptions) Validate() error {
	_, err := o.resolve()
	return err
}

func (o DeviceOptions) resolve() ([]Device, error) {
	pool := o.pool
	if pool == nil {
		pool = PhysicalDevices()
	}
	if o.allowMeta {
		pool = append(append([]Device(nil), pool...), MetaDevice)
	}
	if len(pool) == 0 {
		return nil, errors.NewConfig(errors.ErrDevicePoolEmpty, "no devices to sample from", "devices")
	}
	return pool, nil
}

// Devices returns a generator sampling from the available devices. By default
// only physical devices are drawn; the meta device joins the pool with
// WithAllowMeta.
func Devices(opts DeviceOptions) gopter.Gen {
	return func(p *gopter.GenParameters) *gopter.GenResult {
		pool, err := opts.resolve()
		if err != nil {
			return emptyResultOf(Device{})
		}
		return gopter.NewGenResult(draw.Pick(p, pool), gopter.NoShrinker)
	}
}
