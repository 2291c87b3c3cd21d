package tensorcheck_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorcheck/tensorcheck"
	tcerrors "github.com/tensorcheck/tensorcheck/errors"
)

func contains(pool []tensorcheck.Device, d tensorcheck.Device) bool {
	for _, have := range pool {
		if have == d {
			return true
		}
	}
	return false
}

func TestDevicesDefaultOnlyPhysical(t *testing.T) {
	properties := gopter.NewProperties(tensorcheck.ParametersWithSeed(1))

	properties.Property("drawn device is physical and available", prop.ForAll(
		func(d tensorcheck.Device) bool {
			return !d.IsMeta() && contains(tensorcheck.PhysicalDevices(), d)
		},
		tensorcheck.Devices(tensorcheck.NewDeviceOptions()),
	))

	properties.TestingRun(t)
}

func TestDevicesWithMeta(t *testing.T) {
	properties := gopter.NewProperties(tensorcheck.ParametersWithSeed(2))

	properties.Property("drawn device is physical or meta", prop.ForAll(
		func(d tensorcheck.Device) bool {
			return d.IsMeta() || contains(tensorcheck.PhysicalDevices(), d)
		},
		tensorcheck.Devices(tensorcheck.NewDeviceOptions().WithAllowMeta(true)),
	))

	properties.TestingRun(t)

	// Meta must actually appear in the pool.
	var sawMeta bool
	g := tensorcheck.Devices(tensorcheck.NewDeviceOptions().WithAllowMeta(true))
	p := seededGenParams(3)
	for i := 0; i < 200; i++ {
		v, ok := g(p).Retrieve()
		require.True(t, ok)
		if v.(tensorcheck.Device).IsMeta() {
			sawMeta = true
			break
		}
	}
	assert.True(t, sawMeta, "meta device never drawn in 200 attempts")
}

func TestDevicesWithExplicitPool(t *testing.T) {
	pool := []tensorcheck.Device{tensorcheck.CPUDevice}
	properties := gopter.NewProperties(tensorcheck.ParametersWithSeed(4))

	properties.Property("drawn device comes from the explicit pool", prop.ForAll(
		func(d tensorcheck.Device) bool { return d == tensorcheck.CPUDevice },
		tensorcheck.Devices(tensorcheck.NewDeviceOptions().WithDevices(pool...)),
	))

	properties.TestingRun(t)
}

func TestRegisterDevice(t *testing.T) {
	cuda1 := tensorcheck.Device{Kind: tensorcheck.CUDA, Index: 1}
	require.NoError(t, tensorcheck.RegisterDevice(cuda1))
	require.NoError(t, tensorcheck.RegisterDevice(cuda1), "duplicate registration must be a no-op")

	devices := tensorcheck.PhysicalDevices()
	assert.True(t, contains(devices, tensorcheck.CPUDevice))
	assert.True(t, contains(devices, cuda1))

	count := 0
	for _, d := range devices {
		if d == cuda1 {
			count++
		}
	}
	assert.Equal(t, 1, count, "duplicate registration must not grow the pool")

	assert.True(t, tensorcheck.DeviceAvailable(cuda1))
	assert.True(t, tensorcheck.DeviceAvailable(tensorcheck.MetaDevice))
	assert.False(t, tensorcheck.DeviceAvailable(tensorcheck.Device{Kind: tensorcheck.CUDA, Index: 99}))
}

func TestRegisterDeviceRejectsMeta(t *testing.T) {
	err := tensorcheck.RegisterDevice(tensorcheck.MetaDevice)
	require.Error(t, err)
	assert.Equal(t, tcerrors.ErrDeviceMeta, tcerrors.CodeOf(err))
}

func TestDeviceString(t *testing.T) {
	tests := []struct {
		device tensorcheck.Device
		want   string
	}{
		{tensorcheck.CPUDevice, "cpu"},
		{tensorcheck.Device{Kind: tensorcheck.CUDA, Index: 2}, "cuda:2"},
		{tensorcheck.Device{Kind: tensorcheck.MPS}, "mps"},
		{tensorcheck.MetaDevice, "meta"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.device.String())
	}
}

func TestDeviceOptionsEmptyPool(t *testing.T) {
	err := tensorcheck.NewDeviceOptions().WithDevices().Validate()
	require.Error(t, err)
	assert.Equal(t, tcerrors.ErrDevicePoolEmpty, tcerrors.CodeOf(err))
}
