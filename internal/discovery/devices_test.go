package discovery

import (
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/google/gopacket/pcap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubDevices(t *testing.T, ifs []pcap.Interface, err error) {
	t.Helper()
	orig := findAllDevs
	findAllDevs = func() ([]pcap.Interface, error) { return ifs, err }
	t.Cleanup(func() { findAllDevs = orig })
}

func TestListDevices(t *testing.T) {
	stubDevices(t, []pcap.Interface{
		{Name: "wlan0", Addresses: []pcap.InterfaceAddress{{IP: net.ParseIP("192.168.1.20")}}},
		{Name: "eth0", Description: "wired", Addresses: []pcap.InterfaceAddress{
			{IP: net.IP{10, 0, 0, 5}},
			{IP: net.ParseIP("fe80::1")},
			{IP: nil},
		}},
	}, nil)

	devices, err := ListDevices()
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, "eth0", devices[0].Name)
	assert.Equal(t, "wired", devices[0].Description)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("10.0.0.5"), netip.MustParseAddr("fe80::1")}, devices[0].Addresses)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("192.168.1.20")}, devices[1].Addresses)
}

func TestFindDevice(t *testing.T) {
	stubDevices(t, []pcap.Interface{{Name: "eth0"}, {Name: "lo"}}, nil)

	d, err := FindDevice("lo")
	require.NoError(t, err)
	assert.Equal(t, "lo", d.Name)

	_, err = FindDevice("wlan9")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestFindDeviceListError(t *testing.T) {
	boom := errors.New("permission denied")
	stubDevices(t, nil, boom)

	_, err := FindDevice("eth0")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrDeviceNotFound)
}
