// Package pcap implements the capture mechanism on top of libpcap
package pcap

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/google/gopacket/pcapgo"

	"github.com/wikicap/wikicap/pkg/capture"
)

// DefaultSnapshotLen is the portion of each packet to keep, in bytes
const DefaultSnapshotLen = 262144

// DefaultReadTimeout bounds a single read from the capture handle, so that
// polls wake up regularly and the loop can observe cancellations
const DefaultReadTimeout = 250 * time.Millisecond

// ErrElevatedPrivileges signals that opening a capture handle requires
// elevated privileges
var ErrElevatedPrivileges = errors.New("capturing packets requires elevated privileges, run with sudo")

// Config defines the options of a Sniffer
type Config struct {
	// SnapshotLen is the maximum number of bytes kept per packet
	SnapshotLen int32
	// Promiscuous enables promiscuous mode on the capture handle
	Promiscuous bool
	// ReadTimeout bounds a single read from the capture handle
	ReadTimeout time.Duration
}

// Sniffer captures live traffic from a network interface using libpcap.
// The capture handle is opened on the first poll, using that poll's
// interface and filter, and reused until Close is called.
type Sniffer struct {
	config   Config
	handle   *pcap.Handle
	linkType layers.LinkType
}

// NewSniffer creates a Sniffer with the given configuration, applying
// defaults for unset values
func NewSniffer(config Config) *Sniffer {
	if config.SnapshotLen <= 0 {
		config.SnapshotLen = DefaultSnapshotLen
	}

	if config.ReadTimeout <= 0 {
		config.ReadTimeout = DefaultReadTimeout
	}

	return &Sniffer{
		config:   config,
		linkType: layers.LinkTypeEthernet,
	}
}

// Poll implements the capture.Capturer interface. It reads packets from the
// interface until the window elapses and returns them
func (s *Sniffer) Poll(iface string, filter string, window time.Duration) ([]capture.Packet, error) {
	handle, err := s.open(iface, filter)
	if err != nil {
		return nil, err
	}

	var packets []capture.Packet
	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		data, info, err := handle.ReadPacketData()
		if err != nil {
			// the handle's read timeout elapsed without traffic
			if errors.Is(err, pcap.NextErrorTimeoutExpired) {
				continue
			}

			return nil, fmt.Errorf("reading packet from %q: %w", iface, err)
		}

		packets = append(packets, capture.Packet{Data: data, Info: info})
	}

	return packets, nil
}

// WriteArtifact implements the capture.Capturer interface. It writes the
// packets to a classic pcap file at the given path
func (s *Sniffer) WriteArtifact(path string, packets []capture.Packet) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating capture file %q: %w", path, err)
	}

	writer := pcapgo.NewWriter(file)
	err = writer.WriteFileHeader(uint32(s.config.SnapshotLen), s.linkType)
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("writing capture file header: %w", err)
	}

	for _, packet := range packets {
		err = writer.WritePacket(packet.Info, packet.Data)
		if err != nil {
			_ = file.Close()
			return fmt.Errorf("writing packet to %q: %w", path, err)
		}
	}

	return file.Close()
}

// Close releases the capture handle. The Sniffer can be reused, the next
// poll will open a new handle
func (s *Sniffer) Close() {
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
}

func (s *Sniffer) open(iface, filter string) (*pcap.Handle, error) {
	if s.handle != nil {
		return s.handle, nil
	}

	handle, err := pcap.OpenLive(iface, s.config.SnapshotLen, s.config.Promiscuous, s.config.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("opening capture on %q: %w", iface, err)
	}

	if filter != "" {
		err = handle.SetBPFFilter(filter)
		if err != nil {
			handle.Close()
			return nil, fmt.Errorf("setting filter %q: %w", filter, err)
		}
	}

	s.handle = handle
	s.linkType = handle.LinkType()

	return handle, nil
}

// CheckPrivileges verifies the process can open live capture handles
func CheckPrivileges() error {
	if os.Geteuid() != 0 {
		return ErrElevatedPrivileges
	}

	return nil
}

// Device describes a network interface available for capture
type Device struct {
	Name        string
	Description string
	Addresses   []string
}

// Devices returns the network interfaces libpcap can capture from
func Devices() ([]Device, error) {
	ifaces, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("listing capture devices: %w", err)
	}

	devices := make([]Device, 0, len(ifaces))
	for _, iface := range ifaces {
		device := Device{
			Name:        iface.Name,
			Description: iface.Description,
		}
		for _, address := range iface.Addresses {
			device.Addresses = append(device.Addresses, address.IP.String())
		}

		devices = append(devices, device)
	}

	return devices, nil
}
