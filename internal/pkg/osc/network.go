package osc

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

type Interface uint8

const (
	AP Interface = iota
	STA
	Both
)

// APFallback is the broadcast address of the default soft-AP subnet.
var APFallback = net.IPv4(192, 168, 4, 255)

var ErrNoAddress = errors.New("interface has no ipv4 address")

func (i Interface) String() string {
	switch i {
	case AP:
		return "ap"
	case STA:
		return "sta"
	case Both:
		return "both"
	default:
		return fmt.Sprintf("interface(%d)", uint8(i))
	}
}

// Members returns concrete interfaces selected by i.
func (i Interface) Members() []Interface {
	if i == Both {
		return []Interface{AP, STA}
	}
	return []Interface{i}
}

func ParseInterface(s string) (Interface, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ap":
		return AP, nil
	case "sta":
		return STA, nil
	case "both":
		return Both, nil
	default:
		return 0, fmt.Errorf("unsupported interface: \"%s\"", s)
	}
}

// Link is the network side of the queue.
type Link interface {
	Up(iface Interface) bool
	Broadcast(iface Interface) (net.IP, error)
	Send(addr *net.UDPAddr, payload []byte) error
}

// BroadcastAddr returns directed broadcast address of the network.
func BroadcastAddr(n *net.IPNet) net.IP {
	ip := n.IP.To4()
	mask := n.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	if ip == nil || len(mask) != net.IPv4len {
		return nil
	}
	b := make(net.IP, net.IPv4len)
	for i := range b {
		b[i] = ip[i] | ^mask[i]
	}
	return b
}

// UDPLink sends datagrams from a single socket, interfaces are looked up by OS link name.
type UDPLink struct {
	conn  *net.UDPConn
	names map[Interface]string
}

func NewUDPLink(localPort int, ap, sta string) (*UDPLink, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: localPort})
	if err != nil {
		return nil, fmt.Errorf("cannot open udp socket: %w", err)
	}
	return &UDPLink{
		conn:  conn,
		names: map[Interface]string{AP: ap, STA: sta},
	}, nil
}

func (l *UDPLink) iface(i Interface) (*net.Interface, error) {
	name := l.names[i]
	if name == "" {
		return nil, fmt.Errorf("%s interface not configured", i)
	}
	return net.InterfaceByName(name)
}

func (l *UDPLink) Up(i Interface) bool {
	iface, err := l.iface(i)
	return err == nil && iface.Flags&net.FlagUp != 0
}

func (l *UDPLink) Broadcast(i Interface) (net.IP, error) {
	iface, err := l.iface(i)
	if err != nil {
		return nil, err
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("cannot read %s addresses: %w", iface.Name, err)
	}
	for _, addr := range addrs {
		n, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ip := BroadcastAddr(n); ip != nil {
			return ip, nil
		}
	}
	if i == AP {
		return APFallback, nil
	}
	return nil, fmt.Errorf("%s: %w", iface.Name, ErrNoAddress)
}

func (l *UDPLink) Send(addr *net.UDPAddr, payload []byte) error {
	_, err := l.conn.WriteToUDP(payload, addr)
	return err
}

func (l *UDPLink) Close() error {
	return l.conn.Close()
}
