// Package latchkey holds the core types of the latchkey credential store:
// the Authority connection-identity codec, tagged Passkey secrets, the
// scheme/port service table and entry-name handling.
package latchkey

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

// Authority field limits and serialization constants. Changing the
// delimiter or field count breaks stored authorities.
const (
	MinPort    = 1
	MaxPort    = 1<<16 - 1
	MaxUserLen = 32

	// DefaultScheme is applied by callers that allow the scheme to be
	// omitted; Authority itself rejects an empty scheme.
	DefaultScheme = "tcp"

	authorityDelimiter = ":"
	authorityFields    = 4
)

// Resolver resolves a hostname to an IP address. It is a collaborator:
// NewAuthority falls back to parsing the host as a literal address when
// resolution fails.
type Resolver func(host string) (netip.Addr, error)

// Authority is the canonical identity of a remote endpoint. The host is a
// packed IPv4 address; the serialized form is
// "{host}:{port}:{user}:{scheme}" with exactly three delimiters.
type Authority struct {
	host   uint32
	port   uint16
	user   string
	scheme string
}

// NewAuthority builds an Authority from raw fields, resolving host through
// the system resolver. The scheme must be non-empty; callers that allow it
// to be omitted pass DefaultScheme.
func NewAuthority(host string, port int, user, scheme string) (*Authority, error) {
	return ResolveAuthority(lookupIPv4, host, port, user, scheme)
}

// ResolveAuthority is NewAuthority with an explicit resolver.
func ResolveAuthority(resolve Resolver, host string, port int, user, scheme string) (*Authority, error) {
	addr, err := resolve(host)
	if err != nil {
		// Resolution failure is non-fatal: the host may be a literal address.
		addr, err = netip.ParseAddr(host)
		if err != nil {
			return nil, fmt.Errorf("%w: unresolvable host %q", ErrValidation, host)
		}
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return nil, fmt.Errorf("%w: host %q is not an IPv4 address", ErrValidation, host)
	}
	a := &Authority{}
	a.setHost(addr)
	if err := a.setPort(port); err != nil {
		return nil, err
	}
	if err := a.setUser(user); err != nil {
		return nil, err
	}
	if err := a.setScheme(scheme); err != nil {
		return nil, err
	}
	return a, nil
}

// Recover reconstructs an Authority from its serialized form.
func Recover(serialized string) (*Authority, error) {
	if strings.Count(serialized, authorityDelimiter) != authorityFields-1 {
		return nil, fmt.Errorf("%w: cannot recover authority from %q", ErrValidation, serialized)
	}
	parts := strings.SplitN(serialized, authorityDelimiter, authorityFields)
	host, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid packed host %q", ErrValidation, parts[0])
	}
	port, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid port %q", ErrValidation, parts[1])
	}
	a := &Authority{host: uint32(host)}
	if err := a.setPort(int(port)); err != nil {
		return nil, err
	}
	if err := a.setUser(parts[2]); err != nil {
		return nil, err
	}
	if err := a.setScheme(parts[3]); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Authority) setHost(addr netip.Addr) {
	b := addr.As4()
	a.host = binary.BigEndian.Uint32(b[:])
}

func (a *Authority) setPort(port int) error {
	if port < MinPort || port > MaxPort {
		return fmt.Errorf("%w: port %d out of range [%d,%d]", ErrValidation, port, MinPort, MaxPort)
	}
	a.port = uint16(port)
	return nil
}

func (a *Authority) setUser(user string) error {
	if user == "" {
		return fmt.Errorf("%w: empty user", ErrValidation)
	}
	if len(user) > MaxUserLen {
		return fmt.Errorf("%w: user exceeds %d characters", ErrValidation, MaxUserLen)
	}
	a.user = user
	return nil
}

func (a *Authority) setScheme(scheme string) error {
	if scheme == "" {
		return fmt.Errorf("%w: empty scheme", ErrValidation)
	}
	a.scheme = scheme
	return nil
}

// Host returns the packed IPv4 host.
func (a *Authority) Host() uint32 { return a.host }

// HostIP4 returns the host as a dotted-quad IPv4 string.
func (a *Authority) HostIP4() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], a.host)
	return netip.AddrFrom4(b).String()
}

// Port returns the port number.
func (a *Authority) Port() uint16 { return a.port }

// User returns the connection username.
func (a *Authority) User() string { return a.user }

// Scheme returns the connection scheme.
func (a *Authority) Scheme() string { return a.scheme }

// String returns the canonical serialized form.
func (a *Authority) String() string {
	return fmt.Sprintf("%d:%d:%s:%s", a.host, a.port, a.user, a.scheme)
}

// Read renders the authority either as "scheme://user@ipv4:port" for humans
// or as the canonical serialized form.
func (a *Authority) Read(humanReadable bool) string {
	if humanReadable {
		return fmt.Sprintf("%s://%s@%s:%d", a.scheme, a.user, a.HostIP4(), a.port)
	}
	return a.String()
}

// Signature returns the CRC32 checksum of the canonical form as lowercase
// hex without padding. Two authorities are equal iff their signatures match.
func (a *Authority) Signature() string {
	return Sign(a.String())
}

// Sign computes the signature of a serialized authority.
func Sign(serialized string) string {
	return strconv.FormatUint(uint64(crc32.ChecksumIEEE([]byte(serialized))), 16)
}

// Equal reports whether two authorities have the same signature.
func (a *Authority) Equal(other *Authority) bool {
	if other == nil {
		return false
	}
	return a.Signature() == other.Signature()
}

// lookupIPv4 resolves host through the system resolver and returns its
// first IPv4 address.
func lookupIPv4(host string) (netip.Addr, error) {
	ips, err := net.LookupIP(host)
	if err != nil {
		return netip.Addr{}, err
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			addr, ok := netip.AddrFromSlice(v4)
			if ok {
				return addr, nil
			}
		}
	}
	return netip.Addr{}, fmt.Errorf("no IPv4 address for %q", host)
}
