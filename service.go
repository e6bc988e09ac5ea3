package latchkey

import "fmt"

// defaultServices maps connection schemes to their conventional ports. Used
// when exactly one of port/scheme is supplied at entry creation.
var defaultServices = []struct {
	scheme string
	port   uint16
}{
	{"http", 80},
	{"https", 443},
	{"kafka", 9092},
	{"mongo", 27017},
	{"mysql", 3306},
	{"neo4j", 7474},
	{"pgql", 5432},
	{"redis", 6379},
	{"rsync", 873},
	{"smtp", 25},
	{"ssh", 22},
	{"ftp", 21},
}

// PortFor returns the default port for a scheme.
func PortFor(scheme string) (uint16, error) {
	for _, s := range defaultServices {
		if s.scheme == scheme {
			return s.port, nil
		}
	}
	return 0, fmt.Errorf("%w: unsupported service %q", ErrValidation, scheme)
}

// SchemeFor returns the scheme conventionally served on port, or "" when
// the port is not in the table.
func SchemeFor(port uint16) string {
	for _, s := range defaultServices {
		if s.port == port {
			return s.scheme
		}
	}
	return ""
}
