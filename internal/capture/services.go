package capture

import (
	"strconv"
	"strings"
)

var commonPorts = map[int]string{
	20:   "FTP-DATA",
	21:   "FTP",
	22:   "SSH",
	23:   "Telnet",
	25:   "SMTP",
	53:   "DNS",
	80:   "HTTP",
	110:  "POP3",
	143:  "IMAP",
	443:  "HTTPS",
	853:  "DoT",
	3306: "MySQL",
	5432: "PostgreSQL",
	6379: "Redis",
	8080: "HTTP-Alt",
	8443: "HTTPS-Alt",
}

// ServiceName returns the common name for a port, or the port number as a string.
func ServiceName(port int) string {
	if name, ok := commonPorts[port]; ok {
		return name
	}
	return strconv.Itoa(port)
}

// DescribePorts lists ports by service name, e.g. "HTTP, HTTPS".
func DescribePorts(ports []int) string {
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, ServiceName(p))
	}
	return strings.Join(names, ", ")
}
