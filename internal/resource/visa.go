package resource

import (
	"fmt"
	"regexp"
	"strings"
)

// Resource backends.
const (
	BackendTCP    = "tcp"
	BackendSerial = "serial"
	BackendGPIB   = "gpib"
)

var (
	gpibShortRe  = regexp.MustCompile(`^(\d+)$`)
	tcpIPShortRe = regexp.MustCompile(`^(\d+\.\d+\.\d+\.\d+)\:(\d+)$`)
	tcpShortRe   = regexp.MustCompile(`^(\w+)\:(\d+)$`)
	comShortRe   = regexp.MustCompile(`(?i)^COM(\d+)$`)
	asrlShortRe  = regexp.MustCompile(`(?i)^ASRL(\S+?)(::INSTR)?$`)

	tcpCanonRe  = regexp.MustCompile(`(?i)^TCPIP\d*::([^:]+)::(\d+)::SOCKET$`)
	gpibCanonRe = regexp.MustCompile(`(?i)^GPIB\d*::(\d+)::INSTR$`)
	asrlCanonRe = regexp.MustCompile(`(?i)^ASRL(\S+)::INSTR$`)
)

// Normalize expands short resource descriptors into canonical VISA-style
// resource names. Already-canonical names pass through unchanged.
//
//	"8"              -> "GPIB0::8::INSTR"
//	"127.0.0.1:4000" -> "TCPIP0::127.0.0.1::4000::SOCKET"
//	"localhost:4000" -> "TCPIP0::localhost::4000::SOCKET"
//	"COM8", "ASRL8"  -> "ASRL8::INSTR"
func Normalize(resourceName string) string {
	if m := gpibShortRe.FindStringSubmatch(resourceName); m != nil {
		return fmt.Sprintf("GPIB0::%s::INSTR", m[1])
	}
	if m := tcpIPShortRe.FindStringSubmatch(resourceName); m != nil {
		return fmt.Sprintf("TCPIP0::%s::%s::SOCKET", m[1], m[2])
	}
	if m := tcpShortRe.FindStringSubmatch(resourceName); m != nil {
		return fmt.Sprintf("TCPIP0::%s::%s::SOCKET", m[1], m[2])
	}
	if m := comShortRe.FindStringSubmatch(resourceName); m != nil {
		return fmt.Sprintf("ASRL%s::INSTR", m[1])
	}
	if strings.Contains(resourceName, "::") {
		return resourceName
	}
	if m := asrlShortRe.FindStringSubmatch(resourceName); m != nil {
		return fmt.Sprintf("ASRL%s::INSTR", m[1])
	}
	return resourceName
}

// endpoint is a parsed canonical resource name.
type endpoint struct {
	backend string
	target  string // host:port, serial device, or GPIB address
}

func parseResourceName(resourceName string) (endpoint, error) {
	name := Normalize(resourceName)

	if m := tcpCanonRe.FindStringSubmatch(name); m != nil {
		return endpoint{backend: BackendTCP, target: m[1] + ":" + m[2]}, nil
	}
	if m := gpibCanonRe.FindStringSubmatch(name); m != nil {
		return endpoint{backend: BackendGPIB, target: m[1]}, nil
	}
	if m := asrlCanonRe.FindStringSubmatch(name); m != nil {
		return endpoint{backend: BackendSerial, target: serialDevice(m[1])}, nil
	}
	return endpoint{}, fmt.Errorf("unsupported resource name: %q", resourceName)
}

// serialDevice maps the ASRL board segment to an OS serial device. Numeric
// segments address COM ports, anything else is used as a device path.
func serialDevice(board string) string {
	if gpibShortRe.MatchString(board) {
		return "COM" + board
	}
	return board
}
