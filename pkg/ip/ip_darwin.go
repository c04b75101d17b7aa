//go:build darwin
// +build darwin

package ip

import (
	"fmt"
	"net"
	"os/exec"
	"regexp"
)

// GetDefaultInterface returns the interface carrying the default route
// and its gateway address, parsed from route(8) output.
func GetDefaultInterface() (iface *net.Interface, ifaceIP net.IP, err error) {
	routeCmd := exec.Command("/sbin/route", "-n", "get", "0.0.0.0")
	output, err := routeCmd.CombinedOutput()
	if err != nil {
		return nil, nil, err
	}

	ifname := parseValue("interface", string(output))
	if len(ifname) <= 0 {
		return nil, nil, fmt.Errorf("no interface found")
	}

	ifi, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, nil, err
	}
	ifaceIP, err = GetInterfaceIP(ifi)
	return ifi, ifaceIP, err
}

func parseValue(key, data string) string {
	r := regexp.MustCompile(fmt.Sprintf(".*%s:\\s*([^\\s\\n]*){0,1}\\s*\\n.*", key))
	match := r.FindStringSubmatch(data)
	if match != nil && len(match) == 2 {
		return match[1]
	}
	return ""
}
