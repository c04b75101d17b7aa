package command

import (
	"bufio"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/yl2chen/cidranger"

	"github.com/macwatch/macwatch/pkg/discover"
	"github.com/macwatch/macwatch/pkg/ip"
)

var (
	errSrcIP     = errors.New("invalid source IP")
	errSrcMAC    = errors.New("invalid source MAC")
	errRateLimit = errors.New("invalid ratelimit")
	errNoTargets = errors.New("requires at least one target MAC address")
)

type openFileFunc func() (io.ReadCloser, error)

type watchCmdOpts struct {
	json     bool
	passive  bool
	promisc  bool
	interval time.Duration

	iface       *net.Interface
	srcIP       net.IP
	srcMAC      net.HardwareAddr
	targets     []net.HardwareAddr
	probeSubnet *net.IPNet
	rateCount   int
	rateWindow  time.Duration
	excludeIPs  discover.IPContainer
	filterExpr  string

	rawInterface   string
	rawSrcMAC      string
	rawTargets     string
	targetsFile    string
	rawRateLimit   string
	rawExcludeFile string
}

func (o *watchCmdOpts) initCliFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "enable JSON output")
	cmd.Flags().BoolVar(&o.passive, "passive", false, "listen for replies without sending probe requests")
	cmd.Flags().BoolVar(&o.promisc, "promisc", false, "put the capture interface into promiscuous mode")
	cmd.Flags().DurationVar(&o.interval, "interval", discover.DefaultProbeInterval,
		strings.Join([]string{
			"set the probe interval for unresolved targets",
			"any expression accepted by time.ParseDuration is valid"}, "\n"))
	cmd.Flags().StringVarP(&o.rawInterface, "iface", "i", "", "set interface to send/receive packets")
	cmd.Flags().IPVar(&o.srcIP, "srcip", nil, "set source IP address for generated packets")
	cmd.Flags().StringVar(&o.rawSrcMAC, "srcmac", "", "set source MAC address for generated packets")
	cmd.Flags().StringVarP(&o.rawTargets, "targets", "t", "", "set comma-separated MAC addresses to watch")
	cmd.Flags().StringVar(&o.targetsFile, "targets-file", "", "set file with MAC addresses to watch, one-per line")
	cmd.Flags().StringVar(&o.filterExpr, "filter", "", "set custom pcap filter expression instead of the built-in one")
	cmd.Flags().StringVar(&o.rawExcludeFile, "exclude", "",
		strings.Join([]string{
			"set file with IPs or subnets in CIDR notation to exclude, one-per line.",
			"replies from excluded addresses never resolve a target."}, "\n"))
	cmd.Flags().StringVarP(&o.rawRateLimit, "rate", "r", "",
		strings.Join([]string{
			"set rate limit for generated probe packets",
			`format: "rateCount/rateWindow"`,
			"where rateCount is a number of packets, rateWindow is the time interval",
			"e.g. 1000/s -- 1000 packets per second", "500/7s -- 500 packets per 7 seconds\n"}, "\n"))
}

func (o *watchCmdOpts) parseRawOptions() (err error) {
	if len(o.rawSrcMAC) > 0 {
		if o.srcMAC, err = net.ParseMAC(o.rawSrcMAC); err != nil {
			return
		}
	}
	if len(o.rawTargets) > 0 {
		if o.targets, err = parseTargets(o.rawTargets); err != nil {
			return
		}
	}
	if len(o.targetsFile) > 0 {
		targets, err := parseTargetsFile(func() (io.ReadCloser, error) {
			return os.Open(o.targetsFile)
		})
		if err != nil {
			return err
		}
		o.targets = append(o.targets, targets...)
	}
	if len(o.rawRateLimit) > 0 {
		if o.rateCount, o.rateWindow, err = parseRateLimit(o.rawRateLimit); err != nil {
			return
		}
	}
	if len(o.rawExcludeFile) > 0 {
		if o.excludeIPs, err = parseExcludeFile(func() (io.ReadCloser, error) {
			return os.Open(o.rawExcludeFile)
		}); err != nil {
			return
		}
	}
	return
}

func (o *watchCmdOpts) parseOptions(args []string) (err error) {
	if err = o.parseRawOptions(); err != nil {
		return
	}
	if len(o.targets) == 0 {
		return errNoTargets
	}

	var dstSubnet *net.IPNet
	if len(args) > 0 {
		if dstSubnet, err = ip.ParseIPNet(args[0]); err != nil {
			return
		}
	}

	var ifaceIP net.IP
	if o.iface, ifaceIP, err = o.resolveInterface(dstSubnet); err != nil {
		return
	}
	if o.srcIP == nil {
		o.srcIP = ifaceIP
	}
	if o.srcMAC == nil {
		o.srcMAC = o.iface.HardwareAddr
	}

	if o.passive {
		return
	}
	if o.srcIP == nil {
		return errSrcIP
	}
	o.srcIP = o.srcIP.To4()
	if o.srcMAC == nil {
		return errSrcMAC
	}
	o.probeSubnet = dstSubnet
	if o.probeSubnet == nil {
		o.probeSubnet, err = ip.GetInterfaceSubnet(o.iface)
	}
	return
}

func (o *watchCmdOpts) resolveInterface(dstSubnet *net.IPNet) (iface *net.Interface, ifaceIP net.IP, err error) {
	if len(o.rawInterface) > 0 {
		if iface, err = net.InterfaceByName(o.rawInterface); err != nil {
			return
		}
		// a capture-only interface without an address is still usable
		ifaceIP, _ = ip.GetInterfaceIP(iface)
		return
	}
	if dstSubnet != nil {
		return ip.GetSubnetInterface(dstSubnet)
	}
	return ip.GetDefaultInterface()
}

func parseTargets(rawTargets string) (targets []net.HardwareAddr, err error) {
	for _, rawMAC := range strings.Split(rawTargets, ",") {
		rawMAC = strings.TrimSpace(rawMAC)
		if len(rawMAC) == 0 {
			continue
		}
		var mac net.HardwareAddr
		if mac, err = net.ParseMAC(rawMAC); err != nil {
			return nil, err
		}
		targets = append(targets, mac)
	}
	return
}

func parseTargetsFile(openFile openFileFunc) (targets []net.HardwareAddr, err error) {
	input, err := openFile()
	if err != nil {
		return
	}
	defer input.Close()

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := scanner.Text()
		if comment := strings.Index(line, "#"); comment != -1 {
			line = line[:comment]
		}
		line = strings.Trim(line, " ")
		if len(line) == 0 {
			continue
		}
		var mac net.HardwareAddr
		if mac, err = net.ParseMAC(line); err != nil {
			return nil, err
		}
		targets = append(targets, mac)
	}
	return targets, scanner.Err()
}

func parseRateLimit(rateLimit string) (rateCount int, rateWindow time.Duration, err error) {
	parts := strings.Split(rateLimit, "/")
	if len(parts) > 2 {
		return 0, 0, errRateLimit
	}
	var rate int64
	if rate, err = strconv.ParseInt(parts[0], 10, 32); err != nil || rate < 0 {
		return 0, 0, errRateLimit
	}
	rateCount = int(rate)
	rateWindow = 1 * time.Second
	if len(parts) < 2 {
		return
	}
	win := parts[1]
	if len(win) > 0 && (win[0] < '0' || win[0] > '9') {
		win = "1" + win
	}
	if rateWindow, err = time.ParseDuration(win); err != nil || rateWindow < 0 {
		return 0, 0, errRateLimit
	}
	return
}

func parseExcludeFile(openFile openFileFunc) (excludeIPs discover.IPContainer, err error) {
	input, err := openFile()
	if err != nil {
		return
	}
	defer input.Close()

	ranger := cidranger.NewPCTrieRanger()
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := scanner.Text()
		if comment := strings.Index(line, "#"); comment != -1 {
			line = line[:comment]
		}
		line = strings.Trim(line, " ")
		if len(line) == 0 {
			continue
		}
		var ipnet *net.IPNet
		if ipnet, err = ip.ParseIPNet(line); err != nil {
			return
		}
		if err = ranger.Insert(cidranger.NewBasicRangerEntry(*ipnet)); err != nil {
			return
		}
	}
	excludeIPs = ranger
	return
}
