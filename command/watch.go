package command

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/ratelimit"

	"github.com/macwatch/macwatch/command/log"
	"github.com/macwatch/macwatch/pkg/arp"
	"github.com/macwatch/macwatch/pkg/capture"
	"github.com/macwatch/macwatch/pkg/capture/device"
	"github.com/macwatch/macwatch/pkg/discover"
	"github.com/macwatch/macwatch/pkg/filter"
)

var watchOpts watchCmdOpts

func init() {
	watchOpts.initCliFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use: "watch [flags] [subnet]",
	Example: strings.Join([]string{
		"watch -t 00:11:22:33:44:55 192.168.0.1/24",
		"watch --passive -t 00:11:22:33:44:55,00:11:22:33:44:66",
		"watch --targets-file macs.txt -i eth0"}, "\n"),
	Short: "Watch for IP address bindings of target MAC addresses",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := watchOpts.parseOptions(args); err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		return startWatch(ctx, &watchOpts)
	},
}

func openHandle(opts *watchCmdOpts) (capture.Handle, error) {
	var devOpts []device.Option
	if opts.promisc {
		devOpts = append(devOpts, device.Promiscuous())
	}
	handle, err := device.Open(opts.iface.Name, devOpts...)
	if err != nil {
		return nil, err
	}

	prog := filter.ARPReply()
	if len(opts.filterExpr) > 0 {
		if prog, err = filter.CompileExpression(opts.filterExpr, arp.MaxFrameLength); err != nil {
			handle.Close()
			return nil, err
		}
	}
	if err = handle.Install(prog); err != nil {
		handle.Close()
		return nil, err
	}

	if opts.rateCount > 0 {
		handle = capture.NewRateLimitHandle(handle,
			ratelimit.New(opts.rateCount, ratelimit.Per(opts.rateWindow)))
	}
	return handle, nil
}

func startWatch(ctx context.Context, opts *watchCmdOpts) error {
	handle, err := openHandle(opts)
	if err != nil {
		return err
	}
	defer handle.Close()

	loggerOpts := []log.LoggerOption{log.FlushInterval(1 * time.Second)}
	if opts.json {
		loggerOpts = append(loggerOpts, log.JSON())
	}
	logger, err := log.NewLogger(os.Stdout, "watch", loggerOpts...)
	if err != nil {
		return err
	}

	engine := discover.New(handle, discover.Config{
		Targets:     opts.targets,
		ProbeSubnet: opts.probeSubnet,
		SrcIP:       opts.srcIP,
		SrcMAC:      opts.srcMAC,
		Interval:    opts.interval,
		Exclude:     opts.excludeIPs,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done, errc := engine.Start(ctx)

	// binding event logging
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.LogBindings(ctx, engine.Events())
	}()

	// error logging
	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range errc {
			logger.Error(err)
		}
	}()

	<-done
	wg.Wait()
	return nil
}
