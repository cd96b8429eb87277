package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"tinygo.org/x/bluetooth"

	"github.com/moffa90/go-cyacd-ota/bootloader"
	"github.com/moffa90/go-cyacd-ota/cyacd"
	"github.com/moffa90/go-cyacd-ota/protocol"
	"github.com/moffa90/go-cyacd-ota/simulator"
	"github.com/moffa90/go-cyacd-ota/transport/ble"
)

var (
	flashAddress     string
	flashName        string
	flashScanTimeout time.Duration
	flashSimulate    bool
	flashStrict      bool
	flashChunkSize   int
	flashYes         bool
)

func init() {
	f := flashCmd.Flags()
	f.StringVar(&flashAddress, "address", "", "BLE address of the target")
	f.StringVar(&flashName, "name", "", "advertised name of the target")
	f.DurationVar(&flashScanTimeout, "scan-timeout", ble.DefaultScanTimeout, "how long to scan for the target")
	f.BoolVar(&flashSimulate, "simulate", false, "flash an in-memory simulated device instead of BLE")
	f.BoolVar(&flashStrict, "strict", false, "abort on row checksum mismatches, undecodable responses and failed writes")
	f.IntVar(&flashChunkSize, "chunk-size", protocol.MaxSendDataSize, "maximum bytes per Send Data packet")
	f.BoolVarP(&flashYes, "yes", "y", false, "do not ask for confirmation")

	rootCmd.AddCommand(flashCmd)
}

var flashCmd = &cobra.Command{
	Use:   "flash <file>...",
	Short: "Flash one or more .cyacd images",
	Long:  "Flashes the given .cyacd images in order. Each image is programmed, verified and followed by the next; the bootloader is exited after the last one.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFlash,
}

// notifier is an endpoint that pushes characteristic updates to a handler.
type notifier interface {
	bootloader.Endpoint
	OnNotify(func([]byte))
	Close() error
}

func runFlash(cmd *cobra.Command, args []string) error {
	images := make([]*cyacd.Firmware, 0, len(args))
	for _, path := range args {
		fw, err := cyacd.Parse(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		printImage(os.Stdout, path, fw)
		images = append(images, fw)
	}

	if !flashYes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Flash %d image(s)", len(images)),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			return errors.New("aborted")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ep, err := openEndpoint(ctx, images)
	if err != nil {
		return err
	}
	defer func() { _ = ep.Close() }()

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("waiting for device"),
		progressbar.OptionSetPredictTime(false),
	)

	opts := []bootloader.Option{
		bootloader.WithLogger(newLogger(log, "updater")),
		bootloader.WithChunkSize(flashChunkSize),
		bootloader.WithProgressCallback(func(p bootloader.Progress) {
			bar.Describe(fmt.Sprintf("file %d/%d %s", p.File+1, p.TotalFiles, p.Phase))
			_ = bar.Set(int(p.Fraction * 100))
		}),
	}
	if flashStrict {
		opts = append(opts, bootloader.WithPolicy(bootloader.StrictPolicy()))
	}

	session := bootloader.NewSession(ep, bootloader.WithLogger(newLogger(log, "session")))
	u, err := bootloader.New(session, images, opts...)
	if err != nil {
		return err
	}

	session.OnFound(func(*bootloader.Session) {
		if err := u.Start(); err != nil {
			log.WithError(err).Error("start update")
		}
	})
	ep.OnNotify(session.HandleUpdate)
	if err := session.Poll(); err != nil {
		return err
	}

	err = u.Wait(ctx)
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		return err
	}

	color.New(color.FgGreen, color.Bold).Printf("flashed %d image(s) to %s\n", len(images), ep.ID())
	return nil
}

func openEndpoint(ctx context.Context, images []*cyacd.Firmware) (notifier, error) {
	if flashSimulate {
		cfg, err := simulatorConfig(images)
		if err != nil {
			return nil, err
		}
		cfg.Logger = newLogger(log, "simulator")
		return simulator.New(cfg), nil
	}

	ep, err := ble.Connect(ctx, bluetooth.DefaultAdapter, ble.Options{
		Address:     flashAddress,
		Name:        flashName,
		ScanTimeout: flashScanTimeout,
		Logger:      newLogger(log, "ble"),
	})
	if err != nil {
		return nil, err
	}
	return ep, nil
}

// simulatorConfig builds a device matching the first image, with flash
// arrays large enough to hold every row of every image.
func simulatorConfig(images []*cyacd.Firmware) (simulator.Config, error) {
	cfg := simulator.DefaultConfig()

	id, err := cyacd.HexToInt(images[0].Header.SiliconID)
	if err != nil {
		return cfg, fmt.Errorf("silicon id: %w", err)
	}
	rev, err := cyacd.HexToInt(images[0].Header.SiliconRev)
	if err != nil {
		return cfg, fmt.Errorf("silicon revision: %w", err)
	}
	cfg.SiliconID = uint32(id)
	cfg.SiliconRev = byte(rev)

	ranges := make(map[byte]protocol.FlashSize)
	for _, fw := range images {
		for _, row := range fw.Rows {
			r, ok := ranges[row.ArrayID]
			if !ok {
				r = protocol.FlashSize{StartRow: 0, EndRow: 0x01FF}
			}
			if row.RowNum > r.EndRow {
				r.EndRow = row.RowNum
			}
			ranges[row.ArrayID] = r
		}
	}
	if len(ranges) > 0 {
		cfg.FlashRanges = ranges
	}
	return cfg, nil
}
