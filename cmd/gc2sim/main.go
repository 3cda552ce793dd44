// Command gc2sim emulates a GC2 launch monitor on TCP. It streams
// chunked key=value telemetry to every connected bridge and takes shot
// commands on stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openlaunch/gc2bridge/internal/device"
	"github.com/openlaunch/gc2bridge/internal/observability"
)

// burstDelay spaces burst shots so each two-phase emission finishes
// before the next begins.
const burstDelay = 500 * time.Millisecond

// burstSleep is replaceable in tests.
var burstSleep = time.Sleep

func main() {
	configPath := flag.String("config", "", "optional TOML config path")
	addr := flag.String("addr", "", "listen address override")
	flag.Parse()

	observability.InitLogger("gc2sim")

	cfg := device.DefaultSimulatorConfig()
	if *configPath != "" {
		loaded, err := loadSimulatorConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
		cfg = loaded
		log.Info().Str("path", *configPath).Msg("loaded simulator config")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	sim := device.NewSimulator(cfg)
	if err := sim.Start(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Addr).Msg("failed to start simulator")
	}
	defer sim.Stop()

	fmt.Println("commands: driver | 7iron | wedge | burst N | status | quit")
	if err := commandLoop(sim, os.Stdin); err != nil {
		log.Fatal().Err(err).Msg("command loop failed")
	}
}

// commandLoop blocks reading shot commands until quit or EOF.
func commandLoop(sim *device.Simulator, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(strings.ToLower(scanner.Text()))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "driver", "7iron", "wedge":
			shot := sim.FireShot(fields[0])
			fmt.Printf("shot %d: %s, %.1f mph, %.0f rpm\n",
				shot.ID, fields[0], shot.SpeedMPH, shot.TotalSpin)

		case "burst":
			n := 5
			if len(fields) > 1 {
				parsed, err := strconv.Atoi(fields[1])
				if err != nil || parsed <= 0 {
					fmt.Printf("burst wants a positive count, got %q\n", fields[1])
					continue
				}
				n = parsed
			}
			for i := 0; i < n; i++ {
				if i > 0 {
					burstSleep(burstDelay)
				}
				shot := sim.FireShot("driver")
				fmt.Printf("shot %d: driver, %.1f mph\n", shot.ID, shot.SpeedMPH)
			}

		case "status":
			sim.SendStatus(true, true)
			fmt.Printf("status sent to %d client(s)\n", sim.ClientCount())

		case "quit", "exit":
			return nil

		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}
