// servo-sweep exercises the pan/tilt mount: sweep each axis across its
// range, then recenter. Useful as a mechanical check after assembly.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/petwatch/go-petwatch/internal/log"
	"github.com/petwatch/go-petwatch/pkg/servo"
)

func main() {
	bus := flag.String("bus", "", "I2C bus name (empty for the first available)")
	dryRun := flag.Bool("dry-run", false, "Log commands instead of driving hardware")
	step := flag.Float64("step", 15, "Sweep step in degrees")
	pause := flag.Duration("pause", 300*time.Millisecond, "Pause between steps")
	flag.Parse()

	log.Init("debug", "")

	var out servo.Output
	if *dryRun {
		mock := servo.NewMockOutput()
		mock.Verbose = true
		out = mock
	} else {
		var err error
		out, err = servo.NewPCA9685(*bus, servo.I2CAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "servo init: %v\n", err)
			os.Exit(1)
		}
	}

	act := servo.NewActuator(out, servo.DefaultConfig())
	defer act.Close()

	for _, ch := range []servo.Channel{servo.Pan, servo.Tilt} {
		log.Info("sweeping axis", "axis", ch.String())
		for deg := servo.MinAngle; deg <= servo.MaxAngle; deg += *step {
			if err := act.SetAngle(ch, deg); err != nil {
				fmt.Fprintf(os.Stderr, "sweep %s: %v\n", ch, err)
				os.Exit(1)
			}
			time.Sleep(*pause)
		}
		if err := act.SetAngle(ch, servo.CenterAngle); err != nil {
			fmt.Fprintf(os.Stderr, "recenter %s: %v\n", ch, err)
			os.Exit(1)
		}
	}

	log.Info("sweep complete, mount recentered")
}
