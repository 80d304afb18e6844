package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/monowheel/pkg/attitude"
	"github.com/robotalks/monowheel/pkg/balance"
	fx "github.com/robotalks/monowheel/pkg/framework"
	"github.com/robotalks/monowheel/pkg/odrive"
	"github.com/robotalks/monowheel/pkg/port"
	"github.com/robotalks/monowheel/pkg/sim"
	"github.com/robotalks/monowheel/pkg/telemetry"
)

const mainLoopInterval = time.Millisecond

var (
	simulate    bool
	dumpTuning  bool
	listPorts   bool
	checksumIMU bool
)

func init() {
	flag.BoolVar(&simulate, "sim", simulate, "Run against the built-in plant simulator instead of serial ports.")
	flag.BoolVar(&dumpTuning, "dump-tuning", dumpTuning, "Print the effective tuning as YAML and exit.")
	flag.BoolVar(&listPorts, "list-ports", listPorts, "List serial ports and exit.")
	flag.BoolVar(&checksumIMU, "imu-checksum", checksumIMU, "Reject IMU frames failing the checksum.")
	port.SetupFlags()
	balance.SetupFlags()
	odrive.SetupFlags()
	telemetry.SetupFlags()
	sim.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	switch {
	case dumpTuning:
		t, err := balance.Default().EffectiveTuning()
		if err != nil {
			log.Fatalln(err)
		}
		out, err := t.Marshal()
		if err != nil {
			log.Fatalln(err)
		}
		os.Stdout.Write(out)
		return
	case listPorts:
		ports, err := port.List()
		if err != nil {
			log.Fatalln(err)
		}
		for _, name := range ports {
			fmt.Println(name)
		}
		return
	}

	runner := fx.NewRunner().HandleSignals()

	var (
		imuStream    io.Reader
		odriveStream io.ReadWriter
	)
	if simulate {
		s := sim.NewConfig().NewSim()
		imuStream, odriveStream = s.IMUStream(), s.ODriveStream()
		runner.Go(s)
		glog.Info("running with simulated plant")
	} else {
		imu, err := port.IMU().Open()
		if err != nil {
			log.Fatalln(err)
		}
		motor, err := port.ODrive().Open()
		if err != nil {
			imu.Close()
			log.Fatalln(err)
		}
		imuStream, odriveStream = imu, motor
	}

	src := attitude.NewSource(imuStream)
	src.Decoder.VerifyChecksum = checksumIMU
	link := odrive.NewConfig().NewLink(odriveStream)
	ctl, err := balance.NewConfig().NewController(link, src)
	if err != nil {
		log.Fatalln(err)
	}

	control := fx.NewLoop("control", ctl.Period).Add(src, ctl)
	mainLoop := fx.NewLoop("main", mainLoopInterval).Add(link)

	if conf := telemetry.NewConfig(); conf.Enabled() {
		conf.Info.Meta.Period = ctl.Period.Microseconds()
		pub, err := conf.NewPublisher()
		if err != nil {
			log.Fatalln(err)
		}
		pub.Commands = control
		pub.Controller = ctl
		pub.Attitude = src
		pub.Wheel = link
		pub.Loop = control
		mainLoop.Add(pub)
		glog.Infof("publishing %s to %s", conf.Info.Ref.Name(), conf.BrokerURL)
	}

	glog.Infof("balance control ready, period %v, disabled until enabled", ctl.Period)
	if err := runner.Go(control, mainLoop).Wait(); err != nil {
		glog.Flush()
		log.Fatalln(err)
	}
	glog.Infof("stopped: %d control ticks, %d overruns", control.Ticks(), control.Overruns())
}
