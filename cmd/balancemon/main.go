package main

import (
	"context"
	"flag"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/robotalks/monowheel/pkg/msgs"
	"github.com/robotalks/monowheel/pkg/telemetry"
)

var connectTimeout = 5 * time.Second

func init() {
	telemetry.SetupClientFlags()
	flag.DurationVar(&connectTimeout, "connect-timeout", connectTimeout, "Broker connect timeout.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := telemetry.NewQueueFromURL(telemetry.Default().BrokerURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", telemetry.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/"+telemetry.TopicMeta) {
			if len(payload) == 0 {
				log.Printf("%s: offline", topic)
				return
			}
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		log.Printf("%s: [%s] %s", topic,
			reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
			msg.(msgs.SerializableMessage).Serializable().String())
	}))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	err = q.ConnectWait(ctx)
	cancel()
	if err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
