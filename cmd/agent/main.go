// Command agent dials a build and runs a small put-the-ball-in-the-jug
// episode, logging each action's status.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/alters-mit/sticky-mitten-avatar/internal/protocol"
	"github.com/alters-mit/sticky-mitten-avatar/internal/record"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/avatar"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/controller"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/tuning"
	"github.com/alters-mit/sticky-mitten-avatar/internal/transport/ws"
)

const (
	ballID = 1
	jugID  = 2
)

func main() {
	var (
		url        = flag.String("url", "ws://localhost:1071/v1/ws", "build ws url")
		name       = flag.String("name", "sma", "controller name")
		tuningPath = flag.String("tuning", "", "tuning yaml (default: built-in)")
		recordPath = flag.String("record", "", "sqlite episode store (default: off)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[agent] ", log.LstdFlags|log.Lmicroseconds)

	tune := tuning.Defaults()
	if *tuningPath != "" {
		var err error
		if tune, err = tuning.Load(*tuningPath); err != nil {
			logger.Fatalf("tuning: %v", err)
		}
	}

	client, err := ws.Dial(*url, *name, logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer client.Close()

	opts := controller.Options{Tuning: &tune, Logger: logger}
	if *recordPath != "" {
		store, err := record.Open(*recordPath)
		if err != nil {
			logger.Fatalf("record store: %v", err)
		}
		defer store.Close()
		opts.Recorder = store
	}

	ctrl := controller.New(client, opts)
	scene := []protocol.Command{
		protocol.LoadScene("box_room"),
		protocol.AddObject("octahedron", ballID, mathx.Vec3{X: 0.2, Y: 0.05, Z: 2.2}, 0.25),
		protocol.AddObject("jug05", jugID, mathx.Vec3{X: -0.3, Y: 0.1, Z: 2.4}, 1),
	}
	if err := ctrl.InitScene("a", scene, mathx.Vec3{}); err != nil {
		logger.Fatalf("init scene: %v", err)
	}

	status, err := ctrl.GoTo(controller.ObjectTarget(ballID), controller.MoveOptions{})
	if err != nil {
		logger.Fatalf("go_to: %v", err)
	}
	logger.Printf("go_to ball: %s", status)

	res, err := ctrl.PutInContainer(ballID, jugID, avatar.ArmRight)
	if err != nil {
		logger.Fatalf("put_in_container: %v", err)
	}
	logger.Printf("put_in_container: %s", res.Status)

	if _, err := client.Step([]protocol.Command{protocol.Terminate()}); err != nil {
		logger.Printf("terminate: %v", err)
	}
}
