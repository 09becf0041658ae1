package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/evacsim/evacsim/internal/sim"
	"github.com/evacsim/evacsim/internal/stream"
)

func serveCmd() *cobra.Command {
	flags := &simFlags{}
	var port int
	var delayMs int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run simulations while streaming frames to websocket viewers",
		RunE: func(*cobra.Command, []string) error {
			e, err := flags.environment()
			if err != nil {
				return err
			}
			sets, err := flags.sets(e)
			if err != nil {
				return err
			}

			hub := stream.NewHub()
			srv := &stream.Server{Hub: hub, Port: port}
			srv.Start()

			simulation := sim.New(e, flags.config())
			delay := time.Duration(delayMs) * time.Millisecond
			simulation.FrameSink = func(fr sim.Frame) {
				hub.Broadcast(fr)
				if delay > 0 {
					time.Sleep(delay)
				}
			}

			_, err = simulation.RunSets(sets)
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&port, "port", 8080, "websocket server port")
	cmd.Flags().IntVar(&delayMs, "delay", 250, "pause between timesteps in milliseconds")
	return cmd
}
