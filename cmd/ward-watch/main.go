// Command ward-watch follows a ward server's event stream in the terminal.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/ecshospital/internal/network"
)

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	only := flag.String("types", "", "comma separated event types to show (default all)")
	flag.Parse()

	filter := map[string]bool{}
	for _, t := range strings.Split(*only, ",") {
		if t = strings.TrimSpace(t); t != "" {
			filter[strings.ToUpper(t)] = true
		}
	}

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := conn.WriteJSON(network.Command{Type: "STATUS"}); err != nil {
		fmt.Fprintln(os.Stderr, "status:", err)
		os.Exit(1)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var env network.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				fmt.Fprintln(os.Stderr, "stream closed:", err)
				return
			}
			printEnvelope(env, filter)
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func printEnvelope(env network.Envelope, filter map[string]bool) {
	switch env.Type {
	case "STATUS":
		s := env.Status
		if s == nil {
			return
		}
		fmt.Printf("run %s, day %d, %d waiting, %d beds occupied\n", s.RunID, s.Day, s.QueueLength, len(s.Board))
		for _, b := range s.Board {
			fmt.Printf("  bed %-3d %s %-10s illness %d\n", b.Bed, b.PatientID, b.State, b.Illness)
		}
	case "EVENT":
		e := env.Event
		if e == nil {
			return
		}
		if len(filter) > 0 && !filter[string(e.Type)] {
			return
		}
		fmt.Printf("[day %3d] %-24s %-12s %s\n", e.Day, e.Type, e.ActorID, e.TargetID)
	case "ERROR":
		fmt.Println("error:", env.Error)
	}
}
