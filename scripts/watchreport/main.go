// Command watchreport follows the progress stream of one analysis run.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"

	"codeberg.org/citelens/server/internal/progress"
	ws "codeberg.org/citelens/server/internal/websocket"
	"github.com/gorilla/websocket"
)

func main() {
	host := flag.String("host", "localhost:8080", "server address")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: watchreport [-host localhost:8080] <report_id>")
		os.Exit(1)
	}

	u := url.URL{
		Scheme: "ws",
		Host:   *host,
		Path:   "/api/v1/analyses/" + flag.Arg(0) + "/ws",
	}

	fmt.Printf("Connecting to %s\n", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close() //nolint:errcheck

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for {
			var msg ws.Message
			if err := c.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Println("read:", err)
				}
				return
			}

			if msg.Type != ws.TypeProgress {
				fmt.Printf("[%s] %s\n", msg.Type, string(msg.Payload))
				continue
			}

			var e progress.Event
			if err := msg.UnmarshalPayload(&e); err != nil {
				log.Println("decode:", err)
				continue
			}

			fmt.Printf("#%d %-16s %d/%d %s %s\n", msg.Sequence, e.Type, e.Completed, e.Total, e.Prompt, e.Error)
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.WriteMessage(websocket.CloseMessage, closeMsg) //nolint:errcheck
	}
}
