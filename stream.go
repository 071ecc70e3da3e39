package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/CodedInternet/vehicledash/comms"
	"github.com/CodedInternet/vehicledash/logger"
	"github.com/CodedInternet/vehicledash/telemetry"
	"github.com/Masterminds/semver"
	"github.com/gorilla/websocket"
	"net/http"
	"time"
)

const (
	PROTOCOL_VERSION = "~1.0"
	HELLO_TIMEOUT    = 10 * time.Second
	WRITE_TIMEOUT    = 5 * time.Second
	PING_INTERVAL    = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// checkHello accepts a view whose protocol version satisfies
// PROTOCOL_VERSION. "DEV" builds are let through in debug mode.
func checkHello(hello comms.Hello) error {
	if hello.Type != "update" || hello.Text != "ready" {
		return fmt.Errorf("expected ready hello, got %s/%s", hello.Type, hello.Text)
	}
	if hello.Version == "DEV" && ENV.DEBUG {
		return nil
	}

	semVer, err := semver.NewVersion(hello.Version)
	if err != nil {
		return fmt.Errorf("invalid view version %q: %w", hello.Version, err)
	}
	semVerConstraint, err := semver.NewConstraint(PROTOCOL_VERSION)
	if err != nil {
		return err
	}
	if !semVerConstraint.Check(semVer) {
		return fmt.Errorf("unable to serve view: received version %s - require %s", hello.Version, PROTOCOL_VERSION)
	}
	return nil
}

func writeError(conn *websocket.Conn, err error) {
	conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
	conn.WriteJSON(comms.Message{Type: comms.MsgError, Error: err.Error()})
}

// DashboardStreamHandler pushes one view's scene replay followed by live
// patches, and accepts control commands from it. Vehicle commands are only
// carried out for the user named by the request's token.
func DashboardStreamHandler(c comms.ConductorInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("upgrade failed")
			return
		}
		defer conn.Close()
		log := logger.Component("view")

		var hello comms.Hello
		conn.SetReadDeadline(time.Now().Add(HELLO_TIMEOUT))
		if err := conn.ReadJSON(&hello); err != nil {
			log.Warn().Err(err).Msg("no hello from view")
			return
		}
		if err := checkHello(hello); err != nil {
			log.Warn().Err(err).Int("id", hello.ID).Msg("rejecting view")
			writeError(conn, err)
			return
		}
		conn.SetReadDeadline(time.Time{})

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sub, err := c.Attach(ctx)
		if err != nil {
			log.Error().Err(err).Msg("unable to attach view")
			writeError(conn, err)
			return
		}
		defer c.Detach(sub)
		log = log.With().Str("subscriber", sub.ID.String()).Logger()
		log.Info().Int("id", hello.ID).Str("version", hello.Version).Str("user", tokenSubject(r.Context())).Msg("view attached")

		replies := make(chan comms.Message, 4)
		go func() {
			defer cancel()
			for {
				var cmd comms.Cmd
				if err := conn.ReadJSON(&cmd); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						log.Warn().Err(err).Msg("read")
					}
					return
				}
				err := authorizeCommand(r.Context(), cmd)
				if err == nil {
					err = c.ProcessCommand(cmd)
				}
				if err != nil {
					log.Warn().Err(err).Str("cmd", cmd.Cmd).Msg("command rejected")
					select {
					case replies <- comms.Message{Type: comms.MsgError, Error: err.Error()}:
					default:
					}
				}
			}
		}()

		// gorilla allows one writer, so every write happens here
		ping := time.NewTicker(PING_INTERVAL)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Done():
				log.Info().Msg("view dropped")
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "fell behind"),
					time.Now().Add(WRITE_TIMEOUT))
				return
			case data := <-sub.Messages():
				conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					log.Warn().Err(err).Msg("write")
					return
				}
			case msg := <-replies:
				conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
				if err := conn.WriteJSON(msg); err != nil {
					log.Warn().Err(err).Msg("write")
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WRITE_TIMEOUT)); err != nil {
					return
				}
			}
		}
	}
}

// TelemetryIngestHandler accepts normalised JSON records, one per message,
// and queues them for the dashboard. Bad records are answered with an error
// message and the stream carries on.
func TelemetryIngestHandler(c comms.ConductorInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("upgrade failed")
			return
		}
		defer conn.Close()
		log := logger.Component("ingest")

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Msg("read")
				}
				return
			}

			record, err := telemetry.Decode(data)
			if err != nil {
				log.Debug().Err(err).Msg("rejecting record")
				writeError(conn, err)
				continue
			}
			if !c.Submit(record) {
				writeError(conn, errQueueFull)
			}
		}
	}
}

var errQueueFull = errors.New("record queue full, record dropped")
