package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// Client: одно WS-соединение. Пишет в сокет только writeLoop.
type Client struct {
	conn   *websocket.Conn
	roomID domain.RoomID
	userID domain.UserID

	send chan []byte

	drain     chan struct{} // дописать очередь и закрыть
	drainOnce sync.Once
	quit      chan struct{} // закрыть немедленно
	quitOnce  sync.Once
}

func newClient(conn *websocket.Conn, roomID domain.RoomID, userID domain.UserID, buffer int) *Client {
	return &Client{
		conn:   conn,
		roomID: roomID,
		userID: userID,
		send:   make(chan []byte, buffer),
		drain:  make(chan struct{}),
		quit:   make(chan struct{}),
	}
}

func (c *Client) RoomID() domain.RoomID { return c.roomID }
func (c *Client) UserID() domain.UserID { return c.userID }

// enqueue не блокирует: false, если очередь полна или клиент остановлен.
func (c *Client) enqueue(b []byte) bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *Client) stop()  { c.quitOnce.Do(func() { close(c.quit) }) }
func (c *Client) close() { c.drainOnce.Do(func() { close(c.drain) }) }

func (c *Client) writeLoop(pingEvery, writeTimeout time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	write := func(b []byte) bool {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return c.conn.WriteMessage(websocket.TextMessage, b) == nil
	}

	for {
		select {
		case b := <-c.send:
			if !write(b) {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-c.drain:
			for {
				select {
				case b := <-c.send:
					if !write(b) {
						return
					}
				default:
					_ = c.conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
						time.Now().Add(writeTimeout))
					return
				}
			}
		case <-c.quit:
			return
		}
	}
}
