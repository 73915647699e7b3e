package bridge

import (
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of a websocket connection the bridge needs
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteJSON(v any) error
	Close() error
}

// Dialer establishes a transport connection
type Dialer func(url string) (Conn, error)

// GorillaDialer dials over a real websocket
func GorillaDialer(url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Timer is a stoppable scheduled task
type Timer interface {
	Stop() bool
}

// Scheduler runs fn once after the delay
type Scheduler func(delay time.Duration, fn func()) Timer

// AfterFuncScheduler schedules on the real clock
func AfterFuncScheduler(delay time.Duration, fn func()) Timer {
	return time.AfterFunc(delay, fn)
}
