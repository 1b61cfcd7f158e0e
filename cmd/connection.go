// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// Connection is the byte stream a command decodes from. Serial ports and
// WebSocket bridges satisfy it; commands never care which one they got.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// ErrConnectionClosed is returned by reads on a WebSocket connection that
// has already failed or been closed.
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// SerialConnection adapts a serial port to the Connection interface
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// WebSocketConnection presents a message-oriented WebSocket as a byte
// stream. Remote serial bridges deliver chunks of the VE.Direct stream as
// binary messages; a message larger than the caller's buffer is held in
// pending and drained by subsequent reads.
type WebSocketConnection struct {
	conn    *websocket.Conn
	pending []byte
	closed  bool
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}

	for len(w.pending) == 0 {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, err
		}
		// Text messages are bridge chatter; only binary messages carry
		// stream bytes
		if messageType == websocket.BinaryMessage {
			w.pending = data
		}
	}

	n := copy(p, w.pending)
	w.pending = w.pending[n:]
	return n, nil
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	return w.conn.Close()
}

// OpenSerialConnection opens a serial port at the given rate. VE.Direct
// lines are always 8N1.
func OpenSerialConnection(portName string, baudRate int) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", portName, err)
	}

	return &SerialConnection{port: port}, nil
}

// basicAuthHeader builds the Authorization header for HTTP Basic auth;
// empty credentials produce no header.
func basicAuthHeader(username, password string) http.Header {
	headers := http.Header{}
	if username != "" && password != "" {
		credentials := username + ":" + password
		headers.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(credentials)))
	}
	return headers
}

// OpenWebSocketConnection dials a ws:// or wss:// serial bridge, optionally
// authenticating with HTTP Basic auth.
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (Connection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if u.Scheme == "wss" && skipSSLVerify {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	conn, resp, err := dialer.Dial(wsURL, basicAuthHeader(username, password))
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return &WebSocketConnection{conn: conn}, nil
}

// GetPassword takes the bridge password from HELIOGRAPH_PASSWORD, falling
// back to an interactive prompt. The prompt never echoes on a terminal.
func GetPassword() (string, error) {
	if pw := os.Getenv("HELIOGRAPH_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	defer fmt.Fprintln(os.Stderr)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		passwordBytes, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		return string(passwordBytes), nil
	}

	// Piped stdin (scripts, CI): read one line with echo
	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %v", err)
	}
	return strings.TrimSpace(password), nil
}

// OpenConnection opens the stream selected by the connection flags and
// returns it with a human-readable description. --url wins when both are
// given.
func OpenConnection() (Connection, string, error) {
	switch {
	case wsURL != "":
		var password string
		if wsUsername != "" {
			pw, err := GetPassword()
			if err != nil {
				return nil, "", err
			}
			password = pw
		}

		conn, err := OpenWebSocketConnection(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil

	case portName != "":
		conn, err := OpenSerialConnection(portName, baudRate)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil

	default:
		return nil, "", fmt.Errorf("either --port or --url must be specified")
	}
}
