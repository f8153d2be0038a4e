package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gorilla/websocket"
)

// hop headers that belong to the gateway and must not reach the node
var gatewayHeaders = []string{"Authorization", ChainIDHeader}

// NewReverseServer forwards every request to u, http requests with
// httputil and websocket upgrades message by message.
func NewReverseServer(u *url.URL) http.Handler {
	target := *u
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(&target)
			// the node serves json-rpc on its own path
			pr.Out.URL.Path = target.Path
			pr.Out.URL.RawPath = target.RawPath
			for _, h := range gatewayHeaders {
				pr.Out.Header.Del(h)
			}
		},
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !websocket.IsWebSocketUpgrade(r) {
			proxy.ServeHTTP(w, r)
			return
		}

		// switch to websocket
		urlForWs := target
		switch target.Scheme {
		case "https", "wss":
			urlForWs.Scheme = "wss"
		default:
			urlForWs.Scheme = "ws"
		}

		// clear up header
		header := http.Header{}
		for k, v := range r.Header {
			header[k] = v
		}
		for _, h := range append([]string{"Upgrade", "Connection", "Sec-Websocket-Key", "Sec-Websocket-Version", "Sec-Websocket-Extensions"}, gatewayHeaders...) {
			header.Del(h)
		}

		proxyConn, resp, err := websocket.DefaultDialer.DialContext(r.Context(), urlForWs.String(), header)
		if err != nil {
			err = fmt.Errorf("dial proxy websocket: %w", err)
			log.Error(err)
			if resp != nil {
				log.Errorf("proxy websocket response status %s", resp.Status)
			}
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		defer func() {
			if err := proxyConn.Close(); err != nil {
				log.Debugf("close proxyConn: %s", err)
			}
		}()

		upgrader := websocket.Upgrader{}
		clientConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Errorf("upgrade websocket: %s", err)
			return
		}
		defer func() {
			if err := clientConn.Close(); err != nil {
				log.Debugf("close clientConn: %s", err)
			}
		}()

		// both directions report here, the first one to stop ends the session
		signal := make(chan struct{}, 2)

		go forwardMessages(signal, proxyConn, clientConn)
		go forwardMessages(signal, clientConn, proxyConn)
		<-signal
	})
}

func forwardMessages(signal chan<- struct{}, src *websocket.Conn, dst *websocket.Conn) {
	defer func() { signal <- struct{}{} }()
	for {
		messageType, message, err := src.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugf("read message from %s: %s", src.RemoteAddr().String(), err)
			}
			return
		}

		if err = dst.WriteMessage(messageType, message); err != nil {
			log.Debugf("write message to %s: %s", dst.RemoteAddr().String(), err)
			return
		}
	}
}
