// Package obsws is a small obs-websocket v5 client covering the requests the
// clip monitor needs.
package obsws

import "encoding/json"

// Subprotocol is the websocket subprotocol for JSON-encoded messages.
const Subprotocol = "obswebsocket.json"

// RPCVersion is the protocol version requested in Identify.
const RPCVersion = 1

// Opcodes.
const (
	OpHello           = 0
	OpIdentify        = 1
	OpIdentified      = 2
	OpReidentify      = 3
	OpEvent           = 5
	OpRequest         = 6
	OpRequestResponse = 7
)

// Message is the outer envelope of every frame.
type Message struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

// Hello is sent by the server right after the upgrade.
type Hello struct {
	ObsWebSocketVersion string         `json:"obsWebSocketVersion"`
	RPCVersion          int            `json:"rpcVersion"`
	Authentication      *AuthChallenge `json:"authentication,omitempty"`
}

// AuthChallenge is present in Hello when the server requires a password.
type AuthChallenge struct {
	Challenge string `json:"challenge"`
	Salt      string `json:"salt"`
}

// Identify answers Hello.
type Identify struct {
	RPCVersion         int    `json:"rpcVersion"`
	Authentication     string `json:"authentication,omitempty"`
	EventSubscriptions int    `json:"eventSubscriptions"`
}

// Identified confirms the session.
type Identified struct {
	NegotiatedRPCVersion int `json:"negotiatedRpcVersion"`
}

// Request is a single client request.
type Request struct {
	RequestType string `json:"requestType"`
	RequestID   string `json:"requestId"`
	RequestData any    `json:"requestData,omitempty"`
}

// RequestResponse is the server's answer to a Request.
type RequestResponse struct {
	RequestType   string          `json:"requestType"`
	RequestID     string          `json:"requestId"`
	RequestStatus RequestStatus   `json:"requestStatus"`
	ResponseData  json.RawMessage `json:"responseData,omitempty"`
}

// RequestStatus reports whether a request succeeded.
type RequestStatus struct {
	Result  bool   `json:"result"`
	Code    int    `json:"code"`
	Comment string `json:"comment,omitempty"`
}

// Event subscription bitmask. The monitor polls, so it subscribes to nothing.
const EventSubscriptionNone = 0

// Close codes the server uses to reject a session.
const (
	CloseAuthenticationFailed = 4009
	CloseUnsupportedRPC       = 4010
)
