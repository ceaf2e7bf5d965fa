package discord

// ResponseType discriminates outbound interaction responses.
type ResponseType int

const (
	// ResponsePong acknowledges a liveness check.
	ResponsePong ResponseType = 1
	// ResponseChannelMessage posts an immediate in-channel reply.
	ResponseChannelMessage ResponseType = 4
)

// InteractionResponse is the payload sent to the interaction callback
// endpoint, or returned directly for liveness checks.
type InteractionResponse struct {
	Type ResponseType  `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

// ResponseData carries the message content of a type-4 reply.
type ResponseData struct {
	Content string `json:"content,omitempty"`
}

// Pong builds the fixed liveness acknowledgement.
func Pong() InteractionResponse {
	return InteractionResponse{Type: ResponsePong}
}

// ChannelMessage builds an immediate in-channel text reply.
func ChannelMessage(content string) InteractionResponse {
	return InteractionResponse{
		Type: ResponseChannelMessage,
		Data: &ResponseData{Content: content},
	}
}
