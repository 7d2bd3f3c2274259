package apiv1

// Pong is the ping response.
type Pong struct {
	Ping string `json:"ping"`
}

// Error is the body of every non-2xx API response.
type Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
