package shared

// ErrorBody is the JSON shape of every failure answered to the caller.
type ErrorBody struct {
	Error string `json:"error"`
}

// AskResponse is the JSON shape of a successful relay.
type AskResponse struct {
	Text      string `json:"text"`
	ModelUsed string `json:"modelUsed,omitempty"`
}
