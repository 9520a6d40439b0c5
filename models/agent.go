package models

type ChatRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type ClearHistoryResponse struct {
	Cleared bool   `json:"cleared"`
	Message string `json:"message"`
}

type HistoryResponse struct {
	UserID string `json:"user_id"`
	Turns  []Turn `json:"turns"`
}

type RemoveUserResponse struct {
	Removed bool   `json:"removed"`
	Message string `json:"message"`
}
