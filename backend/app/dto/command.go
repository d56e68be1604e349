package dto

import "pt1/backend/app/services"

type SendCommandRequest struct {
	ClientID string `json:"client_id"`
	Command  string `json:"command"`
}

type SendCommandResponse struct {
	Status    string `json:"status"`
	CommandID string `json:"command_id"`
	Timestamp int64  `json:"timestamp"`
}

type NextCommandResponse struct {
	Command   *string `json:"command"`
	CommandID string  `json:"command_id,omitempty"`
}

type SubmitResultRequest struct {
	CommandID  string `json:"command_id"`
	Result     string `json:"result"`
	Status     string `json:"status"`
	ResultType string `json:"result_type"`
}

type SubmitResultResponse struct {
	Status    string `json:"status"`
	CommandID string `json:"command_id"`
}

type UploadFilesResponse struct {
	Status    string   `json:"status"`
	CommandID string   `json:"command_id"`
	Files     []string `json:"files"`
}

type HistoryResponse struct {
	Commands []services.CommandEntry `json:"commands"`
	Count    int                     `json:"count"`
}

type TimedOutResponse struct {
	TimedOut []services.CommandEntry `json:"timed_out"`
	Count    int                     `json:"count"`
}
