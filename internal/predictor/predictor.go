package predictor

import (
	"context"
	"encoding/json"

	"dynai/internal/models"
)

// RequestType is the "type" discriminator of a predictor request.
type RequestType string

const (
	TypeIsReady           RequestType = "isReady"
	TypeReset             RequestType = "reset"
	TypeSaveCheckpoint    RequestType = "saveCheckpoint"
	TypeRestoreCheckpoint RequestType = "restoreCheckpoint"
	TypeAddMessage        RequestType = "addMessage"
	TypeAddFeedback       RequestType = "addFeedback"
	TypeGetSimilarity     RequestType = "getSimilarity"
)

// ResultSuccess is the only "result" value treated as confirmation.
const ResultSuccess = "success"

// Predictor sends a single typed request to the remote inference service.
// Implementations may fail transiently (network, throttling) or permanently.
type Predictor interface {
	Predict(ctx context.Context, req Request) (*Response, error)
}

// PredictorFunc adapts a function to the Predictor interface.
type PredictorFunc func(ctx context.Context, req Request) (*Response, error)

func (f PredictorFunc) Predict(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Request is the logical request payload. Only the fields relevant to Type are
// encoded.
type Request struct {
	Type           RequestType
	Message        string
	SecurityGroup  string
	MessageID      string
	Relations      []models.Relation
	PrecisionLimit float64
	BlockLimit     int
}

func (r Request) MarshalJSON() ([]byte, error) {
	body := map[string]any{"type": r.Type}
	switch r.Type {
	case TypeAddMessage:
		body["message"] = r.Message
		body["security_group"] = r.SecurityGroup
	case TypeAddFeedback:
		relations := r.Relations
		if relations == nil {
			relations = []models.Relation{}
		}
		body["message_id"] = r.MessageID
		body["relations"] = relations
	case TypeGetSimilarity:
		body["message_id"] = r.MessageID
		body["precision_limit"] = r.PrecisionLimit
		body["block_limit"] = r.BlockLimit
	}
	return json.Marshal(body)
}

// Convenience constructors.

func IsReadyRequest() Request           { return Request{Type: TypeIsReady} }
func ResetRequest() Request             { return Request{Type: TypeReset} }
func SaveCheckpointRequest() Request    { return Request{Type: TypeSaveCheckpoint} }
func RestoreCheckpointRequest() Request { return Request{Type: TypeRestoreCheckpoint} }

func AddMessageRequest(message, securityGroup string) Request {
	return Request{Type: TypeAddMessage, Message: message, SecurityGroup: securityGroup}
}

func AddFeedbackRequest(messageID string, relations []models.Relation) Request {
	return Request{Type: TypeAddFeedback, MessageID: messageID, Relations: relations}
}

func GetSimilarityRequest(messageID string, precisionLimit float64, blockLimit int) Request {
	return Request{
		Type:           TypeGetSimilarity,
		MessageID:      messageID,
		PrecisionLimit: precisionLimit,
		BlockLimit:     blockLimit,
	}
}

// Response holds every response field the client consumes. Fields that the
// service may encode loosely are decoded leniently.
type Response struct {
	Ready      Flag              `json:"ready"`
	Result     FlexString        `json:"result"`
	MessageID  json.RawMessage   `json:"message_id"`
	Similarity []SimilarityEntry `json:"similarity"`
	TechReport json.RawMessage   `json:"tech_report"`
}

// SimilarityEntry is one raw entry of a getSimilarity response.
type SimilarityEntry struct {
	InternalID      FlexString `json:"internalId"`
	TechReport      FlexString `json:"techReport"`
	Accuracy        FlexFloat  `json:"accuracy"`
	IsApproved      Flag       `json:"isApproved"`
	TheSameText     Flag       `json:"theSameText"`
	StatisticsExist Flag       `json:"statisticsExist"`
}

// Succeeded reports whether the service confirmed the operation.
func (r *Response) Succeeded() bool {
	return r != nil && r.Result.Valid && r.Result.Value == ResultSuccess
}

// AssignedMessageID returns the identifier issued by addMessage. Anything other
// than a non-empty JSON string means no identifier was assigned.
func (r *Response) AssignedMessageID() string {
	if r == nil || len(r.MessageID) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(r.MessageID, &id); err != nil {
		return ""
	}
	return id
}

// TechReportText returns tech_report as text: strings are returned as-is, any
// other JSON value in its encoded form.
func (r *Response) TechReportText() string {
	if r == nil || len(r.TechReport) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.TechReport, &s); err == nil {
		return s
	}
	if string(r.TechReport) == "null" {
		return ""
	}
	return string(r.TechReport)
}
