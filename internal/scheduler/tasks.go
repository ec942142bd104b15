package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskEnrichLead = "enquiries.enrich"

const TaskDetectMarketSignals = "marketsignals.detect"

type EnrichLeadPayload struct {
	EnquiryID string `json:"enquiryId"`
}

type DetectMarketSignalsPayload struct {
	Trigger string `json:"trigger"`
}

func NewEnrichLeadTask(payload EnrichLeadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEnrichLead, data), nil
}

func ParseEnrichLeadPayload(task *asynq.Task) (EnrichLeadPayload, error) {
	var payload EnrichLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return EnrichLeadPayload{}, err
	}
	return payload, nil
}

func NewDetectMarketSignalsTask(payload DetectMarketSignalsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDetectMarketSignals, data), nil
}

func ParseDetectMarketSignalsPayload(task *asynq.Task) (DetectMarketSignalsPayload, error) {
	var payload DetectMarketSignalsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DetectMarketSignalsPayload{}, err
	}
	return payload, nil
}
