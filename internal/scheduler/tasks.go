package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskExportReconcile = "export.reconcile"

const TaskMarketOrder = "market.order"

type ExportReconcilePayload struct {
	RequestedBy string `json:"requestedBy"`
}

type MarketOrderPayload struct {
	OrderID int64 `json:"orderId"`
}

func NewExportReconcileTask(payload ExportReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExportReconcile, data), nil
}

func ParseExportReconcilePayload(task *asynq.Task) (ExportReconcilePayload, error) {
	var payload ExportReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ExportReconcilePayload{}, err
	}
	return payload, nil
}

func NewMarketOrderTask(payload MarketOrderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMarketOrder, data), nil
}

func ParseMarketOrderPayload(task *asynq.Task) (MarketOrderPayload, error) {
	var payload MarketOrderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return MarketOrderPayload{}, err
	}
	return payload, nil
}
