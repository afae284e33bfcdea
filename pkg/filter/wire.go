package filter

import (
	"encoding/json"
	"log/slog"
)

// The wire format is a JSON object keyed by column name. Optional fields
// (value2, dataType) are omitted when zero so simple conditions keep the
// minimal {field, operator, value} shape, while every valid State still
// round-trips through Serialize and Deserialize unchanged.

type wireCondition struct {
	Field          string   `json:"field"`
	Operator       Operator `json:"operator"`
	Value          any      `json:"value"`
	SecondaryValue any      `json:"value2,omitempty"`
	DataType       DataType `json:"dataType,omitempty"`
}

type wireColumn struct {
	ColumnName string          `json:"columnName"`
	FilterType string          `json:"filterType"`
	Conditions []wireCondition `json:"conditions"`
	IsActive   bool            `json:"isActive"`
}

// Serialize encodes state into the stable wire format. Object keys are
// emitted in sorted order, so equal states serialize identically.
func Serialize(state State) (string, error) {
	wire := make(map[string]wireColumn, len(state))
	for col, cf := range state {
		wc := wireColumn{
			ColumnName: cf.ColumnName,
			FilterType: cf.FilterType,
			Conditions: make([]wireCondition, 0, len(cf.Conditions)),
			IsActive:   cf.IsActive,
		}
		if wc.ColumnName == "" {
			wc.ColumnName = col
		}
		for _, c := range cf.Conditions {
			wc.Conditions = append(wc.Conditions, wireCondition{
				Field:          c.Field,
				Operator:       c.Operator,
				Value:          c.Value,
				SecondaryValue: c.SecondaryValue,
				DataType:       c.DataType,
			})
		}
		wire[col] = wc
	}

	raw, err := json.Marshal(wire)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Deserialize is total: any input that does not parse as the wire format
// yields an empty State. It never returns an error to the caller; parse
// failures are logged at debug level.
func Deserialize(raw string, logger *slog.Logger) State {
	if logger == nil {
		logger = slog.Default()
	}

	var wire map[string]wireColumn
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		logger.Debug("filter: discarding malformed serialized state", "error", err)
		return State{}
	}

	state := make(State, len(wire))
	for col, wc := range wire {
		cf := ColumnFilter{
			ColumnName: wc.ColumnName,
			FilterType: wc.FilterType,
			Conditions: make([]Condition, 0, len(wc.Conditions)),
			IsActive:   wc.IsActive,
		}
		if cf.ColumnName == "" {
			cf.ColumnName = col
		}
		for _, c := range wc.Conditions {
			cf.Conditions = append(cf.Conditions, Condition{
				Field:          c.Field,
				Operator:       c.Operator,
				Value:          c.Value,
				SecondaryValue: c.SecondaryValue,
				DataType:       c.DataType,
			})
		}
		state[col] = cf
	}
	return state
}
