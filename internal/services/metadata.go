package services

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/yungbote/exampilot-backend/internal/types"
)

func encodeJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

func decodeTaskMetadata(raw datatypes.JSON) types.TaskMetadata {
	var md types.TaskMetadata
	if len(raw) == 0 {
		return md
	}
	_ = json.Unmarshal(raw, &md)
	return md
}

func decodeAlertMetadata(raw datatypes.JSON) types.AlertMetadata {
	var md types.AlertMetadata
	if len(raw) == 0 {
		return md
	}
	_ = json.Unmarshal(raw, &md)
	return md
}

func decodeAvailability(raw datatypes.JSON) types.Availability {
	var a types.Availability
	if len(raw) == 0 {
		return a
	}
	_ = json.Unmarshal(raw, &a)
	return a
}
