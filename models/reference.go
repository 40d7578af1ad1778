package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Wash types supported by the plant. Records carry exactly one.
const (
	WashNormal   = "normal"
	WashHeavy    = "heavy"
	WashSilicon  = "silicon"
	WashEnzyme   = "enzyme"
	WashAcid     = "acid"
	WashTint     = "tint"
	WashChemical = "chemical"
	WashStone    = "stone"
	WashBleach   = "bleach"
)

// Process (finishing) types. Records carry a non-empty set.
const (
	ProcessSandBlast  = "sand_blast"
	ProcessViscose    = "viscose"
	ProcessChevron    = "chevron"
	ProcessHandSand   = "hand_sand"
	ProcessGrind      = "grind"
	ProcessTagging    = "tagging"
	ProcessWhiskering = "whiskering"
)

// WashTypes lists every valid wash type, in display order.
var WashTypes = []string{
	WashNormal, WashHeavy, WashSilicon, WashEnzyme, WashAcid,
	WashTint, WashChemical, WashStone, WashBleach,
}

// ProcessTypes lists every valid process type, in display order.
var ProcessTypes = []string{
	ProcessSandBlast, ProcessViscose, ProcessChevron, ProcessHandSand,
	ProcessGrind, ProcessTagging, ProcessWhiskering,
}

var washTypeSet = toSet(WashTypes)
var processTypeSet = toSet(ProcessTypes)

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// IsValidWashType reports whether the given code is a known wash type.
func IsValidWashType(code string) bool {
	_, ok := washTypeSet[code]
	return ok
}

// IsValidProcessType reports whether the given code is a known process type.
func IsValidProcessType(code string) bool {
	_, ok := processTypeSet[code]
	return ok
}

// ProcessTypeList is a set of process-type codes stored as a JSON array
// in a single text column.
type ProcessTypeList []string

// Value implements driver.Valuer so gorm can persist the list.
func (p ProcessTypeList) Value() (driver.Value, error) {
	if p == nil {
		p = ProcessTypeList{}
	}
	data, err := json.Marshal([]string(p))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal process types: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner so gorm can read the list back.
func (p *ProcessTypeList) Scan(value interface{}) error {
	if value == nil {
		*p = ProcessTypeList{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for process type list", value)
	}

	return json.Unmarshal(data, (*[]string)(p))
}

// ItemType is a lookup row for the kinds of garments the plant handles
// (jeans, jackets, shirts, ...). Seeded at startup, read-only afterwards.
type ItemType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the ItemType model
func (ItemType) TableName() string {
	return "item_types"
}
