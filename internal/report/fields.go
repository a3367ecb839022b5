package report

import (
	"strings"

	"github.com/mvargas/muni-machinery/internal/model"
)

// FieldID is a semantic form-field identifier. The resolver returns the
// ordered set a client must collect for a given machine type and variant.
type FieldID string

const (
	FieldOperator       FieldID = "operator"
	FieldActivity       FieldID = "activity"
	FieldStartTime      FieldID = "startTime"
	FieldEndTime        FieldID = "endTime"
	FieldDistrict       FieldID = "district"
	FieldRoadCode       FieldID = "roadCode"
	FieldTicketNumber   FieldID = "ticketNumber"
	FieldCubicMeters    FieldID = "cubicMeters"
	FieldMaterialType   FieldID = "materialType"
	FieldSourceSite     FieldID = "sourceSite"
	FieldTowedPlate     FieldID = "towedPlate"
	FieldCargoDetail    FieldID = "cargoDetail"
	FieldStationFrom    FieldID = "stationFrom"
	FieldStationTo      FieldID = "stationTo"
	FieldHourmeterStart FieldID = "hourmeterStart"
	FieldHourmeterEnd   FieldID = "hourmeterEnd"
	FieldWaterLoads     FieldID = "waterLoads"
	FieldDailyTotalM3   FieldID = "dailyTotalM3"
)

// FieldContext carries flags derived from catalog lookups, not user toggles.
type FieldContext struct {
	// FlatbedMaterial is true when the selected trailer's material kind is
	// flatbed: goods are enumerated from a checklist instead of per-trip
	// tickets, so district and road code stay on the report itself.
	FlatbedMaterial bool
}

// haulers are the types that can tow and run the ticket-based material flow.
var haulers = map[model.MachineType]bool{
	model.MachineVagoneta: true,
	model.MachineCabezal:  true,
}

// roadCodeTypes are the categories whose reports are attributed to a road.
var roadCodeTypes = map[model.MachineType]bool{
	model.MachineVagoneta:     true,
	model.MachineCabezal:      true,
	model.MachineCisterna:     true,
	model.MachineNiveladora:   true,
	model.MachineCompactadora: true,
	model.MachineExcavadora:   true,
	model.MachineBackhoe:      true,
	model.MachineCargador:     true,
}

var baseFields = map[model.MachineType][]FieldID{
	model.MachineNiveladora: {
		FieldOperator, FieldActivity, FieldStartTime, FieldEndTime,
		FieldHourmeterStart, FieldHourmeterEnd,
		FieldStationFrom, FieldStationTo, FieldDistrict, FieldRoadCode,
	},
	model.MachineCompactadora: {
		FieldOperator, FieldActivity, FieldStartTime, FieldEndTime,
		FieldHourmeterStart, FieldHourmeterEnd,
		FieldStationFrom, FieldStationTo, FieldDistrict, FieldRoadCode,
	},
	model.MachineExcavadora: {
		FieldOperator, FieldActivity, FieldStartTime, FieldEndTime,
		FieldHourmeterStart, FieldHourmeterEnd, FieldDistrict, FieldRoadCode,
	},
	model.MachineBackhoe: {
		FieldOperator, FieldActivity, FieldStartTime, FieldEndTime,
		FieldHourmeterStart, FieldHourmeterEnd, FieldDistrict, FieldRoadCode,
	},
	model.MachineCargador: {
		FieldOperator, FieldActivity, FieldStartTime, FieldEndTime,
		FieldHourmeterStart, FieldHourmeterEnd, FieldMaterialType,
		FieldDistrict, FieldRoadCode,
	},
	model.MachineCisterna: {
		FieldOperator, FieldActivity, FieldStartTime, FieldEndTime,
		FieldWaterLoads, FieldSourceSite, FieldDistrict, FieldRoadCode,
	},
	model.MachineVagoneta: {
		FieldOperator, FieldActivity, FieldStartTime, FieldEndTime,
		FieldDistrict, FieldRoadCode,
	},
	model.MachineCabezal: {
		FieldOperator, FieldActivity, FieldStartTime, FieldEndTime,
	},
}

var variantFields = map[model.MachineType]map[model.Variant][]FieldID{
	model.MachineVagoneta: {
		model.VariantMaterial: {
			FieldOperator, FieldActivity, FieldStartTime, FieldEndTime,
			FieldTicketNumber, FieldCubicMeters, FieldMaterialType,
			FieldSourceSite, FieldDailyTotalM3, FieldDistrict, FieldRoadCode,
		},
		model.VariantCarreta: {
			FieldOperator, FieldActivity, FieldStartTime, FieldEndTime,
			FieldTowedPlate, FieldCargoDetail, FieldDistrict, FieldRoadCode,
		},
	},
	model.MachineCabezal: {
		model.VariantMaterial: {
			FieldOperator, FieldActivity, FieldStartTime, FieldEndTime,
			FieldTicketNumber, FieldCubicMeters, FieldMaterialType,
			FieldSourceSite, FieldDailyTotalM3, FieldDistrict, FieldRoadCode,
		},
		model.VariantCarreta: {
			FieldOperator, FieldActivity, FieldStartTime, FieldEndTime,
			FieldTowedPlate, FieldCargoDetail, FieldDistrict, FieldRoadCode,
		},
		model.VariantCisterna: {
			FieldOperator, FieldActivity, FieldStartTime, FieldEndTime,
			FieldTowedPlate, FieldWaterLoads, FieldSourceSite,
			FieldDistrict, FieldRoadCode,
		},
	},
}

// ticketEditorFields live on the repeatable ticket rows in the material flow,
// never on the report form itself.
var ticketEditorFields = []FieldID{
	FieldTicketNumber, FieldCubicMeters, FieldMaterialType, FieldSourceSite,
}

// ResolveFields returns the ordered field identifiers a report form must
// collect for the given machine type and variant. Unknown types resolve to an
// empty list.
func ResolveFields(typ model.MachineType, variant model.Variant, ctx FieldContext) []FieldID {
	fields := lookupFields(typ, variant)
	if fields == nil {
		return nil
	}

	materialFlow := haulers[typ] && variant == model.VariantMaterial

	if materialFlow {
		fields = exclude(fields, ticketEditorFields...)
		if !ctx.FlatbedMaterial {
			fields = exclude(fields, FieldDistrict, FieldRoadCode)
		}
	}

	// Time-range inputs are rendered by the hours widget, never here.
	fields = exclude(fields, FieldStartTime, FieldEndTime)

	if !haulers[typ] {
		if variant == model.VariantCarreta {
			fields = forceAppend(fields, FieldTowedPlate)
		} else {
			fields = exclude(fields, FieldTowedPlate)
		}
	}

	fields = dedupe(fields)

	if !(materialFlow && !ctx.FlatbedMaterial) && roadCodeTypes[typ] {
		fields = exclude(fields, FieldDistrict, FieldRoadCode)
		fields = append(fields, FieldDistrict, FieldRoadCode)
	}

	return fields
}

// VariantAllowed reports whether a variant can accompany a machine type. A
// type change discards the previous variant, so anything outside the type's
// own table (or the towing case for non-haulers) is stale cross-category
// input and must be rejected.
func VariantAllowed(typ model.MachineType, variant model.Variant) bool {
	if variant == "" {
		return true
	}
	if byVariant, ok := variantFields[typ]; ok {
		_, ok := byVariant[variant]
		return ok
	}
	if _, ok := baseFields[typ]; !ok {
		return false
	}
	return variant == model.VariantCarreta
}

func lookupFields(typ model.MachineType, variant model.Variant) []FieldID {
	if variant != "" {
		if byVariant, ok := variantFields[typ]; ok {
			if list, ok := byVariant[variant]; ok {
				return cloneFields(list)
			}
		}
	}
	if list, ok := baseFields[typ]; ok {
		return cloneFields(list)
	}
	return nil
}

func cloneFields(list []FieldID) []FieldID {
	out := make([]FieldID, len(list))
	copy(out, list)
	return out
}

func exclude(fields []FieldID, drop ...FieldID) []FieldID {
	dropSet := make(map[FieldID]bool, len(drop))
	for _, f := range drop {
		dropSet[f] = true
	}
	out := fields[:0]
	for _, f := range fields {
		if !dropSet[f] {
			out = append(out, f)
		}
	}
	return out
}

func forceAppend(fields []FieldID, field FieldID) []FieldID {
	for _, f := range fields {
		if f == field {
			return fields
		}
	}
	return append(fields, field)
}

func dedupe(fields []FieldID) []FieldID {
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		key := normalizeFieldID(string(f))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

var accentFold = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

func normalizeFieldID(raw string) string {
	return accentFold.Replace(strings.ToLower(strings.TrimSpace(raw)))
}
