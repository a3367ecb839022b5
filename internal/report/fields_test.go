package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvargas/muni-machinery/internal/model"
)

func TestResolveFieldsMaterialWithoutFlatbed(t *testing.T) {
	fields := ResolveFields(model.MachineVagoneta, model.VariantMaterial, FieldContext{})

	// These live in the per-ticket editor, not on the report form.
	assert.NotContains(t, fields, FieldTicketNumber)
	assert.NotContains(t, fields, FieldMaterialType)
	assert.NotContains(t, fields, FieldCubicMeters)
	assert.NotContains(t, fields, FieldSourceSite)
	assert.NotContains(t, fields, FieldDistrict)
	assert.NotContains(t, fields, FieldRoadCode)

	assert.Contains(t, fields, FieldDailyTotalM3)
}

func TestResolveFieldsFlatbedMaterialRestoresRoadAttribution(t *testing.T) {
	fields := ResolveFields(model.MachineVagoneta, model.VariantMaterial, FieldContext{FlatbedMaterial: true})

	if assert.GreaterOrEqual(t, len(fields), 2) {
		assert.Equal(t, FieldDistrict, fields[len(fields)-2])
		assert.Equal(t, FieldRoadCode, fields[len(fields)-1])
	}
	assert.NotContains(t, fields, FieldTicketNumber)
}

func TestResolveFieldsStripsTimeRange(t *testing.T) {
	for typ := range baseFields {
		fields := ResolveFields(typ, "", FieldContext{})
		assert.NotContains(t, fields, FieldStartTime, "type %s", typ)
		assert.NotContains(t, fields, FieldEndTime, "type %s", typ)
	}
}

func TestResolveFieldsTowedPlateRules(t *testing.T) {
	// Non-hauler with the towing variant gets the towed plate appended.
	fields := ResolveFields(model.MachineNiveladora, model.VariantCarreta, FieldContext{})
	assert.Contains(t, fields, FieldTowedPlate)

	// Without the variant it never appears for non-haulers.
	fields = ResolveFields(model.MachineNiveladora, "", FieldContext{})
	assert.NotContains(t, fields, FieldTowedPlate)

	// Haulers keep it from their variant table.
	fields = ResolveFields(model.MachineCabezal, model.VariantCarreta, FieldContext{})
	assert.Contains(t, fields, FieldTowedPlate)
}

func TestResolveFieldsCanonicalRoadTail(t *testing.T) {
	for _, typ := range []model.MachineType{
		model.MachineNiveladora, model.MachineCisterna, model.MachineExcavadora, model.MachineCargador,
	} {
		fields := ResolveFields(typ, "", FieldContext{})
		if assert.GreaterOrEqual(t, len(fields), 2, "type %s", typ) {
			assert.Equal(t, FieldDistrict, fields[len(fields)-2], "type %s", typ)
			assert.Equal(t, FieldRoadCode, fields[len(fields)-1], "type %s", typ)
		}
	}
}

func TestResolveFieldsUnknownType(t *testing.T) {
	assert.Empty(t, ResolveFields(model.MachineType("GRUA"), "", FieldContext{}))
}

func TestResolveFieldsUnknownVariantFallsBackToBase(t *testing.T) {
	base := ResolveFields(model.MachineVagoneta, "", FieldContext{})
	withUnknown := ResolveFields(model.MachineVagoneta, model.VariantCisterna, FieldContext{})
	assert.Equal(t, base, withUnknown)
}

func TestNormalizeFieldID(t *testing.T) {
	assert.Equal(t, "codigocamino", normalizeFieldID("  CódigoCamino "))
	assert.Equal(t, "ano", normalizeFieldID("Año"))
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	fields := dedupe([]FieldID{"district", "District", "roadCode", " distríct "})
	assert.Equal(t, []FieldID{"district", "roadCode"}, fields)
}
