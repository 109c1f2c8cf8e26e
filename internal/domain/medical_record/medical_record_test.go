package medical_record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUpdateRecordCommandApply(t *testing.T) {
	visit := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	r := &MedicalRecord{
		VisitDate:  visit,
		VisitNotes: "initial",
		Diagnoses:  []string{"flu"},
	}

	notes := "corrected"
	same := visit
	cmd := &UpdateRecordCommand{
		VisitDate:     &same,
		VisitNotes:    &notes,
		Diagnoses:     []string{"cold"},
		Prescriptions: json.RawMessage(`[{"drug":"rest"}]`),
	}

	prev := cmd.Apply(r)

	assert.Equal(t, "corrected", r.VisitNotes)
	assert.Equal(t, []string{"cold"}, r.Diagnoses)
	assert.JSONEq(t, `[{"drug":"rest"}]`, string(r.Prescriptions))

	assert.Equal(t, "initial", prev["visitNotes"])
	assert.Equal(t, []string{"flu"}, prev["diagnoses"])
	assert.NotContains(t, prev, "visitDate", "unchanged fields are not recorded")
	assert.Len(t, prev, 3)
}

func TestUpdateRecordCommandApplyEmpty(t *testing.T) {
	r := &MedicalRecord{VisitNotes: "x"}
	assert.Empty(t, (&UpdateRecordCommand{}).Apply(r))
	assert.Equal(t, "x", r.VisitNotes)
}
