package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/docflow/internal/model"
)

var (
	reviewer = model.Actor{ID: "hr-1", Role: model.RoleHRReviewer}
	employee = model.Actor{ID: "emp-1", Role: model.RoleEmployee}
	jan10    = time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)
)

func validInput() SubmitInput {
	return SubmitInput{
		EmployeeID:    "emp-1",
		DocumentType:  "I-9",
		SourceChannel: model.ChannelWeb,
		FileName:      "i9.pdf",
		FileSize:      1024,
		ContentType:   "application/pdf",
	}
}

func TestSubmit(t *testing.T) {
	doc, err := Submit(validInput(), nil, jan10)
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, model.StatusReceived, doc.Status)
	assert.Equal(t, 1, doc.Version)
	assert.Nil(t, doc.RetentionEligibleAt)
	assert.Nil(t, doc.OriginalDocumentID)
	assert.False(t, doc.OnHold)
}

func TestSubmit_MissingFields(t *testing.T) {
	_, err := Submit(SubmitInput{}, nil, jan10)
	require.ErrorIs(t, err, model.ErrValidation)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"employeeId", "fileName", "fileSize", "documentType"}, fields)
}

func TestResubmission(t *testing.T) {
	d1, err := Submit(validInput(), nil, jan10)
	require.NoError(t, err)
	d1, err = Reject(d1, reviewer, "illegible scan", jan10)
	require.NoError(t, err)
	snapshot := d1.Clone()

	in := validInput()
	in.DocumentType = ""
	d2, err := Submit(in, d1, jan10.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, model.StatusReceived, d2.Status)
	assert.Equal(t, d1.Version+1, d2.Version)
	require.NotNil(t, d2.OriginalDocumentID)
	assert.Equal(t, d1.ID, *d2.OriginalDocumentID)
	assert.Equal(t, "I-9", d2.DocumentType)
	assert.NotEqual(t, d1.ID, d2.ID)

	assert.Equal(t, snapshot, d1, "original must stay untouched")
	assert.Equal(t, model.StatusRejected, d1.Status)
	assert.Equal(t, "illegible scan", *d1.Notes)
}

func TestResubmission_RequiresRejectedOriginal(t *testing.T) {
	d1, err := Submit(validInput(), nil, jan10)
	require.NoError(t, err)

	_, err = Submit(validInput(), d1, jan10)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestResubmission_OtherEmployee(t *testing.T) {
	d1, _ := Submit(validInput(), nil, jan10)
	d1, _ = Reject(d1, reviewer, "blurry", jan10)

	in := validInput()
	in.EmployeeID = "emp-2"
	_, err := Submit(in, d1, jan10)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestApprove(t *testing.T) {
	for _, from := range []model.DocumentStatus{model.StatusReceived, model.StatusInReview} {
		t.Run(string(from), func(t *testing.T) {
			doc := &model.Document{ID: "d1", Status: from}
			out, err := Approve(doc, reviewer, jan10)
			require.NoError(t, err)

			assert.Equal(t, model.StatusApproved, out.Status)
			require.NotNil(t, out.ReviewedBy)
			require.NotNil(t, out.ReviewedAt)
			assert.Equal(t, "hr-1", *out.ReviewedBy)
			assert.Equal(t, jan10, *out.ReviewedAt)
			assert.Equal(t, from, doc.Status, "input must not be mutated")
		})
	}
}

func TestApprove_Forbidden(t *testing.T) {
	_, err := Approve(&model.Document{Status: model.StatusReceived}, employee, jan10)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestReject_BlankReason(t *testing.T) {
	for _, reason := range []string{"", "   ", "\t\n"} {
		doc := &model.Document{ID: "d1", Status: model.StatusInReview}
		before := doc.Clone()

		out, err := Reject(doc, reviewer, reason, jan10)
		require.ErrorIs(t, err, model.ErrValidation)
		assert.Nil(t, out)

		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "reason", verr.Errors[0].Field)
		assert.Equal(t, before, doc)
	}
}

func TestReject(t *testing.T) {
	doc := &model.Document{ID: "d1", Status: model.StatusReceived}
	out, err := Reject(doc, reviewer, "  illegible scan ", jan10)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, out.Status)
	assert.Equal(t, "illegible scan", *out.Notes)
}

// Every action is tried from every status; only the documented edges succeed.
func TestTransitionEdges(t *testing.T) {
	type action struct {
		name string
		run  func(*model.Document) (*model.Document, error)
	}
	past := jan10.AddDate(-10, 0, 0)
	actions := []action{
		{"start_review", func(d *model.Document) (*model.Document, error) { return StartReview(d, reviewer, jan10) }},
		{"approve", func(d *model.Document) (*model.Document, error) { return Approve(d, reviewer, jan10) }},
		{"reject", func(d *model.Document) (*model.Document, error) { return Reject(d, reviewer, "bad", jan10) }},
		{"expire", func(d *model.Document) (*model.Document, error) { return Expire(d, jan10, false) }},
	}
	allowed := map[string]map[model.DocumentStatus]model.DocumentStatus{
		"start_review": {model.StatusReceived: model.StatusInReview},
		"approve":      {model.StatusReceived: model.StatusApproved, model.StatusInReview: model.StatusApproved},
		"reject":       {model.StatusReceived: model.StatusRejected, model.StatusInReview: model.StatusRejected},
		"expire":       {model.StatusApproved: model.StatusExpired},
	}
	statuses := []model.DocumentStatus{
		model.StatusReceived, model.StatusInReview, model.StatusApproved, model.StatusRejected, model.StatusExpired,
	}

	for _, a := range actions {
		for _, from := range statuses {
			t.Run(a.name+"/"+string(from), func(t *testing.T) {
				doc := &model.Document{ID: "d", Status: from, RetentionEligibleAt: &past}
				out, err := a.run(doc)
				want, ok := allowed[a.name][from]
				if !ok {
					assert.ErrorIs(t, err, model.ErrInvalidTransition)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, want, out.Status)
				if out.Status == model.StatusApproved {
					assert.NotNil(t, out.ReviewedBy)
					assert.NotNil(t, out.ReviewedAt)
				}
			})
		}
	}
}

func TestApplyAndReleaseHold(t *testing.T) {
	doc := &model.Document{ID: "d1", Status: model.StatusApproved}

	held, changed := ApplyHold(doc, jan10)
	assert.True(t, changed)
	assert.True(t, held.OnHold)
	assert.Equal(t, model.StatusApproved, held.Status, "review status survives a hold")

	again, changed := ApplyHold(held, jan10)
	assert.False(t, changed)
	assert.True(t, again.OnHold)

	still, changed := ReleaseHold(held, true, jan10)
	assert.False(t, changed)
	assert.True(t, still.OnHold)

	released, changed := ReleaseHold(held, false, jan10)
	assert.True(t, changed)
	assert.False(t, released.OnHold)
	assert.Equal(t, model.StatusApproved, released.Status)
}

func TestExpire(t *testing.T) {
	future := jan10.AddDate(1, 0, 0)
	past := jan10.AddDate(-1, 0, 0)

	_, err := Expire(&model.Document{Status: model.StatusApproved, RetentionEligibleAt: &future}, jan10, false)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = Expire(&model.Document{Status: model.StatusApproved, RetentionEligibleAt: &past}, jan10, true)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	out, err := Expire(&model.Document{Status: model.StatusApproved, RetentionEligibleAt: &past}, jan10, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, out.Status)
}
