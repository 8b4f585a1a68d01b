package assessment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hkao1210/A-PLUS-I/internal/apperr"
	"github.com/hkao1210/A-PLUS-I/internal/assessment/mocks"
	"github.com/hkao1210/A-PLUS-I/internal/model"
)

const goodResult = `{"score":88,"breakdown":{"accuracy":4,"clarity":3,"concepts":4},"feedback":"Good answer"}`

func pdfFile() *model.DocumentFile {
	return &model.DocumentFile{Name: "answer.pdf", Content: make([]byte, 10*1024)}
}

func TestCoordinator_Submit(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		req        Request
		setupMocks func(u *mocks.MockUploader, g *mocks.MockGrader)
		wantResult *model.AssessmentResult
		check      func(t *testing.T, err error)
	}{
		{
			name: "happy path uploads then grades",
			req:  Request{File: pdfFile(), Question: "What is a stack?", TeacherAnswer: "LIFO structure..."},
			setupMocks: func(u *mocks.MockUploader, g *mocks.MockGrader) {
				u.On("Upload", mock.Anything, *pdfFile()).Return(model.DocumentID("doc-1"), nil).Once()
				g.On("Grade", mock.Anything, mock.MatchedBy(func(gr model.GradingRequest) bool {
					return gr.DocumentID() == "doc-1" && gr.Question() == "What is a stack?" && gr.TeacherAnswer() == "LIFO structure..."
				})).Return([]byte(goodResult), nil).Once()
			},
			wantResult: &model.AssessmentResult{
				Score:     88,
				Breakdown: model.Breakdown{Accuracy: 4, Clarity: 3, Concepts: 4},
				Feedback:  "Good answer",
			},
		},
		{
			name: "already stored document skips upload",
			req:  Request{DocumentID: "doc-9", Question: "Q", TeacherAnswer: "A"},
			setupMocks: func(u *mocks.MockUploader, g *mocks.MockGrader) {
				g.On("Grade", mock.Anything, mock.Anything).Return([]byte(goodResult), nil).Once()
			},
			wantResult: &model.AssessmentResult{
				Score:     88,
				Breakdown: model.Breakdown{Accuracy: 4, Clarity: 3, Concepts: 4},
				Feedback:  "Good answer",
			},
		},
		{
			name:       "missing fields are reported together",
			req:        Request{Question: " "},
			setupMocks: func(u *mocks.MockUploader, g *mocks.MockGrader) {},
			check: func(t *testing.T, err error) {
				var v *apperr.ValidationError
				require.ErrorAs(t, err, &v)
				assert.Equal(t, []string{"document", "question", "reference answer"}, v.Fields)
			},
		},
		{
			name:       "unsupported type is rejected before upload",
			req:        Request{File: &model.DocumentFile{Name: "scan.png", ContentType: "image/png", Content: []byte{1}}, Question: "Q", TeacherAnswer: "A"},
			setupMocks: func(u *mocks.MockUploader, g *mocks.MockGrader) {},
			check: func(t *testing.T, err error) {
				assert.True(t, apperr.IsValidation(err))
			},
		},
		{
			name: "upload failure never triggers grading",
			req:  Request{File: pdfFile(), Question: "Q", TeacherAnswer: "A"},
			setupMocks: func(u *mocks.MockUploader, g *mocks.MockGrader) {
				u.On("Upload", mock.Anything, mock.Anything).
					Return(model.DocumentID(""), &apperr.TransferError{Op: "upload", StatusCode: 500}).Once()
			},
			check: func(t *testing.T, err error) {
				assert.True(t, apperr.IsTransfer(err))
			},
		},
		{
			name: "empty id from store is a transfer error",
			req:  Request{File: pdfFile(), Question: "Q", TeacherAnswer: "A"},
			setupMocks: func(u *mocks.MockUploader, g *mocks.MockGrader) {
				u.On("Upload", mock.Anything, mock.Anything).Return(model.DocumentID(""), nil).Once()
			},
			check: func(t *testing.T, err error) {
				assert.True(t, apperr.IsTransfer(err))
			},
		},
		{
			name: "malformed result is a grading error",
			req:  Request{DocumentID: "doc-1", Question: "Q", TeacherAnswer: "A"},
			setupMocks: func(u *mocks.MockUploader, g *mocks.MockGrader) {
				g.On("Grade", mock.Anything, mock.Anything).
					Return([]byte(`{"score":88,"breakdown":{"accuracy":4,"clarity":3,"concepts":4}}`), nil).Once()
			},
			check: func(t *testing.T, err error) {
				assert.True(t, apperr.IsGrading(err))
				assert.Contains(t, err.Error(), "feedback is missing")
			},
		},
		{
			name: "collaborator failure passes through",
			req:  Request{DocumentID: "doc-1", Question: "Q", TeacherAnswer: "A"},
			setupMocks: func(u *mocks.MockUploader, g *mocks.MockGrader) {
				g.On("Grade", mock.Anything, mock.Anything).
					Return(nil, &apperr.GradingError{Reason: "grading service reported failure", StatusCode: 502}).Once()
			},
			check: func(t *testing.T, err error) {
				assert.True(t, apperr.IsGrading(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := new(mocks.MockUploader)
			g := new(mocks.MockGrader)
			tt.setupMocks(u, g)

			res, err := NewCoordinator(u, g, nil).Submit(ctx, tt.req)

			if tt.check != nil {
				require.Error(t, err)
				assert.Nil(t, res)
				tt.check(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantResult, res)
			}

			u.AssertExpectations(t)
			g.AssertExpectations(t)
			if tt.check != nil && apperr.IsTransfer(err) {
				g.AssertNotCalled(t, "Grade", mock.Anything, mock.Anything)
			}
		})
	}
}
