package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/evalia-labs/paperdesk-backend/internal/apperr"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
)

// QuestionStore handles question bank access in the questions collection.
type QuestionStore struct {
	col *mongo.Collection
}

// NewQuestionStore creates a new QuestionStore on the given database.
func NewQuestionStore(db *mongo.Database) *QuestionStore {
	return &QuestionStore{col: db.Collection("questions")}
}

type answerKeyDoc struct {
	CorrectOptionIndex   *int              `bson:"correct_option_index,omitempty"`
	CorrectOptionIndices []int             `bson:"correct_option_indices,omitempty"`
	CorrectBool          *bool             `bson:"correct_bool,omitempty"`
	CorrectText          string            `bson:"correct_text,omitempty"`
	AcceptedAnswers      []string          `bson:"accepted_answers,omitempty"`
	CorrectValue         *float64          `bson:"correct_value,omitempty"`
	Tolerance            float64           `bson:"tolerance,omitempty"`
	CorrectPairs         map[string]string `bson:"correct_pairs,omitempty"`
}

type questionDoc struct {
	ID          string       `bson:"_id"`
	TenantID    string       `bson:"tenant_id"`
	Type        string       `bson:"type"`
	Text        string       `bson:"question_text"`
	Options     []string     `bson:"options,omitempty"`
	AnswerKey   answerKeyDoc `bson:"answer_key"`
	Solution    string       `bson:"solution,omitempty"`
	Explanation string       `bson:"explanation,omitempty"`
	Marks       float64      `bson:"marks"`
	UsageCount  int          `bson:"usage_paper_count"`
	CreatedAt   time.Time    `bson:"created_at"`
	UpdatedAt   time.Time    `bson:"updated_at"`
}

// Create inserts a new bank question document.
func (s *QuestionStore) Create(ctx context.Context, q *model.Question) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	now := time.Now().UTC()
	q.CreatedAt, q.UpdatedAt = now, now

	_, err := s.col.InsertOne(ctx, questionToDoc(q))
	return err
}

// FindByID fetches one question by id.
func (s *QuestionStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	var doc questionDoc
	err := s.col.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("question", id.String())
		}
		return nil, err
	}
	return docToQuestion(&doc)
}

// FindMany fetches the questions found for ids; missing ids are omitted.
func (s *QuestionStore) FindMany(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	strIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, id.String())
	}

	cur, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": strIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var questions []model.Question
	for cur.Next(ctx) {
		var doc questionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		q, err := docToQuestion(&doc)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, cur.Err()
}

// IncrementUsage applies a signed delta to usage_paper_count atomically,
// clamped at zero. A pipeline update keeps the add and the clamp inside a
// single document write.
func (s *QuestionStore) IncrementUsage(ctx context.Context, id uuid.UUID, delta int) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		mongo.Pipeline{
			{{Key: "$set", Value: bson.M{
				"usage_paper_count": bson.M{
					"$max": bson.A{0, bson.M{"$add": bson.A{"$usage_paper_count", delta}}},
				},
				"updated_at": time.Now().UTC(),
			}}},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("question", id.String())
	}
	return nil
}

func questionToDoc(q *model.Question) *questionDoc {
	return &questionDoc{
		ID:       q.ID.String(),
		TenantID: q.TenantID,
		Type:     string(q.Type),
		Text:     q.Text,
		Options:  q.Options,
		AnswerKey: answerKeyDoc{
			CorrectOptionIndex:   q.AnswerKey.CorrectOptionIndex,
			CorrectOptionIndices: q.AnswerKey.CorrectOptionIndices,
			CorrectBool:          q.AnswerKey.CorrectBool,
			CorrectText:          q.AnswerKey.CorrectText,
			AcceptedAnswers:      q.AnswerKey.AcceptedAnswers,
			CorrectValue:         q.AnswerKey.CorrectValue,
			Tolerance:            q.AnswerKey.Tolerance,
			CorrectPairs:         q.AnswerKey.CorrectPairs,
		},
		Solution:    q.Solution,
		Explanation: q.Explanation,
		Marks:       q.Metadata.Marks,
		UsageCount:  q.Usage.PaperCount,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func docToQuestion(doc *questionDoc) (*model.Question, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}
	return &model.Question{
		ID:       id,
		TenantID: doc.TenantID,
		Type:     model.QuestionType(doc.Type),
		Text:     doc.Text,
		Options:  doc.Options,
		AnswerKey: model.AnswerKey{
			CorrectOptionIndex:   doc.AnswerKey.CorrectOptionIndex,
			CorrectOptionIndices: doc.AnswerKey.CorrectOptionIndices,
			CorrectBool:          doc.AnswerKey.CorrectBool,
			CorrectText:          doc.AnswerKey.CorrectText,
			AcceptedAnswers:      doc.AnswerKey.AcceptedAnswers,
			CorrectValue:         doc.AnswerKey.CorrectValue,
			Tolerance:            doc.AnswerKey.Tolerance,
			CorrectPairs:         doc.AnswerKey.CorrectPairs,
		},
		Solution:    doc.Solution,
		Explanation: doc.Explanation,
		Metadata:    model.QuestionMetadata{Marks: doc.Marks},
		Usage:       model.QuestionUsage{PaperCount: doc.UsageCount},
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}
