package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classdeck-quiz-service/internal/domain"
)

const (
	sessionsCollection  = "quiz_sessions"
	responsesCollection = "responses"
)

// Archive persists session and response documents in MongoDB. The live
// runtime is the source of truth while a session runs; these documents are
// what survives a restart and what reporting reads after the fact.
type Archive struct {
	sessions  *mongo.Collection
	responses *mongo.Collection
}

func NewArchive(db *mongo.Database) *Archive {
	return &Archive{
		sessions:  db.Collection(sessionsCollection),
		responses: db.Collection(responsesCollection),
	}
}

// SaveSession upserts the shared session document, keyed by teacher UID.
func (a *Archive) SaveSession(ctx context.Context, session domain.QuizSession) error {
	_, err := a.sessions.ReplaceOne(
		ctx,
		bson.M{"_id": session.ID},
		session,
		options.Replace().SetUpsert(true),
	)
	return err
}

// SaveResponse upserts one student's response, keyed by (session, student).
func (a *Archive) SaveResponse(ctx context.Context, sessionID string, response domain.StudentResponse) error {
	doc := responseDoc{
		SessionID:       sessionID,
		StudentResponse: response,
	}
	_, err := a.responses.ReplaceOne(
		ctx,
		bson.M{"sessionId": sessionID, "studentUid": response.StudentUID},
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}

// PurgeResponses removes every response for a session, so a restarted quiz
// never shows stale answers.
func (a *Archive) PurgeResponses(ctx context.Context, sessionID string) error {
	_, err := a.responses.DeleteMany(ctx, bson.M{"sessionId": sessionID})
	return err
}

// ListResponses returns all archived responses for a session.
func (a *Archive) ListResponses(ctx context.Context, sessionID string) ([]domain.StudentResponse, error) {
	cursor, err := a.responses.Find(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []responseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	responses := make([]domain.StudentResponse, 0, len(docs))
	for _, d := range docs {
		responses = append(responses, d.StudentResponse)
	}
	return responses, nil
}

// responseDoc scopes a response to its session in the flat collection. The
// inline response contributes the document _id.
type responseDoc struct {
	SessionID              string `bson:"sessionId"`
	domain.StudentResponse `bson:",inline"`
}
