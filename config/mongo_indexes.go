package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes(db *mongo.Database) error {
	if db == nil {
		return errors.New("mongo database is nil; call InitMongo() first")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sessions := db.Collection("interview_sessions")
	_, err := sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "interview_id", Value: 1}},
			Options: options.Index().SetName("uniq_interview_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "candidate_id", Value: 1}, {Key: "started_at", Value: -1}},
			Options: options.Index().SetName("by_candidate_started"),
		},
	})
	if err != nil {
		return err
	}

	answers := db.Collection("interview_answers")
	_, err = answers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// one document per question; resubmission overwrites
		{
			Keys:    bson.D{{Key: "interview_id", Value: 1}, {Key: "question_id", Value: 1}},
			Options: options.Index().SetName("uniq_interview_question").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "analysis_status", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("by_analysis_status"),
		},
	})
	return err
}
