package dbmongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// MediaStore persists one association record per message attachment. The
// records mirror the relational attachment rows so media cleanup jobs can
// find everything a message owns without touching MySQL.
type MediaStore struct {
	collection *mongo.Collection
}

func NewMediaStore(mongoClient *MongoClient) *MediaStore {
	return &MediaStore{
		collection: mongoClient.Database.Collection("media"),
	}
}

type MediaRecord struct {
	UserID     string    `bson:"user_id"`
	MessageID  string    `bson:"message_id"`
	URL        string    `bson:"url"`
	Type       string    `bson:"type"` // image or video
	TargetType string    `bson:"target_type"`
	TargetID   string    `bson:"target_id"`
	CreatedAt  time.Time `bson:"created_at"`
}

// ClassifyURL maps an attachment URL to a media type by extension.
func ClassifyURL(url string) string {
	if strings.HasSuffix(url, ".mp4") {
		return "video"
	}
	return "image"
}

// SaveMessageMedia inserts one media document per attachment URL, keyed by
// the owning message.
func (ms *MediaStore) SaveMessageMedia(ctx context.Context, senderID, messageID string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(urls))
	for _, url := range urls {
		docs = append(docs, MediaRecord{
			UserID:     senderID,
			MessageID:  messageID,
			URL:        url,
			Type:       ClassifyURL(url),
			TargetType: "message",
			TargetID:   messageID,
			CreatedAt:  now,
		})
	}

	if _, err := ms.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to save media records: %w", err)
	}
	return nil
}
